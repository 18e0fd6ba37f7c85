package probe

import (
	"fmt"
	"net/url"
	"strings"
)

// NamePlaceholder is substituted with the deployment name in URL templates
const NamePlaceholder = "{{name}}"

// DefaultURLTemplate maps a Heroku app name to its public URL
const DefaultURLTemplate = "https://" + NamePlaceholder + ".herokuapp.com"

// Resolver maps deployment names to targets
type Resolver struct {
	template string
}

// NewResolver creates a resolver for the given URL template
func NewResolver(template string) (*Resolver, error) {
	if !strings.Contains(template, NamePlaceholder) {
		return nil, fmt.Errorf("url template %q must contain %s", template, NamePlaceholder)
	}
	return &Resolver{template: template}, nil
}

// Resolve builds the target for a deployment name
func (r *Resolver) Resolve(name string, role Role) (Target, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Target{}, fmt.Errorf("empty %s deployment name", role)
	}

	raw := strings.TrimRight(strings.ReplaceAll(r.template, NamePlaceholder, name), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("resolve %s %q: %w", role, name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return Target{}, fmt.Errorf("resolve %s %q: %q is not an absolute URL", role, name, raw)
	}

	return Target{
		Name:    name,
		Role:    role,
		BaseURL: raw,
	}, nil
}
