package probe

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk format for scripted probe outcomes
type Fixture struct {
	Targets map[string][]bool `yaml:"targets"`
}

// Scripted is a deterministic prober that replays configured outcomes per
// deployment name. Once a script is exhausted its last outcome repeats.
// Names without a script are unhealthy.
type Scripted struct {
	mu      sync.Mutex
	scripts map[string][]bool
	calls   map[string]int
	now     func() time.Time
}

// NewScripted creates an empty scripted prober
func NewScripted() *Scripted {
	return &Scripted{
		scripts: make(map[string][]bool),
		calls:   make(map[string]int),
		now:     time.Now,
	}
}

// LoadFixture loads scripts from a YAML fixture file
func (s *Scripted) LoadFixture(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture: %w", err)
	}
	if len(fixture.Targets) == 0 {
		return fmt.Errorf("fixture %s defines no targets", path)
	}

	for name, outcomes := range fixture.Targets {
		s.SetScript(name, outcomes...)
	}
	return nil
}

// SetScript sets the outcome sequence for a deployment name
func (s *Scripted) SetScript(name string, outcomes ...bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[name] = append([]bool(nil), outcomes...)
	s.calls[name] = 0
}

// Calls returns how many times a deployment name was probed
func (s *Scripted) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// Probe implements the Prober interface
func (s *Scripted) Probe(_ context.Context, target Target) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.calls[target.Name]
	s.calls[target.Name] = n + 1

	res := Result{CheckedAt: s.now()}
	script := s.scripts[target.Name]
	if len(script) == 0 {
		res.Error = "no scripted outcome"
		return res
	}

	if n >= len(script) {
		n = len(script) - 1
	}
	res.Healthy = script[n]
	if res.Healthy {
		res.StatusCode = 200
	} else {
		res.StatusCode = 503
		res.Error = "scripted failure"
	}
	return res
}
