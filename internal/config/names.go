package config

import (
	"errors"
	"fmt"
	"strings"
)

// Environment variables consulted for deployment names
const (
	EnvBaseAppName   = "BASE_APP_NAME"
	EnvHerokuAppName = "HEROKU_APP_NAME"
)

// CanarySuffix derives the canary name from the production name
const CanarySuffix = "-canary"

// ErrMissingAppNames is returned when no source yields both deployment names
var ErrMissingAppNames = errors.New("insufficient app names provided")

// NameSource records where a deployment name came from
type NameSource string

const (
	SourceArgument    NameSource = "argument"
	SourceConfig      NameSource = "config"
	SourceEnvironment NameSource = "environment"
	SourceNone        NameSource = "none"
)

// AppNames are the resolved canary and production deployment names
type AppNames struct {
	Canary           string
	Production       string
	CanarySource     NameSource
	ProductionSource NameSource
}

// ResolveAppNames picks each name from, in order: the positional argument
// (canary first, production second), the config file, the environment.
// It fails if either name stays empty.
func ResolveAppNames(args []string, cfg Config, getenv func(string) string) (AppNames, error) {
	if len(args) > 2 {
		return AppNames{}, fmt.Errorf("expected at most 2 app names, got %d", len(args))
	}

	base := strings.TrimSpace(getenv(EnvBaseAppName))
	if base == "" {
		base = strings.TrimSpace(getenv(EnvHerokuAppName))
	}
	var envCanary string
	if base != "" {
		envCanary = base + CanarySuffix
	}

	var names AppNames
	names.Canary, names.CanarySource = pick(argAt(args, 0), cfg.CanaryApp, envCanary)
	names.Production, names.ProductionSource = pick(argAt(args, 1), cfg.ProductionApp, base)

	if names.Canary == "" || names.Production == "" {
		return names, ErrMissingAppNames
	}
	return names, nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

func pick(arg, fromConfig, fromEnv string) (string, NameSource) {
	switch {
	case arg != "":
		return arg, SourceArgument
	case fromConfig != "":
		return fromConfig, SourceConfig
	case fromEnv != "":
		return fromEnv, SourceEnvironment
	default:
		return "", SourceNone
	}
}
