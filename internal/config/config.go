package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samijaber1/aegis-canary/internal/eval"
	"github.com/samijaber1/aegis-canary/internal/probe"
)

// Config holds analysis configuration
type Config struct {
	// Deployment names; usually supplied as arguments or via the environment
	CanaryApp     string `yaml:"canaryApp,omitempty"`
	ProductionApp string `yaml:"productionApp,omitempty"`

	Platform PlatformConfig `yaml:"platform"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Rollback RollbackConfig `yaml:"rollback"`
}

// PlatformConfig describes how deployment names map to URLs
type PlatformConfig struct {
	URLTemplate string `yaml:"urlTemplate"`
	HealthPath  string `yaml:"healthPath"`
}

// AnalysisConfig holds the sampling window and threshold
type AnalysisConfig struct {
	Duration              Duration `yaml:"duration"`
	Interval              Duration `yaml:"interval"`
	ErrorThresholdPercent float64  `yaml:"errorThresholdPercent"`
	ProbeTimeout          Duration `yaml:"probeTimeout"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Format string `yaml:"format"` // "text" or "json"
	Level  string `yaml:"level"`
}

// MetricsConfig holds Pushgateway settings. Empty URL disables pushing.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayURL,omitempty"`
	Job            string `yaml:"job"`
}

// RollbackConfig holds the platform CLI used for rollbacks
type RollbackConfig struct {
	Command string `yaml:"command"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Platform: PlatformConfig{
			URLTemplate: probe.DefaultURLTemplate,
			HealthPath:  probe.DefaultHealthPath,
		},
		Analysis: AnalysisConfig{
			Duration:              Duration(60 * time.Second),
			Interval:              Duration(10 * time.Second),
			ErrorThresholdPercent: 1,
			ProbeTimeout:          Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Job: "aegis_canary",
		},
		Rollback: RollbackConfig{
			Command: "heroku",
		},
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if !strings.Contains(c.Platform.URLTemplate, probe.NamePlaceholder) {
		return fmt.Errorf("platform.urlTemplate must contain %s", probe.NamePlaceholder)
	}

	if !strings.HasPrefix(c.Platform.HealthPath, "/") {
		return fmt.Errorf("platform.healthPath must start with '/'")
	}

	if c.Analysis.Interval <= 0 {
		return fmt.Errorf("analysis.interval must be positive")
	}

	if c.Analysis.ErrorThresholdPercent < 0 || c.Analysis.ErrorThresholdPercent > 100 {
		return fmt.Errorf("analysis.errorThresholdPercent must be within [0, 100], got %v",
			c.Analysis.ErrorThresholdPercent)
	}

	if c.Analysis.ProbeTimeout <= 0 {
		return fmt.Errorf("analysis.probeTimeout must be positive")
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}

	if c.Metrics.PushgatewayURL != "" && c.Metrics.Job == "" {
		return fmt.Errorf("metrics.job is required when metrics.pushgatewayURL is set")
	}

	if c.Rollback.Command == "" {
		return fmt.Errorf("rollback.command is required")
	}

	return nil
}

// EvalConfig returns the sampling configuration for the evaluator
func (a AnalysisConfig) EvalConfig() eval.Config {
	return eval.Config{
		Duration:              a.Duration.Std(),
		Interval:              a.Interval.Std(),
		ErrorThresholdPercent: a.ErrorThresholdPercent,
	}
}

// HTTPConfig returns the prober configuration
func (c *Config) HTTPConfig() probe.HTTPConfig {
	return probe.HTTPConfig{
		HealthPath: c.Platform.HealthPath,
		Timeout:    c.Analysis.ProbeTimeout.Std(),
	}
}
