package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/samijaber1/aegis-canary/internal/config"
)

// New builds the process logger from configuration
func New(cfg config.LoggingConfig, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = out

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.Level = lvl

	switch cfg.Format {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return log, nil
}
