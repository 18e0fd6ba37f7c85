package rollback

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner executes an external command and returns its combined output
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// Executor reverts a deployment to its previous release through the
// hosting platform CLI
type Executor struct {
	runner  Runner
	command string
	log     logrus.FieldLogger
}

// NewExecutor creates an executor invoking command (e.g. "heroku")
func NewExecutor(runner Runner, command string, log logrus.FieldLogger) *Executor {
	return &Executor{runner: runner, command: command, log: log}
}

// Rollback lists the current releases of app, then rolls it back one release
func (e *Executor) Rollback(ctx context.Context, app string) error {
	app = strings.TrimSpace(app)
	if app == "" {
		return fmt.Errorf("no app name provided")
	}

	log := e.log.WithField("app", app)
	log.Infof("starting rollback process for %s", app)

	releases, err := e.exec(ctx, log, "releases", "-a", app)
	if err != nil {
		return fmt.Errorf("list releases: %w", err)
	}
	log.Infof("current releases for %s:\n%s", app, releases)

	log.Infof("rolling back %s to previous version", app)
	if _, err := e.exec(ctx, log, "rollback", "-a", app); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	log.Infof("rollback completed for %s", app)
	return nil
}

func (e *Executor) exec(ctx context.Context, log logrus.FieldLogger, args ...string) (string, error) {
	line := e.command + " " + strings.Join(args, " ")
	log.Infof("executing: %s", line)

	out, err := e.runner.Run(ctx, e.command, args...)
	if err != nil {
		log.WithError(err).Errorf("error executing command: %s", strings.TrimSpace(out))
		return out, fmt.Errorf("%s: %w", line, err)
	}
	if trimmed := strings.TrimSpace(out); trimmed != "" {
		log.Debug(trimmed)
	}
	return out, nil
}
