package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samijaber1/aegis-canary/internal/config"
	"github.com/samijaber1/aegis-canary/internal/eval"
	"github.com/samijaber1/aegis-canary/internal/logging"
	"github.com/samijaber1/aegis-canary/internal/metrics"
	"github.com/samijaber1/aegis-canary/internal/policy"
	"github.com/samijaber1/aegis-canary/internal/probe"
	"github.com/samijaber1/aegis-canary/internal/report"
	"github.com/samijaber1/aegis-canary/internal/rollback"
	"github.com/samijaber1/aegis-canary/internal/scheduler"
)

// Exit codes consumed by the deployment pipeline
const (
	exitPromote  = 0
	exitRollback = 1
)

const pushTimeout = 10 * time.Second

type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	clock  scheduler.Clock
	runner rollback.Runner
	log    *logrus.Logger
}

func main() {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		clock:  scheduler.SystemClock{},
		runner: rollback.ExecRunner{},
	}
	os.Exit(a.run(os.Args[1:]))
}

func (a *app) run(args []string) (code int) {
	// Anything unexpected fails closed
	defer func() {
		if r := recover(); r != nil {
			log := a.log
			if log == nil {
				log = logrus.New()
				log.SetOutput(a.stderr)
			}
			log.WithField("panic", fmt.Sprint(r)).Error("canary analysis failed unexpectedly, recommending rollback")
			code = exitRollback
		}
	}()

	if len(args) < 1 {
		a.printUsage()
		return exitRollback
	}

	switch args[0] {
	case "analyze":
		return a.runAnalyze(args[1:])
	case "rollback":
		return a.runRollback(args[1:])
	case "validate":
		return a.runValidate(args[1:])
	default:
		a.printUsage()
		return exitRollback
	}
}

func (a *app) printUsage() {
	fmt.Fprintln(a.stderr, "Usage: aegis-canary <command> [options]")
	fmt.Fprintln(a.stderr)
	fmt.Fprintln(a.stderr, "Commands:")
	fmt.Fprintln(a.stderr, "  analyze [options] [canary-app] [production-app]   Observe the canary and decide promote (exit 0) or rollback (exit 1)")
	fmt.Fprintln(a.stderr, "  rollback [options] [app]                          Roll an app back to its previous release")
	fmt.Fprintln(a.stderr, "  validate --config <path>                          Validate a configuration file")
	fmt.Fprintln(a.stderr)
	fmt.Fprintf(a.stderr, "App names default to $%s and $%s%s.\n", config.EnvBaseAppName, config.EnvBaseAppName, config.CanarySuffix)
}

type analyzeFlags struct {
	configPath  string
	duration    string
	interval    string
	timeout     string
	threshold   float64
	output      string
	fixture     string
	pushgateway string
}

func (a *app) runAnalyze(args []string) int {
	var f analyzeFlags
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.StringVar(&f.configPath, "config", "", "path to configuration file (YAML)")
	fs.StringVar(&f.duration, "duration", "", "observation window, e.g. 60s")
	fs.StringVar(&f.interval, "interval", "", "time between checks, e.g. 10s")
	fs.StringVar(&f.timeout, "timeout", "", "per-request probe timeout, e.g. 10s")
	fs.Float64Var(&f.threshold, "threshold", 0, "maximum tolerable canary error rate in percent (inclusive)")
	fs.StringVar(&f.output, "output", "text", "verdict format: json writes the verdict document to stdout, text only logs the summary to stderr (text|json)")
	fs.StringVar(&f.fixture, "fixture", "", "replay scripted probe outcomes from a YAML fixture instead of probing")
	fs.StringVar(&f.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL")
	if err := fs.Parse(args); err != nil {
		return exitRollback
	}

	if f.output != "text" && f.output != "json" {
		fmt.Fprintf(a.stderr, "Error: --output must be 'text' or 'json'\n")
		return exitRollback
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: failed to load config: %v\n", err)
		return exitRollback
	}
	if err := applyOverrides(fs, &f, &cfg); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitRollback
	}

	log, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitRollback
	}
	a.log = log

	names, err := config.ResolveAppNames(fs.Args(), cfg, a.getenv)
	if err != nil {
		if errors.Is(err, config.ErrMissingAppNames) {
			fmt.Fprintln(a.stderr, "Error: Insufficient app names provided.")
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		a.printUsage()
		return exitRollback
	}

	resolver, err := probe.NewResolver(cfg.Platform.URLTemplate)
	if err != nil {
		log.WithError(err).Error("invalid platform configuration")
		return exitRollback
	}
	canary, err := resolver.Resolve(names.Canary, probe.RoleCanary)
	if err != nil {
		log.WithError(err).Error("cannot resolve canary target")
		return exitRollback
	}
	production, err := resolver.Resolve(names.Production, probe.RoleProduction)
	if err != nil {
		log.WithError(err).Error("cannot resolve production target")
		return exitRollback
	}

	log.WithFields(logrus.Fields{
		"canary":            canary.BaseURL,
		"canary_source":     names.CanarySource,
		"production":        production.BaseURL,
		"production_source": names.ProductionSource,
	}).Debug("resolved targets")

	var prober probe.Prober
	if f.fixture != "" {
		scripted := probe.NewScripted()
		if err := scripted.LoadFixture(f.fixture); err != nil {
			log.WithError(err).Error("cannot load probe fixture")
			return exitRollback
		}
		log.WithField("fixture", f.fixture).Warn("replaying scripted probe outcomes, no requests will be sent")
		prober = scripted
	} else {
		prober = probe.NewHTTPProber(cfg.HTTPConfig(), log)
	}

	evalCfg := cfg.Analysis.EvalConfig()
	narrator := report.NewNarrator(log)
	recorder := metrics.NewRecorder(canary.Name)

	evaluator := eval.NewEvaluator(prober, policy.NewEngine())
	evaluator.SetClock(a.clock)
	evaluator.AddObserver(narrator)
	evaluator.AddObserver(recorder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	narrator.Start(canary, production, evalCfg)
	verdict, err := evaluator.Evaluate(ctx, canary, production, evalCfg)
	if err != nil {
		log.WithError(err).Error("canary analysis failed")
		return exitRollback
	}

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if err := recorder.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			log.WithError(err).Warn("failed to push metrics")
		}
		cancel()
	}

	if f.output == "json" {
		if err := report.WriteJSON(a.stdout, verdict); err != nil {
			log.WithError(err).Error("failed to write verdict")
			return exitRollback
		}
	}

	if verdict.Promote {
		return exitPromote
	}
	return exitRollback
}

// applyOverrides copies explicitly set flags onto the loaded configuration
func applyOverrides(fs *flag.FlagSet, f *analyzeFlags, cfg *config.Config) error {
	var errs []string
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "duration", "interval", "timeout":
			d, err := config.ParseDuration(fl.Value.String())
			if err != nil {
				errs = append(errs, fmt.Sprintf("--%s: %v", fl.Name, err))
				return
			}
			switch fl.Name {
			case "duration":
				cfg.Analysis.Duration = config.Duration(d)
			case "interval":
				cfg.Analysis.Interval = config.Duration(d)
			case "timeout":
				cfg.Analysis.ProbeTimeout = config.Duration(d)
			}
		case "threshold":
			cfg.Analysis.ErrorThresholdPercent = f.threshold
		case "pushgateway":
			cfg.Metrics.PushgatewayURL = f.pushgateway
		}
	})
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return cfg.Validate()
}

func (a *app) runRollback(args []string) int {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "path to configuration file (YAML)")
	if err := fs.Parse(args); err != nil {
		return exitRollback
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: failed to load config: %v\n", err)
		return exitRollback
	}

	log, err := logging.New(cfg.Logging, a.stderr)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitRollback
	}
	a.log = log

	appName := strings.TrimSpace(fs.Arg(0))
	if appName == "" {
		appName = cfg.ProductionApp
	}
	if appName == "" {
		appName = a.getenv(config.EnvBaseAppName)
	}
	if appName == "" {
		appName = a.getenv(config.EnvHerokuAppName)
	}
	if appName == "" {
		fmt.Fprintln(a.stderr, "Error: No app name provided.")
		a.printUsage()
		return exitRollback
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := rollback.NewExecutor(a.runner, cfg.Rollback.Command, log)
	if err := executor.Rollback(ctx, appName); err != nil {
		log.WithError(err).Error("rollback failed")
		return exitRollback
	}
	return exitPromote
}

func (a *app) runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configPath := fs.String("config", "", "path to configuration file (YAML)")
	if err := fs.Parse(args); err != nil {
		return exitRollback
	}
	if *configPath == "" {
		fmt.Fprintln(a.stderr, "Error: --config flag is required")
		fs.Usage()
		return exitRollback
	}

	if _, err := config.Load(*configPath); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			fmt.Fprintf(a.stderr, "✗ Validation failed with %d error(s):\n\n", len(verrs))
			for _, ve := range verrs {
				fmt.Fprintln(a.stderr, ve.Error())
			}
			return exitRollback
		}
		fmt.Fprintf(a.stderr, "✗ %v\n", err)
		return exitRollback
	}

	fmt.Fprintln(a.stdout, "✓ Configuration is valid")
	return exitPromote
}
