package eval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samijaber1/aegis-canary/internal/policy"
	"github.com/samijaber1/aegis-canary/internal/probe"
	"github.com/samijaber1/aegis-canary/internal/scheduler"
)

// ErrNoObservations is returned when a session ends without a single canary
// check, e.g. a duration shorter than the interval.
var ErrNoObservations = errors.New("no canary checks were performed")

// Validate checks if the sampling configuration is usable
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", c.Duration)
	}
	if c.ErrorThresholdPercent < 0 || c.ErrorThresholdPercent > 100 {
		return fmt.Errorf("error threshold must be within [0, 100], got %.2f", c.ErrorThresholdPercent)
	}
	return nil
}

// Evaluator runs the timed sampling loop and renders a verdict.
type Evaluator struct {
	prober    probe.Prober
	engine    *policy.Engine
	clock     scheduler.Clock
	observers []Observer
}

// NewEvaluator creates a new evaluator with the given prober.
func NewEvaluator(prober probe.Prober, engine *policy.Engine) *Evaluator {
	return &Evaluator{
		prober: prober,
		engine: engine,
		clock:  scheduler.SystemClock{},
	}
}

// SetClock replaces the time source (used for deterministic tests)
func (e *Evaluator) SetClock(clock scheduler.Clock) {
	e.clock = clock
}

// AddObserver registers a progress observer
func (e *Evaluator) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// Evaluate samples canary and production once per tick for the configured
// window, then decides whether the canary should be promoted. Production
// outcomes are informational and never change the decision.
func (e *Evaluator) Evaluate(ctx context.Context, canary, production probe.Target, cfg Config) (*Verdict, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	session := &Session{Config: cfg}
	window := scheduler.Window{Duration: cfg.Duration, Interval: cfg.Interval}
	ticks := window.Ticks()
	startedAt := e.clock.Now()

	err := scheduler.Run(ctx, e.clock, window, func(tick int, elapsed time.Duration) {
		canaryResult := e.prober.Probe(ctx, canary)
		session.recordCanary(canaryResult.Healthy)

		productionResult := e.prober.Probe(ctx, production)
		session.recordProduction(productionResult.Healthy)

		session.Elapsed = elapsed

		tr := TickResult{
			Tick:         tick,
			Ticks:        ticks,
			Elapsed:      elapsed,
			Canary:       canaryResult,
			Production:   productionResult,
			SuccessCount: session.SuccessCount,
			FailureCount: session.FailureCount,
		}
		for _, o := range e.observers {
			o.ObserveTick(canary, production, tr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sampling interrupted after %d check(s): %w", session.TotalChecks(), err)
	}

	total := session.TotalChecks()
	if total == 0 {
		return nil, fmt.Errorf("%w: duration %s is shorter than interval %s",
			ErrNoObservations, cfg.Duration, cfg.Interval)
	}

	rate := ComputeErrorRate(session.FailureCount, total)
	gate := e.engine.Evaluate(policy.Stats{
		TotalChecks:        total,
		FailureCount:       session.FailureCount,
		ErrorRatePercent:   rate.Percent,
		ThresholdPercent:   cfg.ErrorThresholdPercent,
		ProductionChecks:   session.ProductionChecks,
		ProductionFailures: session.ProductionFailures,
	})

	verdict := &Verdict{
		Promote:            gate.Promote(),
		Decision:           gate.Decision,
		Canary:             canary.Name,
		Production:         production.Name,
		ErrorRatePercent:   rate.Percent,
		ThresholdPercent:   cfg.ErrorThresholdPercent,
		TotalChecks:        total,
		SuccessCount:       session.SuccessCount,
		FailureCount:       session.FailureCount,
		ProductionChecks:   session.ProductionChecks,
		ProductionFailures: session.ProductionFailures,
		Reasons:            gate.Reasons,
		StartedAt:          startedAt,
		CompletedAt:        e.clock.Now(),
	}

	for _, o := range e.observers {
		o.ObserveVerdict(verdict)
	}

	return verdict, nil
}
