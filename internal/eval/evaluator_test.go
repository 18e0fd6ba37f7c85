package eval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samijaber1/aegis-canary/internal/eval"
	"github.com/samijaber1/aegis-canary/internal/policy"
	"github.com/samijaber1/aegis-canary/internal/probe"
	"github.com/samijaber1/aegis-canary/internal/scheduler"
)

var (
	canaryTarget     = probe.Target{Name: "shop-canary", Role: probe.RoleCanary, BaseURL: "https://shop-canary.example"}
	productionTarget = probe.Target{Name: "shop", Role: probe.RoleProduction, BaseURL: "https://shop.example"}
	defaultWindow    = eval.Config{Duration: 60 * time.Second, Interval: 10 * time.Second, ErrorThresholdPercent: 1}
)

type recordingObserver struct {
	ticks    []eval.TickResult
	verdicts []*eval.Verdict
}

func (r *recordingObserver) ObserveTick(_, _ probe.Target, tick eval.TickResult) {
	r.ticks = append(r.ticks, tick)
}

func (r *recordingObserver) ObserveVerdict(v *eval.Verdict) {
	r.verdicts = append(r.verdicts, v)
}

func newEvaluator(canary, production []bool) (*eval.Evaluator, *probe.Scripted, *scheduler.ManualClock) {
	prober := probe.NewScripted()
	prober.SetScript(canaryTarget.Name, canary...)
	prober.SetScript(productionTarget.Name, production...)

	clock := scheduler.NewManualClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	evaluator := eval.NewEvaluator(prober, policy.NewEngine())
	evaluator.SetClock(clock)
	return evaluator, prober, clock
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		canary        []bool
		production    []bool
		cfg           eval.Config
		wantPromote   bool
		wantFailures  int
		wantErrorRate float64
	}{
		{
			name:          "all healthy",
			canary:        repeat(true, 6),
			production:    repeat(true, 6),
			cfg:           defaultWindow,
			wantPromote:   true,
			wantErrorRate: 0,
		},
		{
			name:          "all unhealthy",
			canary:        repeat(false, 6),
			production:    repeat(true, 6),
			cfg:           defaultWindow,
			wantPromote:   false,
			wantFailures:  6,
			wantErrorRate: 100,
		},
		{
			name:          "one failure out of six",
			canary:        []bool{true, true, false, true, true, true},
			production:    repeat(true, 6),
			cfg:           defaultWindow,
			wantPromote:   false,
			wantFailures:  1,
			wantErrorRate: 100.0 / 6,
		},
		{
			name:          "production failing does not block a healthy canary",
			canary:        repeat(true, 6),
			production:    repeat(false, 6),
			cfg:           defaultWindow,
			wantPromote:   true,
			wantErrorRate: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator, _, _ := newEvaluator(tt.canary, tt.production)

			verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPromote, verdict.Promote, "reasons: %v", verdict.Reasons)
			assert.Equal(t, 6, verdict.TotalChecks)
			assert.Equal(t, tt.wantFailures, verdict.FailureCount)
			assert.Equal(t, verdict.TotalChecks, verdict.SuccessCount+verdict.FailureCount)
			assert.InDelta(t, tt.wantErrorRate, verdict.ErrorRatePercent, 1e-9)
		})
	}
}

func TestEvaluate_ThresholdBoundary(t *testing.T) {
	cfg := eval.Config{Duration: 40 * time.Second, Interval: 10 * time.Second}
	canary := []bool{true, false, true, true}

	cfg.ErrorThresholdPercent = 25
	evaluator, _, _ := newEvaluator(canary, repeat(true, 4))
	verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)
	require.NoError(t, err)
	assert.Equal(t, 25.0, verdict.ErrorRatePercent)
	assert.True(t, verdict.Promote, "rate equal to threshold must promote")

	cfg.ErrorThresholdPercent = 24.999
	evaluator, _, _ = newEvaluator(canary, repeat(true, 4))
	verdict, err = evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)
	require.NoError(t, err)
	assert.False(t, verdict.Promote, "rate above threshold must roll back")
	assert.Equal(t, policy.DecisionROLLBACK, verdict.Decision)
}

func TestEvaluate_DecisionMatchesRateForAllSequences(t *testing.T) {
	thresholds := []float64{0, 1, 16.0, 50, 100}

	for mask := 0; mask < 1<<6; mask++ {
		canary := make([]bool, 6)
		failures := 0
		for i := range canary {
			canary[i] = mask&(1<<i) == 0
			if !canary[i] {
				failures++
			}
		}

		for _, threshold := range thresholds {
			cfg := defaultWindow
			cfg.ErrorThresholdPercent = threshold

			evaluator, _, _ := newEvaluator(canary, repeat(true, 6))
			verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)
			require.NoError(t, err)

			rate := float64(failures) / 6 * 100
			assert.Equal(t, rate <= threshold, verdict.Promote, "mask=%06b threshold=%v", mask, threshold)
			assert.Equal(t, failures, verdict.FailureCount)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	canary := []bool{true, false, true, true, false, true}
	production := []bool{false, true, true, true, true, true}

	first, _, _ := newEvaluator(canary, production)
	v1, err := first.Evaluate(context.Background(), canaryTarget, productionTarget, defaultWindow)
	require.NoError(t, err)

	second, _, _ := newEvaluator(canary, production)
	v2, err := second.Evaluate(context.Background(), canaryTarget, productionTarget, defaultWindow)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestEvaluate_ZeroTicks(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
	}{
		{"duration shorter than interval", 5 * time.Second},
		{"zero duration", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator, prober, _ := newEvaluator(repeat(true, 1), repeat(true, 1))
			cfg := eval.Config{Duration: tt.duration, Interval: 10 * time.Second, ErrorThresholdPercent: 1}

			verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)

			assert.ErrorIs(t, err, eval.ErrNoObservations)
			assert.Nil(t, verdict)
			assert.Zero(t, prober.Calls(canaryTarget.Name))
		})
	}
}

func TestEvaluate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  eval.Config
	}{
		{"zero interval", eval.Config{Duration: time.Minute, ErrorThresholdPercent: 1}},
		{"negative duration", eval.Config{Duration: -time.Second, Interval: time.Second}},
		{"threshold above 100", eval.Config{Duration: time.Minute, Interval: time.Second, ErrorThresholdPercent: 101}},
		{"negative threshold", eval.Config{Duration: time.Minute, Interval: time.Second, ErrorThresholdPercent: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator, _, _ := newEvaluator(nil, nil)
			_, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, tt.cfg)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, eval.ErrNoObservations)
		})
	}
}

func TestEvaluate_ProbesSequentiallyAndWaitsBetweenTicks(t *testing.T) {
	evaluator, prober, clock := newEvaluator(repeat(true, 6), repeat(true, 6))

	verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, defaultWindow)
	require.NoError(t, err)

	assert.Equal(t, 6, prober.Calls(canaryTarget.Name))
	assert.Equal(t, 6, prober.Calls(productionTarget.Name))
	assert.Equal(t, 5, clock.Waits())
	assert.Equal(t, 50*time.Second, verdict.CompletedAt.Sub(verdict.StartedAt))
}

func TestEvaluate_PartialIntervalStillSampled(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		want     int
	}{
		{"one and a half intervals", 15 * time.Second, 2},
		{"six and a half intervals", 65 * time.Second, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator, prober, clock := newEvaluator(repeat(true, 1), repeat(true, 1))
			cfg := eval.Config{Duration: tt.duration, Interval: 10 * time.Second, ErrorThresholdPercent: 1}

			verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.want, verdict.TotalChecks)
			assert.Equal(t, tt.want, prober.Calls(canaryTarget.Name))
			assert.Equal(t, tt.want-1, clock.Waits())
			assert.True(t, verdict.Promote)
		})
	}
}

func TestEvaluate_ObserversSeeRunningTally(t *testing.T) {
	evaluator, _, _ := newEvaluator([]bool{true, false, true}, []bool{true, false, true})
	obs := &recordingObserver{}
	evaluator.AddObserver(obs)

	cfg := eval.Config{Duration: 30 * time.Second, Interval: 10 * time.Second, ErrorThresholdPercent: 50}
	verdict, err := evaluator.Evaluate(context.Background(), canaryTarget, productionTarget, cfg)
	require.NoError(t, err)

	require.Len(t, obs.ticks, 3)
	assert.Equal(t, 1, obs.ticks[0].SuccessCount)
	assert.Equal(t, 1, obs.ticks[1].FailureCount)
	assert.Equal(t, 3, obs.ticks[2].Total())
	assert.Equal(t, 20*time.Second, obs.ticks[2].Elapsed)
	assert.False(t, obs.ticks[1].Production.Healthy)

	require.Len(t, obs.verdicts, 1)
	assert.Same(t, verdict, obs.verdicts[0])
	assert.Equal(t, 1, verdict.ProductionFailures)
	assert.True(t, verdict.Promote)
}

func TestEvaluate_Cancelled(t *testing.T) {
	prober := probe.NewScripted()
	prober.SetScript(canaryTarget.Name, true)
	prober.SetScript(productionTarget.Name, true)

	evaluator := eval.NewEvaluator(prober, policy.NewEngine())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdict, err := evaluator.Evaluate(ctx, canaryTarget, productionTarget,
		eval.Config{Duration: time.Hour, Interval: time.Minute, ErrorThresholdPercent: 1})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, verdict)
}

func TestComputeErrorRate(t *testing.T) {
	tests := []struct {
		name         string
		failed       int
		total        int
		want         float64
		insufficient bool
	}{
		{"no failures", 0, 6, 0, false},
		{"all failures", 6, 6, 100, false},
		{"quarter", 1, 4, 25, false},
		{"zero total", 0, 0, 0, true},
		{"failures clamped to total", 8, 4, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval.ComputeErrorRate(tt.failed, tt.total)
			assert.Equal(t, tt.insufficient, got.InsufficientData)
			assert.InDelta(t, tt.want, got.Percent, 1e-9)
		})
	}
}
