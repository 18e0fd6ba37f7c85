package policy

import (
	"fmt"
)

// Engine applies the error-rate threshold and produces gate decisions
type Engine struct{}

// NewEngine creates a new policy engine
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate produces a decision from canary statistics.
// The threshold is inclusive: a rate equal to it promotes.
func (e *Engine) Evaluate(stats Stats) *GateResult {
	result := &GateResult{
		Decision: DecisionROLLBACK,
		Reasons:  []string{},
	}

	if stats.TotalChecks == 0 {
		result.Reasons = append(result.Reasons, "no observations (zero canary checks)")
		return result
	}

	if stats.ErrorRatePercent <= stats.ThresholdPercent {
		result.Decision = DecisionPROMOTE
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"error rate %.2f%% within threshold %.2f%% (%d/%d failed)",
			stats.ErrorRatePercent, stats.ThresholdPercent, stats.FailureCount, stats.TotalChecks,
		))
	} else {
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"error rate %.2f%% exceeds threshold %.2f%% (%d/%d failed)",
			stats.ErrorRatePercent, stats.ThresholdPercent, stats.FailureCount, stats.TotalChecks,
		))
	}

	// Production is the baseline; its failures are surfaced but never gate.
	if stats.ProductionFailures > 0 {
		result.ProductionDegraded = true
		result.Reasons = append(result.Reasons, fmt.Sprintf(
			"production failed %d/%d health checks (informational)",
			stats.ProductionFailures, stats.ProductionChecks,
		))
	}

	return result
}
