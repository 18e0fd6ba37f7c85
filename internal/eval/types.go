package eval

import (
	"time"

	"github.com/samijaber1/aegis-canary/internal/policy"
	"github.com/samijaber1/aegis-canary/internal/probe"
)

// Config is the sampling configuration for one analysis run
type Config struct {
	Duration              time.Duration
	Interval              time.Duration
	ErrorThresholdPercent float64
}

// Session is the run-scoped aggregate state of one analysis
type Session struct {
	Config             Config
	SuccessCount       int
	FailureCount       int
	ProductionChecks   int
	ProductionFailures int
	Elapsed            time.Duration
}

// TotalChecks returns the number of canary checks folded so far
func (s *Session) TotalChecks() int {
	return s.SuccessCount + s.FailureCount
}

func (s *Session) recordCanary(healthy bool) {
	if healthy {
		s.SuccessCount++
	} else {
		s.FailureCount++
	}
}

func (s *Session) recordProduction(healthy bool) {
	s.ProductionChecks++
	if !healthy {
		s.ProductionFailures++
	}
}

// TickResult is the progress after one sampling tick
type TickResult struct {
	Tick         int
	Ticks        int
	Elapsed      time.Duration
	Canary       probe.Result
	Production   probe.Result
	SuccessCount int
	FailureCount int
}

// Total returns the canary checks so far
func (t TickResult) Total() int {
	return t.SuccessCount + t.FailureCount
}

// ErrorRateResult is the computed canary error rate
type ErrorRateResult struct {
	Percent          float64
	InsufficientData bool
}

// Verdict is the terminal output of an analysis run
type Verdict struct {
	Promote            bool            `json:"promote"`
	Decision           policy.Decision `json:"decision"`
	Canary             string          `json:"canary"`
	Production         string          `json:"production"`
	ErrorRatePercent   float64         `json:"errorRatePercent"`
	ThresholdPercent   float64         `json:"thresholdPercent"`
	TotalChecks        int             `json:"totalChecks"`
	SuccessCount       int             `json:"successCount"`
	FailureCount       int             `json:"failureCount"`
	ProductionChecks   int             `json:"productionChecks"`
	ProductionFailures int             `json:"productionFailures"`
	Reasons            []string        `json:"reasons"`
	StartedAt          time.Time       `json:"startedAt"`
	CompletedAt        time.Time       `json:"completedAt"`
}

// Observer receives progress and the final verdict.
// Observers are for reporting only and cannot influence the decision.
type Observer interface {
	ObserveTick(canary, production probe.Target, tick TickResult)
	ObserveVerdict(v *Verdict)
}
