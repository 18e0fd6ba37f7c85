package policy

// Decision represents a gate decision
type Decision string

const (
	DecisionPROMOTE  Decision = "PROMOTE"
	DecisionROLLBACK Decision = "ROLLBACK"
)

// Stats are the aggregate canary statistics a decision is made from
type Stats struct {
	TotalChecks        int
	FailureCount       int
	ErrorRatePercent   float64
	ThresholdPercent   float64
	ProductionChecks   int
	ProductionFailures int
}

// GateResult represents the final gate decision
type GateResult struct {
	Decision           Decision
	Reasons            []string
	ProductionDegraded bool
}

// Promote reports whether the canary should be promoted
func (g *GateResult) Promote() bool {
	return g.Decision == DecisionPROMOTE
}
