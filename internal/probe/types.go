package probe

import (
	"context"
	"time"
)

// Role identifies which side of the comparison a target is on
type Role string

const (
	RoleCanary     Role = "canary"
	RoleProduction Role = "production"
)

// Target is a probeable service instance resolved from a deployment name
type Target struct {
	Name    string
	Role    Role
	BaseURL string
}

// Result is the outcome of a single health check.
// Only Healthy feeds the canary statistics; the other fields are diagnostics.
type Result struct {
	Healthy    bool
	StatusCode int // 0 for transport errors
	Latency    time.Duration
	Error      string
	CheckedAt  time.Time
}

// Prober answers whether a target is currently healthy.
// Implementations absorb every transport failure into Healthy=false.
type Prober interface {
	Probe(ctx context.Context, target Target) Result
}
