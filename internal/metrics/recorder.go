package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/samijaber1/aegis-canary/internal/eval"
	"github.com/samijaber1/aegis-canary/internal/probe"
)

const namespace = "aegis_canary"

// Recorder collects analysis metrics in a private registry so that a
// short-lived run can push them to a Pushgateway.
type Recorder struct {
	registry  *prometheus.Registry
	checks    *prometheus.CounterVec
	errorRate prometheus.Gauge
	observed  prometheus.Gauge
	promote   prometheus.Gauge
	canary    string
}

// NewRecorder creates a recorder for the given canary deployment
func NewRecorder(canary string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		canary:   canary,
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Health checks performed, by target role and outcome.",
			},
			[]string{"role", "outcome"},
		),
		errorRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "error_rate_percent",
			Help:      "Canary error rate over the observation window.",
		}),
		observed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_observed",
			Help:      "Canary checks folded into the verdict.",
		}),
		promote: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "promote",
			Help:      "1 if the canary was recommended for promotion, 0 for rollback.",
		}),
	}

	r.registry.MustRegister(r.checks, r.errorRate, r.observed, r.promote)
	return r
}

// Gatherer exposes the underlying registry
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveTick implements eval.Observer
func (r *Recorder) ObserveTick(canary, production probe.Target, tick eval.TickResult) {
	r.checks.WithLabelValues(string(canary.Role), outcome(tick.Canary.Healthy)).Inc()
	r.checks.WithLabelValues(string(production.Role), outcome(tick.Production.Healthy)).Inc()
}

// ObserveVerdict implements eval.Observer
func (r *Recorder) ObserveVerdict(v *eval.Verdict) {
	r.errorRate.Set(v.ErrorRatePercent)
	r.observed.Set(float64(v.TotalChecks))
	if v.Promote {
		r.promote.Set(1)
	} else {
		r.promote.Set(0)
	}
}

// Push sends the collected metrics to a Pushgateway, grouped by canary
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("canary", r.canary).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}

func outcome(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
