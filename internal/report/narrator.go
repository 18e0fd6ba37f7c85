package report

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samijaber1/aegis-canary/internal/eval"
	"github.com/samijaber1/aegis-canary/internal/probe"
)

// Narrator streams analysis progress and the final summary to a logger
type Narrator struct {
	log logrus.FieldLogger
}

// NewNarrator creates a narrator writing to log
func NewNarrator(log logrus.FieldLogger) *Narrator {
	return &Narrator{log: log}
}

// Start announces the analysis window
func (n *Narrator) Start(canary, production probe.Target, cfg eval.Config) {
	n.log.WithFields(logrus.Fields{
		"canary":     canary.Name,
		"production": production.Name,
		"duration":   cfg.Duration.String(),
		"interval":   cfg.Interval.String(),
		"threshold":  fmt.Sprintf("%.2f%%", cfg.ErrorThresholdPercent),
	}).Infof("starting canary analysis for %s", canary.Name)
}

// ObserveTick implements eval.Observer
func (n *Narrator) ObserveTick(canary, production probe.Target, tick eval.TickResult) {
	log := n.log.WithField("tick", fmt.Sprintf("%d/%d", tick.Tick, tick.Ticks))

	clog := log.WithFields(logrus.Fields{"role": canary.Role, "status": tick.Canary.StatusCode})
	if tick.Canary.Healthy {
		clog.Infof("canary health check passed (%d/%d)", tick.SuccessCount, tick.Total())
	} else {
		clog.WithField("error", tick.Canary.Error).
			Warnf("canary health check failed (%d/%d)", tick.FailureCount, tick.Total())
	}

	plog := log.WithFields(logrus.Fields{"role": production.Role, "status": tick.Production.StatusCode})
	if tick.Production.Healthy {
		plog.Info("production is healthy")
	} else {
		plog.WithField("error", tick.Production.Error).Warn("production health check failed")
	}
}

// ObserveVerdict implements eval.Observer
func (n *Narrator) ObserveVerdict(v *eval.Verdict) {
	log := n.log.WithFields(logrus.Fields{
		"canary":     v.Canary,
		"total":      v.TotalChecks,
		"successful": v.SuccessCount,
		"failed":     v.FailureCount,
		"error_rate": fmt.Sprintf("%.2f%%", v.ErrorRatePercent),
		"decision":   v.Decision,
	})

	log.Info("canary analysis results")
	for _, reason := range v.Reasons {
		log.Debug(reason)
	}

	if v.ProductionFailures > 0 {
		log.Warnf("production failed %d of %d health checks", v.ProductionFailures, v.ProductionChecks)
	}

	if v.Promote {
		log.Infof("canary deployment is healthy (error rate: %.2f%%), recommending promotion", v.ErrorRatePercent)
	} else {
		log.Warnf("canary deployment exceeds error threshold (error rate: %.2f%%), recommending rollback", v.ErrorRatePercent)
	}
}
