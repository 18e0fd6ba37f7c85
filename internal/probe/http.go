package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultHealthPath is the health endpoint every target exposes
const DefaultHealthPath = "/health"

// HTTPConfig holds HTTP prober configuration
type HTTPConfig struct {
	HealthPath string
	Timeout    time.Duration
}

// DefaultHTTPConfig returns default configuration
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		HealthPath: DefaultHealthPath,
		Timeout:    10 * time.Second,
	}
}

// HTTPProber checks targets by requesting their health endpoint
type HTTPProber struct {
	config HTTPConfig
	client *http.Client
	log    logrus.FieldLogger
}

// NewHTTPProber creates a new HTTP prober
func NewHTTPProber(config HTTPConfig, log logrus.FieldLogger) *HTTPProber {
	if config.HealthPath == "" {
		config.HealthPath = DefaultHealthPath
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultHTTPConfig().Timeout
	}
	return &HTTPProber{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		log: log,
	}
}

// Probe issues one GET against the target's health endpoint.
// Only a 200 response is healthy.
func (p *HTTPProber) Probe(ctx context.Context, target Target) Result {
	start := time.Now()
	res := Result{CheckedAt: start}
	url := target.BaseURL + p.config.HealthPath

	log := p.log.WithFields(logrus.Fields{"role": target.Role, "url": url})
	log.Debug("checking health")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Error = err.Error()
		log.WithError(err).Warn("error checking health")
		return res
	}

	resp, err := p.client.Do(req)
	if err != nil {
		res.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			res.Error = "request timed out"
		}
		log.WithError(err).Warn("error checking health")
		return res
	}
	defer resp.Body.Close()

	// drain so the connection can be reused; body content is not inspected
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.Latency = time.Since(start)
	res.StatusCode = resp.StatusCode
	res.Healthy = resp.StatusCode == http.StatusOK
	if !res.Healthy {
		res.Error = http.StatusText(resp.StatusCode)
	}

	return res
}
