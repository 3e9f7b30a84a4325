package session

import (
	stdErrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reglet-dev/reglet-verify/domain/entities"
)

// Check kinds used as the "kind" metric label.
const (
	KindStructure  = "structure"
	KindCapability = "capability"
	KindDependency = "dependency"
)

// Metrics records session outcomes as Prometheus collectors.
type Metrics struct {
	checks     *prometheus.CounterVec
	violations *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics creates the session collectors and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verify",
		Name:      "checks_total",
		Help:      "Checks run, by kind and status.",
	}, []string{"kind", "status"})
	violations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "verify",
		Name:      "violations_total",
		Help:      "Capability violations found, by category.",
	}, []string{"category"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "verify",
		Name:      "session_duration_seconds",
		Help:      "Wall time of verification sessions.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	var err error
	if checks, err = register(reg, checks); err != nil {
		return nil, err
	}
	if violations, err = register(reg, violations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{checks: checks, violations: violations, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stdErrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeClass(r *entities.ClassReport) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(KindStructure, string(r.Status())).Inc()
}

func (m *Metrics) observeCategory(r *entities.CategoryReport) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(KindCapability, string(r.Status())).Inc()
	if n := len(r.Violations); n > 0 {
		m.violations.WithLabelValues(string(r.Category)).Add(float64(n))
	}
}

func (m *Metrics) observeDependencies(violations []entities.DependencyViolation, failed bool) {
	if m == nil {
		return
	}
	status := entities.ResultStatusSuccess
	switch {
	case failed:
		status = entities.ResultStatusError
	case len(violations) > 0:
		status = entities.ResultStatusFailure
	}
	m.checks.WithLabelValues(KindDependency, string(status)).Inc()
}

func (m *Metrics) observeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
