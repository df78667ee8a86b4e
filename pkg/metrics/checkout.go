package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as the outcome label.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

// CheckoutMetrics records checkout attempts, their latency and the units sold.
type CheckoutMetrics struct {
	duration *prometheus.HistogramVec
	attempts *prometheus.CounterVec
	units    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	units := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_units_sold_total",
		Help: "Units removed from stock by committed checkouts.",
	})
	reg.MustRegister(duration, attempts, units)
	return &CheckoutMetrics{
		duration: duration,
		attempts: attempts,
		units:    units,
	}
}

// Observe records one attempt with its outcome and latency.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.attempts.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// AddUnitsSold adds the quantity decremented by a committed checkout.
func (c *CheckoutMetrics) AddUnitsSold(units int) {
	if c == nil || c.units == nil || units <= 0 {
		return
	}
	c.units.Add(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
