package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline activity. A nil *Metrics records nothing.
type Metrics struct {
	evaluated      prometheus.Counter
	excluded       *prometheus.CounterVec
	stageFailures  *prometheus.CounterVec
	degradedChecks *prometheus.CounterVec
	duration       prometheus.Histogram
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "guestscout_candidates_evaluated_total",
			Help: "Total number of unique candidates evaluated",
		}),
		excluded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestscout_candidates_excluded_total",
				Help: "Total number of candidates excluded, by evidence source",
			},
			[]string{"source"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestscout_stage_failures_total",
				Help: "Total number of failed classify or score attempts",
			},
			[]string{"stage"},
		),
		degradedChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guestscout_degraded_checks_total",
				Help: "Total number of external checks that failed and counted as negative",
			},
			[]string{"check"},
		),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guestscout_evaluation_duration_seconds",
			Help:    "Duration of one candidate evaluation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
}

func (m *Metrics) observeEvaluation(d time.Duration) {
	if m == nil {
		return
	}
	m.evaluated.Inc()
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) observeExcluded(source string) {
	if m == nil {
		return
	}
	m.excluded.WithLabelValues(source).Inc()
}

func (m *Metrics) observeStageFailure(stage Stage) {
	if m == nil {
		return
	}
	m.stageFailures.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) observeDegradedCheck(check string) {
	if m == nil {
		return
	}
	m.degradedChecks.WithLabelValues(check).Inc()
}
