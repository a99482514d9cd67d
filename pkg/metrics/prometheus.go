package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceResults *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec
	briefLatency  *prometheus.HistogramVec
	intents       *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	sinkErrors    *prometheus.CounterVec
}

// New registers the recorder's collectors on the default registry.
func New() *Recorder { return NewWithRegisterer(prometheus.DefaultRegisterer) }

// NewWithRegisterer registers the collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		sourceResults: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_source_requests_total",
				Help: "Upstream lookups by kind, source and result (ok, cached, timeout_fallback, error_fallback, circuit_open)",
			},
			[]string{"kind", "source", "result"},
		),
		sourceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketbrief_source_duration_seconds",
				Help:    "Upstream call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"kind", "source"},
		),
		breakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketbrief_breaker_state",
				Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
			},
			[]string{"source"},
		),
		briefLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketbrief_brief_duration_seconds",
				Help:    "End-to-end brief generation latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instrument"},
		),
		intents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_intents_total",
				Help: "Detected intents",
			},
			[]string{"intent"},
		),
		warnings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_validation_warnings_total",
				Help: "Validation warnings attached to briefs",
			},
			[]string{"kind"},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketbrief_sink_errors_total",
				Help: "Failed brief sink writes",
			},
			[]string{"sink"},
		),
	}
}

func (r *Recorder) RecordSourceResult(kind, source, result string) {
	r.sourceResults.WithLabelValues(kind, source, result).Inc()
}

func (r *Recorder) RecordSourceLatency(kind, source string, seconds float64) {
	r.sourceLatency.WithLabelValues(kind, source).Observe(seconds)
}

func (r *Recorder) RecordBreakerState(source string, state int) {
	r.breakerState.WithLabelValues(source).Set(float64(state))
}

func (r *Recorder) RecordBrief(instrument string, seconds float64) {
	r.briefLatency.WithLabelValues(instrument).Observe(seconds)
}

func (r *Recorder) RecordIntent(intent string) {
	r.intents.WithLabelValues(intent).Inc()
}

func (r *Recorder) RecordWarning(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSinkError(sink string) {
	r.sinkErrors.WithLabelValues(sink).Inc()
}
