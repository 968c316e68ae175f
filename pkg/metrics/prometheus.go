package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FinSignal/internal/domain/models"
)

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	signals         *prometheus.CounterVec
	lastSignal      *prometheus.GaugeVec
	outcomes        *prometheus.CounterVec
	classifications *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New registers the collectors on reg; nil uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_total",
				Help: "Signals generated by action and asset type",
			},
			[]string{"action", "asset_type"},
		),
		lastSignal: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "finsignal_last_signal_timestamp_seconds",
				Help: "Unix time of the last signal per symbol",
			},
			[]string{"symbol"},
		),
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_preprocess_outcomes_total",
				Help: "Preprocessing outcomes by kind",
			},
			[]string{"kind"},
		),
		classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_classifications_total",
				Help: "Per-text classification results",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(symbol string, asset models.AssetType, action models.Action) {
	r.signals.WithLabelValues(string(action), string(asset)).Inc()
	r.lastSignal.WithLabelValues(symbol).SetToCurrentTime()
}

func (r *Recorder) RecordOutcome(kind models.OutcomeKind) {
	r.outcomes.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) RecordClassification(result string) {
	r.classifications.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
