package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the decode engine collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	eventsDecoded *prometheus.CounterVec
	eventsSkipped *prometheus.CounterVec
	decodeErrors  *prometheus.CounterVec
	decodeLatency *prometheus.HistogramVec
	batchSize     prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		eventsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaincodec_events_decoded_total",
			Help: "Total number of events decoded",
		}, []string{"chain", "schema"}),
		eventsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaincodec_events_skipped_total",
			Help: "Total number of events dropped in skip mode",
		}, []string{"chain"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaincodec_decode_errors_total",
			Help: "Total number of events that failed to decode",
		}, []string{"chain", "error_type"}),
		decodeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chaincodec_decode_latency_seconds",
			Help:    "Time spent decoding one batch chunk",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"chain"}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chaincodec_batch_size",
			Help:    "Number of raw events per batch request",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		}),
	}
	reg.MustRegister(
		m.eventsDecoded,
		m.eventsSkipped,
		m.decodeErrors,
		m.decodeLatency,
		m.batchSize,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// EventDecoded increments the decoded counter for chain and schema.
func (m *Metrics) EventDecoded(chain, schema string) {
	if m != nil {
		m.eventsDecoded.WithLabelValues(chain, schema).Inc()
	}
}

// EventsSkipped adds n skipped events for chain.
func (m *Metrics) EventsSkipped(chain string, n int) {
	if m != nil && n > 0 {
		m.eventsSkipped.WithLabelValues(chain).Add(float64(n))
	}
}

// DecodeError increments the error counter for chain and error type.
func (m *Metrics) DecodeError(chain, errorType string) {
	if m != nil {
		m.decodeErrors.WithLabelValues(chain, errorType).Inc()
	}
}

// ObserveLatency records the duration of one decode chunk.
func (m *Metrics) ObserveLatency(chain string, d time.Duration) {
	if m != nil {
		m.decodeLatency.WithLabelValues(chain).Observe(d.Seconds())
	}
}

// ObserveBatch records the size of a batch request.
func (m *Metrics) ObserveBatch(n int) {
	if m != nil {
		m.batchSize.Observe(float64(n))
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
