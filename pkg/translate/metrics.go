package translate

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Translation request metrics
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translateapi_provider_requests_total",
			Help: "Total number of translation provider calls",
		},
		[]string{"engine", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translateapi_provider_request_duration_seconds",
			Help:    "Duration of translation provider calls in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"engine", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translateapi_provider_request_size_bytes",
			Help:    "Size of text sent to the translation provider in bytes",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"engine"},
	)

	translationResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translateapi_provider_response_size_bytes",
			Help:    "Size of translated text returned by the provider in bytes",
			Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"engine"},
	)

	providerHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "translateapi_provider_healthy",
			Help: "1 when the last provider health check passed, 0 otherwise",
		},
		[]string{"engine"},
	)
)

// MetricsCollector records provider metrics for one engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a new metrics collector for an engine.
func NewMetricsCollector(engine string) *MetricsCollector {
	return &MetricsCollector{engine: engine}
}

// RecordTranslationRequest records metrics for a translation request.
func (mc *MetricsCollector) RecordTranslationRequest(duration time.Duration, success bool, requestSize, responseSize int) {
	status := "success"
	if !success {
		status = "error"
	}

	translationRequestsTotal.WithLabelValues(mc.engine, status).Inc()
	translationRequestDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	translationRequestSize.WithLabelValues(mc.engine).Observe(float64(requestSize))
	if success {
		translationResponseSize.WithLabelValues(mc.engine).Observe(float64(responseSize))
	}
}

// RecordHealth records the outcome of a provider health check.
func (mc *MetricsCollector) RecordHealth(healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	providerHealthy.WithLabelValues(mc.engine).Set(v)
}

// instrumented wraps a Translator and records metrics for every call.
type instrumented struct {
	next    Translator
	metrics *MetricsCollector
}

// Instrument returns a Translator that records Prometheus metrics around next.
func Instrument(next Translator, engine EngineType) Translator {
	return &instrumented{next: next, metrics: NewMetricsCollector(string(engine))}
}

func (t *instrumented) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	start := time.Now()
	out, err := t.next.Translate(ctx, text, sourceLang, targetLang)
	t.metrics.RecordTranslationRequest(time.Since(start), err == nil, len(text), len(out))
	return out, err
}

func (t *instrumented) CheckHealth(ctx context.Context) error {
	err := t.next.CheckHealth(ctx)
	t.metrics.RecordHealth(err == nil)
	return err
}

func (t *instrumented) SupportedLanguages(ctx context.Context) ([]string, error) {
	return t.next.SupportedLanguages(ctx)
}

// Close closes the wrapped translator when it holds resources.
func (t *instrumented) Close() error {
	if c, ok := t.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
