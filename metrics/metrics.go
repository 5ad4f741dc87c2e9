package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medvoice"

func register(reg prometheus.Registerer, cs ...prometheus.Collector) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cs...)
}

// RedactionMetrics counts redaction calls and the placeholders they produced.
type RedactionMetrics struct {
	callsTotal        *prometheus.CounterVec
	placeholdersTotal *prometheus.CounterVec
}

func NewRedactionMetrics(reg prometheus.Registerer) *RedactionMetrics {
	m := &RedactionMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redaction",
			Name:      "calls_total",
			Help:      "Total texts passed through the redactor",
		}, []string{"direction"}),
		placeholdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redaction",
			Name:      "placeholders_total",
			Help:      "Total spans replaced by a placeholder",
		}, []string{"direction", "label"}),
	}
	register(reg, m.callsTotal, m.placeholdersTotal)
	return m
}

// ObserveRedaction records one redaction call and its per-label counts.
func (m *RedactionMetrics) ObserveRedaction(direction string, counts map[string]int) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(direction).Inc()

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		m.placeholdersTotal.WithLabelValues(direction, label).Add(float64(counts[label]))
	}
}

// TranslationMetrics exposes counters/histograms for provider calls.
type TranslationMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewTranslationMetrics(reg prometheus.Registerer) *TranslationMetrics {
	m := &TranslationMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "requests_total",
			Help:      "Total translation provider calls",
		}, []string{"provider", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "translation",
			Name:      "latency_seconds",
			Help:      "Latency of translation provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	register(reg, m.requestsTotal, m.latency)
	return m
}

func (m *TranslationMetrics) ObserveTranslation(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(provider, status).Inc()
	m.latency.WithLabelValues(provider).Observe(seconds)
}

// SpeechMetrics exposes counters for text-to-speech synthesis and its cache.
type SpeechMetrics struct {
	synthesisTotal *prometheus.CounterVec
	cacheTotal     *prometheus.CounterVec
}

func NewSpeechMetrics(reg prometheus.Registerer) *SpeechMetrics {
	m := &SpeechMetrics{
		synthesisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "speech",
			Name:      "synthesis_total",
			Help:      "Total text-to-speech synthesis calls",
		}, []string{"status"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "speech",
			Name:      "cache_total",
			Help:      "Audio cache lookups by result",
		}, []string{"result"}),
	}
	register(reg, m.synthesisTotal, m.cacheTotal)
	return m
}

func (m *SpeechMetrics) ObserveSynthesis(status string) {
	if m == nil {
		return
	}
	m.synthesisTotal.WithLabelValues(status).Inc()
}

func (m *SpeechMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}
