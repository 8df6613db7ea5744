package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mcq"

// Metrics groups the process-wide collectors. A nil *Metrics is valid and
// records nothing, so components can be built without instrumentation.
type Metrics struct {
	OutboundRequests *prometheus.CounterVec
	OutboundLatency  *prometheus.HistogramVec

	ModelCalls   *prometheus.CounterVec
	ModelRetries *prometheus.CounterVec

	EmbeddingCache    *prometheus.CounterVec
	EmbeddingFailures prometheus.Counter

	ToolCalls  *prometheus.CounterVec
	AgentSteps prometheus.Histogram

	Questions       *prometheus.CounterVec
	QuestionLatency prometheus.Histogram
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			OutboundRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbound_requests_total",
				Help:      "Outbound HTTP requests by service, status code and method",
			}, []string{"service", "code", "method"}),
			OutboundLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "outbound_request_duration_seconds",
				Help:      "Outbound HTTP request latency",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			}, []string{"service", "code", "method"}),
			ModelCalls: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Completed model invocations by outcome (ok, empty, fatal, canceled)",
			}, []string{"outcome"}),
			ModelRetries: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_retries_total",
				Help:      "Retried model attempts by reason",
			}, []string{"reason"}),
			EmbeddingCache: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_lookups_total",
				Help:      "Embedding cache lookups by result (hit, miss)",
			}, []string{"result"}),
			EmbeddingFailures: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_zero_vectors_total",
				Help:      "Texts whose embedding failed and were replaced by a zero vector",
			}),
			ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Agent tool dispatches by tool and outcome",
			}, []string{"tool", "outcome"}),
			AgentSteps: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_steps",
				Help:      "Model calls used per agent run",
				Buckets:   prometheus.LinearBuckets(1, 1, 20),
			}),
			Questions: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "questions_total",
				Help:      "Answered questions by strategy and result (correct, incorrect, unscored)",
			}, []string{"strategy", "result"}),
			QuestionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "question_duration_seconds",
				Help:      "Wall time spent answering one question",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			}),
		}
	})
	return metricsInstance
}

// Outbound returns request collectors curried with the service label, ready
// for the HTTP client instrumentation.
func (m *Metrics) Outbound(service string) (*prometheus.CounterVec, prometheus.ObserverVec, bool) {
	if m == nil {
		return nil, nil, false
	}
	labels := prometheus.Labels{"service": service}
	return m.OutboundRequests.MustCurryWith(labels), m.OutboundLatency.MustCurryWith(labels), true
}

func (m *Metrics) ModelCall(outcome string) {
	if m == nil {
		return
	}
	m.ModelCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ModelRetry(reason string) {
	if m == nil {
		return
	}
	m.ModelRetries.WithLabelValues(reason).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.EmbeddingCache.WithLabelValues("hit").Inc()
	} else {
		m.EmbeddingCache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ZeroVectors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EmbeddingFailures.Add(float64(n))
}

func (m *Metrics) ToolCall(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) AgentRun(steps int) {
	if m == nil {
		return
	}
	m.AgentSteps.Observe(float64(steps))
}

// Question records one answered question; result is correct, incorrect or unscored
func (m *Metrics) Question(strategy, result string, seconds float64) {
	if m == nil {
		return
	}
	m.Questions.WithLabelValues(strategy, result).Inc()
	m.QuestionLatency.Observe(seconds)
}
