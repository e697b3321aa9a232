package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/schoolchat/models"
)

// Metrics exposes the prometheus instruments the chat pipeline records
// into. Instances register against the default registry, which the server
// serves at /metrics.
type Metrics struct {
	ChatRequests      *prometheus.CounterVec
	ChatDuration      prometheus.Histogram
	RetrievedPassages prometheus.Counter
	RerankedBySource  *prometheus.CounterVec
	FeedbackReceived  *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolchat_chat_requests_total",
			Help: "Chat requests processed, by query type.",
		}, []string{"query_type"}),
		ChatDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "schoolchat_chat_duration_seconds",
			Help:    "End-to-end chat request latency.",
			Buckets: prometheus.DefBuckets,
		}),
		RetrievedPassages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "schoolchat_retrieved_passages_total",
			Help: "Passages pulled from the knowledge index.",
		}),
		RerankedBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolchat_reranked_passages_total",
			Help: "Passages that went through reranking, by source type.",
		}, []string{"source_type"}),
		FeedbackReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "schoolchat_feedback_total",
			Help: "Feedback submissions, by type.",
		}, []string{"feedback_type"}),
	}
}

// RecordChat counts one finished request.
func (m *Metrics) RecordChat(queryType models.QueryType, seconds float64) {
	if m == nil {
		return
	}
	m.ChatRequests.WithLabelValues(string(queryType)).Inc()
	m.ChatDuration.Observe(seconds)
}

// RecordRerank counts the passages that passed through one rerank call.
func (m *Metrics) RecordRerank(passages []models.Passage) {
	if m == nil {
		return
	}
	m.RetrievedPassages.Add(float64(len(passages)))
	for _, p := range passages {
		m.RerankedBySource.WithLabelValues(string(p.SourceType)).Inc()
	}
}

// RecordFeedback counts one feedback submission.
func (m *Metrics) RecordFeedback(feedbackType string) {
	if m == nil {
		return
	}
	m.FeedbackReceived.WithLabelValues(feedbackType).Inc()
}
