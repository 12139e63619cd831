package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_sent_total",
		Help: "Messages appended to conversations.",
	})
	MessagesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_messages_deleted_total",
		Help: "Messages removed by moderation.",
	})
	DeleteNoops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_delete_noops_total",
		Help: "Delete calls that found nothing to remove.",
	})
	ConversationsRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_conversations_read_total",
		Help: "Mark-read calls that transitioned at least one message.",
	})
	DroppedProjections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_projection_dropped_total",
		Help: "Conversations excluded from a projection because the counterpart could not be resolved.",
	})
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_feed_subscribers",
		Help: "Live websocket feed connections.",
	})
)

// Handler returns an http.Handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
