package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesCreated counts chat messages appended per puzzle channel kind (message|reaction|system).
	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jollyroger_chat_messages_total",
			Help: "Total number of chat messages appended",
		},
		[]string{"kind"},
	)

	// NotificationsFannedOut counts notifications persisted per trigger (mention|dingword).
	NotificationsFannedOut = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jollyroger_chat_notifications_total",
			Help: "Total number of chat notifications created by fan-out",
		},
		[]string{"trigger"},
	)

	// HookDispatches counts hook chain runs by result (ok|error).
	HookDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jollyroger_hook_dispatches_total",
			Help: "Total number of message-created hook dispatches",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jollyroger_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
