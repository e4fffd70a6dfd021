package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OutboxSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_sent_total",
		Help: "Total outbox events successfully published",
	}, []string{"event_type"})
	OutboxPublishErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_errors_total",
		Help: "Total outbox publish errors",
	}, []string{"event_type"})
	OutboxDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_dropped_total",
		Help: "Outbox events given up on after max attempts",
	})
	OutboxPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_pending",
		Help: "Number of pending outbox events",
	})
)

func init() {
	prometheus.MustRegister(OutboxSentTotal, OutboxPublishErrorsTotal, OutboxDroppedTotal, OutboxPending)
}
