package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastMessagesTotal,
		signalDeliveriesTotal,
		deliveryFailuresTotal,
	)
}

var (
	broadcastMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Broadcast deliveries by segment and outcome.",
		},
		[]string{"segment", "outcome"}, // outcome: 'sent', 'failed'
	)

	signalDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_deliveries_total",
			Help: "Trading signal deliveries by outcome.",
		},
		[]string{"outcome"}, // 'sent', 'teaser', 'failed'
	)

	deliveryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Transport delivery failures by originating component.",
		},
		[]string{"origin"}, // 'scheduler', 'admin'
	)
)

func ObserveBroadcast(segment string, sent, failed int) {
	broadcastMessagesTotal.WithLabelValues(norm(segment), "sent").Add(float64(sent))
	broadcastMessagesTotal.WithLabelValues(norm(segment), "failed").Add(float64(failed))
}

func ObserveSignal(sent, teasers, failed int) {
	signalDeliveriesTotal.WithLabelValues("sent").Add(float64(sent))
	signalDeliveriesTotal.WithLabelValues("teaser").Add(float64(teasers))
	signalDeliveriesTotal.WithLabelValues("failed").Add(float64(failed))
}

func IncDeliveryFailure(origin string) {
	deliveryFailuresTotal.WithLabelValues(norm(origin)).Inc()
}
