package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		remindersSentTotal,
		tickDurationSeconds,
		tickFailuresTotal,
	)
}

var (
	remindersSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminder intents emitted by the scheduler, by kind.",
		},
		[]string{"kind"},
	)

	tickDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scheduler_tick_duration_seconds",
			Help:    "Duration of a full scheduler pass over the user population.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)

	tickFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_tick_failures_total",
			Help: "Per-user failures isolated during scheduler ticks.",
		},
	)
)

func IncReminder(kind string) {
	remindersSentTotal.WithLabelValues(norm(kind)).Inc()
}

func ObserveTick(d time.Duration, failures int) {
	tickDurationSeconds.Observe(d.Seconds())
	tickFailuresTotal.Add(float64(failures))
}
