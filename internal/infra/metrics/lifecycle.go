package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		lifecycleTransitionsTotal,
		lifecycleConflictsTotal,
	)
}

var (
	lifecycleTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Applied lifecycle transitions by kind.",
		},
		[]string{"kind"},
	)

	lifecycleConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_cas_conflicts_total",
			Help: "Compare-and-swap conflicts hit while applying transitions.",
		},
		[]string{"kind"},
	)
)

func IncTransition(kind string) {
	lifecycleTransitionsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncTransitionConflict(kind string) {
	lifecycleConflictsTotal.WithLabelValues(norm(kind)).Inc()
}
