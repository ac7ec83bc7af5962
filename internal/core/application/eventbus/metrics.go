package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the bus's operational counters. One Metrics value is
// shared by the bus and the background jobs driving it.
type Metrics struct {
	dispatched *prometheus.CounterVec
	exhausted  prometheus.Counter
	requeued   prometheus.Counter
}

// NewMetrics registers the bus counters with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		dispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "production_events_dispatched_total",
			Help: "Event dispatch attempts by result.",
		}, []string{"result"}),
		exhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "production_event_retries_exhausted_total",
			Help: "Events parked as FAILED after using their whole retry budget.",
		}),
		requeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "production_events_requeued_total",
			Help: "Stale PROCESSING events returned to OPEN by the reaper.",
		}),
	}
}
