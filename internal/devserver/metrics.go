package devserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rentals_stub"

// serverMetrics carries one server instance's collectors, registered
// against that instance's registry so several fixture servers can
// coexist in a single process.
type serverMetrics struct {
	// authFailures counts rejected login attempts and bad bearer
	// tokens, useful when debugging client credential handling.
	authFailures prometheus.Counter
	// listingMutations counts apartment mutations by operation.
	listingMutations *prometheus.CounterVec
	// uploadsStored counts image uploads held in memory.
	uploadsStored prometheus.Counter
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)
	return &serverMetrics{
		authFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected authentication attempts.",
		}),
		listingMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listing_mutations_total",
				Help:      "Total number of apartment create/update/delete operations.",
			},
			[]string{"op"},
		),
		uploadsStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_stored_total",
			Help:      "Total number of uploaded images stored by the fixture server.",
		}),
	}
}
