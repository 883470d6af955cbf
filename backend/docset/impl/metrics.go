package impl

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a change, used as the "outcome" label of docset_changes_total.
const (
	outcomeCreated    = "created"
	outcomeExtended   = "extended"
	outcomeForked     = "forked"
	outcomeRebased    = "rebased"
	outcomeMerged     = "merged"
	outcomeStale      = "stale"
	outcomeConcurrent = "concurrent"
	outcomeFailed     = "failed"
)

// Metrics holds the counters of a document set.
type Metrics struct {
	changes         *prometheus.CounterVec
	snapshots       prometheus.Counter
	handlerFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docset_changes_total",
			Help: "Change-sets handled by the document set, by outcome",
		}, []string{"outcome"}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docset_snapshots_total",
			Help: "Snapshots appended to document histories",
		}),
		handlerFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docset_handler_failures_total",
			Help: "Handler calls that returned an error or panicked",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.changes, m.snapshots, m.handlerFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) change(outcome string) {
	m.changes.WithLabelValues(outcome).Inc()
}
