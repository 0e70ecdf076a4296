package clusterstate

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts applier outcomes. A nil *Metrics disables collection.
type Metrics struct {
	applied  prometheus.Counter
	rejected *prometheus.CounterVec
}

// Rejection reasons used as metric labels.
const (
	RejectOutOfOrder = "out_of_order"
	RejectDecode     = "decode"
)

// NewMetrics registers and returns applier metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shutdownmeta",
			Subsystem: "applier",
			Name:      "updates_applied_total",
			Help:      "Committed cluster-state updates applied.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shutdownmeta",
			Subsystem: "applier",
			Name:      "updates_rejected_total",
			Help:      "Cluster-state updates rejected before application.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.applied, m.rejected)
	}
	return m
}

func (m *Metrics) observeApplied() {
	if m == nil {
		return
	}
	m.applied.Inc()
}

func (m *Metrics) observeRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
