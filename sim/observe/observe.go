// Package observe exports engine progress as Prometheus metrics. It
// implements sim.Observer and never mutates simulation state.
package observe

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sparesim/sparesim/sim"
)

// Metrics holds the collectors for one engine run on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	events     *prometheus.CounterVec
	clock      prometheus.Gauge
	pending    prometheus.Gauge
	micap      prometheus.Gauge
	conditionA prometheus.Gauge
	backlog    prometheus.Gauge
	depotBusy  prometheus.Gauge
	anomalies  prometheus.Gauge
}

// NewMetrics registers the sparesim collectors on a fresh registry.
// constLabels are attached to every series (e.g. run id, seed).
func NewMetrics(constLabels prometheus.Labels) *Metrics {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "sparesim",
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "sparesim",
			Name:        "events_processed_total",
			Help:        "Events processed, by kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		clock:      gauge("clock_days", "Simulation clock after the last processed event."),
		pending:    gauge("events_pending", "Events scheduled but not yet processed."),
		micap:      gauge("micap_aircraft", "Aircraft waiting in MICAP."),
		conditionA: gauge("condition_a_parts", "Serviceable parts in Condition A."),
		backlog:    gauge("backlog_orders", "Replacement parts on order."),
		depotBusy:  gauge("depot_committed_slots", "Depot machine end times currently committed."),
		anomalies:  gauge("anomalies", "Soft anomalies recorded so far."),
	}
	m.Registry.MustRegister(m.events, m.clock, m.pending, m.micap, m.conditionA, m.backlog, m.depotBusy, m.anomalies)
	for _, k := range sim.EventKinds() {
		m.events.WithLabelValues(k.String())
	}
	return m
}

// ObserveEvent implements sim.Observer.
func (m *Metrics) ObserveEvent(ev sim.Event, snap sim.Snapshot) {
	m.events.WithLabelValues(ev.Kind.String()).Inc()
	m.clock.Set(snap.Clock)
	m.pending.Set(float64(snap.Pending))
	m.micap.Set(float64(snap.Micap))
	m.conditionA.Set(float64(snap.ConditionA))
	m.backlog.Set(float64(snap.Backlog))
	m.depotBusy.Set(float64(snap.DepotCommitted))
	m.anomalies.Set(float64(snap.Anomalies))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

var _ sim.Observer = (*Metrics)(nil)
