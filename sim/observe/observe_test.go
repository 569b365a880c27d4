package observe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparesim/sparesim/sim"
)

func smallConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Horizon = 400
	cfg.TotalParts = 12
	cfg.TotalAircraft = 10
	cfg.Init = sim.InitConfig{PartsInDepot: 1, PartsInConditionF: 1, PartsInConditionA: 1}
	return cfg
}

func TestMetrics_TracksEventCounts(t *testing.T) {
	// GIVEN metrics attached to a run
	cfg := smallConfig()
	alloc, err := sim.ComputeAllocation(cfg)
	require.NoError(t, err)
	m := NewMetrics(prometheus.Labels{"seed": "42"})

	// WHEN the run completes
	res, err := sim.SimulateWith(context.Background(), cfg, alloc, m)
	require.NoError(t, err)

	// THEN each kind counter equals the engine's own count
	for _, k := range sim.EventKinds() {
		got := testutil.ToFloat64(m.events.WithLabelValues(k.String()))
		assert.Equal(t, float64(res.EventCounts[k.String()]), got, "kind %s", k)
	}
	assert.Equal(t, res.EndClock, testutil.ToFloat64(m.clock))
	assert.Equal(t, float64(len(res.Anomalies)), testutil.ToFloat64(m.anomalies))
}

func TestMetrics_AllKindsPresentBeforeFirstEvent(t *testing.T) {
	m := NewMetrics(nil)
	assert.Equal(t, len(sim.EventKinds()), testutil.CollectAndCount(m.events))
}

func TestMetrics_ObserveEventSetsGauges(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveEvent(sim.Event{Time: 12, Kind: sim.KindFleetComplete}, sim.Snapshot{
		Clock:          12,
		Pending:        7,
		Micap:          2,
		ConditionA:     3,
		Backlog:        1,
		DepotCommitted: 4,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("fleet_complete")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.clock))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.pending))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.micap))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.conditionA))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backlog))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.depotBusy))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics(prometheus.Labels{"seed": "7"})
	m.ObserveEvent(sim.Event{Kind: sim.KindDepotComplete}, sim.Snapshot{Clock: 3})
	path := filepath.Join(t.TempDir(), "sparesim.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sparesim_events_processed_total{kind="depot_complete",seed="7"} 1`)
	assert.Contains(t, string(data), "sparesim_clock_days")
}
