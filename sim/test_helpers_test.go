package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sparesim/sparesim/sim/internal/testutil"
)

// deterministicConfig builds a config with zero-variance durations and no
// stagger so every timestamp can be derived by hand.
func deterministicConfig(fleetMean, depotMean float64, capacity int) Config {
	cfg := DefaultConfig()
	cfg.Fleet.Duration = DistSpec{Type: DistNormal, Params: map[string]float64{"mean": fleetMean, "std_dev": 0}}
	cfg.Fleet.Stagger = Stagger{}
	cfg.Depot.Duration = DistSpec{Type: DistNormal, Params: map[string]float64{"mean": depotMean, "std_dev": 0}}
	cfg.Depot.Stagger = Stagger{}
	cfg.Depot.Capacity = capacity
	cfg.Init = InitConfig{}
	return cfg
}

// goldenConfig maps a golden scenario onto a Config.
func goldenConfig(gs testutil.GoldenScenario) Config {
	cfg := deterministicConfig(gs.FleetMean, gs.DepotMean, gs.DepotCapacity)
	cfg.Seed = gs.Seed
	cfg.Horizon = gs.Horizon
	cfg.TotalParts = gs.TotalParts
	cfg.TotalAircraft = gs.TotalAircraft
	cfg.MissionCapableRate = gs.MissionCapableRate
	cfg.InstallDuration = gs.InstallDuration
	cfg.Condemn = CondemnConfig{Cycle: gs.CondemnCycle, DepotFraction: gs.DepotFraction, OrderLag: gs.OrderLag}
	cfg.Init = InitConfig{
		PartsInDepot:      gs.PartsInDepot,
		PartsInConditionF: gs.PartsInConditionF,
		PartsInConditionA: gs.PartsInConditionA,
	}
	return cfg
}

// stochasticConfig is a small scenario that exercises every event kind,
// condemnation included, within a few hundred days.
func stochasticConfig(seed int64, capacity int) Config {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Horizon = 300
	cfg.TotalParts = 14
	cfg.TotalAircraft = 10
	cfg.MissionCapableRate = 0.7
	cfg.InstallDuration = 0.5
	cfg.Fleet.Duration = DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 40, "std_dev": 10}}
	cfg.Depot.Duration = DistSpec{Type: DistWeibull, Params: map[string]float64{"shape": 1.5, "scale": 15}}
	cfg.Depot.Capacity = capacity
	cfg.Condemn = CondemnConfig{Cycle: 4, DepotFraction: 0.25, OrderLag: 20}
	cfg.Init = InitConfig{PartsInDepot: min(2, capacity), PartsInConditionF: 2, PartsInConditionA: 2}
	return cfg
}

// runConfig builds and runs a simulator, failing the test on any error.
func runConfig(t testing.TB, cfg Config) (*Simulator, *Result) {
	t.Helper()
	alloc, err := ComputeAllocation(cfg)
	require.NoError(t, err)
	s, err := NewSimulator(cfg, alloc)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background()))
	res, err := s.Result()
	require.NoError(t, err)
	return s, res
}

func partBySim(t testing.TB, res *Result, id SimID) PartRecord {
	t.Helper()
	for _, p := range res.Parts {
		if p.SimID == id {
			return p
		}
	}
	t.Fatalf("part cycle %d not found", id)
	return PartRecord{}
}

func aircraftByDes(t testing.TB, res *Result, id DesID) AircraftRecord {
	t.Helper()
	for _, a := range res.Aircraft {
		if a.DesID == id {
			return a
		}
	}
	t.Fatalf("aircraft cycle %d not found", id)
	return AircraftRecord{}
}
