package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/sparesim/sparesim/sim"
	"github.com/sparesim/sparesim/sim/resultstore"
)

func TestRunSweep_CommonRandomNumbers(t *testing.T) {
	// GIVEN two capacities and three replications
	sc := testScenario()
	spec := sweepSpec{Capacities: []int{1, 3}, Replications: 3, Parallel: 2}

	// WHEN swept
	report, results, err := runSweep(context.Background(), sc, spec)
	require.NoError(t, err)

	// THEN each capacity sees the same seeds
	require.Len(t, report.Points, 2)
	require.Len(t, results, 2)
	want := []int64{sc.Seed, sc.Seed + 1, sc.Seed + 2}
	for i, pt := range report.Points {
		assert.Equal(t, spec.Capacities[i], pt.Capacity)
		assert.Equal(t, sc.TotalParts, pt.TotalParts, "no parts axis keeps the scenario's count")
		assert.Equal(t, want, pt.ReplicationSeeds)
		assert.Equal(t, 3, pt.Replications)
		assert.Len(t, results[i], 3)
		assert.NotEmpty(t, pt.WIP)
		assert.GreaterOrEqual(t, pt.MeanMicap, 0.0)
		assert.LessOrEqual(t, pt.MaxMicap, sc.TotalAircraft)
	}
}

func TestRunSweep_CapacityPartsGrid(t *testing.T) {
	// GIVEN two capacities and two part counts
	sc := testScenario()
	spec := sweepSpec{Capacities: []int{1, 2}, Parts: []int{12, 16}, Replications: 2, Parallel: 3}

	// WHEN swept
	report, results, err := runSweep(context.Background(), sc, spec)
	require.NoError(t, err)

	// THEN every pair is a point, ordered by capacity then parts
	require.Len(t, report.Points, 4)
	require.Len(t, results, 4)
	wantGrid := [][2]int{{1, 12}, {1, 16}, {2, 12}, {2, 16}}
	for i, pt := range report.Points {
		assert.Equal(t, wantGrid[i], [2]int{pt.Capacity, pt.TotalParts})
		// 8 aircraft start mission-capable, the spares fill the depot then Condition F
		assert.Equal(t, sim.SpareInit(pt.TotalParts, sc.TotalAircraft, sc.MissionCapableRate, pt.Capacity), pt.Init)
		assert.Equal(t, pt.Capacity, pt.Init.PartsInDepot)
		assert.Equal(t, pt.TotalParts-8-pt.Capacity, pt.Init.PartsInConditionF)
		for _, res := range results[i] {
			partIDs := map[sim.PartID]bool{}
			for _, p := range res.Parts {
				partIDs[p.PartID] = true
			}
			assert.GreaterOrEqual(t, len(partIDs), pt.TotalParts, "every part is placed")
		}
	}

	// AND the best tables pick the lowest mean MICAP in each group
	require.NotNil(t, report.Best)
	for _, pt := range report.Points {
		assert.LessOrEqual(t, report.Best.MeanMicap, pt.MeanMicap)
	}
	require.Len(t, report.BestPartsByCapacity, 2)
	for i, c := range spec.Capacities {
		b := report.BestPartsByCapacity[i]
		assert.Equal(t, c, b.Capacity)
		for _, pt := range report.Points {
			if pt.Capacity == c {
				assert.LessOrEqual(t, b.MeanMicap, pt.MeanMicap)
			}
		}
	}
	require.Len(t, report.BestCapacityByParts, 2)
	for i, n := range spec.Parts {
		b := report.BestCapacityByParts[i]
		assert.Equal(t, n, b.TotalParts)
		for _, pt := range report.Points {
			if pt.TotalParts == n {
				assert.LessOrEqual(t, b.MeanMicap, pt.MeanMicap)
			}
		}
	}
}

func TestSweepReport_RankBestTiesGoToFirstPoint(t *testing.T) {
	// GIVEN (1, 12) and (2, 12) tied at the lowest mean MICAP
	r := &SweepReport{Points: []SweepPoint{
		{Capacity: 1, TotalParts: 10, MeanMicap: 4},
		{Capacity: 1, TotalParts: 12, MeanMicap: 0.5},
		{Capacity: 2, TotalParts: 10, MeanMicap: 2},
		{Capacity: 2, TotalParts: 12, MeanMicap: 0.5},
	}}

	// WHEN ranked
	r.rankBest([]int{1, 2}, []int{10, 12})

	// THEN the point listed first wins every tie
	assert.Equal(t, &BestConfig{Capacity: 1, TotalParts: 12, MeanMicap: 0.5}, r.Best)
	assert.Equal(t, []BestConfig{
		{Capacity: 1, TotalParts: 12, MeanMicap: 0.5},
		{Capacity: 2, TotalParts: 12, MeanMicap: 0.5},
	}, r.BestPartsByCapacity)
	assert.Equal(t, []BestConfig{
		{Capacity: 2, TotalParts: 10, MeanMicap: 2},
		{Capacity: 1, TotalParts: 12, MeanMicap: 0.5},
	}, r.BestCapacityByParts)
}

func TestRunSweep_AggregatesOnlyAnalysisWindow(t *testing.T) {
	sc := testScenario()
	sc.Output.WarmupDays, sc.Output.ClosingDays = 100, 50

	report, results, err := runSweep(context.Background(), sc, sweepSpec{Replications: 2})
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.AnalysisStart)
	assert.Equal(t, 250.0, report.AnalysisEnd)
	pt := report.Points[0]
	require.NotEmpty(t, pt.WIP)
	assert.Equal(t, 100.0, pt.WIP[0].Time)
	assert.Equal(t, 250.0, pt.WIP[len(pt.WIP)-1].Time)
	var micap []float64
	for _, res := range results[0] {
		micap = append(micap, sim.Summarize(res).Micap.AverageWithZeros)
	}
	assert.InDelta(t, sim.CalculateMean(micap), pt.MeanMicap, 1e-12)
}

func TestRunSweep_Deterministic(t *testing.T) {
	sc := testScenario()
	spec := sweepSpec{Capacities: []int{2}, Parts: []int{12, 14}, Replications: 4, Parallel: 4}

	a, _, err := runSweep(context.Background(), sc, spec)
	require.NoError(t, err)
	spec.Parallel = 1
	b, _, err := runSweep(context.Background(), sc, spec)
	require.NoError(t, err)
	assert.Equal(t, a, b, "sweep report depends on parallelism")
}

func TestRunSweep_Errors(t *testing.T) {
	sc := testScenario()
	sc.Init.PartsInDepot = 2

	_, _, err := runSweep(context.Background(), sc, sweepSpec{Capacities: []int{1}, Replications: 1})
	assert.Error(t, err, "seeded depot parts exceed a swept capacity")

	_, _, err = runSweep(context.Background(), sc, sweepSpec{Replications: 0})
	assert.Error(t, err, "zero replications")

	explicit := testScenario()
	alloc, err := explicit.allocation()
	require.NoError(t, err)
	explicit.Allocation = &alloc
	_, _, err = runSweep(context.Background(), explicit, sweepSpec{Parts: []int{14}, Replications: 1})
	assert.ErrorContains(t, err, "explicit allocation")
}

func TestStoreSweep_RecordsRunIDs(t *testing.T) {
	sc := testScenario()
	report, results, err := runSweep(context.Background(), sc, sweepSpec{Capacities: []int{1, 2}, Replications: 2})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "sweep.db")

	require.NoError(t, storeSweep(context.Background(), path, sc, report, results))

	for _, pt := range report.Points {
		assert.Len(t, pt.StoredRunIDs, 2, "capacity %d", pt.Capacity)
	}
	store, err := resultstore.Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}
