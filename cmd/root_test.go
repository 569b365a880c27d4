package cmd

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	sim "github.com/sparesim/sparesim/sim"
	"github.com/sparesim/sparesim/sim/resultstore"
	"github.com/sparesim/sparesim/sim/trace"
)

// testScenario is small enough to run in milliseconds but long enough to
// reach every event kind.
func testScenario() Scenario {
	cfg := sim.DefaultConfig()
	cfg.Horizon = 300
	cfg.TotalParts = 12
	cfg.TotalAircraft = 10
	cfg.Fleet.Duration = sim.DistSpec{Type: sim.DistNormal, Params: map[string]float64{"mean": 40, "std_dev": 8}}
	cfg.Depot.Capacity = 2
	cfg.Depot.Duration = sim.DistSpec{Type: sim.DistNormal, Params: map[string]float64{"mean": 15, "std_dev": 3}}
	cfg.Condemn = sim.CondemnConfig{Cycle: 4, DepotFraction: 0.2, OrderLag: 20}
	cfg.Init = sim.InitConfig{PartsInDepot: 1, PartsInConditionF: 1, PartsInConditionA: 1}
	return Scenario{Config: cfg}
}

func TestRunScenario_WritesEveryOutput(t *testing.T) {
	// GIVEN every output requested
	dir := t.TempDir()
	sc := testScenario()
	opts := runOptions{
		SummaryOut:      "-",
		ResultOut:       filepath.Join(dir, "result.json"),
		TraceOut:        filepath.Join(dir, "events.jsonl"),
		DBPath:          filepath.Join(dir, "runs.db"),
		Label:           "smoke",
		MetricsTextfile: filepath.Join(dir, "sparesim.prom"),
	}
	var stdout bytes.Buffer

	// WHEN the scenario runs
	require.NoError(t, runScenario(context.Background(), sc, opts, &stdout))

	// THEN the summary on stdout decodes
	var sum sim.Summary
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &sum), stdout.String())
	total := sum.Events["total"]
	require.Positive(t, total, "summary reports no processed events")

	// AND the trace has one line per processed event
	f, err := os.Open(opts.TraceOut)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, total, lines)

	// AND the other files exist
	for _, path := range []string{opts.ResultOut, opts.MetricsTextfile} {
		info, err := os.Stat(path)
		if assert.NoError(t, err) {
			assert.Positive(t, info.Size(), path)
		}
	}
	prom, err := os.ReadFile(opts.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "sparesim_events_processed_total")

	// AND the run is in the store
	store, err := resultstore.Open(context.Background(), opts.DBPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "smoke", runs[0].Label)
}

func TestRunScenario_SummaryUsesAnalysisWindow(t *testing.T) {
	sc := testScenario()
	sc.Output.WarmupDays, sc.Output.ClosingDays = 100, 50
	var stdout bytes.Buffer

	require.NoError(t, runScenario(context.Background(), sc, runOptions{SummaryOut: "-"}, &stdout))

	var sum sim.Summary
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &sum))
	assert.Equal(t, 100.0, sum.AnalysisStart)
	assert.Equal(t, 250.0, sum.AnalysisEnd)
	// snapshots every 5 days from 100 to 250 inclusive
	assert.Equal(t, 31, sum.Micap.Snapshots)
}

func TestRunScenario_TraceLevelWithoutDestinationWarns(t *testing.T) {
	// GIVEN a scenario asking for an event trace but no trace file
	hook := logtest.NewGlobal()
	defer hook.Reset()
	sc := testScenario()
	sc.Output.TraceLevel = string(trace.TraceLevelEvents)

	// WHEN the scenario runs
	require.NoError(t, runScenario(context.Background(), sc, runOptions{}, io.Discard))

	// THEN the user is told the trace is dropped
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "tracing disabled") {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning about the unused trace level")
}

func TestRunScenario_InvalidConfigFails(t *testing.T) {
	sc := testScenario()
	sc.Depot.Capacity = 0
	assert.Error(t, runScenario(context.Background(), sc, runOptions{}, &bytes.Buffer{}))
}

func TestWriteTo_Destinations(t *testing.T) {
	var stdout bytes.Buffer
	payload := func(s string) func(w io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, s)
			return err
		}
	}

	require.NoError(t, writeTo("", &stdout, payload("skipped")))
	assert.Zero(t, stdout.Len(), "empty destination writes nothing")

	require.NoError(t, writeTo("-", &stdout, payload("hello")))
	assert.Equal(t, "hello", stdout.String())

	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeTo(path, &stdout, payload("file")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", string(data))
}

func TestBuildAllocationReport(t *testing.T) {
	sc := Scenario{Config: sim.DefaultConfig()}
	report, err := buildAllocationReport(sc)
	require.NoError(t, err)
	assert.Equal(t, 24, report.MissionCapableAircraft)
	assert.Zero(t, report.UnallocatedParts)
	assert.Len(t, report.Allocation.MicapAircraftIDs, 6)

	sc.Init.PartsInConditionA = 10
	_, err = buildAllocationReport(sc)
	assert.Error(t, err, "over-assignment")
}
