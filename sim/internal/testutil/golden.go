// Package testutil provides shared test infrastructure for the sparesim
// engine: the golden scenario dataset and float assertion helpers used by
// sim/ and cmd/ tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_scenarios.json.
type GoldenDataset struct {
	Scenarios []GoldenScenario `json:"scenarios"`
}

// GoldenScenario is a fully deterministic scenario: zero standard
// deviations and no stagger, so every timestamp can be derived by hand.
type GoldenScenario struct {
	Name               string  `json:"name"`
	Seed               int64   `json:"seed"`
	Horizon            float64 `json:"horizon"`
	TotalParts         int     `json:"total_parts"`
	TotalAircraft      int     `json:"total_aircraft"`
	MissionCapableRate float64 `json:"mission_capable_rate"`
	InstallDuration    float64 `json:"install_duration"`
	FleetMean          float64 `json:"fleet_mean"`
	DepotMean          float64 `json:"depot_mean"`
	DepotCapacity      int     `json:"depot_capacity"`
	CondemnCycle       int     `json:"condemn_cycle"`
	DepotFraction      float64 `json:"depot_fraction"`
	OrderLag           float64 `json:"order_lag"`
	PartsInDepot       int     `json:"parts_in_depot"`
	PartsInConditionF  int     `json:"parts_in_condition_f"`
	PartsInConditionA  int     `json:"parts_in_condition_a"`

	Expected GoldenExpectations `json:"expected"`
}

// GoldenExpectations are the exact outcomes of a golden scenario.
type GoldenExpectations struct {
	EventCounts map[string]int `json:"event_counts"`
	MicapEnters int            `json:"micap_enters"`
	MicapExits  int            `json:"micap_exits"`
	Condemned   int            `json:"condemned"`
	EndClock    float64        `json:"end_clock"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_scenarios.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Scenarios) == 0 {
		t.Fatal("golden dataset has no scenarios")
	}
	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
