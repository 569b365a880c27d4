package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/sparesim/sparesim/sim"
)

// Scenario is the structure of a scenario YAML file: engine parameters at
// the top level plus an optional explicit initial allocation.
// Unknown keys are rejected so a typo cannot silently fall back to a default.
type Scenario struct {
	sim.Config `yaml:",inline"`
	Allocation *sim.Allocation `yaml:"allocation,omitempty"`
}

// loadScenario parses a scenario file over sim.DefaultConfig. An empty path
// returns the defaults.
func loadScenario(path string) (Scenario, error) {
	sc := Scenario{Config: sim.DefaultConfig()}
	if path == "" {
		return sc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return parseScenario(data, sc)
}

func parseScenario(data []byte, base Scenario) (Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&base); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario YAML: %w", err)
	}
	base.Fleet.Duration = base.Fleet.Duration.Normalized()
	base.Depot.Duration = base.Depot.Duration.Normalized()
	return base, nil
}

// allocation returns the explicit allocation or derives one from the config.
func (sc Scenario) allocation() (sim.Allocation, error) {
	return sc.allocationFor(sc.Config)
}

// allocationFor is allocation for a variant of the scenario's config.
func (sc Scenario) allocationFor(cfg sim.Config) (sim.Allocation, error) {
	if sc.Allocation != nil {
		return *sc.Allocation, nil
	}
	return sim.ComputeAllocation(cfg)
}
