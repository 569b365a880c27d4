package sim

import (
	"fmt"
	"math"
)

// Allocation is the initial placement of every part and aircraft. Part ids
// are handed out in a fixed order: installed, Depot, Condition F,
// Condition A. An installed part shares its id with the aircraft it is
// installed on. The remaining aircraft start in MICAP.
//
// The *Cycles slices are optional; when nil the initializer draws each
// cycle from the init RNG stream.
type Allocation struct {
	FleetPairIDs      []PartID     `yaml:"fleet_pair_ids"`
	DepotPartIDs      []PartID     `yaml:"depot_part_ids"`
	ConditionFPartIDs []PartID     `yaml:"condition_f_part_ids"`
	ConditionAPartIDs []PartID     `yaml:"condition_a_part_ids"`
	MicapAircraftIDs  []AircraftID `yaml:"micap_aircraft_ids"`

	DepotCycles      []int `yaml:"depot_cycles,omitempty"`
	ConditionFCycles []int `yaml:"condition_f_cycles,omitempty"`
	ConditionACycles []int `yaml:"condition_a_cycles,omitempty"`
}

// AircraftWithParts is the number of aircraft that start mission-capable.
func (a Allocation) AircraftWithParts() int {
	return len(a.FleetPairIDs)
}

// AllocatedParts is the number of parts placed somewhere at t=0.
func (a Allocation) AllocatedParts() int {
	return len(a.FleetPairIDs) + len(a.DepotPartIDs) + len(a.ConditionFPartIDs) + len(a.ConditionAPartIDs)
}

// MissionCapableAircraft is ceil(rate * aircraft), capped by the part count.
func MissionCapableAircraft(totalParts, totalAircraft int, rate float64) int {
	n := int(math.Ceil(rate * float64(totalAircraft)))
	return min(totalParts, n)
}

// SpareInit splits the parts left after filling mission-capable aircraft
// for a capacity and parts sweep. Spares fill the depot first and the rest
// wait in Condition F. None start in stock.
func SpareInit(totalParts, totalAircraft int, rate float64, capacity int) InitConfig {
	spares := max(0, totalParts-MissionCapableAircraft(totalParts, totalAircraft, rate))
	inDepot := min(spares, max(0, capacity))
	return InitConfig{PartsInDepot: inDepot, PartsInConditionF: spares - inDepot}
}

// ComputeAllocation derives the initial allocation from the config.
func ComputeAllocation(cfg Config) (Allocation, error) {
	if cfg.MissionCapableRate < 0 || cfg.MissionCapableRate > 1 {
		return Allocation{}, fmt.Errorf("mission_capable_rate must be in [0, 1], got %v", cfg.MissionCapableRate)
	}
	nWith := MissionCapableAircraft(cfg.TotalParts, cfg.TotalAircraft, cfg.MissionCapableRate)
	total := nWith + cfg.Init.PartsInDepot + cfg.Init.PartsInConditionF + cfg.Init.PartsInConditionA
	if total > cfg.TotalParts {
		return Allocation{}, fmt.Errorf("allocation over-assigns parts: %d installed + %d depot + %d condition F + %d condition A = %d > %d total",
			nWith, cfg.Init.PartsInDepot, cfg.Init.PartsInConditionF, cfg.Init.PartsInConditionA, total, cfg.TotalParts)
	}

	next := PartID(0)
	take := func(n int) []PartID {
		ids := make([]PartID, n)
		for i := range ids {
			ids[i] = next
			next++
		}
		return ids
	}
	a := Allocation{
		FleetPairIDs:      take(nWith),
		DepotPartIDs:      take(cfg.Init.PartsInDepot),
		ConditionFPartIDs: take(cfg.Init.PartsInConditionF),
		ConditionAPartIDs: take(cfg.Init.PartsInConditionA),
	}
	a.MicapAircraftIDs = make([]AircraftID, 0, cfg.TotalAircraft-nWith)
	for id := nWith; id < cfg.TotalAircraft; id++ {
		a.MicapAircraftIDs = append(a.MicapAircraftIDs, AircraftID(id))
	}
	return a, nil
}

// Validate checks the allocation against the config it will run with.
func (a Allocation) Validate(cfg Config) error {
	if a.AllocatedParts() > cfg.TotalParts {
		return fmt.Errorf("allocation places %d parts but total_parts is %d", a.AllocatedParts(), cfg.TotalParts)
	}
	if a.AircraftWithParts()+len(a.MicapAircraftIDs) > cfg.TotalAircraft {
		return fmt.Errorf("allocation places %d aircraft but total_aircraft is %d",
			a.AircraftWithParts()+len(a.MicapAircraftIDs), cfg.TotalAircraft)
	}
	if len(a.DepotPartIDs) > cfg.Depot.Capacity {
		return fmt.Errorf("allocation places %d parts in depot but capacity is %d", len(a.DepotPartIDs), cfg.Depot.Capacity)
	}
	checkCycles := func(name string, ids []PartID, cycles []int) error {
		if cycles == nil {
			return nil
		}
		if len(cycles) != len(ids) {
			return fmt.Errorf("%s: %d cycles for %d parts", name, len(cycles), len(ids))
		}
		for i, c := range cycles {
			if c < 1 || c >= cfg.Condemn.Cycle {
				return fmt.Errorf("%s: cycle %d for part %d outside [1, %d)", name, c, ids[i], cfg.Condemn.Cycle)
			}
		}
		return nil
	}
	if err := checkCycles("depot", a.DepotPartIDs, a.DepotCycles); err != nil {
		return err
	}
	if err := checkCycles("condition_f", a.ConditionFPartIDs, a.ConditionFCycles); err != nil {
		return err
	}
	if err := checkCycles("condition_a", a.ConditionAPartIDs, a.ConditionACycles); err != nil {
		return err
	}

	seenParts := make(map[PartID]struct{}, a.AllocatedParts())
	for _, group := range [][]PartID{a.FleetPairIDs, a.DepotPartIDs, a.ConditionFPartIDs, a.ConditionAPartIDs} {
		for _, id := range group {
			if _, dup := seenParts[id]; dup {
				return fmt.Errorf("part %d allocated twice", id)
			}
			seenParts[id] = struct{}{}
		}
	}
	seenAircraft := make(map[AircraftID]struct{}, len(a.FleetPairIDs)+len(a.MicapAircraftIDs))
	for _, id := range a.FleetPairIDs {
		seenAircraft[AircraftID(id)] = struct{}{}
	}
	for _, id := range a.MicapAircraftIDs {
		if _, dup := seenAircraft[id]; dup {
			return fmt.Errorf("aircraft %d allocated twice", id)
		}
		seenAircraft[id] = struct{}{}
	}
	return nil
}
