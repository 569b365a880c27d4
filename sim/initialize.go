package sim

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"
)

// Initialize places every allocated part and aircraft at t=0:
//
//  1. installed parts and their aircraft start a Fleet stage
//  2. aircraft without a part enter MICAP
//  3. parts seeded in the Depot occupy a machine from t=0
//  4. parts seeded in Condition F wait for a machine
//  5. parts seeded in Condition A are stocked, then installed greedily on
//     MICAP aircraft until either side runs out
//  6. every part in a Fleet stage gets its Condition F start stamped at its
//     fleet end
//
// All draws use the init RNG stream. Run calls Initialize; calling it
// directly is for tests that inspect the seeded state.
func (s *Simulator) Initialize() error {
	if s.initialized {
		return errors.New("simulator already initialized")
	}
	s.initialized = true
	rng := s.rng.ForSubsystem(SubsystemInit)

	drawCycle := func() int {
		return 1 + rng.IntN(s.cfg.Condemn.Cycle-1)
	}
	cycleAt := func(cycles []int, i int) int {
		if cycles != nil {
			return cycles[i]
		}
		return drawCycle()
	}

	for _, id := range s.alloc.FleetPairIDs {
		d1 := s.fleetDur.Sample(rng) * s.cfg.Fleet.Stagger.Multiplier(rng)
		if _, _, err := s.beginCycle(0, id, drawCycle(), AircraftID(id), PathInitFleetStart, d1); err != nil {
			return fmt.Errorf("fleet part %d: %w", id, err)
		}
	}

	for _, acID := range s.alloc.MicapAircraftIDs {
		desID := s.Aircraft.NextID()
		rec := AircraftRecord{
			DesID:      desID,
			AircraftID: acID,
			Path:       []string{PathInitMicap},
		}
		rec.Micap.Open(0)
		if err := s.Aircraft.Create(rec); err != nil {
			return fmt.Errorf("%w: MICAP aircraft %d: %v", ErrIntegrity, acID, err)
		}
		if err := s.Micap.Add(MicapEntry{
			AircraftID: acID,
			DesID:      Some(desID),
			MicapStart: 0,
			Path:       PathInitMicap,
		}); err != nil {
			return fmt.Errorf("MICAP aircraft %d: %w", acID, err)
		}
	}

	for i, id := range s.alloc.DepotPartIDs {
		cycle := cycleAt(s.alloc.DepotCycles, i)
		d3 := s.depotDur.Sample(rng) * s.cfg.Depot.Stagger.Multiplier(rng)
		rec := PartRecord{
			SimID:  s.Parts.NextID(),
			PartID: id,
			Cycle:  cycle,
			Path:   []string{PathInitDepot},
		}
		rec.Depot.Set(0, d3)
		if err := s.Parts.Create(rec); err != nil {
			return fmt.Errorf("%w: depot part %d: %v", ErrIntegrity, id, err)
		}
		s.Depot.Commit(d3)
		s.recordDepot(&rec, 0)
	}

	for i, id := range s.alloc.ConditionFPartIDs {
		rec := PartRecord{
			SimID:  s.Parts.NextID(),
			PartID: id,
			Cycle:  cycleAt(s.alloc.ConditionFCycles, i),
			Path:   []string{PathInitConditionF},
		}
		rec.ConditionF.Open(0)
		if err := s.Parts.Create(rec); err != nil {
			return fmt.Errorf("%w: condition F part %d: %v", ErrIntegrity, id, err)
		}
	}

	for i, id := range s.alloc.ConditionAPartIDs {
		rec := PartRecord{
			SimID:  s.Parts.NextID(),
			PartID: id,
			Cycle:  cycleAt(s.alloc.ConditionACycles, i),
			Path:   []string{PathInitConditionA},
		}
		rec.ConditionA.Open(0)
		if err := s.Parts.Create(rec); err != nil {
			return fmt.Errorf("%w: condition A part %d: %v", ErrIntegrity, id, err)
		}
		if err := s.Inventory.Add(InventoryEntry{
			SimID:           Some(rec.SimID),
			PartID:          id,
			ConditionAStart: 0,
			Path:            PathInitConditionA,
		}); err != nil {
			return fmt.Errorf("condition A part %d: %w", id, err)
		}
	}
	if err := s.drainStockToMicap(rng); err != nil {
		return err
	}

	s.stampConditionFStarts()
	logrus.Debugf("[day %8.2f] seeded %d fleet pairs, %d MICAP, %d depot, %d condition F, %d condition A",
		s.Clock, len(s.alloc.FleetPairIDs), len(s.alloc.MicapAircraftIDs), len(s.alloc.DepotPartIDs),
		len(s.alloc.ConditionFPartIDs), len(s.alloc.ConditionAPartIDs))
	return nil
}

// drainStockToMicap installs stocked parts on MICAP aircraft at t=0 while
// both are available. Each install closes both cycles and starts a new
// Fleet stage with an unstaggered duration.
func (s *Simulator) drainStockToMicap(rng *rand.Rand) error {
	t := s.Clock
	d4 := s.cfg.InstallDuration
	for s.Inventory.Len() > 0 && s.Micap.Len() > 0 {
		e, _ := s.Inventory.PopEarliest(t)
		simID, p, err := s.stockedPart(e)
		if err != nil {
			return err
		}
		m, _ := s.Micap.PopEarliest(t, PathInitMicap)
		desID, err := s.micapCycle(m)
		if err != nil {
			return err
		}
		partID, cycle := p.PartID, p.Cycle

		p.ConditionA.Close(t)
		p.Install.Set(t, d4)
		p.DesTwo = Some(desID)
		p.AcTwo = Some(m.AircraftID)
		s.Parts.Archive(simID)

		if err := s.closeMicapAircraft(m, desID, t, d4, simID, partID, ""); err != nil {
			return err
		}
		d1 := s.fleetDur.Sample(rng)
		if _, _, err := s.beginCycle(t+d4, partID, cycle+1, m.AircraftID, PathInitRestart, d1); err != nil {
			return fmt.Errorf("restart part %d: %w", partID, err)
		}
	}
	return nil
}

// stampConditionFStarts marks every part still in a Fleet stage as
// entering Condition F at its fleet end, in fleet-end order.
func (s *Simulator) stampConditionFStarts() {
	var flying []*PartRecord
	for _, id := range s.Parts.ActiveIDs() {
		p, _ := s.Parts.Get(id)
		switch lastPath(p.Path) {
		case PathInitFleetStart, PathInitRestart:
			flying = append(flying, p)
		}
	}
	sort.SliceStable(flying, func(i, j int) bool {
		return flying[i].Fleet.End.Or(0) < flying[j].Fleet.End.Or(0)
	})
	for _, p := range flying {
		p.ConditionF.Start = p.Fleet.End
		p.AddPath(PathInitFleetToCondF)
	}
}
