package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sparesim/sparesim/sim/trace"
)

func (s *Simulator) sampleFleet() float64 {
	return s.fleetDur.Sample(s.rng.ForSubsystem(SubsystemFleet))
}

func (s *Simulator) sampleDepot() float64 {
	return s.depotDur.Sample(s.rng.ForSubsystem(SubsystemDepot))
}

// activePart fetches a part the event refers to. A missing record means an
// event outlived its cycle, which the lifecycle never allows.
func (s *Simulator) activePart(id SimID) (*PartRecord, error) {
	p, ok := s.Parts.Get(id)
	if !ok {
		return nil, integrityf("part cycle %d is not active", id)
	}
	return p, nil
}

func (s *Simulator) activeAircraft(id DesID) (*AircraftRecord, error) {
	a, ok := s.Aircraft.Get(id)
	if !ok {
		return nil, integrityf("aircraft cycle %d is not active", id)
	}
	return a, nil
}

// handleDepotComplete: a repaired part either resolves the longest-waiting
// MICAP aircraft or is stocked in Condition A.
func (s *Simulator) handleDepotComplete(simID SimID) error {
	p, err := s.activePart(simID)
	if err != nil {
		return err
	}
	t := s.Clock
	partID, cycle := p.PartID, p.Cycle

	m, ok := s.Micap.PopEarliest(t, PathDepotResolvesMicap)
	if !ok {
		p.AddPath(PathDepotToCondA)
		p.ConditionA.Open(t)
		s.notePath(PathDepotToCondA)
		if err := s.Inventory.Add(InventoryEntry{
			SimID:           Some(simID),
			PartID:          partID,
			ConditionAStart: t,
			Path:            p.PathString(),
		}); err != nil {
			logrus.Warnf("[day %8.2f] depot_complete: %v", t, err)
		}
		return nil
	}

	desID, err := s.micapCycle(m)
	if err != nil {
		return err
	}
	d4 := s.cfg.InstallDuration
	p.AddPath(PathDepotResolvesMicap)
	p.Install.Set(t, d4)
	p.DesTwo = Some(desID)
	p.AcTwo = Some(m.AircraftID)
	s.Parts.Archive(simID)

	if err := s.closeMicapAircraft(m, desID, t, d4, simID, partID, PathMicapResolvedDepot); err != nil {
		return err
	}
	s.notePath(PathDepotResolvesMicap, PathMicapResolvedDepot, PathDepotRestart)
	return s.startNextCycle(t+d4, partID, cycle+1, m.AircraftID, PathDepotRestart)
}

// handleFleetComplete: an aircraft that finished flying takes the earliest
// stocked part, or goes MICAP when Condition A is empty.
func (s *Simulator) handleFleetComplete(desID DesID) error {
	a, err := s.activeAircraft(desID)
	if err != nil {
		return err
	}
	t := s.Clock
	acID := a.AircraftID

	e, ok := s.Inventory.PopEarliest(t)
	if !ok {
		a.AddPath(PathFleetEndMicap)
		a.Micap.Open(t)
		s.notePath(PathFleetEndMicap)
		if err := s.Micap.Add(MicapEntry{
			AircraftID: acID,
			DesID:      Some(desID),
			MicapStart: t,
			Fleet:      a.Fleet,
			Path:       a.PathString(),
		}); err != nil {
			logrus.Warnf("[day %8.2f] fleet_complete: %v", t, err)
		}
		return nil
	}

	simID, p, err := s.stockedPart(e)
	if err != nil {
		return err
	}
	partID, cycle := p.PartID, p.Cycle
	d4 := s.cfg.InstallDuration

	p.AddPath(PathCondAInstall)
	p.ConditionA.Close(t)
	p.Install.Set(t, d4)
	p.DesTwo = Some(desID)
	p.AcTwo = Some(acID)
	s.Parts.Archive(simID)

	a.AddPath(PathFleetEndInstall)
	a.Install.Set(t, d4)
	a.SimTwo = Some(simID)
	a.PartTwo = Some(partID)
	s.Aircraft.Archive(desID)

	s.notePath(PathCondAInstall, PathFleetEndInstall, PathCondARestart)
	return s.startNextCycle(t+d4, partID, cycle+1, acID, PathCondARestart)
}

// handlePartFleetEnd: a part removed from an aircraft waits in Condition F
// for a Depot machine. A part on its condemn cycle gets a shortened repair
// and is retired when it completes.
func (s *Simulator) handlePartFleetEnd(simID SimID) error {
	p, err := s.activePart(simID)
	if err != nil {
		return err
	}
	fleetEnd, ok := p.Fleet.End.Get()
	if !ok {
		return integrityf("part cycle %d reached fleet end without a fleet end time", simID)
	}

	d3 := s.sampleDepot()
	condemned := p.Cycle == s.cfg.Condemn.Cycle
	if condemned {
		d3 *= s.cfg.Condemn.DepotFraction
	}
	start, end := s.Depot.Admit(fleetEnd, d3)
	p.ConditionF.Start = Some(fleetEnd)
	p.ConditionF.Close(start)
	p.AddPath(PathConditionF)
	p.Depot.Set(start, d3)
	if condemned {
		p.Condemned = true
		p.AddPath(PathDepotCondemn)
		s.recordDepot(p, fleetEnd)
		s.notePath(PathConditionF, PathDepotCondemn)
		s.schedule(end, KindPartCondemn, int64(simID))
		return nil
	}

	p.AddPath(PathDepot)
	s.recordDepot(p, fleetEnd)
	s.notePath(PathConditionF, PathDepot)
	s.schedule(end, KindDepotComplete, int64(simID))
	return nil
}

// handleConditionFToDepot admits a part seeded into Condition F at t=0.
// Same admission as the normal branch of handlePartFleetEnd.
func (s *Simulator) handleConditionFToDepot(simID SimID) error {
	p, err := s.activePart(simID)
	if err != nil {
		return err
	}
	if last := lastPath(p.Path); last != PathInitConditionF {
		return integrityf("CF_DE for part cycle %d with path %q, want a seeded Condition F part", simID, p.PathString())
	}
	cfStart, ok := p.ConditionF.Start.Get()
	if !ok {
		return integrityf("CF_DE for part cycle %d without a Condition F start", simID)
	}

	d3 := s.sampleDepot()
	start, end := s.Depot.Admit(cfStart, d3)

	p.ConditionF.Close(start)
	p.Depot.Set(start, d3)
	p.AddPath(PathCondFToDepot)
	s.recordDepot(p, cfStart)
	s.notePath(PathCondFToDepot)
	s.schedule(end, KindDepotComplete, int64(simID))
	return nil
}

// handlePartCondemn retires a condemned part and orders its replacement.
func (s *Simulator) handlePartCondemn(simID SimID) error {
	p, err := s.activePart(simID)
	if err != nil {
		return err
	}
	if !p.Condemned {
		return integrityf("part_condemn for part cycle %d that is not condemned", simID)
	}
	depotEnd, ok := p.Depot.End.Get()
	if !ok {
		return integrityf("part_condemn for part cycle %d without a depot end", simID)
	}

	arrival := depotEnd + s.cfg.Condemn.OrderLag
	newID := s.Backlog.Order(arrival)
	s.Backlog.LogCondemnation(CondemnationRecord{
		PartID:          p.PartID,
		SimID:           simID,
		DepotEnd:        depotEnd,
		NewPartID:       newID,
		ConditionAStart: arrival,
	})
	logrus.Infof("[day %8.2f] part %d condemned at cycle %d; replacement %d due day %.2f",
		s.Clock, p.PartID, p.Cycle, newID, arrival)

	p.AddPath(PathCondemned)
	s.Parts.Archive(simID)
	s.notePath(PathCondemned)
	s.schedule(arrival, KindNewPartArrives, int64(newID))
	return nil
}

// handleNewPartArrives: same routing as a Depot completion, for a part with
// no cycle history. Its first record is created here at cycle 0.
func (s *Simulator) handleNewPartArrives(partID PartID) error {
	order, ok := s.Backlog.Arrive(partID)
	if !ok {
		return integrityf("new part %d arrived without an outstanding order", partID)
	}
	t := order.ArrivalTime

	m, ok := s.Micap.PopEarliest(t, PathNewPartResolves)
	if !ok {
		simID := s.Parts.NextID()
		rec := PartRecord{
			SimID:  simID,
			PartID: partID,
			Cycle:  order.Cycle,
			Path:   []string{PathNewPartToCondA},
		}
		rec.ConditionA.Open(t)
		if err := s.Parts.Create(rec); err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		s.notePath(PathNewPartToCondA)
		if err := s.Inventory.Add(InventoryEntry{
			SimID:           Some(simID),
			PartID:          partID,
			ConditionAStart: t,
			Path:            PathNewPartToCondA,
		}); err != nil {
			logrus.Warnf("[day %8.2f] new_part_arrives: %v", t, err)
		}
		return nil
	}

	desID, err := s.micapCycle(m)
	if err != nil {
		return err
	}
	d4 := s.cfg.InstallDuration
	simID := s.Parts.NextID()
	rec := PartRecord{
		SimID:  simID,
		PartID: partID,
		Cycle:  order.Cycle,
		DesTwo: Some(desID),
		AcTwo:  Some(m.AircraftID),
		Path:   []string{PathNewPartResolves},
	}
	rec.ConditionA.Set(t, 0)
	rec.Install.Set(t, d4)
	if err := s.Parts.Create(rec); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	s.Parts.Archive(simID)

	if err := s.closeMicapAircraft(m, desID, t, d4, simID, partID, PathMicapResolvedNew); err != nil {
		return err
	}
	s.notePath(PathNewPartResolves, PathMicapResolvedNew, PathNewPartRestart)
	return s.startNextCycle(t+d4, partID, order.Cycle+1, m.AircraftID, PathNewPartRestart)
}

// stockedPart resolves a Condition A entry to its active cycle record and
// checks the two agree on the part.
func (s *Simulator) stockedPart(e InventoryEntry) (SimID, *PartRecord, error) {
	simID, ok := e.SimID.Get()
	if !ok {
		return 0, nil, integrityf("condition A entry for part %d has no cycle record", e.PartID)
	}
	p, err := s.activePart(simID)
	if err != nil {
		return 0, nil, err
	}
	if p.PartID != e.PartID {
		return 0, nil, integrityf("condition A entry names part %d but cycle %d belongs to part %d",
			e.PartID, simID, p.PartID)
	}
	return simID, p, nil
}

// micapCycle returns the aircraft cycle a MICAP entry closes, allocating
// one when the aircraft was grounded before any cycle record existed.
func (s *Simulator) micapCycle(m MicapEntry) (DesID, error) {
	if id, ok := m.DesID.Get(); ok {
		if !s.Aircraft.IsActive(id) {
			return 0, integrityf("MICAP aircraft %d refers to inactive cycle %d", m.AircraftID, id)
		}
		return id, nil
	}
	return s.Aircraft.NextID(), nil
}

// closeMicapAircraft stamps the MICAP end and install on the aircraft
// cycle and archives it. The cycle record is created first when it does
// not exist yet.
func (s *Simulator) closeMicapAircraft(m MicapEntry, desID DesID, t, d4 float64, simID SimID, partID PartID, code string) error {
	if !s.Aircraft.IsActive(desID) {
		rec := AircraftRecord{
			DesID:      desID,
			AircraftID: m.AircraftID,
		}
		if m.Path != "" {
			rec.Path = []string{m.Path}
		}
		rec.Micap.Open(m.MicapStart)
		if err := s.Aircraft.Create(rec); err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
	}
	s.Aircraft.Update(desID, func(a *AircraftRecord) {
		if code != "" {
			a.AddPath(code)
		}
		if !a.Micap.Start.IsSet() {
			a.Micap.Open(m.MicapStart)
		}
		a.Micap.End = m.MicapEnd
		a.Micap.Duration = m.MicapDuration
		a.Install.Set(t, d4)
		a.SimTwo = Some(simID)
		a.PartTwo = Some(partID)
	})
	s.Aircraft.Archive(desID)
	return nil
}

// beginCycle creates the paired part and aircraft records for a new Fleet
// stage starting at t with duration d1.
func (s *Simulator) beginCycle(t float64, partID PartID, cycle int, acID AircraftID, code string, d1 float64) (SimID, DesID, error) {
	simID := s.Parts.NextID()
	desID := s.Aircraft.NextID()

	part := PartRecord{
		SimID:  simID,
		PartID: partID,
		Cycle:  cycle,
		DesOne: Some(desID),
		AcOne:  Some(acID),
		Path:   []string{code},
	}
	part.Fleet.Set(t, d1)
	if err := s.Parts.Create(part); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	ac := AircraftRecord{
		DesID:      desID,
		AircraftID: acID,
		SimOne:     Some(simID),
		PartOne:    Some(partID),
		Path:       []string{code},
	}
	ac.Fleet.Set(t, d1)
	if err := s.Aircraft.Create(ac); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return simID, desID, nil
}

// startNextCycle begins a new Fleet stage after an install and schedules
// the aircraft's fleet_complete and the part's part_fleet_end.
func (s *Simulator) startNextCycle(t float64, partID PartID, cycle int, acID AircraftID, code string) error {
	d1 := s.sampleFleet()
	simID, desID, err := s.beginCycle(t, partID, cycle, acID, code, d1)
	if err != nil {
		return err
	}
	s.schedule(t+d1, KindFleetComplete, int64(desID))
	s.schedule(t+d1, KindPartFleetEnd, int64(simID))
	return nil
}

func (s *Simulator) recordDepot(p *PartRecord, request float64) {
	if !s.Trace.Config.Enabled() {
		return
	}
	s.Trace.RecordDepot(trace.DepotRecord{
		SimID:     int64(p.SimID),
		PartID:    int64(p.PartID),
		Request:   request,
		Start:     p.Depot.Start.Or(0),
		End:       p.Depot.End.Or(0),
		Condemned: p.Condemned,
	})
}
