package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sparesim/sparesim/sim/trace"
)

// progressEvery is how many processed events separate progress callbacks.
const progressEvery = 100

// ProgressFunc is invoked every 100 processed events with the kind of the
// event just processed, how many of that kind have been processed, and the
// total processed. It must not mutate simulation state.
type ProgressFunc func(kind EventKind, kindCount, total int)

// Snapshot is a read-only view of engine occupancy after an event.
type Snapshot struct {
	Clock          float64
	Processed      int
	Pending        int
	Micap          int
	ConditionA     int
	Backlog        int
	DepotCommitted int
	ActiveParts    int
	ActiveAircraft int
	Anomalies      int
}

// Observer receives every processed event together with a snapshot taken
// after its handler returned.
type Observer interface {
	ObserveEvent(ev Event, snap Snapshot)
}

// Simulator is the core object that holds simulation time, the entity
// stores, the waiting queues, the Depot and the event calendar.
//
// Thread-safety: NOT thread-safe. One goroutine per Simulator.
type Simulator struct {
	cfg   Config
	alloc Allocation

	Clock float64

	rng      *PartitionedRNG
	fleetDur DurationSampler
	depotDur DurationSampler

	Parts     *PartStore
	Aircraft  *AircraftStore
	Micap     *MicapQueue
	Inventory *InventoryQueue
	Backlog   *Backlog
	Depot     *DepotScheduler
	Events    *EventQueue
	Trace     *trace.SimulationTrace

	counts    [numEventKinds]int
	processed int
	anomalies []Anomaly

	progress ProgressFunc
	observer Observer

	// stage codes written by the handler currently running, for the trace
	handlerPath []string

	initialized bool
	hasRun      bool
}

// NewSimulator validates cfg and alloc and builds an engine ready to Run.
func NewSimulator(cfg Config, alloc Allocation) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := alloc.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid allocation: %w", err)
	}
	fleetDur, err := NewDurationSampler(cfg.Fleet.Duration)
	if err != nil {
		return nil, fmt.Errorf("fleet duration: %w", err)
	}
	depotDur, err := NewDurationSampler(cfg.Depot.Duration)
	if err != nil {
		return nil, fmt.Errorf("depot duration: %w", err)
	}

	s := &Simulator{
		cfg:      cfg,
		alloc:    alloc,
		rng:      NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		fleetDur: fleetDur,
		depotDur: depotDur,
		Parts:    NewPartStore(),
		Aircraft: NewAircraftStore(),
		Backlog:  NewBacklog(PartID(cfg.TotalParts)),
		Depot:    NewDepotScheduler(cfg.Depot.Capacity),
		Events:   NewEventQueue(),
		Trace:    trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(cfg.Output.TraceLevel)}),
	}
	s.Micap = NewMicapQueue(cfg.TotalAircraft, s.reportAnomaly)
	s.Inventory = NewInventoryQueue(s.reportAnomaly)
	return s, nil
}

// SetProgress installs the progress callback. nil disables it.
func (s *Simulator) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// SetObserver installs a read-only observer. nil disables it.
func (s *Simulator) SetObserver(o Observer) {
	s.observer = o
}

// Config returns the configuration the engine was built with.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Allocation returns the initial allocation the engine was built with.
func (s *Simulator) Allocation() Allocation {
	return s.alloc
}

// Anomalies returns the soft anomalies recorded so far.
func (s *Simulator) Anomalies() []Anomaly {
	return append([]Anomaly(nil), s.anomalies...)
}

// EventCounts returns processed events per kind name plus "total".
func (s *Simulator) EventCounts() map[string]int {
	out := make(map[string]int, numEventKinds+1)
	for _, k := range EventKinds() {
		out[k.String()] = s.counts[k]
	}
	out["total"] = s.processed
	return out
}

// Processed returns the number of events handled.
func (s *Simulator) Processed() int {
	return s.processed
}

func (s *Simulator) reportAnomaly(a Anomaly) {
	logrus.Warnf("[day %8.2f] anomaly %s: %s", a.Time, a.Type, a.Message)
	s.anomalies = append(s.anomalies, a)
}

func (s *Simulator) snapshot() Snapshot {
	return Snapshot{
		Clock:          s.Clock,
		Processed:      s.processed,
		Pending:        s.Events.Len(),
		Micap:          s.Micap.Len(),
		ConditionA:     s.Inventory.Len(),
		Backlog:        s.Backlog.Len(),
		DepotCommitted: s.Depot.Committed(),
		ActiveParts:    s.Parts.Len(),
		ActiveAircraft: s.Aircraft.Len(),
		Anomalies:      len(s.anomalies),
	}
}

// ErrAlreadyRun is returned by a second call to Run.
var ErrAlreadyRun = errors.New("simulator already run")

// Run seeds the initial state, then processes events in (time, seq) order
// until the calendar is empty or the next event lies beyond the horizon.
// An integrity failure aborts the run and is returned wrapped in
// ErrIntegrity. ctx is checked between events.
func (s *Simulator) Run(ctx context.Context) error {
	if s.hasRun {
		return ErrAlreadyRun
	}
	s.hasRun = true

	if err := s.Initialize(); err != nil {
		return fmt.Errorf("initialization: %w", err)
	}
	s.scheduleInitialEvents()
	logrus.Infof("[day %8.2f] initialization done: %d active parts, %d active aircraft, %d MICAP, %d in condition A, %d events scheduled",
		s.Clock, s.Parts.Len(), s.Aircraft.Len(), s.Micap.Len(), s.Inventory.Len(), s.Events.Len())

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted at day %.2f: %w", s.Clock, err)
		}
		ev, ok := s.Events.PopNext()
		if !ok {
			break
		}
		if ev.Time > s.cfg.Horizon {
			// discarded, not processed
			logrus.Debugf("[day %8.2f] horizon %.2f reached; discarding %v", ev.Time, s.cfg.Horizon, ev)
			break
		}
		if ev.Time < s.Clock {
			return integrityf("event %v scheduled before current clock %.4f", ev, s.Clock)
		}
		s.Clock = ev.Time
		s.counts[ev.Kind]++
		s.processed++

		if s.progress != nil && s.processed%progressEvery == 0 {
			s.progress(ev.Kind, s.counts[ev.Kind], s.processed)
		}

		s.handlerPath = s.handlerPath[:0]
		if err := s.dispatch(ev); err != nil {
			return fmt.Errorf("%v: %w", ev, err)
		}
		if s.Trace.Config.Enabled() {
			s.Trace.RecordEvent(trace.EventRecord{
				Seq:    ev.Seq,
				Time:   ev.Time,
				Kind:   ev.Kind.String(),
				Entity: ev.Entity,
				Path:   joinPath(s.handlerPath),
			})
		}
		if s.observer != nil {
			s.observer.ObserveEvent(ev, s.snapshot())
		}
	}
	logrus.Infof("[day %8.2f] simulation ended after %d events", s.Clock, s.processed)
	return nil
}

// dispatch routes an event to its handler.
func (s *Simulator) dispatch(ev Event) error {
	logrus.Debugf("[day %8.2f] executing %v", ev.Time, ev)
	switch ev.Kind {
	case KindDepotComplete:
		return s.handleDepotComplete(SimID(ev.Entity))
	case KindFleetComplete:
		return s.handleFleetComplete(DesID(ev.Entity))
	case KindPartFleetEnd:
		return s.handlePartFleetEnd(SimID(ev.Entity))
	case KindPartCondemn:
		return s.handlePartCondemn(SimID(ev.Entity))
	case KindNewPartArrives:
		return s.handleNewPartArrives(PartID(ev.Entity))
	case KindConditionFToDepot:
		return s.handleConditionFToDepot(SimID(ev.Entity))
	default:
		return integrityf("unhandled event kind %v", ev.Kind)
	}
}

// schedule adds a follow-up event.
func (s *Simulator) schedule(t float64, kind EventKind, entity int64) {
	ev := s.Events.Schedule(t, kind, entity)
	logrus.Debugf("[day %8.2f] scheduled %v", s.Clock, ev)
}

// notePath remembers stage codes for the trace record of the current event.
func (s *Simulator) notePath(codes ...string) {
	s.handlerPath = append(s.handlerPath, codes...)
}

// scheduleInitialEvents seeds the calendar from the initialized state in a
// fixed order: Depot completions, Fleet completions, backlog arrivals,
// Condition F seeds, then parts advanced from Fleet end to Condition F.
func (s *Simulator) scheduleInitialEvents() {
	partIDs := s.Parts.ActiveIDs()

	for _, id := range partIDs {
		p, _ := s.Parts.Get(id)
		if end, ok := p.Depot.End.Get(); ok && !p.Condemned {
			s.schedule(end, KindDepotComplete, int64(id))
		}
	}
	for _, id := range s.Aircraft.ActiveIDs() {
		a, _ := s.Aircraft.Get(id)
		if end, ok := a.Fleet.End.Get(); ok {
			s.schedule(end, KindFleetComplete, int64(id))
		}
	}
	for _, e := range s.Backlog.Pending() {
		s.schedule(e.ArrivalTime, KindNewPartArrives, int64(e.PartID))
	}
	for _, id := range partIDs {
		p, _ := s.Parts.Get(id)
		if lastPath(p.Path) == PathInitConditionF {
			s.schedule(p.ConditionF.Start.Or(0), KindConditionFToDepot, int64(id))
		}
	}
	var fleetEnded []*PartRecord
	for _, id := range partIDs {
		p, _ := s.Parts.Get(id)
		if lastPath(p.Path) == PathInitFleetToCondF {
			fleetEnded = append(fleetEnded, p)
		}
	}
	sort.SliceStable(fleetEnded, func(i, j int) bool {
		return fleetEnded[i].ConditionF.Start.Or(0) < fleetEnded[j].ConditionF.Start.Or(0)
	})
	for _, p := range fleetEnded {
		s.schedule(p.ConditionF.Start.MustGet(), KindPartFleetEnd, int64(p.SimID))
	}
}

func joinPath(codes []string) string {
	return strings.Join(codes, ", ")
}

func lastPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}
