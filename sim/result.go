package sim

import (
	"context"
	"fmt"

	"github.com/sparesim/sparesim/sim/trace"
)

// Result is everything a finished run produced. Parts and Aircraft hold
// the archived and still-active cycle records merged and sorted by id.
type Result struct {
	Seed     int64   `json:"seed"`
	Horizon  float64 `json:"horizon"`
	EndClock float64 `json:"end_clock"`

	// Summary statistics only cover [AnalysisStart, AnalysisEnd].
	AnalysisStart float64 `json:"analysis_start"`
	AnalysisEnd   float64 `json:"analysis_end"`

	Parts    []PartRecord     `json:"parts"`
	Aircraft []AircraftRecord `json:"aircraft"`

	EventCounts  map[string]int       `json:"event_counts"`
	WIP          []WIPSnapshot        `json:"wip"`
	MicapLog     []MicapLogRow        `json:"micap_log"`
	InventoryLog []InventoryLogRow    `json:"inventory_log"`
	CondemnLog   []CondemnationRecord `json:"condemn_log"`
	Anomalies    []Anomaly            `json:"anomalies"`

	Trace *trace.SimulationTrace `json:"-"`
}

// Result collects the run output. It fails with ErrIntegrity when an id is
// both active and archived.
func (s *Simulator) Result() (*Result, error) {
	parts, err := s.Parts.ExportAll()
	if err != nil {
		return nil, err
	}
	aircraft, err := s.Aircraft.ExportAll()
	if err != nil {
		return nil, err
	}
	start, end := s.cfg.AnalysisWindow()
	return &Result{
		Seed:          s.cfg.Seed,
		Horizon:       s.cfg.Horizon,
		EndClock:      s.Clock,
		AnalysisStart: start,
		AnalysisEnd:   end,
		Parts:        parts,
		Aircraft:     aircraft,
		EventCounts:  s.EventCounts(),
		WIP:          ComputeWIP(parts, aircraft, s.cfg.Horizon, s.cfg.wipInterval()),
		MicapLog:     s.Micap.Log(),
		InventoryLog: s.Inventory.Log(),
		CondemnLog:   s.Backlog.CondemnLog(),
		Anomalies:    s.Anomalies(),
		Trace:        s.Trace,
	}, nil
}

// AnalysisWIP returns the snapshots taken inside the analysis window.
func (r *Result) AnalysisWIP() []WIPSnapshot {
	var out []WIPSnapshot
	for _, w := range r.WIP {
		if w.Time >= r.AnalysisStart && w.Time <= r.AnalysisEnd {
			out = append(out, w)
		}
	}
	return out
}

// Simulate computes the allocation from cfg, runs one engine to the
// horizon and returns its result.
func Simulate(ctx context.Context, cfg Config) (*Result, error) {
	alloc, err := ComputeAllocation(cfg)
	if err != nil {
		return nil, fmt.Errorf("allocation: %w", err)
	}
	return SimulateWith(ctx, cfg, alloc, nil)
}

// SimulateWith runs one engine with an explicit allocation. obs may be nil.
func SimulateWith(ctx context.Context, cfg Config, alloc Allocation, obs Observer) (*Result, error) {
	s, err := NewSimulator(cfg, alloc)
	if err != nil {
		return nil, err
	}
	if obs != nil {
		s.SetObserver(obs)
	}
	if err := s.Run(ctx); err != nil {
		return nil, err
	}
	return s.Result()
}
