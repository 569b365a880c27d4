package trace

import (
	"encoding/json"
	"fmt"
	"io"
)

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures every processed event and Depot admission.
	TraceLevelEvents TraceLevel = "events"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether anything will be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelEvents
}

// SimulationTrace collects records during a single engine run.
type SimulationTrace struct {
	Config TraceConfig
	Events []EventRecord
	Depot  []DepotRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Events: make([]EventRecord, 0),
		Depot:  make([]DepotRecord, 0),
	}
}

// RecordEvent appends a processed-event record.
func (st *SimulationTrace) RecordEvent(record EventRecord) {
	st.Events = append(st.Events, record)
}

// RecordDepot appends a Depot admission record.
func (st *SimulationTrace) RecordDepot(record DepotRecord) {
	st.Depot = append(st.Depot, record)
}

// WriteEventsJSONL writes one JSON object per processed event, in processing
// order. Two runs with identical inputs produce byte-identical output.
func (st *SimulationTrace) WriteEventsJSONL(w io.Writer) error {
	enc := json.NewEncoder(w)
	for i := range st.Events {
		if err := enc.Encode(&st.Events[i]); err != nil {
			return fmt.Errorf("encoding event %d: %w", st.Events[i].Seq, err)
		}
	}
	return nil
}
