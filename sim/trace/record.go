// Package trace provides event-trace recording for simulation replay and
// determinism checks. This package has no dependencies on sim/; it stores
// pure data types.
package trace

// EventRecord captures one processed event and the stage codes its handler
// appended.
type EventRecord struct {
	Seq    uint64  `json:"seq"`
	Time   float64 `json:"time"`
	Kind   string  `json:"kind"`
	Entity int64   `json:"entity"`
	Path   string  `json:"path,omitempty"`
}

// DepotRecord captures a single Depot admission.
type DepotRecord struct {
	SimID     int64   `json:"sim_id"`
	PartID    int64   `json:"part_id"`
	Request   float64 `json:"request"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Condemned bool    `json:"condemned"`
}

// Wait is the Condition F time the admission implied.
func (r DepotRecord) Wait() float64 {
	return r.Start - r.Request
}
