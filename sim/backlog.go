package sim

import "sort"

// BacklogEntry is a replacement part on order. New parts always start at
// cycle 0.
type BacklogEntry struct {
	PartID      PartID  `json:"part_id"`
	ArrivalTime float64 `json:"arrival_time"`
	Cycle       int     `json:"cycle"`
}

// CondemnationRecord links a retired part to its replacement.
type CondemnationRecord struct {
	PartID          PartID  `json:"part_id"`
	SimID           SimID   `json:"sim_id"`
	DepotEnd        float64 `json:"depot_end"`
	NewPartID       PartID  `json:"new_part_id"`
	ConditionAStart float64 `json:"condition_a_start"`
}

// Backlog tracks replacement parts between condemnation and arrival.
// Replacement ids continue upward from the initial part count and are
// never reused.
type Backlog struct {
	next    PartID
	pending map[PartID]BacklogEntry
	condemn []CondemnationRecord
}

// NewBacklog creates an empty backlog whose first replacement id is
// firstID.
func NewBacklog(firstID PartID) *Backlog {
	return &Backlog{
		next:    firstID,
		pending: make(map[PartID]BacklogEntry),
	}
}

// Order places an order arriving at arrival and returns the new part id.
func (b *Backlog) Order(arrival float64) PartID {
	id := b.next
	b.next++
	b.pending[id] = BacklogEntry{PartID: id, ArrivalTime: arrival}
	return id
}

// Arrive removes and returns the order for id.
func (b *Backlog) Arrive(id PartID) (BacklogEntry, bool) {
	e, ok := b.pending[id]
	if !ok {
		return BacklogEntry{}, false
	}
	delete(b.pending, id)
	return e, true
}

// LogCondemnation records a retirement.
func (b *Backlog) LogCondemnation(rec CondemnationRecord) {
	b.condemn = append(b.condemn, rec)
}

// CondemnLog returns the retirement history in the order it happened.
func (b *Backlog) CondemnLog() []CondemnationRecord {
	return append([]CondemnationRecord(nil), b.condemn...)
}

// Pending returns the outstanding orders sorted by arrival, then part id.
func (b *Backlog) Pending() []BacklogEntry {
	out := make([]BacklogEntry, 0, len(b.pending))
	for _, e := range b.pending {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ArrivalTime != out[j].ArrivalTime {
			return out[i].ArrivalTime < out[j].ArrivalTime
		}
		return out[i].PartID < out[j].PartID
	})
	return out
}

// Len returns the number of outstanding orders.
func (b *Backlog) Len() int {
	return len(b.pending)
}

// NextPartID is the id the next Order will return.
func (b *Backlog) NextPartID() PartID {
	return b.next
}
