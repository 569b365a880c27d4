package sim

import (
	"container/heap"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Condition A log event names.
const (
	EventEnterConditionA = "ENTER_COND_A"
	EventExitConditionA  = "EXIT_COND_A"
)

// InventoryEntry is a part available for install. SimID is empty for a
// part that has no cycle record yet.
type InventoryEntry struct {
	SimID           Opt[SimID]
	PartID          PartID
	ConditionAStart float64
	ConditionAEnd   Opt[float64]
	Path            string
}

// InventoryLogRow is one ENTER/EXIT transition. Count is the occupancy
// after the transition.
type InventoryLogRow struct {
	EventTime       float64      `json:"event_time"`
	Event           string       `json:"event"`
	SimID           Opt[SimID]   `json:"sim_id"`
	PartID          PartID       `json:"part_id"`
	ConditionAStart float64      `json:"condition_a_start"`
	ConditionAEnd   Opt[float64] `json:"condition_a_end"`
	Count           int          `json:"count"`
	Path            string       `json:"path"`
}

// inventoryHeap orders entries by (ConditionAStart, PartID).
type inventoryHeap []InventoryEntry

func (h inventoryHeap) Len() int { return len(h) }
func (h inventoryHeap) Less(i, j int) bool {
	if h[i].ConditionAStart != h[j].ConditionAStart {
		return h[i].ConditionAStart < h[j].ConditionAStart
	}
	return h[i].PartID < h[j].PartID
}
func (h inventoryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *inventoryHeap) Push(x any) {
	*h = append(*h, x.(InventoryEntry))
}

func (h *inventoryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// InventoryQueue is Condition A: parts ready to install, drained earliest
// arrival first with part id as the tie-break.
type InventoryQueue struct {
	items  inventoryHeap
	parts  map[PartID]struct{}
	sims   map[SimID]struct{}
	log    []InventoryLogRow
	report func(Anomaly)
}

// NewInventoryQueue creates an empty queue. report receives soft anomalies
// and may be nil.
func NewInventoryQueue(report func(Anomaly)) *InventoryQueue {
	if report == nil {
		report = func(Anomaly) {}
	}
	return &InventoryQueue{
		parts:  make(map[PartID]struct{}),
		sims:   make(map[SimID]struct{}),
		report: report,
	}
}

// Add stocks a part. A part id or sim id already in stock is rejected and
// leaves the queue unchanged.
func (q *InventoryQueue) Add(e InventoryEntry) error {
	dupKey := ""
	if _, dup := q.parts[e.PartID]; dup {
		dupKey = fmt.Sprintf("part_id %d", e.PartID)
	} else if id, ok := e.SimID.Get(); ok {
		if _, dup := q.sims[id]; dup {
			dupKey = fmt.Sprintf("sim_id %d", id)
		}
	}
	if dupKey != "" {
		err := &RejectedError{Op: "inventory.add", Key: dupKey}
		q.report(Anomaly{
			Type:    AnomalyDuplicatePart,
			Time:    e.ConditionAStart,
			Entity:  int64(e.PartID),
			Message: err.Error(),
		})
		logrus.Warnf("[day %8.2f] %v", e.ConditionAStart, err)
		return err
	}

	heap.Push(&q.items, e)
	q.parts[e.PartID] = struct{}{}
	if id, ok := e.SimID.Get(); ok {
		q.sims[id] = struct{}{}
	}
	q.log = append(q.log, InventoryLogRow{
		EventTime:       e.ConditionAStart,
		Event:           EventEnterConditionA,
		SimID:           e.SimID,
		PartID:          e.PartID,
		ConditionAStart: e.ConditionAStart,
		Count:           len(q.items),
		Path:            e.Path,
	})
	return nil
}

// PopEarliest removes the earliest-stocked part, stamping its Condition A
// end at t.
func (q *InventoryQueue) PopEarliest(t float64) (InventoryEntry, bool) {
	if len(q.items) == 0 {
		return InventoryEntry{}, false
	}
	e := heap.Pop(&q.items).(InventoryEntry)
	delete(q.parts, e.PartID)
	if id, ok := e.SimID.Get(); ok {
		delete(q.sims, id)
	}
	e.ConditionAEnd = Some(t)
	q.log = append(q.log, InventoryLogRow{
		EventTime:       t,
		Event:           EventExitConditionA,
		SimID:           e.SimID,
		PartID:          e.PartID,
		ConditionAStart: e.ConditionAStart,
		ConditionAEnd:   e.ConditionAEnd,
		Count:           len(q.items),
		Path:            e.Path,
	})
	return e, true
}

// Peek returns the next part PopEarliest would return.
func (q *InventoryQueue) Peek() (InventoryEntry, bool) {
	if len(q.items) == 0 {
		return InventoryEntry{}, false
	}
	return q.items[0], true
}

// Len returns the number of parts in stock.
func (q *InventoryQueue) Len() int {
	return len(q.items)
}

// ContainsPart reports whether the part is in stock.
func (q *InventoryQueue) ContainsPart(id PartID) bool {
	_, ok := q.parts[id]
	return ok
}

// Log returns the ENTER/EXIT history.
func (q *InventoryQueue) Log() []InventoryLogRow {
	return append([]InventoryLogRow(nil), q.log...)
}
