package sim

import (
	"container/heap"
	"math"
)

// busyHeap is a min-heap of machine busy-until times.
type busyHeap []float64

func (h busyHeap) Len() int           { return len(h) }
func (h busyHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h busyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *busyHeap) Push(x any) {
	*h = append(*h, x.(float64))
}

func (h *busyHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// DepotScheduler assigns repairs to capacity identical machines, each
// request going to the machine that frees up earliest. Scheduling is
// forward: a slot is reused by the next request after its end time is
// known, not released by a completion event. Once full, the heap holds
// exactly one busy-until time per machine, so no two admitted intervals on
// the same machine overlap.
type DepotScheduler struct {
	capacity int
	busy     busyHeap
}

// NewDepotScheduler creates a scheduler with capacity machines. capacity
// must be positive.
func NewDepotScheduler(capacity int) *DepotScheduler {
	if capacity <= 0 {
		panic("NewDepotScheduler: capacity must be > 0")
	}
	return &DepotScheduler{capacity: capacity}
}

// Admit schedules a repair requested at request. It starts at request if a
// machine has never been used, otherwise at the later of request and the
// earliest machine-free time.
func (d *DepotScheduler) Admit(request, duration float64) (start, end float64) {
	start = d.reserve(request)
	end = start + duration
	d.Commit(end)
	return start, end
}

// reserve claims the earliest-free machine for a request and returns the
// start time. Every reserve must be followed by exactly one Commit.
func (d *DepotScheduler) reserve(request float64) float64 {
	if len(d.busy) < d.capacity {
		return request
	}
	earliest := heap.Pop(&d.busy).(float64)
	return math.Max(request, earliest)
}

// Commit records a machine busy until end. Used directly for parts seeded
// into the Depot at t=0.
func (d *DepotScheduler) Commit(end float64) {
	heap.Push(&d.busy, end)
}

// Committed returns the number of busy-until times held.
func (d *DepotScheduler) Committed() int {
	return len(d.busy)
}

// Capacity returns the number of machines.
func (d *DepotScheduler) Capacity() int {
	return d.capacity
}

// EarliestFree returns the earliest busy-until time, if any machine is
// committed.
func (d *DepotScheduler) EarliestFree() (float64, bool) {
	if len(d.busy) == 0 {
		return 0, false
	}
	return d.busy[0], true
}
