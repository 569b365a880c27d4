package sim

import "container/heap"

// eventHeap orders events by (Time, Seq).
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	// Primary: time (earlier first)
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	// Secondary: schedule order
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// EventQueue is the global calendar. Events with equal times pop in the
// order they were scheduled.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(eventHeap, 0)}
}

// Schedule adds an event and returns it with its sequence number.
func (q *EventQueue) Schedule(t float64, kind EventKind, entity int64) Event {
	ev := Event{Time: t, Seq: q.nextSeq, Kind: kind, Entity: entity}
	q.nextSeq++
	heap.Push(&q.events, ev)
	return ev
}

// PopNext removes and returns the next event.
func (q *EventQueue) PopNext() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.events).(Event), true
}

// Peek returns the next event without removing it.
func (q *EventQueue) Peek() (Event, bool) {
	if len(q.events) == 0 {
		return Event{}, false
	}
	return q.events[0], true
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Scheduled returns how many events have ever been scheduled.
func (q *EventQueue) Scheduled() uint64 {
	return q.nextSeq
}
