package sim

import (
	"fmt"
	"sort"
)

// CycleStore holds the active cycle records of one entity kind, keyed by a
// monotonically increasing cycle id, plus the append-only log of closed
// cycles. A record id is in exactly one of {active, log} once created.
//
// Thread-safety: NOT thread-safe. Owned by a single Simulator.
type CycleStore[K ~int64, R any] struct {
	name     string
	keyOf    func(*R) K
	clone    func(*R) R
	active   map[K]*R
	archived map[K]struct{}
	log      []R
	next     K
}

func newCycleStore[K ~int64, R any](name string, keyOf func(*R) K, clone func(*R) R) *CycleStore[K, R] {
	return &CycleStore[K, R]{
		name:     name,
		keyOf:    keyOf,
		clone:    clone,
		active:   make(map[K]*R),
		archived: make(map[K]struct{}),
	}
}

// NextID allocates the next cycle id. Ids are handed out in increasing order
// and never reused.
func (s *CycleStore[K, R]) NextID() K {
	id := s.next
	s.next++
	return id
}

// Create stores rec as an active record. A duplicate id, active or already
// archived, is rejected and leaves the store unchanged.
func (s *CycleStore[K, R]) Create(rec R) error {
	id := s.keyOf(&rec)
	if _, ok := s.active[id]; ok {
		return &RejectedError{Op: s.name + ".create", Key: fmt.Sprint(id)}
	}
	if _, ok := s.archived[id]; ok {
		return &RejectedError{Op: s.name + ".create", Key: fmt.Sprint(id)}
	}
	if id >= s.next {
		s.next = id + 1
	}
	s.active[id] = &rec
	return nil
}

// Get returns the active record for id.
func (s *CycleStore[K, R]) Get(id K) (*R, bool) {
	rec, ok := s.active[id]
	return rec, ok
}

// Update applies fn to the active record for id. Returns false when no
// active record exists.
func (s *CycleStore[K, R]) Update(id K, fn func(*R)) bool {
	rec, ok := s.active[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Archive closes the cycle: the record leaves the active set and an
// immutable copy is appended to the log in the same step.
func (s *CycleStore[K, R]) Archive(id K) (R, bool) {
	rec, ok := s.active[id]
	if !ok {
		var zero R
		return zero, false
	}
	delete(s.active, id)
	s.archived[id] = struct{}{}
	frozen := s.clone(rec)
	s.log = append(s.log, frozen)
	return s.clone(&frozen), true
}

// Len returns the number of active records.
func (s *CycleStore[K, R]) Len() int {
	return len(s.active)
}

// LogLen returns the number of archived records.
func (s *CycleStore[K, R]) LogLen() int {
	return len(s.log)
}

// IsActive reports whether id is in the active set.
func (s *CycleStore[K, R]) IsActive(id K) bool {
	_, ok := s.active[id]
	return ok
}

// IsArchived reports whether id is in the log.
func (s *CycleStore[K, R]) IsArchived(id K) bool {
	_, ok := s.archived[id]
	return ok
}

// ActiveIDs returns the active ids in ascending order.
func (s *CycleStore[K, R]) ActiveIDs() []K {
	ids := make([]K, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Log returns copies of the archived records in archive order.
func (s *CycleStore[K, R]) Log() []R {
	out := make([]R, len(s.log))
	for i := range s.log {
		out[i] = s.clone(&s.log[i])
	}
	return out
}

// ExportAll merges the log and the active set into one view sorted by id.
// An id present in both is a lifecycle bug and is reported as ErrIntegrity.
func (s *CycleStore[K, R]) ExportAll() ([]R, error) {
	seen := make(map[K]struct{}, len(s.log)+len(s.active))
	out := make([]R, 0, len(s.log)+len(s.active))
	for i := range s.log {
		id := s.keyOf(&s.log[i])
		if _, dup := seen[id]; dup {
			return nil, integrityf("%s: id %v archived twice", s.name, id)
		}
		seen[id] = struct{}{}
		out = append(out, s.clone(&s.log[i]))
	}
	for id, rec := range s.active {
		if _, dup := seen[id]; dup {
			return nil, integrityf("%s: id %v found in both the log and the active set", s.name, id)
		}
		out = append(out, s.clone(rec))
	}
	sort.Slice(out, func(i, j int) bool { return s.keyOf(&out[i]) < s.keyOf(&out[j]) })
	return out, nil
}
