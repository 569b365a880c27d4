package sim

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SimID identifies one part cycle record. Assigned at cycle start, never reused.
type SimID int64

// DesID identifies one aircraft cycle record. Assigned at cycle start, never reused.
type DesID int64

// PartID identifies a physical part across all of its cycles.
type PartID int64

// AircraftID identifies a physical aircraft across all of its cycles.
type AircraftID int64

// Opt holds a value that may not be known yet, e.g. a stage end time for a
// stage still in progress or a foreign key to a cycle that has not started.
// The zero value is empty.
type Opt[T any] struct {
	v  T
	ok bool
}

// Some returns an Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{v: v, ok: true}
}

// None returns an empty Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is set.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.ok
}

// IsSet reports whether a value is present.
func (o Opt[T]) IsSet() bool {
	return o.ok
}

// Or returns the value, or def when empty.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.v
	}
	return def
}

// MustGet returns the value and panics when empty. Only for values the
// lifecycle guarantees are set.
func (o Opt[T]) MustGet() T {
	if !o.ok {
		panic(fmt.Sprintf("Opt[%T]: value not set", o.v))
	}
	return o.v
}

func (o Opt[T]) String() string {
	if !o.ok {
		return "<none>"
	}
	return fmt.Sprint(o.v)
}

// MarshalJSON encodes an empty Opt as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON decodes null as an empty Opt.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Window is one stage interval of a cycle record. Any field may still be
// unknown while the stage is in progress.
type Window struct {
	Start    Opt[float64] `json:"start"`
	End      Opt[float64] `json:"end"`
	Duration Opt[float64] `json:"duration"`
}

// Open starts the window at t.
func (w *Window) Open(t float64) {
	w.Start = Some(t)
}

// Close ends the window at t and derives the duration from the start.
func (w *Window) Close(t float64) {
	w.End = Some(t)
	if start, ok := w.Start.Get(); ok {
		w.Duration = Some(t - start)
	}
}

// Set fills the whole window from a start and a duration.
func (w *Window) Set(start, duration float64) {
	w.Start = Some(start)
	w.Duration = Some(duration)
	w.End = Some(start + duration)
}

// Contains reports whether t lies in [start, end). A window without an end
// is treated as still open.
func (w Window) Contains(t float64) bool {
	start, ok := w.Start.Get()
	if !ok || start > t {
		return false
	}
	end, ok := w.End.Get()
	return !ok || t < end
}
