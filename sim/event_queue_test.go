package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestEventQueue_TimestampOrdering tests that events pop in time order.
func TestEventQueue_TimestampOrdering(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(100, KindFleetComplete, 1)
	q.Schedule(50, KindDepotComplete, 2)
	q.Schedule(150, KindPartFleetEnd, 3)

	for _, want := range []float64{50, 100, 150} {
		ev, ok := q.PopNext()
		require.True(t, ok)
		assert.Equal(t, want, ev.Time)
	}
	_, ok := q.PopNext()
	assert.False(t, ok)
}

// TestEventQueue_EqualTimesPopInScheduleOrder tests the seq tie-break.
func TestEventQueue_EqualTimesPopInScheduleOrder(t *testing.T) {
	q := NewEventQueue()
	a := q.Schedule(10, KindPartFleetEnd, 1)
	b := q.Schedule(10, KindFleetComplete, 2)
	c := q.Schedule(10, KindDepotComplete, 3)

	for _, want := range []Event{a, b, c} {
		got, _ := q.PopNext()
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint64(3), q.Scheduled())
}

func TestEventQueue_Peek(t *testing.T) {
	q := NewEventQueue()
	_, ok := q.Peek()
	assert.False(t, ok)
	q.Schedule(3, KindPartCondemn, 9)
	ev, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, q.Len(), "peek must not remove")
	assert.Equal(t, KindPartCondemn, ev.Kind)
}

func TestEventQueue_TotalOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := NewEventQueue()
		times := rapid.SliceOfN(rapid.Float64Range(0, 20), 1, 60).Draw(t, "times")
		for i, tm := range times {
			// coarse times force many ties
			q.Schedule(float64(int(tm)), KindFleetComplete, int64(i))
		}
		var prev Event
		for i := 0; q.Len() > 0; i++ {
			ev, _ := q.PopNext()
			if i > 0 {
				if ev.Time < prev.Time {
					t.Fatalf("time went backwards: %v after %v", ev, prev)
				}
				if ev.Time == prev.Time && ev.Seq < prev.Seq {
					t.Fatalf("tie broken out of schedule order: %v after %v", ev, prev)
				}
			}
			prev = ev
		}
	})
}

func TestEventKind_NamesRoundTrip(t *testing.T) {
	for _, k := range EventKinds() {
		got, err := ParseEventKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.True(t, k.Valid())
	}
	assert.False(t, numEventKinds.Valid())
	assert.Equal(t, "EventKind(99)", EventKind(99).String())
	_, err := ParseEventKind("depot_started")
	assert.Error(t, err)
}
