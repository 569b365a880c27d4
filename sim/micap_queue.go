package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// MICAP log event names.
const (
	EventEnterMicap = "ENTER_MICAP"
	EventExitMicap  = "EXIT_MICAP"
)

// MicapEntry is an aircraft waiting for a part. DesID is empty only for an
// aircraft whose cycle record has not been created yet.
type MicapEntry struct {
	AircraftID    AircraftID
	DesID         Opt[DesID]
	MicapStart    float64
	MicapEnd      Opt[float64]
	MicapDuration Opt[float64]
	Fleet         Window // Fleet window of the cycle that ended in MICAP, if any
	Path          string
}

// MicapLogRow is one ENTER/EXIT transition. Count is the occupancy after
// the transition. Resolver is the stage code that resolved the MICAP and is
// only set on exits.
type MicapLogRow struct {
	EventTime  float64      `json:"event_time"`
	Event      string       `json:"event"`
	AircraftID AircraftID   `json:"ac_id"`
	DesID      Opt[DesID]   `json:"des_id"`
	MicapStart float64      `json:"micap_start"`
	MicapEnd   Opt[float64] `json:"micap_end"`
	Count      int          `json:"micap_count"`
	Resolver   string       `json:"event_type,omitempty"`
	Path       string       `json:"path"`
	Fleet      Window       `json:"fleet"`
}

// MicapQueue holds grounded aircraft in strict arrival order. Entries are
// always added in non-decreasing MicapStart order, so FIFO is also
// longest-waiting-first.
type MicapQueue struct {
	queue         []MicapEntry
	waiting       map[AircraftID]struct{}
	log           []MicapLogRow
	totalAircraft int
	report        func(Anomaly)
}

// NewMicapQueue creates an empty queue. totalAircraft bounds the expected
// occupancy; report receives soft anomalies and may be nil.
func NewMicapQueue(totalAircraft int, report func(Anomaly)) *MicapQueue {
	if report == nil {
		report = func(Anomaly) {}
	}
	return &MicapQueue{
		waiting:       make(map[AircraftID]struct{}),
		totalAircraft: totalAircraft,
		report:        report,
	}
}

// Add enqueues an aircraft. A second entry for an aircraft already waiting
// is rejected and leaves the queue unchanged.
func (q *MicapQueue) Add(e MicapEntry) error {
	if len(q.queue) >= q.totalAircraft {
		q.report(Anomaly{
			Type:    AnomalyMicapCountExceeded,
			Time:    e.MicapStart,
			Entity:  int64(e.AircraftID),
			Message: fmt.Sprintf("MICAP count (%d) would exceed total aircraft (%d)", len(q.queue), q.totalAircraft),
		})
	}
	if _, dup := q.waiting[e.AircraftID]; dup {
		err := &RejectedError{Op: "micap.add", Key: fmt.Sprint(e.AircraftID)}
		q.report(Anomaly{
			Type:    AnomalyDuplicateAircraft,
			Time:    e.MicapStart,
			Entity:  int64(e.AircraftID),
			Message: err.Error(),
		})
		logrus.Warnf("[day %8.2f] %v", e.MicapStart, err)
		return err
	}
	q.queue = append(q.queue, e)
	q.waiting[e.AircraftID] = struct{}{}
	q.log = append(q.log, MicapLogRow{
		EventTime:  e.MicapStart,
		Event:      EventEnterMicap,
		AircraftID: e.AircraftID,
		DesID:      e.DesID,
		MicapStart: e.MicapStart,
		Count:      len(q.queue),
		Path:       e.Path,
		Fleet:      e.Fleet,
	})
	return nil
}

// PopEarliest removes the longest-waiting aircraft, stamping its MICAP end
// at t. resolver is the stage code recorded on the EXIT row.
func (q *MicapQueue) PopEarliest(t float64, resolver string) (MicapEntry, bool) {
	if len(q.queue) == 0 {
		return MicapEntry{}, false
	}
	e := q.queue[0]
	q.queue[0] = MicapEntry{}
	q.queue = q.queue[1:]
	delete(q.waiting, e.AircraftID)

	e.MicapEnd = Some(t)
	e.MicapDuration = Some(t - e.MicapStart)
	q.log = append(q.log, MicapLogRow{
		EventTime:  t,
		Event:      EventExitMicap,
		AircraftID: e.AircraftID,
		DesID:      e.DesID,
		MicapStart: e.MicapStart,
		MicapEnd:   e.MicapEnd,
		Count:      len(q.queue),
		Resolver:   resolver,
		Path:       e.Path,
		Fleet:      e.Fleet,
	})
	return e, true
}

// Peek returns the longest-waiting aircraft without removing it.
func (q *MicapQueue) Peek() (MicapEntry, bool) {
	if len(q.queue) == 0 {
		return MicapEntry{}, false
	}
	return q.queue[0], true
}

// Len returns the number of aircraft waiting.
func (q *MicapQueue) Len() int {
	return len(q.queue)
}

// Contains reports whether the aircraft is waiting.
func (q *MicapQueue) Contains(id AircraftID) bool {
	_, ok := q.waiting[id]
	return ok
}

// Log returns the ENTER/EXIT history.
func (q *MicapQueue) Log() []MicapLogRow {
	return append([]MicapLogRow(nil), q.log...)
}
