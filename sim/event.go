package sim

import "fmt"

// EventKind identifies which handler processes an event.
type EventKind int

const (
	// KindDepotComplete: a part finished repair. Entity is a SimID.
	KindDepotComplete EventKind = iota
	// KindFleetComplete: an aircraft finished its Fleet stage. Entity is a DesID.
	KindFleetComplete
	// KindPartFleetEnd: a part finished its Fleet stage. Entity is a SimID.
	KindPartFleetEnd
	// KindPartCondemn: a condemned part left the Depot. Entity is a SimID.
	KindPartCondemn
	// KindNewPartArrives: a replacement part arrived. Entity is a PartID.
	KindNewPartArrives
	// KindConditionFToDepot: a part seeded in Condition F is admitted to the
	// Depot. Entity is a SimID.
	KindConditionFToDepot

	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	KindDepotComplete:     "depot_complete",
	KindFleetComplete:     "fleet_complete",
	KindPartFleetEnd:      "part_fleet_end",
	KindPartCondemn:       "part_condemn",
	KindNewPartArrives:    "new_part_arrives",
	KindConditionFToDepot: "CF_DE",
}

func (k EventKind) String() string {
	if k < 0 || k >= numEventKinds {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	return k >= 0 && k < numEventKinds
}

// EventKinds returns every known kind in declaration order.
func EventKinds() []EventKind {
	kinds := make([]EventKind, numEventKinds)
	for i := range kinds {
		kinds[i] = EventKind(i)
	}
	return kinds
}

// ParseEventKind maps a name produced by String back to its kind.
func ParseEventKind(name string) (EventKind, error) {
	for i, n := range eventKindNames {
		if n == name {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}

// Event is a scheduled occurrence. Seq is assigned by the queue at schedule
// time and breaks ties between equal times in insertion order. Events are
// values and never change once scheduled.
type Event struct {
	Time   float64
	Seq    uint64
	Kind   EventKind
	Entity int64
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d)@%.4f#%d", e.Kind, e.Entity, e.Time, e.Seq)
}
