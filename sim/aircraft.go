package sim

import "strings"

// AircraftRecord is one cycle of one aircraft: Fleet, then (optionally)
// MICAP, then Install. SimOne/PartOne name the part flown during the Fleet
// stage; SimTwo/PartTwo the part installed when the cycle closed.
type AircraftRecord struct {
	DesID      DesID      `json:"des_id"`
	AircraftID AircraftID `json:"ac_id"`
	Fleet      Window     `json:"fleet"`
	Micap      Window     `json:"micap"`
	Install    Window     `json:"install"`

	SimOne  Opt[SimID]  `json:"simone_id"`
	PartOne Opt[PartID] `json:"partone_id"`
	SimTwo  Opt[SimID]  `json:"simtwo_id"`
	PartTwo Opt[PartID] `json:"parttwo_id"`

	Path []string `json:"path"`
}

// PathString joins the stage codes with ", ".
func (a *AircraftRecord) PathString() string {
	return strings.Join(a.Path, ", ")
}

// AddPath appends stage codes.
func (a *AircraftRecord) AddPath(codes ...string) {
	a.Path = append(a.Path, codes...)
}

// Clone returns a deep copy.
func (a *AircraftRecord) Clone() AircraftRecord {
	c := *a
	c.Path = append([]string(nil), a.Path...)
	return c
}

// AircraftStore is the Aircraft Store: active aircraft cycles plus the
// closed-cycle log.
type AircraftStore = CycleStore[DesID, AircraftRecord]

// NewAircraftStore creates an empty AircraftStore.
func NewAircraftStore() *AircraftStore {
	return newCycleStore("aircraft",
		func(a *AircraftRecord) DesID { return a.DesID },
		(*AircraftRecord).Clone,
	)
}
