package sim

import (
	"encoding/json"
	"strings"
)

// Stage codes appended to a record's Path as it moves through its cycle.
// IC_* codes are only written during initialization.
const (
	PathInitFleetStart     = "IC_IZFS"  // seeded in Fleet
	PathInitMicap          = "IC_MICAP" // seeded in MICAP
	PathInitDepot          = "IC_IjD"   // seeded in Depot
	PathInitConditionF     = "IC_IjCF"  // seeded in Condition F
	PathInitConditionA     = "IC_IjCA"  // seeded in Condition A
	PathInitRestart        = "IC_CRCA"  // restarted by an initial MICAP resolution
	PathInitFleetToCondF   = "IC_FE_CF" // Fleet end advanced to Condition F start
	PathFleetEndMicap      = "FE_MS"    // aircraft grounded at Fleet end
	PathFleetEndInstall    = "FE_IE"    // aircraft took a part at Fleet end
	PathConditionF         = "CFS_CFE"  // part waited in Condition F
	PathDepot              = "DS_DE"    // part repaired
	PathDepotCondemn       = "DS_DE_CONDEMN"
	PathCondFToDepot       = "CF_DE"          // seeded Condition F part admitted to Depot
	PathDepotToCondA       = "DE_CA"          // repaired part stocked
	PathDepotResolvesMicap = "DE_DMR_IE"      // repaired part installed on a MICAP aircraft
	PathMicapResolvedDepot = "ME_DMR_IE"      // aircraft side of DE_DMR_IE
	PathDepotRestart       = "DMR_CR_FS_FE"   // cycle restart after DE_DMR_IE
	PathCondAInstall       = "CAE_IE"         // stocked part installed at Fleet end
	PathCondARestart       = "CAP_CR_FS_FE"   // cycle restart after CAE_IE
	PathNewPartToCondA     = "NP_CA"          // new part stocked
	PathNewPartResolves    = "NP_NMR_IE"      // new part installed on a MICAP aircraft
	PathMicapResolvedNew   = "ME_NMR_IE"      // aircraft side of NP_NMR_IE
	PathNewPartRestart     = "NMR_CR_FS_FE"   // cycle restart after NP_NMR_IE
	PathCondemned          = "CONDEMN"        // part retired
)

// PartRecord is one cycle of one part: Fleet, Condition F, Depot,
// Condition A, Install. DesOne/AcOne name the aircraft the part was
// installed on when the cycle began; DesTwo/AcTwo the aircraft that
// received it when the cycle closed.
type PartRecord struct {
	SimID      SimID  `json:"sim_id"`
	PartID     PartID `json:"part_id"`
	Cycle      int    `json:"cycle"`
	Fleet      Window `json:"fleet"`
	ConditionF Window `json:"condition_f"`
	Depot      Window `json:"depot"`
	ConditionA Window `json:"condition_a"`
	Install    Window `json:"install"`
	Condemned  bool   `json:"condemned"`

	DesOne Opt[DesID]      `json:"desone_id"`
	AcOne  Opt[AircraftID] `json:"acone_id"`
	DesTwo Opt[DesID]      `json:"destwo_id"`
	AcTwo  Opt[AircraftID] `json:"actwo_id"`

	Path []string `json:"path"`
}

// CondemnFlag renders Condemned the way the cycle logs report it.
func (p *PartRecord) CondemnFlag() string {
	if p.Condemned {
		return "yes"
	}
	return "no"
}

// MarshalJSON adds the "condemn" yes/no flag next to the record fields.
func (p PartRecord) MarshalJSON() ([]byte, error) {
	type record PartRecord
	return json.Marshal(struct {
		record
		Condemn string `json:"condemn"`
	}{record(p), p.CondemnFlag()})
}

// PathString joins the stage codes with ", ".
func (p *PartRecord) PathString() string {
	return strings.Join(p.Path, ", ")
}

// AddPath appends stage codes.
func (p *PartRecord) AddPath(codes ...string) {
	p.Path = append(p.Path, codes...)
}

// Clone returns a deep copy.
func (p *PartRecord) Clone() PartRecord {
	c := *p
	c.Path = append([]string(nil), p.Path...)
	return c
}

// PartStore is the Part Store: active part cycles plus the closed-cycle log.
type PartStore = CycleStore[SimID, PartRecord]

// NewPartStore creates an empty PartStore.
func NewPartStore() *PartStore {
	return newCycleStore("parts",
		func(p *PartRecord) SimID { return p.SimID },
		(*PartRecord).Clone,
	)
}
