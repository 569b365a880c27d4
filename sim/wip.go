package sim

// WIPSnapshot counts entities in each stage at one instant.
type WIPSnapshot struct {
	Time            float64 `json:"time"`
	AircraftFleet   int     `json:"aircraft_fleet"`
	AircraftMicap   int     `json:"aircraft_micap"`
	PartsFleet      int     `json:"parts_fleet"`
	PartsConditionF int     `json:"parts_condition_f"`
	PartsDepot      int     `json:"parts_depot"`
	PartsConditionA int     `json:"parts_condition_a"`
}

// ComputeWIP samples stage occupancy at 0, interval, 2*interval, ... up to
// and including horizon. A record is counted in a stage when t falls in
// [start, end) of that stage window; a window with no end is still open.
func ComputeWIP(parts []PartRecord, aircraft []AircraftRecord, horizon, interval float64) []WIPSnapshot {
	if interval <= 0 || horizon < 0 {
		return nil
	}
	n := int(horizon/interval) + 1
	out := make([]WIPSnapshot, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * interval
		snap := WIPSnapshot{Time: t}
		for j := range aircraft {
			a := &aircraft[j]
			if a.Fleet.Contains(t) {
				snap.AircraftFleet++
			}
			if a.Micap.Contains(t) {
				snap.AircraftMicap++
			}
		}
		for j := range parts {
			p := &parts[j]
			if p.Fleet.Contains(t) {
				snap.PartsFleet++
			}
			if p.ConditionF.Contains(t) {
				snap.PartsConditionF++
			}
			if p.Depot.Contains(t) {
				snap.PartsDepot++
			}
			if p.ConditionA.Contains(t) {
				snap.PartsConditionA++
			}
		}
		out = append(out, snap)
	}
	return out
}
