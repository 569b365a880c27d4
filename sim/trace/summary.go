package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents   int
	KindCounts    map[string]int // event kind → count
	Admissions    int
	Condemned     int
	MeanDepotWait float64
	MaxDepotWait  float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	for _, e := range st.Events {
		summary.KindCounts[e.Kind]++
	}

	summary.Admissions = len(st.Depot)
	if len(st.Depot) > 0 {
		totalWait := 0.0
		for _, d := range st.Depot {
			if d.Condemned {
				summary.Condemned++
			}
			w := d.Wait()
			totalWait += w
			if w > summary.MaxDepotWait {
				summary.MaxDepotWait = w
			}
		}
		summary.MeanDepotWait = totalWait / float64(len(st.Depot))
	}

	return summary
}
