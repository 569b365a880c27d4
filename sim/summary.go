package sim

// MicapStats summarizes MICAP occupancy over the WIP snapshots.
type MicapStats struct {
	Snapshots        int     `json:"snapshots" yaml:"snapshots"`
	AverageWithZeros float64 `json:"average_with_zeros" yaml:"average_with_zeros"`
	AverageNonZero   float64 `json:"average_non_zero" yaml:"average_non_zero"`
	Max              int     `json:"max" yaml:"max"`
	Min              int     `json:"min" yaml:"min"`
}

// Summary is the post-run digest of one Result.
type Summary struct {
	Seed          int64           `json:"seed" yaml:"seed"`
	Horizon       float64         `json:"horizon" yaml:"horizon"`
	AnalysisStart float64         `json:"analysis_start" yaml:"analysis_start"`
	AnalysisEnd   float64         `json:"analysis_end" yaml:"analysis_end"`
	Events        map[string]int  `json:"events" yaml:"events"`
	Micap         MicapStats      `json:"micap" yaml:"micap"`
	Stages        []DurationStats `json:"stages" yaml:"stages"`
	Condemned     int             `json:"condemned" yaml:"condemned"`
	Replacement   int             `json:"replacements_arrived" yaml:"replacements_arrived"`
	Anomalies     int             `json:"anomalies" yaml:"anomalies"`
}

// Stage names used in Summary.Stages, in this order.
const (
	StageFleet      = "fleet"
	StageConditionF = "condition_f"
	StageDepot      = "depot"
	StageConditionA = "condition_a"
	StageMicap      = "micap"
)

// Summarize digests a Result. MICAP statistics use the snapshots inside
// the analysis window, and stage durations only include windows that
// opened and closed inside it.
func Summarize(r *Result) Summary {
	from, to := r.AnalysisStart, r.AnalysisEnd
	sum := Summary{
		Seed:          r.Seed,
		Horizon:       r.Horizon,
		AnalysisStart: from,
		AnalysisEnd:   to,
		Events:        r.EventCounts,
		Micap:         summarizeMicap(r.AnalysisWIP()),
		Condemned:     len(r.CondemnLog),
		Anomalies:     len(r.Anomalies),
	}

	var fleet, condF, depot, condA, micap []float64
	for i := range r.Parts {
		p := &r.Parts[i]
		if d, ok := closedDuration(p.Fleet, from, to); ok {
			fleet = append(fleet, d)
		}
		if d, ok := closedDuration(p.ConditionF, from, to); ok {
			condF = append(condF, d)
		}
		if d, ok := closedDuration(p.Depot, from, to); ok {
			depot = append(depot, d)
		}
		if d, ok := closedDuration(p.ConditionA, from, to); ok {
			condA = append(condA, d)
		}
		if p.Cycle == 0 {
			sum.Replacement++
		}
	}
	for i := range r.Aircraft {
		if d, ok := closedDuration(r.Aircraft[i].Micap, from, to); ok {
			micap = append(micap, d)
		}
	}
	sum.Stages = []DurationStats{
		CalculateDurationStats(StageFleet, fleet),
		CalculateDurationStats(StageConditionF, condF),
		CalculateDurationStats(StageDepot, depot),
		CalculateDurationStats(StageConditionA, condA),
		CalculateDurationStats(StageMicap, micap),
	}
	return sum
}

func summarizeMicap(wip []WIPSnapshot) MicapStats {
	ms := MicapStats{Snapshots: len(wip)}
	if len(wip) == 0 {
		return ms
	}
	all := make([]float64, 0, len(wip))
	var nonZero []float64
	ms.Min = wip[0].AircraftMicap
	for _, w := range wip {
		v := w.AircraftMicap
		all = append(all, float64(v))
		if v > 0 {
			nonZero = append(nonZero, float64(v))
		}
		ms.Max = max(ms.Max, v)
		ms.Min = min(ms.Min, v)
	}
	ms.AverageWithZeros = CalculateMean(all)
	ms.AverageNonZero = CalculateMean(nonZero)
	return ms
}

// WIPAverage is the mean stage occupancy at one snapshot time across runs.
type WIPAverage struct {
	Time       float64 `json:"time" yaml:"time"`
	Micap      float64 `json:"micap" yaml:"micap"`
	Fleet      float64 `json:"fleet" yaml:"fleet"`
	ConditionF float64 `json:"condition_f" yaml:"condition_f"`
	Depot      float64 `json:"depot" yaml:"depot"`
	ConditionA float64 `json:"condition_a" yaml:"condition_a"`
}

// AverageWIP averages snapshot series from replicated runs point by point.
// Series are truncated to the shortest one. Fleet counts parts in the Fleet
// stage.
func AverageWIP(runs [][]WIPSnapshot) []WIPAverage {
	if len(runs) == 0 {
		return nil
	}
	n := len(runs[0])
	for _, r := range runs[1:] {
		n = min(n, len(r))
	}
	k := float64(len(runs))
	out := make([]WIPAverage, n)
	for i := 0; i < n; i++ {
		avg := WIPAverage{Time: runs[0][i].Time}
		for _, r := range runs {
			avg.Micap += float64(r[i].AircraftMicap)
			avg.Fleet += float64(r[i].PartsFleet)
			avg.ConditionF += float64(r[i].PartsConditionF)
			avg.Depot += float64(r[i].PartsDepot)
			avg.ConditionA += float64(r[i].PartsConditionA)
		}
		avg.Micap /= k
		avg.Fleet /= k
		avg.ConditionF /= k
		avg.Depot /= k
		avg.ConditionA /= k
		out[i] = avg
	}
	return out
}
