package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DurationStats summarizes one stage's closed durations. When Count is 0
// the other fields are zero and carry no meaning.
type DurationStats struct {
	Stage string  `json:"stage" yaml:"stage"`
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	P50   float64 `json:"p50" yaml:"p50"`
	P90   float64 `json:"p90" yaml:"p90"`
}

// CalculateDurationStats sorts data in place and summarizes it.
func CalculateDurationStats(stage string, data []float64) DurationStats {
	ds := DurationStats{Stage: stage, Count: len(data)}
	if len(data) == 0 {
		return ds
	}
	sort.Float64s(data)
	ds.Mean = stat.Mean(data, nil)
	ds.Min = data[0]
	ds.Max = data[len(data)-1]
	ds.P50 = CalculatePercentile(data, 50)
	ds.P90 = CalculatePercentile(data, 90)
	return ds
}

// CalculatePercentile returns the p-th percentile (0-100) of sorted data.
func CalculatePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}

// CalculateMean returns the arithmetic mean, or 0 for no data.
func CalculateMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// closedDuration returns a window's duration when it opened at or after
// from and closed by to.
func closedDuration(w Window, from, to float64) (float64, bool) {
	start, ok := w.Start.Get()
	if !ok || start < from {
		return 0, false
	}
	end, ok := w.End.Get()
	if !ok || end > to {
		return 0, false
	}
	return w.Duration.Get()
}
