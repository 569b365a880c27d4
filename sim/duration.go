package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution names accepted in DistSpec.Type.
const (
	DistNormal  = "normal"
	DistWeibull = "weibull"
)

// DistSpec selects a stage-duration distribution and its parameters.
//
//	normal:  mean, std_dev
//	weibull: shape, scale
type DistSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

// Normalized returns a copy of d holding only the parameters its type
// reads. Decoding a file over a default spec merges maps, so a type change
// would otherwise keep the old type's keys.
func (d DistSpec) Normalized() DistSpec {
	var keys []string
	switch d.Type {
	case DistNormal:
		keys = []string{"mean", "std_dev"}
	case DistWeibull:
		keys = []string{"shape", "scale"}
	default:
		return d
	}
	out := DistSpec{Type: d.Type, Params: make(map[string]float64, len(keys))}
	for _, k := range keys {
		if v, ok := d.Params[k]; ok {
			out.Params[k] = v
		}
	}
	return out
}

// DurationSampler draws non-negative stage durations (days).
type DurationSampler interface {
	// Sample returns a duration >= 0.
	Sample(rng *rand.Rand) float64
}

// NormalSampler draws max(0, N(mean, stdDev)).
type NormalSampler struct {
	mean, stdDev float64
}

func (s *NormalSampler) Sample(rng *rand.Rand) float64 {
	if s.stdDev == 0 {
		return math.Max(0, s.mean)
	}
	d := distuv.Normal{Mu: s.mean, Sigma: s.stdDev, Src: rng}
	return math.Max(0, d.Rand())
}

// WeibullSampler draws max(0, Weibull(shape) * scale).
type WeibullSampler struct {
	shape, scale float64
}

func (s *WeibullSampler) Sample(rng *rand.Rand) float64 {
	d := distuv.Weibull{K: s.shape, Lambda: s.scale, Src: rng}
	v := d.Rand()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewDurationSampler creates a DurationSampler from a DistSpec.
func NewDurationSampler(spec DistSpec) (DurationSampler, error) {
	switch spec.Type {
	case DistNormal:
		if err := requireParam(spec.Params, "mean", "std_dev"); err != nil {
			return nil, err
		}
		if spec.Params["std_dev"] < 0 {
			return nil, fmt.Errorf("normal std_dev must be >= 0, got %v", spec.Params["std_dev"])
		}
		return &NormalSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
		}, nil

	case DistWeibull:
		if err := requireParam(spec.Params, "shape", "scale"); err != nil {
			return nil, err
		}
		if spec.Params["shape"] <= 0 || spec.Params["scale"] <= 0 {
			return nil, fmt.Errorf("weibull shape and scale must be > 0, got shape=%v scale=%v",
				spec.Params["shape"], spec.Params["scale"])
		}
		return &WeibullSampler{
			shape: spec.Params["shape"],
			scale: spec.Params["scale"],
		}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}

// Stagger is a uniform multiplier applied to initial stage durations so a
// cohort seeded at t=0 does not transition in lock-step. Disabled means a
// multiplier of exactly 1 and no RNG draw.
type Stagger struct {
	Enabled bool    `yaml:"enabled"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
}

// Validate checks the multiplier bounds.
func (s Stagger) Validate() error {
	if !s.Enabled {
		return nil
	}
	if s.Min <= 0 || s.Max > 1 || s.Min >= s.Max {
		return fmt.Errorf("stagger bounds must satisfy 0 < min < max <= 1, got [%v, %v]", s.Min, s.Max)
	}
	return nil
}

// Multiplier draws the stagger factor.
func (s Stagger) Multiplier(rng *rand.Rand) float64 {
	if !s.Enabled {
		return 1.0
	}
	u := distuv.Uniform{Min: s.Min, Max: s.Max, Src: rng}
	return u.Rand()
}
