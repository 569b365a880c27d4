package sim

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
	"pgregory.net/rapid"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestNewDurationSampler_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec DistSpec
	}{
		{"unknown type", DistSpec{Type: "lognormal", Params: map[string]float64{"mean": 1}}},
		{"normal missing mean", DistSpec{Type: DistNormal, Params: map[string]float64{"std_dev": 1}}},
		{"normal negative sd", DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 1, "std_dev": -1}}},
		{"weibull missing scale", DistSpec{Type: DistWeibull, Params: map[string]float64{"shape": 1}}},
		{"weibull zero shape", DistSpec{Type: DistWeibull, Params: map[string]float64{"shape": 0, "scale": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDurationSampler(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestNormalSampler_ZeroStdDevIsExact(t *testing.T) {
	s, err := NewDurationSampler(DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 45, "std_dev": 0}})
	require.NoError(t, err)
	rng := newTestRand(1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 45.0, s.Sample(rng))
	}
}

func TestNormalSampler_NegativeMeanClampsToZero(t *testing.T) {
	s, err := NewDurationSampler(DistSpec{Type: DistNormal, Params: map[string]float64{"mean": -5, "std_dev": 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Sample(newTestRand(1)))
}

func TestNormalSampler_MomentsMatch(t *testing.T) {
	// GIVEN N(300, 30)
	s, err := NewDurationSampler(DistSpec{Type: DistNormal, Params: map[string]float64{"mean": 300, "std_dev": 30}})
	require.NoError(t, err)
	rng := newTestRand(42)

	// WHEN 20000 draws are taken
	xs := make([]float64, 20000)
	for i := range xs {
		xs[i] = s.Sample(rng)
	}

	// THEN sample mean and sd are close to the parameters
	mean, sd := stat.MeanStdDev(xs, nil)
	assert.InDelta(t, 300, mean, 1.5)
	assert.InDelta(t, 30, sd, 1.5)
}

func TestWeibullSampler_MeanMatchesScaleGamma(t *testing.T) {
	s, err := NewDurationSampler(DistSpec{Type: DistWeibull, Params: map[string]float64{"shape": 2, "scale": 100}})
	require.NoError(t, err)
	rng := newTestRand(7)
	xs := make([]float64, 20000)
	for i := range xs {
		xs[i] = s.Sample(rng)
	}
	want := 100 * math.Gamma(1+1.0/2)
	assert.InDelta(t, want, stat.Mean(xs, nil), 2)
}

func TestDurationSampler_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mean := rapid.Float64Range(-50, 50).Draw(t, "mean")
		sd := rapid.Float64Range(0, 100).Draw(t, "sd")
		s, err := NewDurationSampler(DistSpec{Type: DistNormal, Params: map[string]float64{"mean": mean, "std_dev": sd}})
		if err != nil {
			t.Fatal(err)
		}
		rng := newTestRand(rapid.Uint64().Draw(t, "seed"))
		for i := 0; i < 20; i++ {
			if v := s.Sample(rng); v < 0 {
				t.Fatalf("sample %v < 0", v)
			}
		}
	})
}

func TestStagger_MultiplierBounds(t *testing.T) {
	st := Stagger{Enabled: true, Min: 0.2, Max: 0.6}
	require.NoError(t, st.Validate())
	rng := newTestRand(3)
	for i := 0; i < 1000; i++ {
		m := st.Multiplier(rng)
		assert.GreaterOrEqual(t, m, 0.2)
		assert.Less(t, m, 0.6)
	}
}

func TestStagger_DisabledDrawsNothing(t *testing.T) {
	// GIVEN two identical streams
	a, b := newTestRand(9), newTestRand(9)

	// WHEN a disabled stagger is applied to one
	assert.Equal(t, 1.0, Stagger{}.Multiplier(a))

	// THEN the streams are still aligned
	assert.Equal(t, b.Uint64(), a.Uint64())
}

func TestDistSpec_NormalizedDropsForeignKeys(t *testing.T) {
	spec := DistSpec{Type: DistWeibull, Params: map[string]float64{"mean": 300, "std_dev": 30, "shape": 2, "scale": 5}}
	got := spec.Normalized()
	assert.Equal(t, map[string]float64{"shape": 2, "scale": 5}, got.Params)
	assert.Len(t, spec.Params, 4, "input must not be modified")
}
