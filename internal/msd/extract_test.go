package msd

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractExactRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    int
		diff float64
	}{
		{"total msd", 3, 2.5e-10},
		{"single axis", 1, 4.0e-11},
		{"planar", 2, 1.0e-12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			slope := 2 * float64(tc.d) * tc.diff
			s := Linear(600, "Mg", slope, 0, 2e-10, 1e-9, 200)

			est, err := Extract(s, ExtractConfig{Dimensionality: tc.d, QualityThreshold: 0.95})
			require.NoError(t, err)
			assert.InEpsilon(t, tc.diff, est.D, 1e-9)
			assert.InDelta(t, 1.0, est.R2, 1e-9)
			assert.True(t, est.Valid)
			assert.Equal(t, 200, est.Samples)
			assert.Equal(t, "Mg", est.Species)
			assert.Equal(t, 600.0, est.Temperature)
			assert.InDelta(t, 0, est.DStderr, tc.diff*1e-6)
		})
	}
}

func TestExtractNoiseDegradesFit(t *testing.T) {
	t.Parallel()

	const n = 200
	base := Linear(600, "Mg", 1.5e-9, 0, 0, 1e-9, n)
	amplitude := base.Samples[n-1].MSD * 0.01

	rng := rand.New(rand.NewPCG(7, 11))
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = rng.NormFloat64()
	}

	var prev Estimate
	for i, k := range []float64{1, 2, 4, 8} {
		s := Series{Temperature: base.Temperature, Species: base.Species, Samples: make([]Sample, n)}
		for j, p := range base.Samples {
			s.Samples[j] = Sample{Time: p.Time, MSD: p.MSD + k*amplitude*noise[j]}
		}
		est, err := Extract(s, DefaultExtractConfig())
		require.NoError(t, err)
		if i > 0 {
			assert.Less(t, est.R2, prev.R2, "noise x%v", k)
			assert.Greater(t, est.DStderr, prev.DStderr, "noise x%v", k)
		}
		prev = est
	}
}

func TestExtractInvalidEstimatesAreReturned(t *testing.T) {
	t.Parallel()

	t.Run("negative slope", func(t *testing.T) {
		s := Linear(500, "Al", -1e-9, 1e-18, 0, 1e-9, 50)
		est, err := Extract(s, DefaultExtractConfig())
		require.NoError(t, err)
		assert.Less(t, est.D, 0.0)
		assert.False(t, est.Valid)
	})

	t.Run("poor fit", func(t *testing.T) {
		s := Series{Temperature: 500, Species: "Al"}
		for i := 0; i < 40; i++ {
			m := 1.0
			if i%2 == 0 {
				m = 3.0
			}
			s.Samples = append(s.Samples, Sample{Time: float64(i), MSD: m + 0.01*float64(i)})
		}
		est, err := Extract(s, DefaultExtractConfig())
		require.NoError(t, err)
		assert.Greater(t, est.D, 0.0)
		assert.Less(t, est.R2, 0.95)
		assert.False(t, est.Valid)
		assert.Equal(t, GradePoor, GradeR2(est.R2))
	})
}

func TestExtractTwoPoints(t *testing.T) {
	t.Parallel()

	s := Series{Samples: []Sample{{Time: 0, MSD: 0}, {Time: 1, MSD: 6}}}
	est, err := Extract(s, DefaultExtractConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, est.D, 1e-12)
	assert.True(t, math.IsNaN(est.DStderr))
}

func TestExtractRejectsDegenerateSeries(t *testing.T) {
	t.Parallel()

	_, err := Extract(Series{Samples: []Sample{{Time: 1, MSD: 1}}}, DefaultExtractConfig())
	assert.ErrorIs(t, err, ErrMalformedSeries)

	_, err = Extract(Series{}, DefaultExtractConfig())
	assert.ErrorIs(t, err, ErrMalformedSeries)

	_, err = Extract(Linear(500, "Mg", 1, 0, 0, 1, 10), ExtractConfig{Dimensionality: 0, QualityThreshold: 0.9})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFilterAndExtract(t *testing.T) {
	t.Parallel()

	s := Linear(700, "Mg", 6e-9, 0, 0, 1e-9, 1001)
	est, acc, err := FilterAndExtract(s, DefaultFilterConfig(), DefaultExtractConfig())
	require.NoError(t, err)
	assert.InEpsilon(t, 1e-9, est.D, 1e-9)
	assert.Equal(t, acc.Series.Len(), est.Samples)

	_, _, err = FilterAndExtract(Series{}, DefaultFilterConfig(), DefaultExtractConfig())
	assert.ErrorIs(t, err, ErrMalformedSeries)
}
