package msd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDarkenCombiners(t *testing.T) {
	t.Parallel()

	a := Estimate{Temperature: 600, D: 2, DStderr: 0.2, R2: 0.99, Samples: 100, Valid: true, Species: "Mg"}
	b := Estimate{Temperature: 600, D: 4, DStderr: 0.4, R2: 0.97, Samples: 80, Valid: true, Species: "Al"}

	reg := DefaultCombinerRegistry()

	tests := []struct {
		name   string
		wantD  float64
		wantSE float64
	}{
		// 0.75·2 + 0.25·4
		{DarkenArithmetic, 2.5, math.Hypot(0.75*0.2, 0.25*0.4)},
		// 1/(0.25/2 + 0.75/4)
		{DarkenHarmonic, 3.2, math.Hypot(3.2*3.2*0.25/4*0.2, 3.2*3.2*0.75/16*0.4)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := reg.Get(tc.name)
			require.NoError(t, err)
			out, err := c.Combine(a, b, 0.25)
			require.NoError(t, err)
			assert.InDelta(t, tc.wantD, out.D, 1e-12)
			assert.InDelta(t, tc.wantSE, out.DStderr, 1e-12)
			assert.Equal(t, InterdiffusionTag, out.Species)
			assert.Equal(t, 0.97, out.R2)
			assert.Equal(t, 80, out.Samples)
			assert.True(t, out.Valid)
		})
	}
}

func TestCombineInvalidInputs(t *testing.T) {
	t.Parallel()

	reg := DefaultCombinerRegistry()
	good := Estimate{Temperature: 500, D: 1e-12, R2: 0.99, Valid: true}
	bad := Estimate{Temperature: 500, D: -1e-13, R2: 0.5, Valid: false}

	arith, err := reg.Get(DarkenArithmetic)
	require.NoError(t, err)
	out, err := arith.Combine(good, bad, 0.05)
	require.NoError(t, err)
	assert.False(t, out.Valid)

	harm, err := reg.Get(DarkenHarmonic)
	require.NoError(t, err)
	out, err = harm.Combine(good, bad, 0.05)
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.True(t, math.IsNaN(out.D))

	_, err = arith.Combine(good, Estimate{Temperature: 600}, 0.05)
	assert.ErrorIs(t, err, ErrTemperatureMismatch)

	_, err = arith.Combine(good, good, 1.5)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCombinerRegistry(t *testing.T) {
	t.Parallel()

	reg := DefaultCombinerRegistry()
	_, err := reg.Get("bogus")
	assert.ErrorIs(t, err, ErrUnknownCombiner)

	infos := reg.List()
	require.Len(t, infos, 2)
	assert.Equal(t, DarkenArithmetic, infos[0].Name)
	assert.Equal(t, DarkenHarmonic, infos[1].Name)
	assert.NotEmpty(t, infos[0].Description)

	reg.Register(CombinerFunc{ID: "mean", Fn: func(a, b Estimate, _ float64) (float64, float64) {
		return (a.D + b.D) / 2, 0
	}}, "unweighted mean")
	c, err := reg.Get("mean")
	require.NoError(t, err)
	out, err := c.Combine(Estimate{D: 1, Valid: true}, Estimate{D: 3, Valid: true}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2.0, out.D)
	assert.Len(t, reg.List(), 3)
}

func TestGradeR2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		r2   float64
		want Grade
	}{
		{1.0, GradeOK},
		{0.95, GradeOK},
		{0.9499, GradeWarn},
		{0.80, GradeWarn},
		{0.79, GradePoor},
		{0, GradePoor},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, GradeR2(tc.r2), "r2=%v", tc.r2)
	}
}
