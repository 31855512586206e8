package arrhenius

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyFit(t *testing.T) Fit {
	t.Helper()
	est := synthetic("Mg", 500, 550, 600, 650, 700)
	scatter := []float64{1.05, 0.94, 1.03, 0.97, 1.02}
	for i := range est {
		est[i].D *= scatter[i]
	}
	fit, err := Regress(est, Options{})
	require.NoError(t, err)
	return fit
}

func TestExtrapolateUncertaintyGrowsOutsideRange(t *testing.T) {
	t.Parallel()

	fit := noisyFit(t)
	pts, err := Extrapolate(fit, []float64{600, 800})
	require.NoError(t, err)

	inside, outside := pts[0], pts[1]
	assert.False(t, inside.ExtrapolationRisk)
	assert.True(t, outside.ExtrapolationRisk)
	assert.Greater(t, outside.DStderr, inside.DStderr)
	assert.Greater(t, outside.LnDStderr, inside.LnDStderr)
}

func TestExtrapolateRelativeUncertaintyBelowRange(t *testing.T) {
	t.Parallel()

	fit := noisyFit(t)
	pts, err := Extrapolate(fit, []float64{300, 400, 600})
	require.NoError(t, err)
	assert.True(t, pts[0].ExtrapolationRisk)
	assert.True(t, pts[1].ExtrapolationRisk)
	assert.False(t, pts[2].ExtrapolationRisk)
	assert.Greater(t, pts[0].LnDStderr, pts[1].LnDStderr)
	assert.Greater(t, pts[1].LnDStderr, pts[2].LnDStderr)
}

func TestExtrapolateMatchesLaw(t *testing.T) {
	t.Parallel()

	fit, err := Regress(synthetic("Mg", 500, 600, 700), Options{})
	require.NoError(t, err)

	temps := []float64{300, 350, 500, 700, 900}
	pts, err := Extrapolate(fit, temps)
	require.NoError(t, err)
	require.Len(t, pts, len(temps))
	for i, p := range pts {
		want := fit.D0 * math.Exp(-fit.Q/(fit.GasConstant*temps[i]))
		assert.InEpsilon(t, want, p.D, 1e-9)
		assert.Equal(t, temps[i], p.Temperature)
	}
	assert.False(t, pts[2].ExtrapolationRisk, "calibration bounds are inclusive")
	assert.False(t, pts[3].ExtrapolationRisk)
}

func TestExtrapolateVarianceFormula(t *testing.T) {
	t.Parallel()

	fit := noisyFit(t)
	const temp = 420.0
	x := 1 / temp
	want := math.Sqrt(fit.VarIntercept + x*x*fit.VarSlope + 2*x*fit.CovInterceptSlope)

	pts, err := Extrapolate(fit, []float64{temp})
	require.NoError(t, err)
	assert.InEpsilon(t, want, pts[0].LnDStderr, 1e-9)
	assert.InEpsilon(t, pts[0].D*want, pts[0].DStderr, 1e-9)
}

func TestExtrapolateRejectsBadTemperature(t *testing.T) {
	t.Parallel()

	fit := noisyFit(t)
	for _, temp := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := Extrapolate(fit, []float64{500, temp})
		assert.ErrorIs(t, err, ErrInvalidTemperature)
	}
}
