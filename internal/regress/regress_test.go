package regress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFitExactLine(t *testing.T) {
	t.Parallel()

	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2.5 + 0.75*v
	}

	l, err := Fit(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, l.Intercept, 1e-12)
	assert.InDelta(t, 0.75, l.Slope, 1e-12)
	assert.InDelta(t, 1.0, l.R2, 1e-12)
	assert.InDelta(t, 0.0, l.SlopeStderr(), 1e-9)
	assert.Equal(t, 6, l.N)
}

func TestFitCovarianceMatchesDesignMatrix(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3, 4, 5, 6, 7}
	y := []float64{2.1, 3.9, 6.2, 7.8, 10.1, 12.2, 13.8}

	l, err := Fit(x, y)
	require.NoError(t, err)

	// σ²(XᵀX)⁻¹ computed directly from the design matrix.
	design := mat.NewDense(len(x), 2, nil)
	for i, v := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, v)
	}
	var xtx mat.SymDense
	xtx.SymOuterK(1, design.T())
	var chol mat.Cholesky
	require.True(t, chol.Factorize(&xtx))
	var inv mat.SymDense
	require.NoError(t, chol.InverseTo(&inv))
	inv.ScaleSym(l.ResidualVariance, &inv)

	cov := l.Covariance()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, inv.At(i, j), cov.At(i, j), 1e-10, "cov[%d][%d]", i, j)
		}
	}
	assert.InDelta(t, math.Sqrt(inv.At(1, 1)), l.SlopeStderr(), 1e-10)
	assert.InDelta(t, math.Sqrt(inv.At(0, 0)), l.InterceptStderr(), 1e-10)
}

func TestPredictVarianceMinimisedAtMeanX(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1.1, 1.9, 3.2, 3.9, 5.1}
	l, err := Fit(x, y)
	require.NoError(t, err)

	atMean := l.PredictVariance(l.MeanX)
	assert.InDelta(t, l.ResidualVariance/float64(l.N), atMean, 1e-12)
	assert.Greater(t, l.PredictVariance(l.MeanX+3), atMean)
	assert.Greater(t, l.PredictVariance(l.MeanX-3), atMean)
	assert.InDelta(t, l.PredictVariance(l.MeanX+3), l.PredictVariance(l.MeanX-3), 1e-12)
}

func TestFitTwoPointsHasUndefinedErrors(t *testing.T) {
	t.Parallel()

	l, err := Fit([]float64{0, 1}, []float64{1, 3})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, l.Slope, 1e-12)
	assert.True(t, math.IsNaN(l.ResidualVariance))
	assert.True(t, math.IsNaN(l.SlopeStderr()))
}

func TestFitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x, y []float64
		want error
	}{
		{"length mismatch", []float64{1, 2}, []float64{1}, ErrLengthMismatch},
		{"single point", []float64{1}, []float64{1}, ErrTooFewPoints},
		{"empty", nil, nil, ErrTooFewPoints},
		{"constant x", []float64{2, 2, 2}, []float64{1, 2, 3}, ErrDegenerateX},
		{"nan y", []float64{1, 2, 3}, []float64{1, math.NaN(), 3}, ErrNonFinite},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Fit(tc.x, tc.y)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConstantResponseHasZeroR2(t *testing.T) {
	t.Parallel()

	l, err := Fit([]float64{1, 2, 3, 4}, []float64{5, 5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.R2)
	assert.InDelta(t, 0.0, l.Slope, 1e-15)
}

func TestFitR2MatchesResiduals(t *testing.T) {
	t.Parallel()

	// slope 0.8, intercept 0.5: SSres = 1.8, SStot = 5.
	l, err := Fit([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, l.Slope, 1e-12)
	assert.InDelta(t, 0.5, l.Intercept, 1e-12)
	assert.InDelta(t, 0.64, l.R2, 1e-12)
	assert.InDelta(t, 0.9, l.ResidualVariance, 1e-12)
}

func TestClampR2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{1, 1},
		{1 + 1e-15, 1},
		{-0.2, 0},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, clampR2(tc.in), "clampR2(%v)", tc.in)
	}
}
