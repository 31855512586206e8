// Package regress implements the ordinary least-squares line fit shared by
// the MSD and Arrhenius stages, including the closed-form parameter
// covariance used for uncertainty propagation.
package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch indicates x and y have different lengths.
	ErrLengthMismatch = errors.New("regress: x and y lengths differ")
	// ErrTooFewPoints indicates fewer than two observations.
	ErrTooFewPoints = errors.New("regress: at least two points are required")
	// ErrDegenerateX indicates all x values are identical, so no slope exists.
	ErrDegenerateX = errors.New("regress: x has zero spread")
	// ErrNonFinite indicates a NaN or infinite input value.
	ErrNonFinite = errors.New("regress: non-finite input")
)

// Line is an ordinary least-squares fit of y = Intercept + Slope·x.
//
// ResidualVariance is SSres/(N-2). With exactly two points the fit is exact
// but the residual variance is undefined, so it and every derived standard
// error are NaN.
type Line struct {
	Intercept        float64
	Slope            float64
	R2               float64
	ResidualVariance float64
	N                int
	MeanX            float64
	Sxx              float64

	varIntercept float64
	varSlope     float64
	covariance   float64
}

// Fit computes the OLS line through (x, y).
func Fit(x, y []float64) (Line, error) {
	if len(x) != len(y) {
		return Line{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return Line{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	for i := range x {
		if !finite(x[i]) || !finite(y[i]) {
			return Line{}, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}

	meanX := stat.Mean(x, nil)
	var sxx float64
	for _, v := range x {
		d := v - meanX
		sxx += d * d
	}
	if sxx == 0 {
		return Line{}, ErrDegenerateX
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	var ssRes float64
	for i := range x {
		r := y[i] - (alpha + beta*x[i])
		ssRes += r * r
	}

	l := Line{
		Intercept: alpha,
		Slope:     beta,
		R2:        clampR2(stat.RSquared(x, y, nil, alpha, beta)),
		N:         n,
		MeanX:     meanX,
		Sxx:       sxx,
	}

	if n > 2 {
		l.ResidualVariance = ssRes / float64(n-2)
	} else {
		l.ResidualVariance = math.NaN()
	}

	// Closed-form OLS covariance in centred form; numerically stable even
	// when x spans a tiny absolute range (times in seconds, 1/T in 1/K).
	s2 := l.ResidualVariance
	l.varSlope = s2 / sxx
	l.varIntercept = s2 * (1/float64(n) + meanX*meanX/sxx)
	l.covariance = -meanX * s2 / sxx

	return l, nil
}

// clampR2 limits r2 to [0, 1]. A constant response has no explained
// variance; stat.RSquared reports NaN or -Inf for it, which maps to 0.
func clampR2(r2 float64) float64 {
	switch {
	case math.IsNaN(r2) || r2 < 0:
		return 0
	case r2 > 1:
		return 1
	}
	return r2
}

// SlopeStderr is the standard error of the slope.
func (l Line) SlopeStderr() float64 { return math.Sqrt(l.varSlope) }

// InterceptStderr is the standard error of the intercept.
func (l Line) InterceptStderr() float64 { return math.Sqrt(l.varIntercept) }

// VarIntercept returns Var(intercept).
func (l Line) VarIntercept() float64 { return l.varIntercept }

// VarSlope returns Var(slope).
func (l Line) VarSlope() float64 { return l.varSlope }

// CovInterceptSlope returns Cov(intercept, slope).
func (l Line) CovInterceptSlope() float64 { return l.covariance }

// Covariance returns the 2×2 parameter covariance ordered (intercept, slope).
func (l Line) Covariance() *mat.SymDense {
	return CovarianceMatrix(l.varIntercept, l.varSlope, l.covariance)
}

// Predict evaluates the fitted line at x.
func (l Line) Predict(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// PredictVariance returns Var(intercept + slope·x).
func (l Line) PredictVariance(x float64) float64 {
	return PredictVariance(l.Covariance(), x)
}

// CovarianceMatrix assembles a symmetric (intercept, slope) covariance.
func CovarianceMatrix(varIntercept, varSlope, cov float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{
		varIntercept, cov,
		cov, varSlope,
	})
}

// PredictVariance evaluates gᵀΣg for g = (1, x), i.e.
// Var(c) + x²·Var(s) + 2x·Cov(c, s).
func PredictVariance(cov mat.Symmetric, x float64) float64 {
	g := mat.NewVecDense(2, []float64{1, x})
	return mat.Inner(g, cov, g)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
