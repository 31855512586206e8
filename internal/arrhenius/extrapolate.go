package arrhenius

import (
	"fmt"
	"math"

	"github.com/banshee-data/diffusion.report/internal/regress"
)

// Point is the fitted law evaluated at one temperature.
type Point struct {
	Temperature float64
	D           float64
	DStderr     float64
	// LnDStderr is sqrt(Var ln D); the relative uncertainty of D.
	LnDStderr float64
	// ExtrapolationRisk is set outside [TMin, TMax]. It is advisory.
	ExtrapolationRisk bool
}

// Extrapolate evaluates the fit at each target temperature. The variance
// of ln D = c + s/T is Var(c) + x²Var(s) + 2x·Cov(c, s) with x = 1/T, and
// se_D = D·sqrt(Var ln D) to first order.
func Extrapolate(fit Fit, temperatures []float64) ([]Point, error) {
	cov := fit.Covariance()
	out := make([]Point, len(temperatures))
	for i, t := range temperatures {
		if !(t > 0) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: %v at index %d", ErrInvalidTemperature, t, i)
		}
		x := 1 / t
		d := math.Exp(fit.Intercept + fit.Slope*x)
		v := regress.PredictVariance(cov, x)
		if v < 0 {
			// rounding in the quadratic form near the centroid
			v = 0
		}
		se := math.Sqrt(v)
		out[i] = Point{
			Temperature:       t,
			D:                 d,
			DStderr:           d * se,
			LnDStderr:         se,
			ExtrapolationRisk: !fit.InRange(t),
		}
	}
	return out, nil
}
