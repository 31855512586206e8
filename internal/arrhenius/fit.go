// Package arrhenius fits D(T) = D0·exp(−Q/(R·T)) to per-temperature
// diffusivity estimates and evaluates the fit, with propagated
// uncertainty, at arbitrary temperatures.
package arrhenius

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/regress"
	"github.com/banshee-data/diffusion.report/internal/units"
)

// MinimumPoints is the smallest number of estimates Regress accepts.
const MinimumPoints = 3

// Options configures estimate selection and the regression constants.
type Options struct {
	// MinR2 is an optional second gate on each estimate's own R²; zero
	// disables it.
	MinR2 float64
	// Species restricts the fit to one species or combination tag.
	Species string
	// MinPoints may raise, never lower, the three-point floor.
	MinPoints int
	// GasConstant in J/(mol·K); zero selects units.GasConstant.
	GasConstant float64
}

func (o Options) minPoints() int {
	if o.MinPoints > MinimumPoints {
		return o.MinPoints
	}
	return MinimumPoints
}

func (o Options) gasConstant() float64 {
	if o.GasConstant > 0 {
		return o.GasConstant
	}
	return units.GasConstant
}

// Fit is a regression of ln D on 1/T. Q and QStderr are stored once, in
// J/mol; the kJ/mol and eV/atom views are derived.
type Fit struct {
	D0       float64 // m²/s
	D0Stderr float64
	Q        float64 // J/mol
	QStderr  float64

	Intercept         float64 // c = ln D0
	Slope             float64 // s = −Q/R, kelvin
	VarIntercept      float64
	VarSlope          float64
	CovInterceptSlope float64

	R2     float64 // in (1/T, ln D) space
	TMin   float64 // calibration range over the points used
	TMax   float64
	Points int

	Species     string
	GasConstant float64
}

// Regress selects estimates per opts and fits the Arrhenius law. Fewer than
// the minimum surviving points yields *InsufficientDataPointsError and no fit.
func Regress(estimates []msd.Estimate, opts Options) (Fit, error) {
	used, _ := Select(estimates, opts)
	return regressUsed(used, opts)
}

// RegressWithDecisions is Regress that also returns the per-estimate
// selection decisions, which are meaningful even when the fit fails.
func RegressWithDecisions(estimates []msd.Estimate, opts Options) (Fit, []Decision, error) {
	used, decisions := Select(estimates, opts)
	fit, err := regressUsed(used, opts)
	return fit, decisions, err
}

func regressUsed(used []msd.Estimate, opts Options) (Fit, error) {
	if need := opts.minPoints(); len(used) < need {
		return Fit{}, &InsufficientDataPointsError{Min: need, Got: len(used)}
	}

	n := len(used)
	x := make([]float64, n)
	y := make([]float64, n)
	temps := make([]float64, n)
	for i, e := range used {
		x[i] = 1 / e.Temperature
		y[i] = math.Log(e.D)
		temps[i] = e.Temperature
	}

	line, err := regress.Fit(x, y)
	if err != nil {
		if errors.Is(err, regress.ErrDegenerateX) {
			return Fit{}, fmt.Errorf("arrhenius: all %d points share one temperature: %w", n, err)
		}
		return Fit{}, fmt.Errorf("arrhenius: %w", err)
	}

	r := opts.gasConstant()
	d0 := math.Exp(line.Intercept)
	return Fit{
		D0:                d0,
		D0Stderr:          d0 * line.InterceptStderr(),
		Q:                 -line.Slope * r,
		QStderr:           line.SlopeStderr() * r,
		Intercept:         line.Intercept,
		Slope:             line.Slope,
		VarIntercept:      line.VarIntercept(),
		VarSlope:          line.VarSlope(),
		CovInterceptSlope: line.CovInterceptSlope(),
		R2:                line.R2,
		TMin:              floats.Min(temps),
		TMax:              floats.Max(temps),
		Points:            n,
		Species:           opts.Species,
		GasConstant:       r,
	}, nil
}

// Covariance returns the (intercept, slope) parameter covariance.
func (f Fit) Covariance() *mat.SymDense {
	return regress.CovarianceMatrix(f.VarIntercept, f.VarSlope, f.CovInterceptSlope)
}

func (f Fit) QkJPerMol() float64        { return units.JPerMolToKJPerMol(f.Q) }
func (f Fit) QeVPerAtom() float64       { return units.JPerMolToEVPerAtom(f.Q) }
func (f Fit) QStderrKJPerMol() float64  { return units.JPerMolToKJPerMol(f.QStderr) }
func (f Fit) QStderrEVPerAtom() float64 { return units.JPerMolToEVPerAtom(f.QStderr) }

// InRange reports whether t lies within the calibration range.
func (f Fit) InRange(t float64) bool {
	return t >= f.TMin && t <= f.TMax
}

// Diffusivity evaluates D0·exp(−Q/(R·T)).
func (f Fit) Diffusivity(t float64) float64 {
	return math.Exp(f.Intercept + f.Slope/t)
}

// FromParameters rebuilds a fit from its published parameters, as read
// back from a parameters table. Intercept and slope are recomputed from D0
// and Q; variances come from the caller.
func FromParameters(d0, q, gasConstant float64) Fit {
	if gasConstant <= 0 {
		gasConstant = units.GasConstant
	}
	return Fit{
		D0:          d0,
		Q:           q,
		Intercept:   math.Log(d0),
		Slope:       -q / gasConstant,
		GasConstant: gasConstant,
	}
}
