package msd

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/diffusion.report/internal/regress"
)

// ExtractConfig controls the Einstein-relation fit.
type ExtractConfig struct {
	// Dimensionality is the number of spatial components aggregated by the
	// MSD: 1 for a single axis, 3 for the total displacement.
	Dimensionality int
	// QualityThreshold is the minimum R² for a valid estimate.
	QualityThreshold float64
}

// DefaultExtractConfig fits total MSD with an R² gate of 0.95.
func DefaultExtractConfig() ExtractConfig {
	return ExtractConfig{Dimensionality: 3, QualityThreshold: 0.95}
}

// Validate reports out-of-range settings.
func (c ExtractConfig) Validate() error {
	if c.Dimensionality < 1 || c.Dimensionality > 3 {
		return fmt.Errorf("%w: dimensionality %d not in 1..3", ErrInvalidConfig, c.Dimensionality)
	}
	if math.IsNaN(c.QualityThreshold) || c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("%w: quality threshold %v not in [0, 1]", ErrInvalidConfig, c.QualityThreshold)
	}
	return nil
}

// Estimate is a diffusivity measured at one temperature for one species or
// combination tag. Invalid estimates are still returned so marginal data can
// be reported; Valid implies D > 0 and R2 in [0, 1].
type Estimate struct {
	Temperature float64
	D           float64 // m²/s
	DStderr     float64
	R2          float64
	Samples     int
	Valid       bool
	Species     string

	// Slope and Intercept of MSD against time, m²/s and m².
	Slope     float64
	Intercept float64
}

// Extract fits MSD = m·t + c by ordinary least squares and converts the slope
// to a diffusivity D = m/(2d). The standard error of D follows from the slope
// standard error by the same factor; with two samples it is NaN.
func Extract(s Series, cfg ExtractConfig) (Estimate, error) {
	if err := cfg.Validate(); err != nil {
		return Estimate{}, err
	}
	if err := checkWellFormed(s); err != nil {
		return Estimate{}, err
	}
	if len(s.Samples) < 2 {
		return Estimate{}, reject(MalformedSeries, "%d distinct time points, need 2 for a slope", len(s.Samples))
	}

	times, msds := s.Columns()
	line, err := regress.Fit(times, msds)
	if err != nil {
		if errors.Is(err, regress.ErrDegenerateX) || errors.Is(err, regress.ErrTooFewPoints) {
			return Estimate{}, reject(MalformedSeries, "%v", err)
		}
		return Estimate{}, fmt.Errorf("fit msd series at %g K: %w", s.Temperature, err)
	}

	scale := 2 * float64(cfg.Dimensionality)
	e := Estimate{
		Temperature: s.Temperature,
		D:           line.Slope / scale,
		DStderr:     line.SlopeStderr() / scale,
		R2:          line.R2,
		Samples:     len(s.Samples),
		Species:     s.Species,
		Slope:       line.Slope,
		Intercept:   line.Intercept,
	}
	e.Valid = e.D > 0 && e.R2 >= cfg.QualityThreshold
	return e, nil
}

// FilterAndExtract applies Filter then Extract.
func FilterAndExtract(s Series, fc FilterConfig, ec ExtractConfig) (Estimate, Accepted, error) {
	acc, err := Filter(s, fc)
	if err != nil {
		return Estimate{}, Accepted{}, err
	}
	est, err := Extract(acc.Series, ec)
	if err != nil {
		return Estimate{}, acc, err
	}
	return est, acc, nil
}
