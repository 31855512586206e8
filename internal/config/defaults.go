package config

import "github.com/banshee-data/diffusion.report/internal/msd"

// defaults holds the fallback values of one schema version.
type defaults struct {
	transientFraction    float64
	minimumDurationS     float64
	minimumSamples       int
	qualityR2Threshold   float64
	dimensionality       int
	timestepPS           float64
	combinationStrategy  string
	soluteSpecies        string
	solventSpecies       string
	soluteFraction       float64
	arrheniusR2Threshold float64
	minimumFitPoints     int
	pipeFactor           float64
	windowLowerBound     float64
	windowUpperBound     float64
	burgersVectorM       float64
	strainRatePerS       float64
	rhoM                 string
	lCapture             string
	lTravel              string
	dsaTemperatures      string
	workers              int
}

var current = defaults{
	transientFraction:    0.20,
	minimumDurationS:     1e-10,
	minimumSamples:       10,
	qualityR2Threshold:   0.95,
	dimensionality:       3,
	timestepPS:           0.001,
	combinationStrategy:  msd.DefaultCombiner,
	soluteSpecies:        "Mg",
	solventSpecies:       "Al",
	soluteFraction:       0.0552,
	arrheniusR2Threshold: 0,
	minimumFitPoints:     3,
	pipeFactor:           1.0,
	windowLowerBound:     0.1,
	windowUpperBound:     10.0,
	burgersVectorM:       2.86e-10,
	strainRatePerS:       1e-3,
	rhoM:                 "1e12,1e13,1e14",
	lCapture:             "1,2,5",
	lTravel:              "0.1,1,10",
	dsaTemperatures:      "300:450:10",
	workers:              0,
}

// Version 1 trimmed only the first 10% of each series and accepted shorter
// runs; it is kept so older result sets can be reproduced.
var legacy = func() defaults {
	d := current
	d.transientFraction = 0.10
	d.minimumDurationS = 1e-11
	d.minimumSamples = 5
	return d
}()

func (c *PipelineConfig) defaults() defaults {
	if c.GetVersion() == 1 {
		return legacy
	}
	return current
}

// GetVersion returns the schema version, CurrentVersion when unset.
func (c *PipelineConfig) GetVersion() int {
	if c.Version == nil {
		return CurrentVersion
	}
	return *c.Version
}

// GetTransientFraction returns the transient_fraction value or the default.
func (c *PipelineConfig) GetTransientFraction() float64 {
	if c.TransientFraction == nil {
		return c.defaults().transientFraction
	}
	return *c.TransientFraction
}

// GetMinimumDurationS returns the minimum_duration_s value or the default.
func (c *PipelineConfig) GetMinimumDurationS() float64 {
	if c.MinimumDurationS == nil {
		return c.defaults().minimumDurationS
	}
	return *c.MinimumDurationS
}

// GetMinimumSamples returns the minimum_samples value or the default.
func (c *PipelineConfig) GetMinimumSamples() int {
	if c.MinimumSamples == nil {
		return c.defaults().minimumSamples
	}
	return *c.MinimumSamples
}

// GetQualityR2Threshold returns the quality_r2_threshold value or the default.
func (c *PipelineConfig) GetQualityR2Threshold() float64 {
	if c.QualityR2Threshold == nil {
		return c.defaults().qualityR2Threshold
	}
	return *c.QualityR2Threshold
}

// GetDimensionality returns the dimensionality value or the default.
func (c *PipelineConfig) GetDimensionality() int {
	if c.Dimensionality == nil {
		return c.defaults().dimensionality
	}
	return *c.Dimensionality
}

// GetTimestepPS returns the timestep_ps value or the default.
func (c *PipelineConfig) GetTimestepPS() float64 {
	if c.TimestepPS == nil {
		return c.defaults().timestepPS
	}
	return *c.TimestepPS
}

// GetCombinationStrategy returns the combination_strategy value or the default.
func (c *PipelineConfig) GetCombinationStrategy() string {
	if c.CombinationStrategy == nil || *c.CombinationStrategy == "" {
		return c.defaults().combinationStrategy
	}
	return *c.CombinationStrategy
}

// GetSoluteSpecies returns the solute_species value or the default.
func (c *PipelineConfig) GetSoluteSpecies() string {
	if c.SoluteSpecies == nil || *c.SoluteSpecies == "" {
		return c.defaults().soluteSpecies
	}
	return *c.SoluteSpecies
}

// GetSolventSpecies returns the solvent_species value or the default.
func (c *PipelineConfig) GetSolventSpecies() string {
	if c.SolventSpecies == nil || *c.SolventSpecies == "" {
		return c.defaults().solventSpecies
	}
	return *c.SolventSpecies
}

// GetSoluteFraction returns the solute_fraction value or the default.
func (c *PipelineConfig) GetSoluteFraction() float64 {
	if c.SoluteFraction == nil {
		return c.defaults().soluteFraction
	}
	return *c.SoluteFraction
}

// GetArrheniusR2Threshold returns the arrhenius_r2_threshold value or the default.
func (c *PipelineConfig) GetArrheniusR2Threshold() float64 {
	if c.ArrheniusR2Threshold == nil {
		return c.defaults().arrheniusR2Threshold
	}
	return *c.ArrheniusR2Threshold
}

// GetMinimumFitPoints returns the minimum_fit_points value or the default.
func (c *PipelineConfig) GetMinimumFitPoints() int {
	if c.MinimumFitPoints == nil {
		return c.defaults().minimumFitPoints
	}
	return *c.MinimumFitPoints
}

// GetPipeFactor returns the pipe_factor value or the default.
func (c *PipelineConfig) GetPipeFactor() float64 {
	if c.PipeFactor == nil {
		return c.defaults().pipeFactor
	}
	return *c.PipeFactor
}

// GetWindowLowerBound returns the window_lower_bound value or the default.
func (c *PipelineConfig) GetWindowLowerBound() float64 {
	if c.WindowLowerBound == nil {
		return c.defaults().windowLowerBound
	}
	return *c.WindowLowerBound
}

// GetWindowUpperBound returns the window_upper_bound value or the default.
func (c *PipelineConfig) GetWindowUpperBound() float64 {
	if c.WindowUpperBound == nil {
		return c.defaults().windowUpperBound
	}
	return *c.WindowUpperBound
}

// GetBurgersVectorM returns the burgers_vector_m value or the default.
func (c *PipelineConfig) GetBurgersVectorM() float64 {
	if c.BurgersVectorM == nil {
		return c.defaults().burgersVectorM
	}
	return *c.BurgersVectorM
}

// GetStrainRatePerS returns the strain_rate_per_s value or the default.
func (c *PipelineConfig) GetStrainRatePerS() float64 {
	if c.StrainRatePerS == nil {
		return c.defaults().strainRatePerS
	}
	return *c.StrainRatePerS
}

// GetRhoM returns the rho_m sweep spec or the default.
func (c *PipelineConfig) GetRhoM() string {
	if c.RhoM == nil || *c.RhoM == "" {
		return c.defaults().rhoM
	}
	return *c.RhoM
}

// GetLCapture returns the l_capture sweep spec or the default.
func (c *PipelineConfig) GetLCapture() string {
	if c.LCapture == nil || *c.LCapture == "" {
		return c.defaults().lCapture
	}
	return *c.LCapture
}

// GetLTravel returns the l_travel sweep spec or the default.
func (c *PipelineConfig) GetLTravel() string {
	if c.LTravel == nil || *c.LTravel == "" {
		return c.defaults().lTravel
	}
	return *c.LTravel
}

// GetFPipe returns the f_pipe sweep spec; unset means the single value
// pipe_factor, so an empty string is returned and resolved in Settings.
func (c *PipelineConfig) GetFPipe() string {
	if c.FPipe == nil {
		return ""
	}
	return *c.FPipe
}

// GetDSATemperatures returns the dsa_temperatures spec or the default.
func (c *PipelineConfig) GetDSATemperatures() string {
	if c.DSATemperatures == nil || *c.DSATemperatures == "" {
		return c.defaults().dsaTemperatures
	}
	return *c.DSATemperatures
}

// GetWorkers returns the workers value or the default.
func (c *PipelineConfig) GetWorkers() int {
	if c.Workers == nil {
		return c.defaults().workers
	}
	return *c.Workers
}
