package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/units"
)

var validate = validator.New()

// Settings is the resolved configuration: plain values, SI units, lists
// expanded. It is passed by value into each stage and never mutated.
type Settings struct {
	Version int `yaml:"version" validate:"oneof=1 2"`

	TransientFraction float64 `yaml:"transient_fraction" validate:"gte=0,lt=1"`
	MinimumDurationS  float64 `yaml:"minimum_duration_s" validate:"gte=0"`
	MinimumSamples    int     `yaml:"minimum_samples" validate:"gte=2"`

	QualityR2Threshold float64 `yaml:"quality_r2_threshold" validate:"gte=0,lte=1"`
	Dimensionality     int     `yaml:"dimensionality" validate:"oneof=1 2 3"`
	TimestepPS         float64 `yaml:"timestep_ps" validate:"gt=0"`

	CombinationStrategy string  `yaml:"combination_strategy" validate:"required"`
	SoluteSpecies       string  `yaml:"solute_species" validate:"required"`
	SolventSpecies      string  `yaml:"solvent_species" validate:"required,nefield=SoluteSpecies"`
	SoluteFraction      float64 `yaml:"solute_fraction" validate:"gt=0,lt=1"`

	ArrheniusR2Threshold float64 `yaml:"arrhenius_r2_threshold" validate:"gte=0,lte=1"`
	MinimumFitPoints     int     `yaml:"minimum_fit_points" validate:"gte=3"`

	PipeFactor       float64   `yaml:"pipe_factor" validate:"gte=0"`
	WindowLowerBound float64   `yaml:"window_lower_bound" validate:"gt=0"`
	WindowUpperBound float64   `yaml:"window_upper_bound" validate:"gtfield=WindowLowerBound"`
	BurgersVectorM   float64   `yaml:"burgers_vector_m" validate:"gt=0"`
	StrainRatePerS   float64   `yaml:"strain_rate_per_s" validate:"gt=0"`
	RhoM             []float64 `yaml:"rho_m" validate:"min=1,dive,gt=0"`
	LCaptureM        []float64 `yaml:"l_capture_m" validate:"min=1,dive,gt=0"`
	LTravelM         []float64 `yaml:"l_travel_m" validate:"min=1,dive,gt=0"`
	FPipe            []float64 `yaml:"f_pipe" validate:"min=1,dive,gte=0"`
	DSATemperatures  []float64 `yaml:"dsa_temperatures" validate:"min=1,dive,gt=0"`

	Workers int `yaml:"workers" validate:"gte=0"`
}

// DefaultSettings resolves an empty configuration.
func DefaultSettings() Settings {
	s, err := EmptyConfig().Settings()
	if err != nil {
		panic(fmt.Sprintf("built-in defaults are invalid: %v", err))
	}
	return s
}

// Settings resolves defaults, parses the sweep specs (converting length
// units to metres) and validates the result.
func (c *PipelineConfig) Settings() (Settings, error) {
	s := Settings{
		Version:              c.GetVersion(),
		TransientFraction:    c.GetTransientFraction(),
		MinimumDurationS:     c.GetMinimumDurationS(),
		MinimumSamples:       c.GetMinimumSamples(),
		QualityR2Threshold:   c.GetQualityR2Threshold(),
		Dimensionality:       c.GetDimensionality(),
		TimestepPS:           c.GetTimestepPS(),
		CombinationStrategy:  c.GetCombinationStrategy(),
		SoluteSpecies:        c.GetSoluteSpecies(),
		SolventSpecies:       c.GetSolventSpecies(),
		SoluteFraction:       c.GetSoluteFraction(),
		ArrheniusR2Threshold: c.GetArrheniusR2Threshold(),
		MinimumFitPoints:     c.GetMinimumFitPoints(),
		PipeFactor:           c.GetPipeFactor(),
		WindowLowerBound:     c.GetWindowLowerBound(),
		WindowUpperBound:     c.GetWindowUpperBound(),
		BurgersVectorM:       c.GetBurgersVectorM(),
		StrainRatePerS:       c.GetStrainRatePerS(),
		Workers:              c.GetWorkers(),
	}

	var err error
	if s.RhoM, err = dsa.ParseParamList(c.GetRhoM()); err != nil {
		return Settings{}, fmt.Errorf("rho_m: %w", err)
	}
	if s.LCaptureM, err = dsa.ParseLengthList(c.GetLCapture(), units.Nanometre); err != nil {
		return Settings{}, fmt.Errorf("l_capture: %w", err)
	}
	if s.LTravelM, err = dsa.ParseLengthList(c.GetLTravel(), units.Micrometre); err != nil {
		return Settings{}, fmt.Errorf("l_travel: %w", err)
	}
	if spec := c.GetFPipe(); spec != "" {
		if s.FPipe, err = dsa.ParseParamList(spec); err != nil {
			return Settings{}, fmt.Errorf("f_pipe: %w", err)
		}
	} else {
		s.FPipe = []float64{s.PipeFactor}
	}
	if s.DSATemperatures, err = dsa.ParseParamList(c.GetDSATemperatures()); err != nil {
		return Settings{}, fmt.Errorf("dsa_temperatures: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks every field, including that the combination strategy is
// registered.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if _, err := msd.DefaultCombinerRegistry().Get(s.CombinationStrategy); err != nil {
		return fmt.Errorf("settings: combination_strategy: %w", err)
	}
	return nil
}

// Filter returns the series acceptance settings.
func (s Settings) Filter() msd.FilterConfig {
	return msd.FilterConfig{
		TransientFraction: s.TransientFraction,
		MinimumDuration:   s.MinimumDurationS,
		MinimumSamples:    s.MinimumSamples,
	}
}

// Extract returns the extraction settings for the given dimensionality;
// zero selects the configured default.
func (s Settings) Extract(dimensionality int) msd.ExtractConfig {
	if dimensionality == 0 {
		dimensionality = s.Dimensionality
	}
	return msd.ExtractConfig{Dimensionality: dimensionality, QualityThreshold: s.QualityR2Threshold}
}

// Arrhenius returns the regression options for one species tag.
func (s Settings) Arrhenius(species string) arrhenius.Options {
	return arrhenius.Options{
		MinR2:     s.ArrheniusR2Threshold,
		Species:   species,
		MinPoints: s.MinimumFitPoints,
	}
}

// Bounds returns the DSA window bounds.
func (s Settings) Bounds() dsa.Bounds {
	return dsa.Bounds{Lower: s.WindowLowerBound, Upper: s.WindowUpperBound}
}

// ParamSpace returns the DSA parameter space.
func (s Settings) ParamSpace() dsa.ParamSpace {
	return dsa.ParamSpace{
		RhoM:       s.RhoM,
		LCapture:   s.LCaptureM,
		LTravel:    s.LTravelM,
		FPipe:      s.FPipe,
		StrainRate: s.StrainRatePerS,
		Burgers:    s.BurgersVectorM,
	}
}

// Combiner resolves the configured interdiffusion strategy.
func (s Settings) Combiner() (msd.Combiner, error) {
	return msd.DefaultCombinerRegistry().Get(s.CombinationStrategy)
}
