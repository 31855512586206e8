// Package config loads the versioned pipeline configuration and resolves it
// into the immutable Settings value handed to every stage.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPath is the canonical defaults file, relative to the
// repository root.
const DefaultConfigPath = "config/pipeline.defaults.json"

// CurrentVersion is the newest configuration schema version.
const CurrentVersion = 2

// EnvPrefix marks environment overrides, e.g. DIFFUSION_TRANSIENT_FRACTION.
const EnvPrefix = "DIFFUSION_"

const maxConfigFileSize = 1024 * 1024

// PipelineConfig is the on-disk configuration. Every field is optional;
// the Get* accessors fall back to the defaults of the declared Version, so
// partial files are safe.
type PipelineConfig struct {
	Version *int `koanf:"version" json:"version,omitempty"`

	// Series acceptance
	TransientFraction *float64 `koanf:"transient_fraction" json:"transient_fraction,omitempty"`
	MinimumDurationS  *float64 `koanf:"minimum_duration_s" json:"minimum_duration_s,omitempty"`
	MinimumSamples    *int     `koanf:"minimum_samples" json:"minimum_samples,omitempty"`

	// Diffusivity extraction
	QualityR2Threshold *float64 `koanf:"quality_r2_threshold" json:"quality_r2_threshold,omitempty"`
	Dimensionality     *int     `koanf:"dimensionality" json:"dimensionality,omitempty"`
	TimestepPS         *float64 `koanf:"timestep_ps" json:"timestep_ps,omitempty"`

	// Interdiffusion
	CombinationStrategy *string  `koanf:"combination_strategy" json:"combination_strategy,omitempty"`
	SoluteSpecies       *string  `koanf:"solute_species" json:"solute_species,omitempty"`
	SolventSpecies      *string  `koanf:"solvent_species" json:"solvent_species,omitempty"`
	SoluteFraction      *float64 `koanf:"solute_fraction" json:"solute_fraction,omitempty"`

	// Arrhenius regression
	ArrheniusR2Threshold *float64 `koanf:"arrhenius_r2_threshold" json:"arrhenius_r2_threshold,omitempty"`
	MinimumFitPoints     *int     `koanf:"minimum_fit_points" json:"minimum_fit_points,omitempty"`

	// DSA sweep
	PipeFactor       *float64 `koanf:"pipe_factor" json:"pipe_factor,omitempty"`
	WindowLowerBound *float64 `koanf:"window_lower_bound" json:"window_lower_bound,omitempty"`
	WindowUpperBound *float64 `koanf:"window_upper_bound" json:"window_upper_bound,omitempty"`
	BurgersVectorM   *float64 `koanf:"burgers_vector_m" json:"burgers_vector_m,omitempty"`
	StrainRatePerS   *float64 `koanf:"strain_rate_per_s" json:"strain_rate_per_s,omitempty"`
	RhoM             *string  `koanf:"rho_m" json:"rho_m,omitempty"`         // 1/m², list or min:max:step
	LCapture         *string  `koanf:"l_capture" json:"l_capture,omitempty"` // bare values in nm
	LTravel          *string  `koanf:"l_travel" json:"l_travel,omitempty"`   // bare values in µm
	FPipe            *string  `koanf:"f_pipe" json:"f_pipe,omitempty"`       // defaults to pipe_factor
	DSATemperatures  *string  `koanf:"dsa_temperatures" json:"dsa_temperatures,omitempty"`

	Workers *int `koanf:"workers" json:"workers,omitempty"`
}

// EmptyConfig returns a PipelineConfig with every field unset.
func EmptyConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// Load reads a JSON or YAML file and then applies DIFFUSION_* environment
// overrides. An empty path loads only the environment. The result is
// validated.
func Load(path string) (*PipelineConfig, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		// JSON is a subset of YAML, so one parser serves both.
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := EmptyConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envKey maps DIFFUSION_TRANSIENT_FRACTION to transient_fraction.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func readConfigFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching upwards from the
// working directory. Panics if the file cannot be loaded; intended for
// tests.
func MustLoadDefaultConfig() *PipelineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate resolves the configuration and checks every value.
func (c *PipelineConfig) Validate() error {
	_, err := c.Settings()
	return err
}
