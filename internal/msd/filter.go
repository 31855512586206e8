package msd

import (
	"fmt"
	"math"
)

// FilterConfig controls acceptance of a raw series.
type FilterConfig struct {
	// TransientFraction of the time span (not of the sample count) discarded
	// from the start of the series.
	TransientFraction float64
	// MinimumDuration is the shortest acceptable span after trimming, seconds.
	MinimumDuration float64
	// MinimumSamples is the fewest samples acceptable after trimming.
	MinimumSamples int
}

// DefaultFilterConfig returns the current defaults: 20% transient, 100 ps and
// 10 samples remaining.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		TransientFraction: 0.20,
		MinimumDuration:   1e-10,
		MinimumSamples:    10,
	}
}

// Validate reports out-of-range settings.
func (c FilterConfig) Validate() error {
	if math.IsNaN(c.TransientFraction) || c.TransientFraction < 0 || c.TransientFraction >= 1 {
		return fmt.Errorf("%w: transient fraction %v not in [0, 1)", ErrInvalidConfig, c.TransientFraction)
	}
	if math.IsNaN(c.MinimumDuration) || c.MinimumDuration < 0 {
		return fmt.Errorf("%w: minimum duration %v", ErrInvalidConfig, c.MinimumDuration)
	}
	if c.MinimumSamples < 2 {
		return fmt.Errorf("%w: minimum samples %d (need at least 2)", ErrInvalidConfig, c.MinimumSamples)
	}
	return nil
}

// Accepted is a transient-trimmed series ready for extraction.
type Accepted struct {
	Series  Series
	Dropped int     // samples removed as transient
	Cutoff  float64 // first time retained, seconds
}

// Filter checks a series for well-formedness, trims the initial transient by
// time span and applies the duration and sample-count floors. The input is
// not modified; the accepted series shares no memory with it.
func Filter(s Series, cfg FilterConfig) (Accepted, error) {
	if err := cfg.Validate(); err != nil {
		return Accepted{}, err
	}
	if err := checkWellFormed(s); err != nil {
		return Accepted{}, err
	}

	first := s.Samples[0].Time
	cutoff := first + cfg.TransientFraction*s.Span()

	start := 0
	for start < len(s.Samples) && s.Samples[start].Time < cutoff {
		start++
	}
	kept := make([]Sample, len(s.Samples)-start)
	copy(kept, s.Samples[start:])

	out := Series{Temperature: s.Temperature, Species: s.Species, Samples: kept}
	if span := out.Span(); span < cfg.MinimumDuration {
		return Accepted{}, reject(InsufficientDuration,
			"%.4g s remaining after trimming %.0f%%, need %.4g s",
			span, cfg.TransientFraction*100, cfg.MinimumDuration)
	}
	if len(kept) < cfg.MinimumSamples {
		return Accepted{}, reject(InsufficientSamples,
			"%d samples remaining after trimming, need %d", len(kept), cfg.MinimumSamples)
	}

	return Accepted{Series: out, Dropped: start, Cutoff: kept[0].Time}, nil
}

func checkWellFormed(s Series) error {
	if len(s.Samples) == 0 {
		return reject(MalformedSeries, "empty series")
	}
	for i, p := range s.Samples {
		if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) || math.IsNaN(p.MSD) || math.IsInf(p.MSD, 0) {
			return reject(MalformedSeries, "non-finite sample at index %d", i)
		}
		if i > 0 && p.Time <= s.Samples[i-1].Time {
			return reject(MalformedSeries, "time not strictly increasing at index %d (%g after %g)",
				i, p.Time, s.Samples[i-1].Time)
		}
	}
	return nil
}
