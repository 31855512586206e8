package arrhenius

import (
	"math"

	"github.com/banshee-data/diffusion.report/internal/msd"
)

// Exclusion explains why an estimate did not enter the regression.
type Exclusion string

const (
	Included        Exclusion = ""
	ExcludedInvalid Exclusion = "invalid_estimate"
	ExcludedBelowR2 Exclusion = "below_r2_threshold"
	ExcludedSpecies Exclusion = "species_filtered"
	ExcludedDomain  Exclusion = "non_positive_value"
)

// Decision records whether one estimate was used.
type Decision struct {
	Estimate msd.Estimate
	Reason   Exclusion
}

// Used reports whether the estimate entered the fit.
func (d Decision) Used() bool { return d.Reason == Included }

// Select applies the species filter, the validity flag and the optional R²
// gate, in that order. It returns the surviving estimates and one decision
// per input, in input order.
func Select(estimates []msd.Estimate, opts Options) ([]msd.Estimate, []Decision) {
	used := make([]msd.Estimate, 0, len(estimates))
	decisions := make([]Decision, len(estimates))
	for i, e := range estimates {
		reason := classify(e, opts)
		decisions[i] = Decision{Estimate: e, Reason: reason}
		if reason == Included {
			used = append(used, e)
		}
	}
	return used, decisions
}

func classify(e msd.Estimate, opts Options) Exclusion {
	switch {
	case opts.Species != "" && e.Species != opts.Species:
		return ExcludedSpecies
	case !e.Valid:
		return ExcludedInvalid
	case !(e.D > 0) || !(e.Temperature > 0) || math.IsInf(e.D, 0) || math.IsInf(e.Temperature, 0):
		// ln D and 1/T must exist even for records flagged valid upstream.
		return ExcludedDomain
	case opts.MinR2 > 0 && e.R2 < opts.MinR2:
		return ExcludedBelowR2
	}
	return Included
}
