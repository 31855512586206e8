package dsa

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/diffusion.report/internal/units"
)

// MaxValues bounds a single generated range.
const MaxValues = 10000

// MaxCombos bounds the cartesian product of a parameter space.
const MaxCombos = 10000

// RangeSpec defines an inclusive floating-point range for sweeping.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string. Each part is read by
// parse, which lets length ranges carry unit suffixes ("1nm:5nm:1nm").
func ParseRangeSpec(s string, parse func(string) (float64, error)) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	var vals [3]float64
	names := [3]string{"min", "max", "step"}
	for i, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return RangeSpec{}, fmt.Errorf("invalid %s value %q: %w", names[i], p, err)
		}
		vals[i] = v
	}

	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %g", vals[2])
	}
	if vals[0] > vals[1] {
		return RangeSpec{}, fmt.Errorf("range min %g exceeds max %g", vals[0], vals[1])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// GenerateRange returns min, min+step, ... up to max inclusive. Values are
// computed as min + i·step so no rounding error accumulates; max itself is
// included when it falls within step/1000 of a grid point. Returns nil for
// an empty or oversized range.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	count := math.Floor((max-min)/step+1e-3) + 1
	if count > MaxValues || math.IsNaN(count) {
		return nil
	}
	n := int(count)
	out := make([]float64, n)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	// Land exactly on max when the last step reaches it.
	if math.Abs(out[n-1]-max) <= step/1000 {
		out[n-1] = max
	}
	return out
}

// ParseCSVFloat64s parses a comma-separated list with parse. Returns nil,
// nil for empty input.
func ParseCSVFloat64s(s string, parse func(string) (float64, error)) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := parse(p)
		if err != nil {
			return nil, fmt.Errorf("invalid value '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseParamList parses either a comma-separated list or a "min:max:step"
// range of plain numbers.
func ParseParamList(s string) ([]float64, error) {
	return parseList(s, parseFloat)
}

// ParseLengthList is ParseParamList for lengths. Each value may carry a
// unit suffix (m, mm, um, µm, nm, A); bare numbers are in defaultUnit. The
// result is in metres.
func ParseLengthList(s, defaultUnit string) ([]float64, error) {
	return parseList(s, func(v string) (float64, error) {
		return units.ParseLength(v, defaultUnit)
	})
}

func parseList(s string, parse func(string) (float64, error)) ([]float64, error) {
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s, parse)
		if err != nil {
			return nil, err
		}
		vals := GenerateRange(spec.Min, spec.Max, spec.Step)
		if vals == nil {
			return nil, fmt.Errorf("range %q yields more than %d values", s, MaxValues)
		}
		return vals, nil
	}
	return ParseCSVFloat64s(s, parse)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// CartesianProduct returns every combination of one value per dimension.
// The last dimension varies fastest. An empty dimension yields no
// combinations.
func CartesianProduct(values ...[]float64) ([][]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}

	total := int64(1)
	for _, v := range values {
		total *= int64(len(v))
		if total > MaxCombos {
			return nil, fmt.Errorf("parameter combinations would exceed safe limit of %d", MaxCombos)
		}
	}
	if total == 0 {
		return nil, nil
	}

	result := make([][]float64, total)
	for i := range result {
		result[i] = make([]float64, len(values))
	}

	repeat := int64(1)
	for dim := len(values) - 1; dim >= 0; dim-- {
		dimValues := values[dim]
		cycle := int64(len(dimValues))
		for i := int64(0); i < total; i++ {
			result[i][dim] = dimValues[(i/repeat)%cycle]
		}
		repeat *= cycle
	}
	return result, nil
}
