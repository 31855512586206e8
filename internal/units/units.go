// Package units provides shared physical constants and boundary unit
// conversions. Everything past the input boundary is SI: seconds, metres,
// kelvin, m²/s and J/mol.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Physical constants (CODATA 2018 exact or recommended values).
const (
	GasConstant       = 8.314462618    // J/(mol·K)
	Boltzmann         = 8.617333262e-5 // eV/K
	Avogadro          = 6.02214076e23  // 1/mol
	JoulesPerMolPerEV = 96485.33212    // J/mol per eV/atom
)

// Length unit constants
const (
	Metre      = "m"
	Millimetre = "mm"
	Micrometre = "um"
	Nanometre  = "nm"
	Angstrom   = "A"
)

// ValidLengthUnits contains all accepted length suffixes.
var ValidLengthUnits = []string{Metre, Millimetre, Micrometre, Nanometre, Angstrom}

// lengthScale maps a normalised length suffix to metres.
var lengthScale = map[string]float64{
	Metre:      1,
	Millimetre: 1e-3,
	Micrometre: 1e-6,
	Nanometre:  1e-9,
	Angstrom:   1e-10,
}

// normaliseLengthUnit folds the micro sign variants and the Ångström glyph
// onto the ASCII constants.
func normaliseLengthUnit(u string) string {
	u = strings.TrimSpace(u)
	switch u {
	case "µm", "μm":
		return Micrometre
	case "Å", "Ang", "ang":
		return Angstrom
	}
	return u
}

// IsValidLengthUnit checks if the given suffix is a recognised length unit.
func IsValidLengthUnit(unit string) bool {
	_, ok := lengthScale[normaliseLengthUnit(unit)]
	return ok
}

// LengthScale returns the factor converting the given unit to metres.
func LengthScale(unit string) (float64, error) {
	f, ok := lengthScale[normaliseLengthUnit(unit)]
	if !ok {
		return 0, fmt.Errorf("unknown length unit %q (valid: %s)", unit, strings.Join(ValidLengthUnits, ", "))
	}
	return f, nil
}

// SplitUnit separates a trailing alphabetic unit suffix from a numeric
// list or range, e.g. "1,2,5 nm" -> ("1,2,5", "nm"). Input with no suffix
// returns an empty unit.
func SplitUnit(spec string) (value string, unit string) {
	spec = strings.TrimSpace(spec)
	i := len(spec)
	for i > 0 {
		r := spec[i-1]
		if (r >= 'a' && r <= 'z' && r != 'e') || (r >= 'A' && r <= 'Z' && r != 'E') || r >= 0x80 {
			i--
			continue
		}
		break
	}
	// An "e" directly after digits is an exponent, not a unit; the loop above
	// refuses to eat it, so "2e-9" stays intact while "2nm" splits.
	return strings.TrimSpace(spec[:i]), strings.TrimSpace(spec[i:])
}

// ParseLength parses a single length such as "2nm", "0.1 µm" or "2.86e-10".
// Values without a suffix are interpreted in defaultUnit.
func ParseLength(s, defaultUnit string) (float64, error) {
	num, unit := SplitUnit(s)
	if unit == "" {
		unit = defaultUnit
	}
	scale, err := LengthScale(unit)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return v * scale, nil
}

// PicosecondsToSeconds converts a time in ps to s.
func PicosecondsToSeconds(ps float64) float64 {
	return ps * 1e-12
}

// AngstromSqToMetreSq converts an MSD in Å² to m².
func AngstromSqToMetreSq(a2 float64) float64 {
	return a2 * 1e-20
}

// JPerMolToKJPerMol converts an energy in J/mol to kJ/mol.
func JPerMolToKJPerMol(q float64) float64 {
	return q / 1e3
}

// JPerMolToEVPerAtom converts a molar energy in J/mol to eV per atom.
func JPerMolToEVPerAtom(q float64) float64 {
	return q / JoulesPerMolPerEV
}

// KJPerMolToJPerMol converts an energy in kJ/mol to J/mol.
func KJPerMolToJPerMol(q float64) float64 {
	return q * 1e3
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
