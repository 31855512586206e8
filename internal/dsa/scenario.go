// Package dsa sweeps the dynamic strain ageing timescale model. For each
// scenario and temperature it compares the solute diffusion time across the
// capture radius with the dislocation waiting time, and locates the
// temperature window where the two are comparable.
package dsa

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidScenario wraps validation failures of Scenario and Bounds.
var ErrInvalidScenario = errors.New("dsa: invalid scenario")

// Scenario is one point of the mechanistic parameter space, all in SI.
type Scenario struct {
	RhoM       float64 `validate:"gt=0"`  // mobile dislocation density, 1/m²
	LCapture   float64 `validate:"gt=0"`  // capture radius, m
	LTravel    float64 `validate:"gt=0"`  // travel distance between obstacles, m
	FPipe      float64 `validate:"gte=0"` // pipe-diffusion enhancement
	StrainRate float64 `validate:"gt=0"`  // 1/s
	Burgers    float64 `validate:"gt=0"`  // m
}

// Validate checks every field is physically meaningful.
func (s Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return nil
}

// TauWait is the dislocation waiting time L_t/(ρ_m·b·ε̇), independent of
// temperature.
func (s Scenario) TauWait() float64 {
	return s.LTravel / (s.RhoM * s.Burgers * s.StrainRate)
}

// ParamSpace lists the swept values of each parameter. StrainRate and
// Burgers are shared by every scenario.
type ParamSpace struct {
	RhoM       []float64
	LCapture   []float64
	LTravel    []float64
	FPipe      []float64
	StrainRate float64
	Burgers    float64
}

// Scenarios expands the cross product in (ρ_m, L_c, L_t, f_pipe) order with
// f_pipe varying fastest. Every scenario is validated.
func (p ParamSpace) Scenarios() ([]Scenario, error) {
	combos, err := CartesianProduct(p.RhoM, p.LCapture, p.LTravel, p.FPipe)
	if err != nil {
		return nil, err
	}
	if len(combos) == 0 {
		return nil, fmt.Errorf("%w: every parameter needs at least one value", ErrInvalidScenario)
	}
	out := make([]Scenario, len(combos))
	for i, c := range combos {
		s := Scenario{
			RhoM:       c[0],
			LCapture:   c[1],
			LTravel:    c[2],
			FPipe:      c[3],
			StrainRate: p.StrainRate,
			Burgers:    p.Burgers,
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Bounds is the open ratio interval that defines the window.
type Bounds struct {
	Lower float64 `validate:"gt=0"`
	Upper float64 `validate:"gtfield=Lower"`
}

// DefaultBounds is 0.1 < τ_diff/τ_wait < 10.
func DefaultBounds() Bounds { return Bounds{Lower: 0.1, Upper: 10} }

// Validate checks 0 < Lower < Upper.
func (b Bounds) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: window bounds: %v", ErrInvalidScenario, err)
	}
	return nil
}

// Contains reports Lower < ratio < Upper.
func (b Bounds) Contains(ratio float64) bool {
	return ratio > b.Lower && ratio < b.Upper
}
