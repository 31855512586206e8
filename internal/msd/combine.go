package msd

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// InterdiffusionTag is the species tag given to combined estimates.
const InterdiffusionTag = "interdiff"

// Combination strategy names.
const (
	DarkenArithmetic = "darken-arithmetic"
	DarkenHarmonic   = "darken-harmonic"
)

// DefaultCombiner is the strategy used when none is configured. The
// weighting is provisional: the source simulations never pinned down which
// Darken form the interdiffusion coefficient was meant to follow.
const DefaultCombiner = DarkenArithmetic

var (
	ErrUnknownCombiner     = errors.New("msd: unknown combination strategy")
	ErrTemperatureMismatch = errors.New("msd: estimates are at different temperatures")
)

// Combiner merges two per-species estimates into one interdiffusion estimate.
// a belongs to the species with atomic fraction xA and b to the other
// species (fraction 1-xA).
type Combiner interface {
	Name() string
	Combine(a, b Estimate, xA float64) (Estimate, error)
}

// CombinerFunc adapts a function to the Combiner interface.
type CombinerFunc struct {
	ID string
	Fn func(a, b Estimate, xA float64) (d, se float64)
}

func (c CombinerFunc) Name() string { return c.ID }

// Combine checks the inputs and assembles the combined record. R² and the
// sample count are the weaker of the two inputs; the result is valid only if
// both inputs are valid and the combined D is positive.
func (c CombinerFunc) Combine(a, b Estimate, xA float64) (Estimate, error) {
	if math.IsNaN(xA) || xA <= 0 || xA >= 1 {
		return Estimate{}, fmt.Errorf("%w: solute fraction %v not in (0, 1)", ErrInvalidConfig, xA)
	}
	if a.Temperature != b.Temperature {
		return Estimate{}, fmt.Errorf("%w: %g K and %g K", ErrTemperatureMismatch, a.Temperature, b.Temperature)
	}
	d, se := c.Fn(a, b, xA)
	out := Estimate{
		Temperature: a.Temperature,
		D:           d,
		DStderr:     se,
		R2:          math.Min(a.R2, b.R2),
		Samples:     min(a.Samples, b.Samples),
		Species:     InterdiffusionTag,
		Slope:       math.NaN(),
		Intercept:   math.NaN(),
	}
	out.Valid = a.Valid && b.Valid && d > 0 && !math.IsNaN(d)
	return out, nil
}

// darkenArithmetic is D = x_B·D_A + x_A·D_B.
func darkenArithmetic(a, b Estimate, xA float64) (float64, float64) {
	xB := 1 - xA
	d := xB*a.D + xA*b.D
	se := math.Hypot(xB*a.DStderr, xA*b.DStderr)
	return d, se
}

// darkenHarmonic is D = 1/(x_A/D_A + x_B/D_B), undefined unless both
// diffusivities are positive.
func darkenHarmonic(a, b Estimate, xA float64) (float64, float64) {
	xB := 1 - xA
	if a.D <= 0 || b.D <= 0 {
		return math.NaN(), math.NaN()
	}
	d := 1 / (xA/a.D + xB/b.D)
	// ∂D/∂D_i = D²·x_i/D_i²
	ga := d * d * xA / (a.D * a.D)
	gb := d * d * xB / (b.D * b.D)
	return d, math.Hypot(ga*a.DStderr, gb*b.DStderr)
}

// CombinerInfo summarises a registered strategy.
type CombinerInfo struct {
	Name        string
	Description string
}

// CombinerRegistry holds combination strategies by name.
type CombinerRegistry struct {
	mu        sync.RWMutex
	combiners map[string]Combiner
	about     map[string]string
}

// NewCombinerRegistry creates an empty registry.
func NewCombinerRegistry() *CombinerRegistry {
	return &CombinerRegistry{
		combiners: make(map[string]Combiner),
		about:     make(map[string]string),
	}
}

// Register adds c, replacing any strategy with the same name.
func (r *CombinerRegistry) Register(c Combiner, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.combiners[c.Name()] = c
	r.about[c.Name()] = description
}

// Get looks up a strategy by name.
func (r *CombinerRegistry) Get(name string) (Combiner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.combiners[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCombiner, name)
	}
	return c, nil
}

// List returns registered strategies sorted by name.
func (r *CombinerRegistry) List() []CombinerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]CombinerInfo, 0, len(r.combiners))
	for name := range r.combiners {
		infos = append(infos, CombinerInfo{Name: name, Description: r.about[name]})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// DefaultCombinerRegistry returns a registry with the built-in Darken forms.
func DefaultCombinerRegistry() *CombinerRegistry {
	reg := NewCombinerRegistry()
	reg.Register(CombinerFunc{ID: DarkenArithmetic, Fn: darkenArithmetic},
		"Darken arithmetic mixing x_B·D_A + x_A·D_B (provisional default).")
	reg.Register(CombinerFunc{ID: DarkenHarmonic, Fn: darkenHarmonic},
		"Concentration-weighted harmonic mean 1/(x_A/D_A + x_B/D_B).")
	return reg
}
