package dsa

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
)

// ErrNoTemperatures is returned when the diffusivity curve is empty.
var ErrNoTemperatures = errors.New("dsa: no temperatures to sweep")

// SweepConfig controls a sweep.
type SweepConfig struct {
	Bounds Bounds
	// Workers caps concurrent scenario evaluations; zero means GOMAXPROCS.
	Workers int
}

// Summary gives the window boundaries for one scenario. An empty Windows
// slice is a reported result, not a missing one.
type Summary struct {
	Scenario Scenario
	Windows  []Window
}

// Empty reports whether the scenario has no window on the grid.
func (s Summary) Empty() bool { return len(s.Windows) == 0 }

// Low returns the lowest window boundary temperature.
func (s Summary) Low() (float64, bool) {
	if s.Empty() {
		return math.NaN(), false
	}
	return s.Windows[0].Start, true
}

// High returns the highest window boundary temperature.
func (s Summary) High() (float64, bool) {
	if s.Empty() {
		return math.NaN(), false
	}
	return s.Windows[len(s.Windows)-1].End, true
}

// Sweep holds results for every scenario on a shared temperature grid.
// Results[i] and Summaries[i] belong to Scenarios[i].
type Sweep struct {
	Species      string
	Temperatures []float64
	Scenarios    []Scenario
	Results      [][]Result
	Summaries    []Summary
}

// Rows flattens the results scenario by scenario, temperature ascending.
func (s *Sweep) Rows() []Result {
	var out []Result
	for _, r := range s.Results {
		out = append(out, r...)
	}
	return out
}

// Run evaluates every scenario at every temperature of the curve. The curve
// is sorted by temperature; duplicate or non-positive temperatures are an
// error. Scenarios are evaluated concurrently, each into its own slot, so
// the output does not depend on scheduling.
func Run(ctx context.Context, curve []arrhenius.Point, scenarios []Scenario, cfg SweepConfig) (*Sweep, error) {
	if err := cfg.Bounds.Validate(); err != nil {
		return nil, err
	}
	if len(curve) == 0 {
		return nil, ErrNoTemperatures
	}
	pts := make([]arrhenius.Point, len(curve))
	copy(pts, curve)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Temperature < pts[j].Temperature })

	temps := make([]float64, len(pts))
	for i, p := range pts {
		if !(p.Temperature > 0) || math.IsInf(p.Temperature, 0) {
			return nil, fmt.Errorf("dsa: invalid temperature %v", p.Temperature)
		}
		if i > 0 && p.Temperature == pts[i-1].Temperature {
			return nil, fmt.Errorf("dsa: duplicate temperature %v", p.Temperature)
		}
		temps[i] = p.Temperature
	}
	for i, s := range scenarios {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i, err)
		}
	}

	out := &Sweep{
		Temperatures: temps,
		Scenarios:    scenarios,
		Results:      make([][]Result, len(scenarios)),
		Summaries:    make([]Summary, len(scenarios)),
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, s := range scenarios {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows := make([]Result, len(pts))
			ratios := make([]float64, len(pts))
			for j, p := range pts {
				rows[j] = Evaluate(s, p.Temperature, p.D, cfg.Bounds)
				ratios[j] = rows[j].Ratio
			}
			out.Results[i] = rows
			out.Summaries[i] = Summary{Scenario: s, Windows: WindowBoundaries(temps, ratios, cfg.Bounds)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
