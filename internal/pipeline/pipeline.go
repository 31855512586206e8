// Package pipeline composes the reduction stages: MSD extraction, optional
// interdiffusion combination, Arrhenius regression, extrapolation onto the
// DSA grid and the DSA sweep. File I/O happens only in WriteOutputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/config"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/msd"
)

var (
	// ErrNoInputs is returned when Run is given no series.
	ErrNoInputs = errors.New("pipeline: no input series")
	// ErrDuplicateTemperature marks a second series for a species at a
	// temperature that already has an estimate.
	ErrDuplicateTemperature = errors.New("pipeline: species already has an estimate at this temperature")
)

// ReasonDuplicateTemperature is the contribution reason for a series
// rejected by ErrDuplicateTemperature.
const ReasonDuplicateTemperature = "duplicate_temperature"

// Stage names used in Failure records.
const (
	StageExtract   = "extract"
	StageCombine   = "combine"
	StageArrhenius = "arrhenius"
	StageSweep     = "sweep"
)

// Input is one MSD series with the dimensionality its values aggregate.
type Input struct {
	Series msd.Series
	// Dimensionality is 1 for a single axis, 3 for total MSD; zero selects
	// the configured default.
	Dimensionality int
	// Source identifies where the series came from, e.g. "Mg_total@700.dat".
	Source string
}

// Contribution states whether one (temperature, species) record entered its
// species' Arrhenius fit, and why not if it did not.
type Contribution struct {
	Temperature float64 `yaml:"temperature"`
	Species     string  `yaml:"species"`
	Source      string  `yaml:"source,omitempty"`
	Used        bool    `yaml:"used"`
	Reason      string  `yaml:"reason,omitempty"`
}

// Failure is a stage error that stopped part of the run. Other species and
// series carry on.
type Failure struct {
	Stage       string
	Species     string
	Source      string
	Temperature float64
	Err         error
}

func (f Failure) Error() string {
	switch {
	case f.Source != "":
		return fmt.Sprintf("%s %s: %v", f.Stage, f.Source, f.Err)
	case f.Species != "":
		return fmt.Sprintf("%s %s: %v", f.Stage, f.Species, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Stage, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// SpeciesResult carries the downstream stages for one fitted species tag.
type SpeciesResult struct {
	Species string
	Fit     arrhenius.Fit
	Curve   []arrhenius.Point
	Sweep   *dsa.Sweep // nil if the sweep failed
}

// Result is the outcome of one run.
type Result struct {
	ID       string // random UUID
	Started  time.Time
	Settings config.Settings
	// Estimates holds every extracted and combined estimate, valid or not,
	// ordered by species then temperature.
	Estimates     []msd.Estimate
	Species       []SpeciesResult
	Contributions []Contribution
	Failures      []Failure
}

// Fits returns the successful Arrhenius fits in species order.
func (r *Result) Fits() []arrhenius.Fit {
	out := make([]arrhenius.Fit, len(r.Species))
	for i, sp := range r.Species {
		out[i] = sp.Fit
	}
	return out
}

type slot struct {
	est msd.Estimate
	acc msd.Accepted
	err error
}

// Run reduces inputs under settings. Series rejections, failed fits and
// failed sweeps are recorded in Result.Failures and do not fail the run; an
// invalid configuration or a cancelled context does.
func Run(ctx context.Context, inputs []Input, s config.Settings) (*Result, error) {
	started := time.Now().UTC()
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	combiner, err := s.Combiner()
	if err != nil {
		return nil, err
	}
	scenarios, err := s.ParamSpace().Scenarios()
	if err != nil {
		return nil, err
	}

	slots, err := extractAll(ctx, inputs, s)
	if err != nil {
		return nil, err
	}

	res := &Result{ID: uuid.NewString(), Started: started, Settings: s}
	sources := map[estimateKey]string{}
	for i, sl := range slots {
		in := inputs[i]
		if sl.err != nil {
			reason := "error"
			if r, ok := msd.ReasonOf(sl.err); ok {
				reason = string(r)
			}
			res.Failures = append(res.Failures, Failure{
				Stage: StageExtract, Species: in.Series.Species, Source: in.Source,
				Temperature: in.Series.Temperature, Err: sl.err,
			})
			res.Contributions = append(res.Contributions, Contribution{
				Temperature: in.Series.Temperature, Species: in.Series.Species,
				Source: in.Source, Reason: reason,
			})
			monitoring.Warnf("%s: series rejected: %v", describe(in), sl.err)
			continue
		}
		k := estimateKey{sl.est.Species, sl.est.Temperature}
		if first, dup := sources[k]; dup {
			err := fmt.Errorf("%w: %s at %g K is taken from %s", ErrDuplicateTemperature, k.species, k.temperature, first)
			res.Failures = append(res.Failures, Failure{
				Stage: StageExtract, Species: in.Series.Species, Source: in.Source,
				Temperature: in.Series.Temperature, Err: err,
			})
			res.Contributions = append(res.Contributions, Contribution{
				Temperature: in.Series.Temperature, Species: in.Series.Species,
				Source: in.Source, Reason: ReasonDuplicateTemperature,
			})
			monitoring.Warnf("%s: %v", describe(in), err)
			continue
		}
		sources[k] = in.Source
		if sl.acc.Dropped > 0 {
			monitoring.Logf("%s: trimmed %d transient samples before %.4g s", describe(in), sl.acc.Dropped, sl.acc.Cutoff)
		}
		if !sl.est.Valid {
			monitoring.Warnf("%s: D=%.4g R2=%.4f (%s) is not valid", describe(in), sl.est.D, sl.est.R2, msd.GradeR2(sl.est.R2))
		}
		res.Estimates = append(res.Estimates, sl.est)
	}

	combined, failures := Combine(res.Estimates, combiner, s)
	for _, e := range combined {
		solute := sources[estimateKey{s.SoluteSpecies, e.Temperature}]
		solvent := sources[estimateKey{s.SolventSpecies, e.Temperature}]
		sources[estimateKey{e.Species, e.Temperature}] = fmt.Sprintf("%s:%s+%s:%s", s.SoluteSpecies, solute, s.SolventSpecies, solvent)
	}
	res.Estimates = append(res.Estimates, combined...)
	res.Failures = append(res.Failures, failures...)
	sortEstimates(res.Estimates)

	for _, sp := range speciesOf(res.Estimates) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sr, ok := fitSpecies(ctx, res, sp, sources, scenarios, s)
		if ok {
			res.Species = append(res.Species, sr)
		}
	}
	sortContributions(res.Contributions)
	return res, nil
}

type estimateKey struct {
	species     string
	temperature float64
}

func describe(in Input) string {
	if in.Source != "" {
		return in.Source
	}
	return fmt.Sprintf("%s@%gK", in.Series.Species, in.Series.Temperature)
}

// extractAll runs FilterAndExtract for every input concurrently, each
// writing only its own slot. Only a configuration error aborts.
func extractAll(ctx context.Context, inputs []Input, s config.Settings) ([]slot, error) {
	slots := make([]slot, len(inputs))
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	fc := s.Filter()
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			est, acc, err := msd.FilterAndExtract(in.Series, fc, s.Extract(in.Dimensionality))
			if errors.Is(err, msd.ErrInvalidConfig) {
				return fmt.Errorf("%s: %w", describe(in), err)
			}
			slots[i] = slot{est: est, acc: acc, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slots, nil
}

// Combine builds one interdiffusion estimate per temperature at which both
// the solute and the solvent species were extracted. Run passes at most one
// estimate per species and temperature; otherwise the first is used.
func Combine(estimates []msd.Estimate, c msd.Combiner, s config.Settings) ([]msd.Estimate, []Failure) {
	solute := map[float64]msd.Estimate{}
	solvent := map[float64]msd.Estimate{}
	for _, e := range estimates {
		switch e.Species {
		case s.SoluteSpecies:
			if _, ok := solute[e.Temperature]; !ok {
				solute[e.Temperature] = e
			}
		case s.SolventSpecies:
			if _, ok := solvent[e.Temperature]; !ok {
				solvent[e.Temperature] = e
			}
		}
	}
	temps := make([]float64, 0, len(solute))
	for t := range solute {
		if _, ok := solvent[t]; ok {
			temps = append(temps, t)
		}
	}
	sort.Float64s(temps)

	var (
		out      []msd.Estimate
		failures []Failure
	)
	for _, t := range temps {
		e, err := c.Combine(solute[t], solvent[t], s.SoluteFraction)
		if err != nil {
			failures = append(failures, Failure{Stage: StageCombine, Species: msd.InterdiffusionTag, Temperature: t, Err: err})
			continue
		}
		if !e.Valid {
			monitoring.Warnf("%s at %g K: combined D=%.4g is not valid", msd.InterdiffusionTag, t, e.D)
		}
		out = append(out, e)
	}
	if len(out) > 0 {
		monitoring.Logf("combined %d temperatures with %s (x_%s=%g)", len(out), c.Name(), s.SoluteSpecies, s.SoluteFraction)
	}
	return out, failures
}

// fitSpecies runs regression, extrapolation and the sweep for one species,
// recording contributions and failures on res.
// sources maps each estimate in res to the input it came from; combined
// estimates name both components.
func fitSpecies(ctx context.Context, res *Result, species string, sources map[estimateKey]string, scenarios []dsa.Scenario, s config.Settings) (SpeciesResult, bool) {
	fit, decisions, err := arrhenius.RegressWithDecisions(res.Estimates, s.Arrhenius(species))
	for _, d := range decisions {
		if d.Reason == arrhenius.ExcludedSpecies {
			continue
		}
		c := Contribution{
			Temperature: d.Estimate.Temperature,
			Species:     species,
			Source:      sources[estimateKey{species, d.Estimate.Temperature}],
			Used:        d.Used(),
			Reason:      string(d.Reason),
		}
		res.Contributions = append(res.Contributions, c)
	}
	if err != nil {
		res.Failures = append(res.Failures, Failure{Stage: StageArrhenius, Species: species, Err: err})
		monitoring.Warnf("%s: no Arrhenius fit: %v", species, err)
		return SpeciesResult{}, false
	}
	monitoring.Logf("%s: D0=%.4g m^2/s Q=%.2f kJ/mol (%.3f eV) R2=%.4f over %g-%g K, %d points",
		species, fit.D0, fit.QkJPerMol(), fit.QeVPerAtom(), fit.R2, fit.TMin, fit.TMax, fit.Points)

	sr := SpeciesResult{Species: species, Fit: fit}
	sr.Curve, err = arrhenius.Extrapolate(fit, s.DSATemperatures)
	if err != nil {
		res.Failures = append(res.Failures, Failure{Stage: StageArrhenius, Species: species, Err: err})
		return sr, true
	}
	risky := 0
	for _, p := range sr.Curve {
		if p.ExtrapolationRisk {
			risky++
		}
	}
	if risky > 0 {
		monitoring.Warnf("%s: %d of %d DSA temperatures lie outside the calibration range %g-%g K",
			species, risky, len(sr.Curve), fit.TMin, fit.TMax)
	}

	sw, err := dsa.Run(ctx, sr.Curve, scenarios, dsa.SweepConfig{Bounds: s.Bounds(), Workers: s.Workers})
	if err != nil {
		res.Failures = append(res.Failures, Failure{Stage: StageSweep, Species: species, Err: err})
		return sr, true
	}
	sw.Species = species
	empty := 0
	for _, sum := range sw.Summaries {
		if sum.Empty() {
			empty++
		}
	}
	if empty > 0 {
		monitoring.Warnf("%s: %d of %d scenarios have no DSA window", species, empty, len(sw.Summaries))
	}
	sr.Sweep = sw
	return sr, true
}

func speciesOf(estimates []msd.Estimate) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range estimates {
		if !seen[e.Species] {
			seen[e.Species] = true
			out = append(out, e.Species)
		}
	}
	sort.Strings(out)
	return out
}

func sortEstimates(es []msd.Estimate) {
	sort.SliceStable(es, func(i, j int) bool {
		if es[i].Species != es[j].Species {
			return es[i].Species < es[j].Species
		}
		return es[i].Temperature < es[j].Temperature
	})
}

func sortContributions(cs []Contribution) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].Species != cs[j].Species {
			return cs[i].Species < cs[j].Species
		}
		return cs[i].Temperature < cs[j].Temperature
	})
}
