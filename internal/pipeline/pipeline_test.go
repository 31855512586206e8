package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/config"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/testutil"
)

const (
	mgD0, mgQ = 1e-5, 130e3
	alD0, alQ = 2e-5, 140e3
)

var calibration = []float64{600, 700, 800, 900, 1000}

func quiet(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })
}

func synthetic(temps []float64, species string, d0, q float64) []Input {
	var out []Input
	for _, temp := range temps {
		out = append(out, Input{
			Series:         testutil.MSDSeries(temp, species, testutil.ArrheniusD(d0, q, temp)),
			Dimensionality: 3,
			Source:         species,
		})
	}
	return out
}

func TestRunRecoversBothSpecies(t *testing.T) {
	quiet(t)
	inputs := append(synthetic(calibration, "Mg", mgD0, mgQ), synthetic(calibration, "Al", alD0, alQ)...)

	res, err := Run(context.Background(), inputs, config.DefaultSettings())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Estimates, 15)

	require.Len(t, res.Species, 3)
	assert.Equal(t, "Al", res.Species[0].Species)
	assert.Equal(t, "Mg", res.Species[1].Species)
	assert.Equal(t, msd.InterdiffusionTag, res.Species[2].Species)

	mg := res.Species[1]
	testutil.AssertClose(t, mg.Fit.D0, mgD0, 0.01)
	testutil.AssertClose(t, mg.Fit.Q, mgQ, 0.01)
	assert.Greater(t, mg.Fit.R2, 0.999)
	assert.Equal(t, 600.0, mg.Fit.TMin)
	assert.Equal(t, 1000.0, mg.Fit.TMax)

	s := config.DefaultSettings()
	require.Len(t, mg.Curve, len(s.DSATemperatures))
	for _, p := range mg.Curve {
		assert.True(t, p.ExtrapolationRisk, "%g K is below the calibration range", p.Temperature)
	}
	require.NotNil(t, mg.Sweep)
	assert.Equal(t, "Mg", mg.Sweep.Species)
	assert.Len(t, mg.Sweep.Summaries, len(s.RhoM)*len(s.LCaptureM)*len(s.LTravelM)*len(s.FPipe))

	assert.Len(t, res.Contributions, 15)
	for _, c := range res.Contributions {
		assert.True(t, c.Used, "%+v", c)
	}
}

func TestRunRecordsExclusions(t *testing.T) {
	quiet(t)
	inputs := synthetic(calibration, "Mg", mgD0, mgQ)
	// Too few samples to survive the filter.
	inputs = append(inputs, Input{Series: msd.Linear(650, "Mg", 1e-15, 0, 0, 1e-9, 5), Source: "short"})
	// Shrinking MSD yields a negative, invalid diffusivity.
	inputs = append(inputs, Input{Series: msd.Linear(750, "Mg", -1e-15, 1e-20, 0, 1e-9, 101), Source: "shrinking"})
	// Two temperatures are not enough for an Arrhenius fit.
	inputs = append(inputs, synthetic([]float64{700, 800}, "Al", alD0, alQ)...)

	res, err := Run(context.Background(), inputs, config.DefaultSettings())
	require.NoError(t, err)

	byReason := map[string][]Contribution{}
	for _, c := range res.Contributions {
		byReason[c.Reason] = append(byReason[c.Reason], c)
	}
	require.Len(t, byReason[string(msd.InsufficientSamples)], 1)
	assert.Equal(t, "short", byReason[string(msd.InsufficientSamples)][0].Source)
	require.Len(t, byReason[string(arrhenius.ExcludedInvalid)], 1)
	assert.Equal(t, 750.0, byReason[string(arrhenius.ExcludedInvalid)][0].Temperature)
	assert.Equal(t, "shrinking", byReason[string(arrhenius.ExcludedInvalid)][0].Source)

	var stages []string
	for _, f := range res.Failures {
		stages = append(stages, f.Stage+":"+f.Species)
	}
	assert.Contains(t, stages, StageExtract+":Mg")
	assert.Contains(t, stages, StageArrhenius+":Al")
	assert.Contains(t, stages, StageArrhenius+":"+msd.InterdiffusionTag)

	for _, f := range res.Failures {
		if f.Stage == StageArrhenius && f.Species == "Al" {
			var ide *arrhenius.InsufficientDataPointsError
			require.ErrorAs(t, f, &ide)
			assert.Equal(t, 2, ide.Got)
		}
	}

	require.Len(t, res.Species, 1)
	assert.Equal(t, "Mg", res.Species[0].Species)
	assert.Equal(t, 5, res.Species[0].Fit.Points)
}

func TestRunContributionsSorted(t *testing.T) {
	quiet(t)
	temps := []float64{900, 600, 800, 700}
	res, err := Run(context.Background(), synthetic(temps, "Mg", mgD0, mgQ), config.DefaultSettings())
	require.NoError(t, err)
	var got []float64
	for _, c := range res.Contributions {
		got = append(got, c.Temperature)
	}
	assert.Equal(t, []float64{600, 700, 800, 900}, got)
}

func TestRunErrors(t *testing.T) {
	quiet(t)
	_, err := Run(context.Background(), nil, config.DefaultSettings())
	assert.ErrorIs(t, err, ErrNoInputs)

	bad := config.DefaultSettings()
	bad.WindowUpperBound = bad.WindowLowerBound
	_, err = Run(context.Background(), synthetic(calibration, "Mg", mgD0, mgQ), bad)
	assert.Error(t, err)

	in := synthetic(calibration, "Mg", mgD0, mgQ)
	in[0].Dimensionality = 4
	_, err = Run(context.Background(), in, config.DefaultSettings())
	assert.ErrorIs(t, err, msd.ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, synthetic(calibration, "Mg", mgD0, mgQ), config.DefaultSettings())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	quiet(t)
	inputs := append(synthetic(calibration, "Mg", mgD0, mgQ), synthetic(calibration, "Al", alD0, alQ)...)

	s1 := config.DefaultSettings()
	s1.Workers = 1
	s8 := config.DefaultSettings()
	s8.Workers = 8
	a, err := Run(context.Background(), inputs, s1)
	require.NoError(t, err)
	b, err := Run(context.Background(), inputs, s8)
	require.NoError(t, err)

	nan := cmpopts.EquateNaNs()
	assert.Empty(t, cmp.Diff(a.Estimates, b.Estimates, nan))
	assert.Empty(t, cmp.Diff(a.Fits(), b.Fits(), nan))
	assert.Empty(t, cmp.Diff(a.Contributions, b.Contributions))
}

func TestRunRejectsDuplicateTemperature(t *testing.T) {
	quiet(t)
	inputs := synthetic(calibration, "Mg", mgD0, mgQ)
	inputs = append(inputs, Input{
		Series:         testutil.MSDSeries(700, "Mg", 10*testutil.ArrheniusD(mgD0, mgQ, 700)),
		Dimensionality: 3,
		Source:         "replica700",
	})

	res, err := Run(context.Background(), inputs, config.DefaultSettings())
	require.NoError(t, err)

	require.Len(t, res.Failures, 1)
	f := res.Failures[0]
	assert.Equal(t, StageExtract, f.Stage)
	assert.Equal(t, "replica700", f.Source)
	assert.Equal(t, 700.0, f.Temperature)
	assert.ErrorIs(t, f, ErrDuplicateTemperature)

	var at700 []Contribution
	for _, c := range res.Contributions {
		if c.Temperature == 700 {
			at700 = append(at700, c)
		}
	}
	assert.ElementsMatch(t, []Contribution{
		{Temperature: 700, Species: "Mg", Source: "Mg", Used: true},
		{Temperature: 700, Species: "Mg", Source: "replica700", Reason: ReasonDuplicateTemperature},
	}, at700)

	assert.Len(t, res.Estimates, len(calibration))
	require.Len(t, res.Species, 1)
	mg := res.Species[0].Fit
	assert.Equal(t, len(calibration), mg.Points)
	testutil.AssertClose(t, mg.Q, mgQ, 0.01)
	assert.Greater(t, mg.R2, 0.999)
}

func TestRunInterdiffusionContributionSources(t *testing.T) {
	quiet(t)
	var inputs []Input
	for _, in := range append(synthetic(calibration, "Mg", mgD0, mgQ), synthetic(calibration, "Al", alD0, alQ)...) {
		in.Source = fmt.Sprintf("%s@%g", in.Series.Species, in.Series.Temperature)
		inputs = append(inputs, in)
	}

	res, err := Run(context.Background(), inputs, config.DefaultSettings())
	require.NoError(t, err)

	var combined []Contribution
	for _, c := range res.Contributions {
		if c.Species == msd.InterdiffusionTag {
			combined = append(combined, c)
		}
	}
	require.Len(t, combined, len(calibration))
	for i, c := range combined {
		temp := calibration[i]
		assert.Equal(t, fmt.Sprintf("Mg:Mg@%g+Al:Al@%g", temp, temp), c.Source)
		assert.True(t, c.Used)
	}
}
