package tables

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/testutil"
)

var approx = cmp.Options{cmpopts.EquateApprox(1e-9, 0), cmpopts.EquateNaNs()}

func TestDiffusivityRoundTrip(t *testing.T) {
	in := []msd.Estimate{
		{Temperature: 700, D: 1.25e-13, DStderr: 3e-16, R2: 0.998, Samples: 801, Valid: true, Species: "Mg", Slope: math.NaN(), Intercept: math.NaN()},
		{Temperature: 800, D: -2e-15, DStderr: 1e-15, R2: 0.12, Samples: 801, Valid: false, Species: "Mg", Slope: math.NaN(), Intercept: math.NaN()},
	}
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteDiffusivity(&buf, in))

	if !strings.HasPrefix(buf.String(), "temperature,D,D_stderr,R2,valid,species,samples\n") {
		t.Fatalf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
	got, err := ReadDiffusivity(&buf)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(in, got, approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDiffusivityContractOnly(t *testing.T) {
	in := "temperature,D,D_stderr,R2,valid\n700,1e-13,1e-16,0.99,true\n"
	got, err := ReadDiffusivity(strings.NewReader(in))
	testutil.AssertNoError(t, err)
	if len(got) != 1 || got[0].Species != "" || got[0].Samples != 0 || !got[0].Valid {
		t.Errorf("got %+v", got)
	}
}

func TestArrheniusRoundTrip(t *testing.T) {
	f := arrhenius.FromParameters(1.2e-5, 130e3, 0)
	f.D0Stderr = 4e-7
	f.QStderr = 2.5e3
	f.R2 = 0.997
	f.TMin, f.TMax = 700, 900
	f.Points = 5
	f.VarIntercept, f.VarSlope, f.CovInterceptSlope = 0.04, 9e4, -58
	f.Species = "interdiff"

	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteArrhenius(&buf, []arrhenius.Fit{f}))
	got, err := ReadArrhenius(&buf)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff([]arrhenius.Fit{f}, got, approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadArrheniusWithoutCovariance(t *testing.T) {
	in := "D0,D0_stderr,Q_kJ_per_mol,Q_eV_per_atom,Q_stderr_kJ_per_mol,fit_R2,T_min_calibration,T_max_calibration\n" +
		"1e-5,1e-6,130,1.347,8.314462618,0.99,700,900\n"
	got, err := ReadArrhenius(strings.NewReader(in))
	testutil.AssertNoError(t, err)
	if len(got) != 1 {
		t.Fatalf("got %d fits", len(got))
	}
	f := got[0]
	testutil.AssertClose(t, f.Q, 130e3, 1e-12)
	testutil.AssertClose(t, f.VarIntercept, 0.01, 1e-9)
	testutil.AssertClose(t, f.VarSlope, 1e6, 1e-9)
	if f.CovInterceptSlope != 0 {
		t.Errorf("cov = %g, want 0", f.CovInterceptSlope)
	}
}

func TestExtrapolatedRoundTrip(t *testing.T) {
	in := []arrhenius.Point{
		{Temperature: 300, D: 1e-27, DStderr: 5e-28, LnDStderr: 0.5, ExtrapolationRisk: true},
		{Temperature: 310, D: 4e-27, DStderr: 1e-27, LnDStderr: 0.25, ExtrapolationRisk: true},
	}
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteExtrapolated(&buf, in))
	got, err := ReadExtrapolated(&buf)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(in, got, approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func testSweep(t *testing.T) *dsa.Sweep {
	t.Helper()
	fit := arrhenius.FromParameters(1e-5, 130e3, 0)
	var curve []arrhenius.Point
	for temp := 300.0; temp <= 450; temp += 10 {
		curve = append(curve, arrhenius.Point{Temperature: temp, D: fit.Diffusivity(temp)})
	}
	space := dsa.ParamSpace{
		RhoM:       []float64{1e12, 1e14},
		LCapture:   []float64{2e-9},
		LTravel:    []float64{1e-6},
		FPipe:      []float64{1},
		StrainRate: 1e-3,
		Burgers:    2.86e-10,
	}
	scenarios, err := space.Scenarios()
	testutil.AssertNoError(t, err)
	sw, err := dsa.Run(context.Background(), curve, scenarios, dsa.SweepConfig{Bounds: dsa.DefaultBounds()})
	testutil.AssertNoError(t, err)
	return sw
}

func TestSweepRoundTrip(t *testing.T) {
	sw := testSweep(t)
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteSweep(&buf, sw))
	got, err := ReadSweep(&buf)
	testutil.AssertNoError(t, err)
	if diff := cmp.Diff(sw.Rows(), got, approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	sw := testSweep(t)
	want := Summarise(sw)
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteSummary(&buf, sw))
	got, err := ReadSummary(&buf)
	testutil.AssertNoError(t, err)
	// Strain rate and Burgers vector are not summary columns.
	ignore := cmpopts.IgnoreFields(dsa.Scenario{}, "StrainRate", "Burgers")
	if diff := cmp.Diff(want, got, approx, ignore); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteSummaryEmptyWindow(t *testing.T) {
	sw := &dsa.Sweep{Summaries: []dsa.Summary{{Scenario: dsa.Scenario{RhoM: 1, LCapture: 1, LTravel: 1}}}}
	var buf bytes.Buffer
	testutil.AssertNoError(t, WriteSummary(&buf, sw))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if want := "1,1,1,0,0,none,none,false,false"; lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
	rows, err := ReadSummary(strings.NewReader(buf.String()))
	testutil.AssertNoError(t, err)
	if !rows[0].Empty() || !math.IsNaN(rows[0].Low) || !math.IsNaN(rows[0].High) {
		t.Errorf("got %+v", rows[0])
	}
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantLine int
	}{
		{"empty", "", ErrNoData, 0},
		{"short header", "temperature,D\n", ErrHeader, 0},
		{"wrong column", "temperature,D,D_stderr,R2,ok\n", ErrHeader, 0},
		{"short row", "temperature,D,D_stderr,R2,valid\n700,1e-13\n", ErrShortRow, 2},
		{"bad float", "temperature,D,D_stderr,R2,valid\n700,abc,0,1,true\n", ErrParse, 2},
		{"bad bool", "temperature,D,D_stderr,R2,valid\n# comment\n700,1,0,1,yes\n", ErrParse, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDiffusivity(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var le *LineError
			if tt.wantLine > 0 {
				if !errors.As(err, &le) || le.Line != tt.wantLine {
					t.Errorf("err = %v, want line %d", err, tt.wantLine)
				}
			}
		})
	}
}
