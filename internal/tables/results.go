package tables

import (
	"io"
	"math"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/units"
)

// Contract headers. Columns after the first len(...Contract) entries are
// extensions.
var (
	DiffusivityContract  = []string{"temperature", "D", "D_stderr", "R2", "valid"}
	DiffusivityExtension = []string{"species", "samples"}

	ArrheniusContract = []string{
		"D0", "D0_stderr", "Q_kJ_per_mol", "Q_eV_per_atom", "Q_stderr_kJ_per_mol",
		"fit_R2", "T_min_calibration", "T_max_calibration",
	}
	ArrheniusExtension = []string{"points", "cov_c_c", "cov_s_s", "cov_c_s", "species"}

	ExtrapolatedContract = []string{"temperature", "D", "D_stderr", "extrapolation_risk"}

	SweepContract = []string{
		"rho_m", "L_c", "L_t", "f_pipe", "temperature", "D_bulk", "D_eff",
		"tau_diff", "tau_wait", "ratio", "in_window",
	}
	SweepExtension = []string{"strain_rate", "burgers"}

	SummaryContract = []string{
		"rho_m", "L_c", "L_t", "f_pipe", "windows",
		"T_window_low", "T_window_high", "low_clipped", "high_clipped",
	}
)

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// WriteDiffusivity writes one row per estimate.
func WriteDiffusivity(w io.Writer, estimates []msd.Estimate) error {
	tw := newTableWriter(w, concat(DiffusivityContract, DiffusivityExtension))
	for _, e := range estimates {
		tw.write([]string{
			formatFloat(e.Temperature), formatFloat(e.D), formatFloat(e.DStderr),
			formatFloat(e.R2), formatBool(e.Valid), e.Species, formatInt(e.Samples),
		})
	}
	return tw.flush()
}

// ReadDiffusivity reads a diffusivity table. Slope and intercept are not
// part of the table and come back as NaN.
func ReadDiffusivity(r io.Reader) ([]msd.Estimate, error) {
	var out []msd.Estimate
	err := readTable(r, DiffusivityContract, func(rw *row) error {
		e := msd.Estimate{
			Temperature: rw.float("temperature"),
			D:           rw.float("D"),
			DStderr:     rw.float("D_stderr"),
			R2:          rw.float("R2"),
			Valid:       rw.bool("valid"),
			Species:     rw.str("species"),
			Slope:       math.NaN(),
			Intercept:   math.NaN(),
		}
		if rw.has("samples") {
			e.Samples = rw.int("samples")
		}
		out = append(out, e)
		return nil
	})
	return out, err
}

// WriteArrhenius writes one row per fit. Q appears in kJ/mol and eV/atom,
// both derived from the stored J/mol value.
func WriteArrhenius(w io.Writer, fits []arrhenius.Fit) error {
	tw := newTableWriter(w, concat(ArrheniusContract, ArrheniusExtension))
	for _, f := range fits {
		tw.write([]string{
			formatFloat(f.D0), formatFloat(f.D0Stderr),
			formatFloat(f.QkJPerMol()), formatFloat(f.QeVPerAtom()), formatFloat(f.QStderrKJPerMol()),
			formatFloat(f.R2), formatFloat(f.TMin), formatFloat(f.TMax),
			formatInt(f.Points),
			formatFloat(f.VarIntercept), formatFloat(f.VarSlope), formatFloat(f.CovInterceptSlope),
			f.Species,
		})
	}
	return tw.flush()
}

// ReadArrhenius reads fits back. Q is taken from the kJ/mol column; the
// eV/atom column is presentation only. Without the covariance extension
// columns the variances are rebuilt from the standard errors and the
// intercept/slope covariance is taken as zero.
func ReadArrhenius(r io.Reader) ([]arrhenius.Fit, error) {
	var out []arrhenius.Fit
	err := readTable(r, ArrheniusContract, func(rw *row) error {
		f := arrhenius.FromParameters(rw.float("D0"), units.KJPerMolToJPerMol(rw.float("Q_kJ_per_mol")), units.GasConstant)
		f.D0Stderr = rw.float("D0_stderr")
		f.QStderr = units.KJPerMolToJPerMol(rw.float("Q_stderr_kJ_per_mol"))
		f.R2 = rw.float("fit_R2")
		f.TMin = rw.float("T_min_calibration")
		f.TMax = rw.float("T_max_calibration")
		f.Species = rw.str("species")
		if rw.has("points") {
			f.Points = rw.int("points")
		}
		if rw.has("cov_c_c") && rw.has("cov_s_s") && rw.has("cov_c_s") {
			f.VarIntercept = rw.float("cov_c_c")
			f.VarSlope = rw.float("cov_s_s")
			f.CovInterceptSlope = rw.float("cov_c_s")
		} else {
			seC := f.D0Stderr / f.D0
			seS := f.QStderr / f.GasConstant
			f.VarIntercept = seC * seC
			f.VarSlope = seS * seS
		}
		out = append(out, f)
		return nil
	})
	return out, err
}

// WriteExtrapolated writes an extrapolated curve.
func WriteExtrapolated(w io.Writer, points []arrhenius.Point) error {
	tw := newTableWriter(w, ExtrapolatedContract)
	for _, p := range points {
		tw.write([]string{
			formatFloat(p.Temperature), formatFloat(p.D), formatFloat(p.DStderr),
			formatBool(p.ExtrapolationRisk),
		})
	}
	return tw.flush()
}

// ReadExtrapolated reads an extrapolated curve; LnDStderr is recomputed as
// D_stderr/D.
func ReadExtrapolated(r io.Reader) ([]arrhenius.Point, error) {
	var out []arrhenius.Point
	err := readTable(r, ExtrapolatedContract, func(rw *row) error {
		p := arrhenius.Point{
			Temperature:       rw.float("temperature"),
			D:                 rw.float("D"),
			DStderr:           rw.float("D_stderr"),
			ExtrapolationRisk: rw.bool("extrapolation_risk"),
		}
		p.LnDStderr = p.DStderr / p.D
		out = append(out, p)
		return nil
	})
	return out, err
}

// WriteSweep writes every (scenario, temperature) result, scenario by
// scenario.
func WriteSweep(w io.Writer, sw *dsa.Sweep) error {
	tw := newTableWriter(w, concat(SweepContract, SweepExtension))
	for _, r := range sw.Rows() {
		s := r.Scenario
		tw.write([]string{
			formatFloat(s.RhoM), formatFloat(s.LCapture), formatFloat(s.LTravel), formatFloat(s.FPipe),
			formatFloat(r.Temperature), formatFloat(r.DBulk), formatFloat(r.DEff),
			formatFloat(r.TauDiff), formatFloat(r.TauWait), formatFloat(r.Ratio),
			formatBool(r.InWindow),
			formatFloat(s.StrainRate), formatFloat(s.Burgers),
		})
	}
	return tw.flush()
}

// ReadSweep reads sweep rows back in file order.
func ReadSweep(r io.Reader) ([]dsa.Result, error) {
	var out []dsa.Result
	err := readTable(r, SweepContract, func(rw *row) error {
		res := dsa.Result{
			Scenario: dsa.Scenario{
				RhoM:     rw.float("rho_m"),
				LCapture: rw.float("L_c"),
				LTravel:  rw.float("L_t"),
				FPipe:    rw.float("f_pipe"),
			},
			Temperature: rw.float("temperature"),
			DBulk:       rw.float("D_bulk"),
			DEff:        rw.float("D_eff"),
			TauDiff:     rw.float("tau_diff"),
			TauWait:     rw.float("tau_wait"),
			Ratio:       rw.float("ratio"),
			InWindow:    rw.bool("in_window"),
		}
		if rw.has("strain_rate") && rw.has("burgers") {
			res.Scenario.StrainRate = rw.float("strain_rate")
			res.Scenario.Burgers = rw.float("burgers")
		}
		out = append(out, res)
		return nil
	})
	return out, err
}

// SummaryRow is one scenario of the window summary. Low and High span all
// windows of the scenario and are NaN when Windows is zero.
type SummaryRow struct {
	Scenario    dsa.Scenario
	Windows     int
	Low         float64
	High        float64
	LowClipped  bool
	HighClipped bool
}

// Empty reports whether the scenario has no window.
func (s SummaryRow) Empty() bool { return s.Windows == 0 }

// Summarise converts sweep summaries into table rows.
func Summarise(sw *dsa.Sweep) []SummaryRow {
	out := make([]SummaryRow, len(sw.Summaries))
	for i, s := range sw.Summaries {
		row := SummaryRow{Scenario: s.Scenario, Windows: len(s.Windows)}
		row.Low, _ = s.Low()
		row.High, _ = s.High()
		if !s.Empty() {
			row.LowClipped = s.Windows[0].StartClipped
			row.HighClipped = s.Windows[len(s.Windows)-1].EndClipped
		}
		out[i] = row
	}
	return out
}

// WriteSummary writes one row per scenario; empty windows read "none".
func WriteSummary(w io.Writer, sw *dsa.Sweep) error {
	tw := newTableWriter(w, SummaryContract)
	for _, s := range Summarise(sw) {
		sc := s.Scenario
		tw.write([]string{
			formatFloat(sc.RhoM), formatFloat(sc.LCapture), formatFloat(sc.LTravel), formatFloat(sc.FPipe),
			formatInt(s.Windows),
			formatOptional(s.Low, !s.Empty()), formatOptional(s.High, !s.Empty()),
			formatBool(s.LowClipped), formatBool(s.HighClipped),
		})
	}
	return tw.flush()
}

// ReadSummary reads a window summary table.
func ReadSummary(r io.Reader) ([]SummaryRow, error) {
	var out []SummaryRow
	err := readTable(r, SummaryContract, func(rw *row) error {
		s := SummaryRow{
			Scenario: dsa.Scenario{
				RhoM:     rw.float("rho_m"),
				LCapture: rw.float("L_c"),
				LTravel:  rw.float("L_t"),
				FPipe:    rw.float("f_pipe"),
			},
			Windows:     rw.int("windows"),
			LowClipped:  rw.bool("low_clipped"),
			HighClipped: rw.bool("high_clipped"),
		}
		s.Low, _ = rw.optional("T_window_low")
		s.High, _ = rw.optional("T_window_high")
		out = append(out, s)
		return nil
	})
	return out, err
}
