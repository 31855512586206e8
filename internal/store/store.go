// Package store keeps a history of pipeline runs in SQLite: estimates, fits,
// extrapolated curves and DSA window summaries, keyed by run id.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/pipeline"
	"github.com/banshee-data/diffusion.report/internal/tables"
	"github.com/banshee-data/diffusion.report/internal/version"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("store: run not found")

// timeLayout has fixed-width fractional seconds so stored start times sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps the run database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; SQLite serialises anyway and this keeps the PRAGMAs on a
	// single connection.
	db.SetMaxOpenConns(1)
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// nullable maps NaN and ±Inf to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// SaveRun stores res in one transaction.
func (s *Store) SaveRun(ctx context.Context, res *pipeline.Result) (err error) {
	settings, err := yaml.Marshal(res.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started, version, settings, failures) VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.Started.UTC().Format(timeLayout), version.String(), string(settings), len(res.Failures),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", res.ID, err)
	}
	if err = saveEstimates(ctx, tx, res); err != nil {
		return err
	}
	for _, sp := range res.Species {
		if err = saveSpecies(ctx, tx, res.ID, sp); err != nil {
			return fmt.Errorf("%s: %w", sp.Species, err)
		}
	}
	return tx.Commit()
}

type contributionKey struct {
	species     string
	temperature float64
}

func saveEstimates(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	contrib := make(map[contributionKey]pipeline.Contribution, len(res.Contributions))
	for _, c := range res.Contributions {
		k := contributionKey{c.Species, c.Temperature}
		if _, ok := contrib[k]; !ok || c.Used {
			contrib[k] = c
		}
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO estimates
		(run_id, species, temperature, d, d_stderr, r2, samples, valid, used, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range res.Estimates {
		c := contrib[contributionKey{e.Species, e.Temperature}]
		if _, err := stmt.ExecContext(ctx, res.ID, e.Species, e.Temperature,
			nullable(e.D), nullable(e.DStderr), nullable(e.R2), e.Samples, e.Valid, c.Used, c.Reason,
		); err != nil {
			return fmt.Errorf("insert estimate %s@%g: %w", e.Species, e.Temperature, err)
		}
	}
	return nil
}

func saveSpecies(ctx context.Context, tx *sql.Tx, runID string, sp pipeline.SpeciesResult) error {
	f := sp.Fit
	if _, err := tx.ExecContext(ctx, `INSERT INTO fits
		(run_id, species, d0, d0_stderr, q_j_per_mol, q_stderr, r2, t_min, t_max, points, var_c, var_s, cov_cs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sp.Species, f.D0, nullable(f.D0Stderr), f.Q, nullable(f.QStderr), nullable(f.R2),
		f.TMin, f.TMax, f.Points, nullable(f.VarIntercept), nullable(f.VarSlope), nullable(f.CovInterceptSlope),
	); err != nil {
		return fmt.Errorf("insert fit: %w", err)
	}

	for _, p := range sp.Curve {
		if _, err := tx.ExecContext(ctx, `INSERT INTO extrapolated
			(run_id, species, temperature, d, d_stderr, risk) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, sp.Species, p.Temperature, p.D, nullable(p.DStderr), p.ExtrapolationRisk,
		); err != nil {
			return fmt.Errorf("insert extrapolated %g: %w", p.Temperature, err)
		}
	}

	if sp.Sweep == nil {
		return nil
	}
	for i, row := range tables.Summarise(sp.Sweep) {
		sc := row.Scenario
		if _, err := tx.ExecContext(ctx, `INSERT INTO windows
			(run_id, species, scenario, rho_m, l_capture, l_travel, f_pipe, n_windows, t_low, t_high, low_clipped, high_clipped)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, sp.Species, i, sc.RhoM, sc.LCapture, sc.LTravel, sc.FPipe, row.Windows,
			nullable(row.Low), nullable(row.High), row.LowClipped, row.HighClipped,
		); err != nil {
			return fmt.Errorf("insert window %d: %w", i, err)
		}
	}
	return nil
}

// RunInfo is one row of the run history.
type RunInfo struct {
	ID        string
	Started   time.Time
	Version   string
	Estimates int
	Fits      int
	Failures  int
}

// ListRuns returns up to limit runs, newest first. limit <= 0 lists all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.started, r.version, r.failures,
			(SELECT COUNT(*) FROM estimates e WHERE e.run_id = r.run_id),
			(SELECT COUNT(*) FROM fits f WHERE f.run_id = r.run_id)
		FROM runs r
		ORDER BY r.started DESC, r.run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			ri      RunInfo
			started string
		)
		if err := rows.Scan(&ri.ID, &started, &ri.Version, &ri.Failures, &ri.Estimates, &ri.Fits); err != nil {
			return nil, err
		}
		if ri.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: bad start time %q: %w", ri.ID, started, err)
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

func (s *Store) checkRun(ctx context.Context, runID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// WindowRow is a stored window summary for one species and scenario.
type WindowRow struct {
	Species string
	tables.SummaryRow
}

// LoadWindows returns the window summaries of a run, by species then
// scenario order.
func (s *Store) LoadWindows(ctx context.Context, runID string) ([]WindowRow, error) {
	if err := s.checkRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT species, rho_m, l_capture, l_travel, f_pipe, n_windows, t_low, t_high, low_clipped, high_clipped
		FROM windows WHERE run_id = ?
		ORDER BY species, scenario`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WindowRow
	for rows.Next() {
		var (
			w         WindowRow
			low, high sql.NullFloat64
		)
		if err := rows.Scan(&w.Species, &w.Scenario.RhoM, &w.Scenario.LCapture, &w.Scenario.LTravel, &w.Scenario.FPipe,
			&w.Windows, &low, &high, &w.LowClipped, &w.HighClipped); err != nil {
			return nil, err
		}
		w.Low, w.High = orNaN(low), orNaN(high)
		out = append(out, w)
	}
	return out, rows.Err()
}

// LoadFits returns the Arrhenius fits of a run in species order.
func (s *Store) LoadFits(ctx context.Context, runID string) ([]arrhenius.Fit, error) {
	if err := s.checkRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT species, d0, d0_stderr, q_j_per_mol, q_stderr, r2, t_min, t_max, points, var_c, var_s, cov_cs
		FROM fits WHERE run_id = ? ORDER BY species`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []arrhenius.Fit
	for rows.Next() {
		var (
			species                      string
			d0, q, tMin, tMax            float64
			points                       int
			d0se, qse, r2, vc, vs, covcs sql.NullFloat64
		)
		if err := rows.Scan(&species, &d0, &d0se, &q, &qse, &r2, &tMin, &tMax, &points, &vc, &vs, &covcs); err != nil {
			return nil, err
		}
		f := arrhenius.FromParameters(d0, q, 0)
		f.Species = species
		f.D0Stderr, f.QStderr, f.R2 = orNaN(d0se), orNaN(qse), orNaN(r2)
		f.TMin, f.TMax, f.Points = tMin, tMax, points
		f.VarIntercept, f.VarSlope, f.CovInterceptSlope = orNaN(vc), orNaN(vs), orNaN(covcs)
		out = append(out, f)
	}
	return out, rows.Err()
}

// LoadCurve returns the extrapolated curve of one species in a run.
func (s *Store) LoadCurve(ctx context.Context, runID, species string) ([]arrhenius.Point, error) {
	if err := s.checkRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT temperature, d, d_stderr, risk FROM extrapolated
		WHERE run_id = ? AND species = ? ORDER BY temperature`, runID, species)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []arrhenius.Point
	for rows.Next() {
		var (
			p  arrhenius.Point
			se sql.NullFloat64
		)
		if err := rows.Scan(&p.Temperature, &p.D, &se, &p.ExtrapolationRisk); err != nil {
			return nil, err
		}
		p.DStderr = orNaN(se)
		p.LnDStderr = p.DStderr / p.D
		out = append(out, p)
	}
	return out, rows.Err()
}
