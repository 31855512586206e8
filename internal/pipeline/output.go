package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/diffusion.report/internal/config"
	"github.com/banshee-data/diffusion.report/internal/fsutil"
	"github.com/banshee-data/diffusion.report/internal/tables"
	"github.com/banshee-data/diffusion.report/internal/version"
)

// Output file names. Per-species files insert the species tag before the
// extension, e.g. extrapolated_Mg.csv.
const (
	DiffusivityFile  = "diffusivity.csv"
	ArrheniusFile    = "arrhenius_params.csv"
	ExtrapolatedFile = "extrapolated.csv"
	SweepFile        = "dsa_sweep.csv"
	SummaryFile      = "dsa_summary.csv"
	ManifestFile     = "manifest.yaml"
)

// SpeciesFile returns the per-species variant of name.
func SpeciesFile(name, species string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + safeName(species) + ext
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, s)
}

// Manifest describes a run directory.
type Manifest struct {
	RunID         string          `yaml:"run_id"`
	Version       string          `yaml:"version"`
	Started       time.Time       `yaml:"started"`
	Settings      config.Settings `yaml:"settings"`
	Files         []string        `yaml:"files"`
	Fits          []ManifestFit   `yaml:"fits,omitempty"`
	Contributions []Contribution  `yaml:"contributions"`
	Failures      []string        `yaml:"failures,omitempty"`
}

// ManifestFit is the headline of one Arrhenius fit.
type ManifestFit struct {
	Species     string  `yaml:"species"`
	D0          float64 `yaml:"d0_m2_per_s"`
	QkJPerMol   float64 `yaml:"q_kj_per_mol"`
	QeVPerAtom  float64 `yaml:"q_ev_per_atom"`
	R2          float64 `yaml:"fit_r2"`
	Points      int     `yaml:"points"`
	EmptyWindow int     `yaml:"scenarios_without_window"`
}

// NewManifest summarises res. Files is left for WriteOutputs to fill.
func NewManifest(res *Result) Manifest {
	m := Manifest{
		RunID:         res.ID,
		Version:       version.String(),
		Started:       res.Started,
		Settings:      res.Settings,
		Contributions: res.Contributions,
	}
	for _, sp := range res.Species {
		mf := ManifestFit{
			Species:    sp.Species,
			D0:         sp.Fit.D0,
			QkJPerMol:  sp.Fit.QkJPerMol(),
			QeVPerAtom: sp.Fit.QeVPerAtom(),
			R2:         sp.Fit.R2,
			Points:     sp.Fit.Points,
		}
		if sp.Sweep != nil {
			for _, s := range sp.Sweep.Summaries {
				if s.Empty() {
					mf.EmptyWindow++
				}
			}
		}
		m.Fits = append(m.Fits, mf)
	}
	for _, f := range res.Failures {
		m.Failures = append(m.Failures, f.Error())
	}
	return m
}

// WriteOutputs writes the tables and manifest for res into dir, creating
// it if needed, and returns the file names written (relative to dir).
func WriteOutputs(fsys fsutil.FileSystem, dir string, res *Result) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var files []string
	write := func(name string, fn func(io.Writer) error) error {
		f, err := fsys.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", name, err)
		}
		files = append(files, name)
		return nil
	}

	if err := write(DiffusivityFile, func(w io.Writer) error {
		return tables.WriteDiffusivity(w, res.Estimates)
	}); err != nil {
		return files, err
	}
	if err := write(ArrheniusFile, func(w io.Writer) error {
		return tables.WriteArrhenius(w, res.Fits())
	}); err != nil {
		return files, err
	}
	for _, sp := range res.Species {
		if sp.Curve != nil {
			if err := write(SpeciesFile(ExtrapolatedFile, sp.Species), func(w io.Writer) error {
				return tables.WriteExtrapolated(w, sp.Curve)
			}); err != nil {
				return files, err
			}
		}
		if sp.Sweep == nil {
			continue
		}
		if err := write(SpeciesFile(SweepFile, sp.Species), func(w io.Writer) error {
			return tables.WriteSweep(w, sp.Sweep)
		}); err != nil {
			return files, err
		}
		if err := write(SpeciesFile(SummaryFile, sp.Species), func(w io.Writer) error {
			return tables.WriteSummary(w, sp.Sweep)
		}); err != nil {
			return files, err
		}
	}

	m := NewManifest(res)
	m.Files = append([]string(nil), files...)
	if err := write(ManifestFile, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	}); err != nil {
		return files, err
	}
	return files, nil
}

// ReadManifest parses a manifest written by WriteOutputs.
func ReadManifest(fsys fsutil.FileSystem, dir string) (Manifest, error) {
	data, err := fsys.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
