package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/diffusion.report/internal/fsutil"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/tables"
)

// InputSpec names one MSD file and the temperature it was recorded at.
type InputSpec struct {
	Temperature float64
	Path        string
}

// ParseInputSpec parses "T=path", e.g. "700=runs/msd_700K.dat".
func ParseInputSpec(s string) (InputSpec, error) {
	t, path, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(path) == "" {
		return InputSpec{}, fmt.Errorf("input %q: want TEMPERATURE=PATH", s)
	}
	temp, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "K"), 64)
	if err != nil || !(temp > 0) {
		return InputSpec{}, fmt.Errorf("input %q: invalid temperature %q", s, t)
	}
	return InputSpec{Temperature: temp, Path: strings.TrimSpace(path)}, nil
}

// LoadOptions controls how MSD files become inputs.
type LoadOptions struct {
	TimestepPS float64
	// Component picks the column per species: x, y, z or total (default).
	Component string
	// Species names LAMMPS columns in file order; see tables.MSDOptions.
	Species []string
	// AngstromSquared marks CSV MSD values in Å².
	AngstromSquared bool
}

// ReadTable reads one MSD file: .csv files use the headed CSV layout, any
// other extension the LAMMPS layout.
func ReadTable(fsys fsutil.FileSystem, spec InputSpec, opts LoadOptions) (*tables.MSDTable, error) {
	f, err := fsys.Open(spec.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mo := tables.MSDOptions{
		Temperature:     spec.Temperature,
		TimestepPS:      opts.TimestepPS,
		AngstromSquared: opts.AngstromSquared,
		Species:         opts.Species,
	}
	if strings.EqualFold(filepath.Ext(spec.Path), ".csv") {
		return tables.ReadMSDTable(f, mo)
	}
	return tables.ReadLAMMPSMSD(f, mo)
}

// LoadInputs reads every file and returns one Input per species found,
// using the requested component.
func LoadInputs(fsys fsutil.FileSystem, specs []InputSpec, opts LoadOptions) ([]Input, error) {
	component := opts.Component
	if component == "" {
		component = "total"
	}
	var out []Input
	for _, spec := range specs {
		tbl, err := ReadTable(fsys, spec, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Path, err)
		}
		for _, d := range tbl.Dropped {
			monitoring.Warnf("%s: dropped column %s: %s", spec.Path, d.Name, d.Reason)
		}
		found := 0
		for _, sp := range tbl.Species() {
			s, dim, err := tbl.Series(sp, component)
			if errors.Is(err, tables.ErrUnknownColumn) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%s: %w", spec.Path, err)
			}
			out = append(out, Input{
				Series:         s,
				Dimensionality: dim,
				Source:         fmt.Sprintf("%s[%s_%s]", filepath.Base(spec.Path), sp, component),
			})
			found++
		}
		if found == 0 {
			return nil, fmt.Errorf("%s: %w: no %s column", spec.Path, tables.ErrUnknownColumn, component)
		}
	}
	return out, nil
}
