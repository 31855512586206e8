package tables

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/units"
)

// MSD components and the number of spatial dimensions each aggregates.
var componentDims = map[string]int{"x": 1, "y": 1, "z": 1, "total": 3}

// ErrUnknownColumn is returned by MSDTable.Series for an absent column.
var ErrUnknownColumn = errors.New("tables: no such msd column")

// MSDOptions describes how to interpret an MSD file.
type MSDOptions struct {
	Temperature float64 // kelvin, attached to every series
	// TimestepPS converts step counts to time. Required for LAMMPS files
	// and for CSV files whose first column is "step".
	TimestepPS float64
	// AngstromSquared marks MSD values in Å² rather than m². LAMMPS
	// output is always Å².
	AngstromSquared bool
	// Species names the LAMMPS species columns in file order. Defaults to
	// "solute" for 5-column files and Mg, Al for 9-column files.
	Species []string
}

// DroppedColumn records a column discarded while reading.
type DroppedColumn struct {
	Name   string
	Reason string
}

// MSDTable holds the columns of one MSD file, converted to SI.
type MSDTable struct {
	Temperature float64
	Times       []float64 // seconds
	columns     map[string][]float64
	order       []string
	Dropped     []DroppedColumn
}

// Columns lists the species_component column names in file order.
func (t *MSDTable) Columns() []string { return append([]string(nil), t.order...) }

// Species lists the species with at least one column, sorted.
func (t *MSDTable) Species() []string {
	seen := map[string]bool{}
	for _, c := range t.order {
		sp, _, _ := splitColumn(c)
		seen[sp] = true
	}
	out := make([]string, 0, len(seen))
	for sp := range seen {
		out = append(out, sp)
	}
	sort.Strings(out)
	return out
}

// Series returns the series for one species and component, with the
// dimensionality the component aggregates.
func (t *MSDTable) Series(species, component string) (msd.Series, int, error) {
	name := species + "_" + component
	vals, ok := t.columns[name]
	if !ok {
		return msd.Series{}, 0, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	s := msd.Series{Temperature: t.Temperature, Species: species, Samples: make([]msd.Sample, len(vals))}
	for i, v := range vals {
		s.Samples[i] = msd.Sample{Time: t.Times[i], MSD: v}
	}
	return s, componentDims[component], nil
}

func splitColumn(name string) (species, component string, ok bool) {
	i := strings.LastIndex(name, "_")
	if i <= 0 {
		return "", "", false
	}
	species, component = name[:i], strings.ToLower(name[i+1:])
	_, ok = componentDims[component]
	return species, component, ok
}

// ReadMSDTable reads a CSV with header time_or_step,<species>_<component>...
// The first column is seconds unless named "step" (or "time_or_step" with a
// timestep given), or "time_ps". At least one total column is required.
func ReadMSDTable(r io.Reader, opts MSDOptions) (*MSDTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need a time column and at least one msd column", ErrHeader)
	}

	timeScale, err := timeColumnScale(strings.TrimSpace(header[0]), opts.TimestepPS)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(header)-1)
	hasTotal := false
	for i, h := range header[1:] {
		h = strings.TrimSpace(h)
		sp, comp, ok := splitColumn(h)
		if !ok {
			return nil, fmt.Errorf("%w: column %q is not <species>_<x|y|z|total>", ErrHeader, h)
		}
		hasTotal = hasTotal || comp == "total"
		names[i] = sp + "_" + comp
	}
	if !hasTotal {
		return nil, fmt.Errorf("%w: no <species>_total column", ErrHeader)
	}

	var rows []rawRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) < len(header) {
			return nil, &LineError{Line: line, Err: fmt.Errorf("%w: %d fields, want %d", ErrShortRow, len(rec), len(header))}
		}
		vals, err := parseFields(rec[:len(header)], line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rawRow{line: line, vals: vals})
	}
	return buildTable(rows, names, timeScale, msdScale(opts.AngstromSquared), opts.Temperature)
}

func timeColumnScale(name string, timestepPS float64) (float64, error) {
	switch strings.ToLower(name) {
	case "step", "timestep":
		if timestepPS <= 0 {
			return 0, fmt.Errorf("%w: column %q needs a timestep", ErrHeader, name)
		}
		return units.PicosecondsToSeconds(timestepPS), nil
	case "time_or_step":
		if timestepPS > 0 {
			return units.PicosecondsToSeconds(timestepPS), nil
		}
		return 1, nil
	case "time_ps":
		return units.PicosecondsToSeconds(1), nil
	case "time", "time_s":
		return 1, nil
	}
	return 0, fmt.Errorf("%w: unknown time column %q", ErrHeader, name)
}

func msdScale(angstrom bool) float64 {
	if angstrom {
		return units.AngstromSqToMetreSq(1)
	}
	return 1
}

// ReadLAMMPSMSD reads a whitespace-separated .dat file written by LAMMPS
// fix ave/time: "#" comment lines, then step followed by x, y, z and total
// MSD (Å²) for each species. 5 columns hold one species, 9 or more hold two.
func ReadLAMMPSMSD(r io.Reader, opts MSDOptions) (*MSDTable, error) {
	if opts.TimestepPS <= 0 {
		return nil, fmt.Errorf("%w: LAMMPS input needs a timestep", ErrHeader)
	}

	var (
		rows  []rawRow
		width int
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if width == 0 {
			switch {
			case len(fields) >= 9:
				width = 9
			case len(fields) >= 5:
				width = 5
			default:
				return nil, &LineError{Line: line, Err: fmt.Errorf("%w: %d fields, want 5 or 9", ErrShortRow, len(fields))}
			}
		}
		if len(fields) < width {
			return nil, &LineError{Line: line, Err: fmt.Errorf("%w: %d fields, want %d", ErrShortRow, len(fields), width)}
		}
		vals, err := parseFields(fields[:width], line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rawRow{line: line, vals: vals})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	species := opts.Species
	nSpecies := (width - 1) / 4
	if len(species) == 0 {
		if nSpecies == 1 {
			species = []string{"solute"}
		} else {
			species = []string{"Mg", "Al"}
		}
	}
	if len(species) < nSpecies {
		return nil, fmt.Errorf("%w: %d species columns but %d names", ErrHeader, nSpecies, len(species))
	}
	var names []string
	for _, sp := range species[:nSpecies] {
		names = append(names, sp+"_x", sp+"_y", sp+"_z", sp+"_total")
	}
	return buildTable(rows, names, units.PicosecondsToSeconds(opts.TimestepPS), units.AngstromSqToMetreSq(1), opts.Temperature)
}

func parseFields(fields []string, line int) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, &LineError{Line: line, Err: fmt.Errorf("%w: field %d: %q", ErrParse, i+1, f)}
		}
		vals[i] = v
	}
	return vals, nil
}

type rawRow struct {
	line int
	vals []float64 // time first
}

// buildTable converts raw rows into an MSDTable, checking time order and
// dropping columns with no finite value.
func buildTable(rows []rawRow, names []string, timeScale, valueScale, temperature float64) (*MSDTable, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	t := &MSDTable{
		Temperature: temperature,
		Times:       make([]float64, len(rows)),
		columns:     make(map[string][]float64, len(names)),
	}
	for i, rw := range rows {
		t.Times[i] = rw.vals[0] * timeScale
		if i > 0 && !(t.Times[i] > t.Times[i-1]) {
			return nil, &LineError{Line: rw.line, Err: fmt.Errorf("%w: %g after %g", ErrNonMonotonic, rw.vals[0], rows[i-1].vals[0])}
		}
	}
	for c, name := range names {
		col := make([]float64, len(rows))
		finite := 0
		for i, rw := range rows {
			col[i] = rw.vals[c+1] * valueScale
			if !math.IsNaN(col[i]) && !math.IsInf(col[i], 0) {
				finite++
			}
		}
		if finite == 0 {
			t.Dropped = append(t.Dropped, DroppedColumn{Name: name, Reason: "no finite values"})
			continue
		}
		t.columns[name] = col
		t.order = append(t.order, name)
	}
	if len(t.order) == 0 {
		return nil, fmt.Errorf("%w: every msd column was dropped", ErrNoData)
	}
	return t, nil
}
