package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/pipeline"
)

// writeTo writes via fn to path, or to stdout when path is "" or "-".
func (a *app) writeTo(cmd *cobra.Command, path string, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(cmd.OutOrStdout())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := a.fs.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// parseInputs accepts "T=path" arguments; bare paths get temperature 0,
// which is enough for quality checks but not for fitting.
func parseInputs(args []string, requireTemperature bool) ([]pipeline.InputSpec, error) {
	specs := make([]pipeline.InputSpec, 0, len(args))
	for _, arg := range args {
		if !strings.Contains(arg, "=") {
			if requireTemperature {
				return nil, fmt.Errorf("input %q: want TEMPERATURE=PATH", arg)
			}
			specs = append(specs, pipeline.InputSpec{Path: arg})
			continue
		}
		spec, err := pipeline.ParseInputSpec(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// loadFlags are the MSD file options shared by check, extract and run.
type loadFlags struct {
	timestepPS float64
	component  string
	angstrom   bool
	species    []string
}

func (l *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&l.timestepPS, "timestep-ps", 0, "MD timestep in ps (default from configuration)")
	cmd.Flags().StringVar(&l.component, "component", "total", "MSD component to fit: x, y, z or total")
	cmd.Flags().BoolVar(&l.angstrom, "angstrom", false, "CSV MSD values are in Å² (LAMMPS files always are)")
	cmd.Flags().StringSliceVar(&l.species, "species", nil, "species names for LAMMPS columns, in file order")
}

func (l *loadFlags) options(defaultTimestep float64) pipeline.LoadOptions {
	ts := l.timestepPS
	if ts <= 0 {
		ts = defaultTimestep
	}
	return pipeline.LoadOptions{
		TimestepPS:      ts,
		Component:       l.component,
		Species:         l.species,
		AngstromSquared: l.angstrom,
	}
}
