package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/chart"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/pipeline"
	"github.com/banshee-data/diffusion.report/internal/tables"
)

func newFitCmd(a *app) *cobra.Command {
	var (
		species     string
		output      string
		extrapolate string
		plotDir     string
	)
	cmd := &cobra.Command{
		Use:   "fit DIFFUSIVITY.csv",
		Short: "Fit the Arrhenius law to a diffusivity table",
		Long: `fit regresses ln D on 1/T for every species in the table (or only
--species) and writes the Arrhenius parameters table. With --extrapolate the
fit is also evaluated on the configured DSA temperatures; one file per
species is written, named after the given path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			f, err := a.fs.Open(args[0])
			if err != nil {
				return err
			}
			estimates, err := tables.ReadDiffusivity(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			targets := []string{species}
			if species == "" {
				targets = speciesIn(estimates)
			}
			var (
				fits []arrhenius.Fit
				errs []error
			)
			for _, sp := range targets {
				fit, decisions, err := arrhenius.RegressWithDecisions(estimates, s.Arrhenius(sp))
				for _, d := range decisions {
					if !d.Used() && d.Reason != arrhenius.ExcludedSpecies {
						monitoring.Warnf("%s at %g K excluded: %s", sp, d.Estimate.Temperature, d.Reason)
					}
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", sp, err))
					continue
				}
				fits = append(fits, fit)
			}
			if len(fits) == 0 {
				return errors.Join(errs...)
			}
			for _, err := range errs {
				monitoring.Warnf("%v", err)
			}

			if err := a.writeTo(cmd, output, func(w io.Writer) error {
				return tables.WriteArrhenius(w, fits)
			}); err != nil {
				return err
			}

			for _, fit := range fits {
				curve, err := arrhenius.Extrapolate(fit, s.DSATemperatures)
				if err != nil {
					return err
				}
				if extrapolate != "" {
					path := extrapolate
					if len(fits) > 1 {
						path = pipeline.SpeciesFile(extrapolate, fit.Species)
					}
					if err := a.writeTo(cmd, path, func(w io.Writer) error {
						return tables.WriteExtrapolated(w, curve)
					}); err != nil {
						return err
					}
				}
				if plotDir != "" {
					path := filepath.Join(plotDir, pipeline.SpeciesFile("arrhenius.png", fit.Species))
					if err := a.writeTo(cmd, path, func(w io.Writer) error {
						return chart.ArrheniusPNG(w, fit, estimates, curve)
					}); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "fit only this species or combination tag")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "parameters output file")
	cmd.Flags().StringVar(&extrapolate, "extrapolate", "", "write the extrapolated curve to this file")
	cmd.Flags().StringVar(&plotDir, "plot-dir", "", "write Arrhenius plots into this directory")
	return cmd
}

func speciesIn(estimates []msd.Estimate) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range estimates {
		if !seen[e.Species] {
			seen[e.Species] = true
			out = append(out, e.Species)
		}
	}
	return out
}
