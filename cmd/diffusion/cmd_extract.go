package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/pipeline"
	"github.com/banshee-data/diffusion.report/internal/tables"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		lf      loadFlags
		output  string
		combine bool
	)
	cmd := &cobra.Command{
		Use:   "extract T=FILE...",
		Short: "Extract diffusivities from MSD files into a diffusivity table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			specs, err := parseInputs(args, true)
			if err != nil {
				return err
			}
			inputs, err := pipeline.LoadInputs(a.fs, specs, lf.options(s.TimestepPS))
			if err != nil {
				return err
			}

			var estimates []msd.Estimate
			for _, in := range inputs {
				est, _, err := msd.FilterAndExtract(in.Series, s.Filter(), s.Extract(in.Dimensionality))
				if err != nil {
					monitoring.Warnf("%s: %v", in.Source, err)
					continue
				}
				estimates = append(estimates, est)
			}
			if combine {
				c, err := s.Combiner()
				if err != nil {
					return err
				}
				combined, failures := pipeline.Combine(estimates, c, s)
				for _, f := range failures {
					monitoring.Warnf("%v", f)
				}
				estimates = append(estimates, combined...)
			}
			return a.writeTo(cmd, output, func(w io.Writer) error {
				return tables.WriteDiffusivity(w, estimates)
			})
		},
	}
	lf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file")
	cmd.Flags().BoolVar(&combine, "combine", false, "add interdiffusion rows where solute and solvent share a temperature")
	return cmd
}
