package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/chart"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/pipeline"
	"github.com/banshee-data/diffusion.report/internal/tables"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		species string
		outDir  string
		plots   bool
	)
	cmd := &cobra.Command{
		Use:   "sweep EXTRAPOLATED.csv",
		Short: "Sweep DSA scenarios over an extrapolated diffusivity curve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			f, err := a.fs.Open(args[0])
			if err != nil {
				return err
			}
			curve, err := tables.ReadExtrapolated(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			scenarios, err := s.ParamSpace().Scenarios()
			if err != nil {
				return err
			}
			sw, err := dsa.Run(cmd.Context(), curve, scenarios, dsa.SweepConfig{Bounds: s.Bounds(), Workers: s.Workers})
			if err != nil {
				return err
			}
			sw.Species = species

			empty := 0
			for _, sum := range sw.Summaries {
				if sum.Empty() {
					empty++
				}
			}
			monitoring.Logf("swept %d scenarios over %d temperatures; %d without a window",
				len(sw.Scenarios), len(sw.Temperatures), empty)

			name := func(base string) string {
				if species != "" {
					base = pipeline.SpeciesFile(base, species)
				}
				return filepath.Join(outDir, base)
			}
			if err := a.writeTo(cmd, name(pipeline.SweepFile), func(w io.Writer) error {
				return tables.WriteSweep(w, sw)
			}); err != nil {
				return err
			}
			if err := a.writeTo(cmd, name(pipeline.SummaryFile), func(w io.Writer) error {
				return tables.WriteSummary(w, sw)
			}); err != nil {
				return err
			}
			if !plots {
				return nil
			}
			if err := a.writeTo(cmd, name("dsa_ratio.png"), func(w io.Writer) error {
				return chart.RatioPNG(w, sw, s.Bounds())
			}); err != nil {
				return err
			}
			return a.writeTo(cmd, name("dsa_ratio.html"), func(w io.Writer) error {
				return chart.RatioHTML(w, s.Bounds(), sw)
			})
		},
	}
	cmd.Flags().StringVar(&species, "species", "", "species tag used in titles and file names")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", ".", "directory for the sweep and summary tables")
	cmd.Flags().BoolVar(&plots, "plots", false, "also write PNG and HTML ratio charts")
	return cmd
}
