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
	"github.com/banshee-data/diffusion.report/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		lf     loadFlags
		inputs []string
		outDir string
		dbPath string
		plots  bool
	)
	cmd := &cobra.Command{
		Use:   "run --input T=FILE [--input T=FILE ...]",
		Short: "Run the full pipeline and write every output table",
		Example: `  diffusion run --input 700=msd_700K.dat --input 800=msd_800K.dat \
      --input 900=msd_900K.dat -o out/ --db runs.db --plots`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			specs, err := parseInputs(inputs, true)
			if err != nil {
				return err
			}
			in, err := pipeline.LoadInputs(a.fs, specs, lf.options(s.TimestepPS))
			if err != nil {
				return err
			}

			res, err := pipeline.Run(cmd.Context(), in, s)
			if err != nil {
				return err
			}
			for _, f := range res.Failures {
				monitoring.Warnf("%v", f)
			}

			files, err := pipeline.WriteOutputs(a.fs, outDir, res)
			if err != nil {
				return err
			}
			monitoring.Logf("run %s: wrote %d files to %s", res.ID, len(files), outDir)

			if plots {
				if err := a.writePlots(cmd, outDir, res); err != nil {
					return err
				}
			}
			if dbPath != "" {
				st, err := store.Open(dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.SaveRun(cmd.Context(), res); err != nil {
					return err
				}
				monitoring.Logf("run %s: saved to %s", res.ID, dbPath)
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.ID)
			if len(res.Species) == 0 {
				return fmt.Errorf("no species could be fitted (%d failures)", len(res.Failures))
			}
			return nil
		},
	}
	lf.register(cmd)
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "MSD file as TEMPERATURE=PATH (repeatable)")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "out", "output directory")
	cmd.Flags().StringVar(&dbPath, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&plots, "plots", false, "write Arrhenius and DSA ratio charts")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) writePlots(cmd *cobra.Command, dir string, res *pipeline.Result) error {
	var sweeps []*dsa.Sweep
	for _, sp := range res.Species {
		path := filepath.Join(dir, pipeline.SpeciesFile("arrhenius.png", sp.Species))
		if err := a.writeTo(cmd, path, func(w io.Writer) error {
			return chart.ArrheniusPNG(w, sp.Fit, res.Estimates, sp.Curve)
		}); err != nil {
			return err
		}
		if sp.Sweep == nil {
			continue
		}
		sweeps = append(sweeps, sp.Sweep)
		path = filepath.Join(dir, pipeline.SpeciesFile("dsa_ratio.png", sp.Species))
		if err := a.writeTo(cmd, path, func(w io.Writer) error {
			return chart.RatioPNG(w, sp.Sweep, res.Settings.Bounds())
		}); err != nil {
			return err
		}
	}
	if len(sweeps) == 0 {
		return nil
	}
	return a.writeTo(cmd, filepath.Join(dir, "dsa_ratio.html"), func(w io.Writer) error {
		return chart.RatioHTML(w, res.Settings.Bounds(), sweeps...)
	})
}
