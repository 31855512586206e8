package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/pipeline"
)

func newCheckCmd(a *app) *cobra.Command {
	var lf loadFlags
	cmd := &cobra.Command{
		Use:   "check [T=]FILE...",
		Short: "Report fit quality of MSD files without fitting across temperatures",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.settings()
			if err != nil {
				return err
			}
			specs, err := parseInputs(args, false)
			if err != nil {
				return err
			}
			inputs, err := pipeline.LoadInputs(a.fs, specs, lf.options(s.TimestepPS))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOURCE\tT(K)\tSAMPLES\tD(m²/s)\tD_STDERR\tR²\tGRADE\tVALID")
			bad := 0
			for _, in := range inputs {
				est, _, err := msd.FilterAndExtract(in.Series, s.Filter(), s.Extract(in.Dimensionality))
				if err != nil {
					reason, _ := msd.ReasonOf(err)
					fmt.Fprintf(tw, "%s\t%g\t%d\t-\t-\t-\t%s\tfalse\n", in.Source, in.Series.Temperature, in.Series.Len(), reason)
					bad++
					continue
				}
				if !est.Valid {
					bad++
				}
				fmt.Fprintf(tw, "%s\t%g\t%d\t%.4e\t%.2e\t%.4f\t%s\t%t\n",
					in.Source, est.Temperature, est.Samples, est.D, est.DStderr, est.R2, msd.GradeR2(est.R2), est.Valid)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if bad > 0 {
				monitoring.Warnf("%d of %d series are not usable", bad, len(inputs))
			}
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}
