package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/diffusion.report/internal/store"
	"github.com/banshee-data/diffusion.report/internal/tables"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recorded runs, or the fits and DSA windows of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if len(args) == 0 {
				runs, err := st.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "RUN\tSTARTED\tESTIMATES\tFITS\tFAILURES\tVERSION")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
						r.ID, r.Started.Format("2006-01-02 15:04:05"), r.Estimates, r.Fits, r.Failures, r.Version)
				}
				return nil
			}

			fits, err := st.LoadFits(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "SPECIES\tD0(m²/s)\tQ(kJ/mol)\tQ(eV)\tR²\tT_MIN\tT_MAX\tPOINTS")
			for _, f := range fits {
				fmt.Fprintf(tw, "%s\t%.4e\t%.2f\t%.3f\t%.4f\t%g\t%g\t%d\n",
					f.Species, f.D0, f.QkJPerMol(), f.QeVPerAtom(), f.R2, f.TMin, f.TMax, f.Points)
			}
			fmt.Fprintln(tw)

			windows, err := st.LoadWindows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "SPECIES\tRHO_M\tL_C(m)\tL_T(m)\tF_PIPE\tWINDOWS\tT_LOW\tT_HIGH")
			for _, w := range windows {
				low, high := tables.None, tables.None
				if w.Windows > 0 {
					low, high = fmt.Sprintf("%.1f", w.Low), fmt.Sprintf("%.1f", w.High)
				}
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%d\t%s\t%s\n",
					w.Species, w.Scenario.RhoM, w.Scenario.LCapture, w.Scenario.LTravel, w.Scenario.FPipe, w.Windows, low, high)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "runs.db", "SQLite run database")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list (0 for all)")
	return cmd
}
