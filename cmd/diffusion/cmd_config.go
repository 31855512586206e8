package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/diffusion.report/internal/msd"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved settings as YAML (SI units)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.settings()
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(s); err != nil {
					return err
				}
				return enc.Close()
			},
		},
		&cobra.Command{
			Use:   "combiners",
			Short: "List the interdiffusion combination strategies",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				for _, c := range msd.DefaultCombinerRegistry().List() {
					marker := " "
					if c.Name == msd.DefaultCombiner {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s %s\n", marker, c.Name, c.Description)
				}
			},
		},
	)
	return cmd
}
