// Command diffusion reduces MSD time series to diffusivities, fits the
// Arrhenius law, extrapolates it and sweeps the DSA timescale model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/banshee-data/diffusion.report/internal/config"
	"github.com/banshee-data/diffusion.report/internal/fsutil"
	"github.com/banshee-data/diffusion.report/internal/monitoring"
	"github.com/banshee-data/diffusion.report/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	fs     fsutil.FileSystem
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{fs: fsutil.OSFileSystem{}}
	root := &cobra.Command{
		Use:   "diffusion",
		Short: "Reduce MSD simulation output to diffusion and DSA parameters",
		Long: `diffusion turns mean-squared-displacement series into diffusivities,
fits D = D0·exp(-Q/RT) across temperatures, extrapolates the fit onto the
DSA temperature grid and sweeps the capture/waiting timescale ratio.

Configuration comes from --config (JSON or YAML) with DIFFUSION_*
environment overrides; unset values take the built-in defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := monitoring.NewLogger(a.logLevel, a.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.logger = l
			monitoring.UseZap(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "pipeline configuration file (.json, .yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", monitoring.FormatConsole, "log format: console or json")

	root.AddCommand(
		newCheckCmd(a),
		newExtractCmd(a),
		newFitCmd(a),
		newSweepCmd(a),
		newRunCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// settings loads --config (or only the environment when unset) and
// resolves it.
func (a *app) settings() (config.Settings, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Settings{}, err
	}
	return cfg.Settings()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
