package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/climate-alarm/internal/config"
	"github.com/oshokin/climate-alarm/internal/service/daemon"
	"github.com/oshokin/climate-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// listenAddress overrides api.address for the daemon.
	listenAddress string

	// rootCmd runs the monitoring daemon.
	rootCmd = &cobra.Command{
		Use:   "climate-alarm",
		Short: "Run the temperature and humidity alarm daemon.",
		Long: `Samples temperature and humidity, renders them on a two-line display and
drives an alarm output when either exceeds its threshold.

Every action runs as an event on a single dispatcher. Send the button signal
(SIGUSR1 by default) or run "climate-alarm toggle" to switch between °F and °C.
A stalled dispatcher trips the watchdog and the process exits with status 3
so the supervisor can restart it.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}
)

// Execute runs the climate-alarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().
		StringVarP(&listenAddress, "listen", "l", "", "gRPC listen address, overrides api.address")

	rootCmd.AddCommand(statusCmd, toggleCmd, historyCmd, configCmd)
}
