package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/climate-alarm/internal/repository/history"
	"github.com/oshokin/climate-alarm/internal/service/client"
)

var (
	// serverAddress overrides api.address for client commands.
	serverAddress string
	// historyLimit is the number of rows printed by the history command.
	historyLimit int

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the readings, alarm state and counters of a running daemon.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.RunStatus(ctx, clientOptions(cmd))
			})
		},
	}

	toggleCmd = &cobra.Command{
		Use:   "toggle",
		Short: "Switch the display between °F and °C, like pressing the button.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.RunToggle(ctx, clientOptions(cmd))
			})
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Print recent journaled readings, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSignals(func(ctx context.Context) error {
				return client.RunHistory(ctx, clientOptions(cmd), historyLimit)
			})
		},
	}
)

func clientOptions(cmd *cobra.Command) *client.Options {
	return &client.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Output:        cmd.OutOrStdout(),
	}
}

func withSignals(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return fn(ctx)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	for _, c := range []*cobra.Command{statusCmd, toggleCmd, historyCmd} {
		c.Flags().StringVarP(&serverAddress, "server", "s", "", "daemon address, overrides api.address")
	}

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultRecentLimit, "number of readings to print")
}
