package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/climate-alarm/internal/config"
)

var (
	// overwriteConfig allows config init to replace an existing file.
	overwriteConfig bool

	errConfigExists = errors.New("settings file already exists, use --force to overwrite")

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with every default filled in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !overwriteConfig {
				return fmt.Errorf("%s: %w", configPath, errConfigExists)
			}

			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Settings written to %s\n", configPath)

			return nil
		},
	}

	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "Validate the settings file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configInitCmd.Flags().BoolVarP(&overwriteConfig, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configCheckCmd)
}
