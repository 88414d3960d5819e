package main

import (
	"errors"
	"fmt"

	"github.com/aatumaykin/taskpoll/internal/config"
	"github.com/aatumaykin/taskpoll/internal/constants"
	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and inspect taskpoll configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file and report every error found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := constants.DefaultConfigPath
		if configPath != "" {
			path = configPath
		}
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if errs := cfg.Validate(); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
			}
			return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: configuration is valid\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
