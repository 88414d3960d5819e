package main

import (
	"fmt"

	"github.com/aatumaykin/taskpoll/internal/client"
	"github.com/aatumaykin/taskpoll/internal/config"
	"github.com/aatumaykin/taskpoll/internal/constants"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/retry"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	serverURL  string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "taskpoll",
	Short: "taskpoll - in-memory long-polling task queue",
	Long: `taskpoll hands tasks from producers to workers over HTTP long polling.
Workers wait on the server until a task arrives; producers wait the same way
for the output of their task.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (TOML or YAML, default "+constants.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", constants.DefaultEnvPath, ".env file loaded before the config")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL for client commands (default "+constants.DefaultServerURL+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(workCmd)
}

// loadConfig reads the .env file and the configuration, then applies the
// global flag overrides. A missing default config file is not an error.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional(envFile); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.LoadOrDefault(constants.DefaultConfigPath)
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if serverURL != "" {
		cfg.Worker.ServerURL = serverURL
	}
	return cfg, nil
}

// cliLogger logs to stderr so that command output on stdout stays clean.
func cliLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: "text",
		Output: "stderr",
	})
}

func newClient(cfg *config.Config, log *logger.Logger) (*client.Client, error) {
	return client.New(cfg.Worker.ServerURL,
		client.WithLogger(log),
		client.WithRetry(retry.Config{MaxAttempts: cfg.Worker.RetryMaxAttempts, Logger: log}))
}

// clientSetup is shared by the producer-side commands.
func clientSetup() (*client.Client, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := cliLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	c, err := newClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return c, log, nil
}
