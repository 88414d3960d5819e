package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/aatumaykin/taskpoll/internal/app"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/spf13/cobra"
)

var (
	serveAddr            string
	servePollingInterval time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the task queue server",
	Long: `Start the HTTP server in front of an in-memory task queue.
Parked pulls and result polls are answered with 307 when the polling interval
elapses. SIGINT or SIGTERM shut the server down gracefully.`,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if servePollingInterval > 0 {
		cfg.Queue.PollingIntervalMs = int(servePollingInterval / time.Millisecond)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
		}
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()
	logger.SetDefault(log)

	log.Info("starting taskpoll",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "addr", Value: cfg.Server.Addr},
		logger.Field{Key: "polling_interval_ms", Value: cfg.Queue.PollingIntervalMs})

	ctx, stop := commandContext(cmd)
	defer stop()

	if err := app.New(cfg, log).Run(ctx); err != nil {
		log.Error("server stopped with error", err)
		return err
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	serveCmd.Flags().DurationVar(&servePollingInterval, "polling-interval", 0, "long-poll interval (overrides queue.polling_interval_ms)")
}
