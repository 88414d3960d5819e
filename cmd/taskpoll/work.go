package main

import (
	"fmt"
	"time"

	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/aatumaykin/taskpoll/internal/workers"
	"github.com/spf13/cobra"
)

var (
	workConcurrency int
	workPolicy      string
	workTaskTimeout time.Duration
)

// workCmd represents the work command
var workCmd = &cobra.Command{
	Use:   "work [-- command [args...]]",
	Short: "Run workers that execute tasks with a command",
	Long: `Long-poll the server for tasks and run a command for each one. The task
input is written to the command's stdin and its stdout is reported as the
output. The command comes from the arguments after -- or from worker.command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) > 0 {
			cfg.Worker.Command = args
		}
		if workConcurrency > 0 {
			cfg.Worker.Concurrency = workConcurrency
		}
		if workPolicy != "" {
			cfg.Worker.Policy = workPolicy
		}
		if workTaskTimeout > 0 {
			cfg.Worker.TaskTimeoutSeconds = int(workTaskTimeout / time.Second)
		}

		policy, err := queue.ParsePolicy(cfg.Worker.Policy)
		if err != nil {
			return err
		}
		execute, err := workers.CommandExecutor(cfg.Worker.Command)
		if err != nil {
			return fmt.Errorf("%w: pass it after -- or set worker.command", err)
		}

		log, err := cliLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		c, err := newClient(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := commandContext(cmd)
		defer stop()

		pool := workers.NewPool(c, execute, workers.Config{
			Workers:     cfg.Worker.Concurrency,
			Policy:      policy,
			TaskTimeout: cfg.Worker.TaskTimeout(),
		}, log)
		pool.Start(ctx)

		log.Info("workers running",
			logger.Field{Key: "server", Value: cfg.Worker.ServerURL},
			logger.Field{Key: "command", Value: cfg.Worker.Command})

		<-ctx.Done()
		pool.Stop()
		return nil
	},
}

func init() {
	workCmd.Flags().IntVarP(&workConcurrency, "concurrency", "n", 0, "number of workers (overrides worker.concurrency)")
	workCmd.Flags().StringVar(&workPolicy, "policy", "", "selection policy: first, random or any")
	workCmd.Flags().DurationVar(&workTaskTimeout, "task-timeout", 0, "per-task execution limit")
}
