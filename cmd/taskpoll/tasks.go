package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var resultTimeout time.Duration

// resultCmd represents the result command
var resultCmd = &cobra.Command{
	Use:   "result <task-id>",
	Short: "Wait for the output of a task",
	Long: `Long-poll the server until the task output is available and print it.
Outputs are retained, so asking again after the task resolved returns the same
output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := clientSetup()
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()
		if resultTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, resultTimeout)
			defer cancel()
		}

		out, err := c.WaitResult(ctx, args[0])
		if err != nil {
			return fmt.Errorf("waiting for result failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "Show the state of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := clientSetup()
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()
		snap, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, snap)
	},
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := clientSetup()
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()
		if err := c.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue counters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := clientSetup()
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()
		st, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd, st)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func init() {
	resultCmd.Flags().DurationVar(&resultTimeout, "timeout", 0, "give up after this long (0 waits forever)")
}
