package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	submitID     string
	submitFile   string
	submitString bool
	submitWait   bool
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit [input]",
	Short: "Submit a task",
	Long: `Submit a task whose input is the JSON argument, the contents of --file
("-" reads stdin), or null when neither is given. Prints the task id, and with
--wait also the task output once a worker has reported it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		c, _, err := clientSetup()
		if err != nil {
			return err
		}
		ctx, stop := commandContext(cmd)
		defer stop()

		id, err := c.Submit(ctx, submitID, input)
		if err != nil {
			return fmt.Errorf("submit failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)

		if !submitWait {
			return nil
		}
		out, err := c.WaitResult(ctx, id)
		if err != nil {
			return fmt.Errorf("waiting for result failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// readInput resolves the task input from the argument or --file.
func readInput(stdin io.Reader, args []string) (json.RawMessage, error) {
	var data []byte
	switch {
	case len(args) > 0 && submitFile != "":
		return nil, fmt.Errorf("use either an input argument or --file, not both")
	case len(args) > 0:
		data = []byte(args[0])
	case submitFile == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	case submitFile != "":
		b, err := os.ReadFile(submitFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		data = b
	default:
		return json.RawMessage("null"), nil
	}

	if submitString {
		return json.Marshal(strings.TrimRight(string(data), "\n"))
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("input is not valid JSON (use --string to send text)")
	}
	return json.RawMessage(data), nil
}

func init() {
	submitCmd.Flags().StringVar(&submitID, "id", "", "task id (generated when empty)")
	submitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "read input from file, - for stdin")
	submitCmd.Flags().BoolVar(&submitString, "string", false, "send the input as a JSON string")
	submitCmd.Flags().BoolVarP(&submitWait, "wait", "w", false, "wait for and print the task output")
}
