package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aatumaykin/taskpoll/internal/queue"
)

// EnvTaskID names the environment variable holding the task id for
// command executors.
const EnvTaskID = "TASKPOLL_TASK_ID"

// killGrace bounds how long output pipes are drained after the command
// is killed; children may keep them open.
const killGrace = time.Second

// ErrNoCommand is returned by CommandExecutor for an empty argv.
var ErrNoCommand = errors.New("no command configured")

// CommandExecutor runs argv for every task with the task input on stdin.
// Stdout becomes the output: used as is when it is valid JSON, otherwise
// encoded as a JSON string. A non-zero exit is an error carrying stderr.
func CommandExecutor(argv []string) (TaskExecutor, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrNoCommand
	}
	args := append([]string(nil), argv...)

	return func(ctx context.Context, task queue.TaskInfo) (json.RawMessage, error) {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Env = append(os.Environ(), EnvTaskID+"="+task.ID)
		cmd.Stdin = bytes.NewReader(task.Input)
		cmd.WaitDelay = killGrace

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("command %s: %w", args[0], ctx.Err())
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return nil, fmt.Errorf("command %s: %w", args[0], err)
			}
			return nil, fmt.Errorf("command %s: %w: %s", args[0], err, msg)
		}

		return encodeOutput(stdout.Bytes()), nil
	}, nil
}

func encodeOutput(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	data, _ := json.Marshal(string(trimmed))
	return data
}
