package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"time"
)

// Executor runs the solver on a command script inside dir, streaming its
// combined stdout and stderr to out. A non-zero exit status is reported
// through the returned code; err is reserved for launch failures and
// cancellation.
type Executor interface {
	Execute(ctx context.Context, dir, scriptName string, out io.Writer) (exitCode int, err error)
}

// ExecExecutor launches the solver binary with os/exec.
type ExecExecutor struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewExecExecutor returns an executor for command. A zero timeout means
// no limit beyond ctx.
func NewExecExecutor(command string, timeout time.Duration, args ...string) *ExecExecutor {
	return &ExecExecutor{Command: command, Args: args, Timeout: timeout}
}

// Execute implements Executor.
func (e *ExecExecutor) Execute(ctx context.Context, dir, scriptName string, out io.Writer) (int, error) {
	if e.Command == "" {
		return -1, errors.New("solver command is empty")
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	bin := e.Command
	if !filepath.IsAbs(bin) && filepath.Base(bin) != bin {
		if abs, err := filepath.Abs(bin); err == nil {
			bin = abs
		}
	}
	args := append(append([]string{}, e.Args...), scriptName)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("launch %s: %w", e.Command, err)
	}
	return 0, nil
}
