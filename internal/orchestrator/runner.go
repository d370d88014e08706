package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// Runner executes an external program and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args []string) error
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	// Stdout and Stderr default to the process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Dir is the working directory. Default: the current directory.
	Dir string

	// Timeout bounds each invocation when positive.
	Timeout time.Duration
}

// Run starts name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errors.Join(ctx.Err(), err)
		}
		return err
	}
	return nil
}

// exitCode extracts the exit status from err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
