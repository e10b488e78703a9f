// Package executor runs a job's opaque command payload and classifies
// the outcome into the four failure buckets the retry/DLQ state
// machine depends on.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Executor runs an opaque command string and reports whether it
// succeeded. The returned error string is empty on success.
//
// Implementations must enforce timeout by forcibly terminating the
// child process; a hang beyond timeout is a bug in the implementation,
// not an acceptable outcome.
type Executor interface {
	Execute(ctx context.Context, command string, timeout time.Duration) (ok bool, errMsg string)
}

// Shell runs commands through the host shell ("sh -c"), capturing
// stderr for the failure message; stdout is discarded, not captured.
// It is the default Executor, grounded on the original
// implementation's subprocess.run(shell=True, ...) behavior.
type Shell struct{}

var _ Executor = Shell{}

// Execute runs command via "sh -c", classifying failure into one of:
// a non-zero exit code ("Exit code N: <stderr>"), a timeout
// ("Command timeout after Ns"), command-not-found, or an unclassified
// error's message.
func (Shell) Execute(ctx context.Context, command string, timeout time.Duration) (bool, string) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	// Once the timeout kills sh, stop waiting on the stderr pipe that a
	// forked grandchild may still hold open.
	cmd.WaitDelay = 100 * time.Millisecond

	err := cmd.Run()
	if err == nil {
		return true, ""
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return false, fmt.Sprintf("Command timeout after %ds", int(timeout.Seconds()))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("Exit code %d", exitErr.ExitCode())
		}
		return false, fmt.Sprintf("Exit code %d: %s", exitErr.ExitCode(), msg)
	}

	var pathErr *exec.Error
	if errors.As(err, &pathErr) {
		return false, "Command not found"
	}

	return false, err.Error()
}
