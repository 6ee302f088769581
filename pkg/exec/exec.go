// Package exec runs external tools, capturing their output and reporting
// failures with the tool's stderr attached.
package exec

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Unredacted is a no-op redactor.
var Unredacted = Redact(nil)

// CmdError is returned for any command that exits non-zero. Stderr holds the
// trimmed diagnostic text captured from the process.
type CmdError struct {
	Cause  error
	Args   string
	Stderr string
}

func (ce *CmdError) Error() string {
	res := fmt.Sprintf("`%v` failed: %v", ce.Args, ce.Cause)
	if ce.Stderr != "" {
		res = fmt.Sprintf("%s: %s", res, ce.Stderr)
	}

	return res
}

func (ce *CmdError) Unwrap() error {
	return ce.Cause
}

func newCmdError(args string, cause error, stderr string) *CmdError {
	return &CmdError{Args: args, Cause: cause, Stderr: stderr}
}

// CmdOpts configures a single invocation.
type CmdOpts struct {
	// Redactor removes secrets (e.g. keystore passwords) from logged text.
	Redactor func(text string) string
	// Timeout kills the process after the given duration. Zero means no
	// timeout; the caller blocks until the process exits.
	Timeout time.Duration
}

// DefaultCmdOpts runs without a timeout and without redaction.
var DefaultCmdOpts = CmdOpts{
	Redactor: Unredacted,
	Timeout:  0,
}

// Redact returns a redactor replacing every occurrence of the given items.
func Redact(items []string) func(text string) string {
	return func(text string) string {
		for _, item := range items {
			if item == "" {
				continue
			}

			text = strings.ReplaceAll(text, item, "******")
		}

		return text
	}
}

// RunCommandExt runs cmd, logging the invocation and returning stdout. On a
// non-zero exit it returns a [*CmdError] carrying the captured stderr.
func RunCommandExt(cmd *exec.Cmd, opts CmdOpts) (string, error) {
	execID := uuid.NewString()[:8]
	logCtx := slog.With(slog.String("execID", execID))

	redactor := DefaultCmdOpts.Redactor
	if opts.Redactor != nil {
		redactor = opts.Redactor
	}

	// Log in a way we can copy-and-paste into a terminal.
	args := strings.Join(cmd.Args, " ")
	logCtx.Debug(redactor(args), slog.String("dir", cmd.Dir))

	var stdout bytes.Buffer

	var stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()

	err := cmd.Start()
	if err != nil {
		return "", fmt.Errorf("failed to start `%s`: %w", redactor(args), err)
	}

	done := make(chan error)
	go func() { done <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if opts.Timeout != 0 {
		timeoutCh = time.NewTimer(opts.Timeout).C
	}

	select {
	case <-timeoutCh:
		_ = cmd.Process.Signal(syscall.SIGKILL)

		err = newCmdError(redactor(args), fmt.Errorf("timeout after %v", opts.Timeout), "")
		logCtx.Error(err.Error())

		return strings.TrimSuffix(stdout.String(), "\n"), err
	case err := <-done:
		if err != nil {
			err := newCmdError(
				redactor(args),
				errors.New(redactor(err.Error())),
				strings.TrimSpace(redactor(stderr.String())),
			)
			logCtx.Error(err.Error())

			return strings.TrimSuffix(stdout.String(), "\n"), err
		}
	}

	logCtx.Debug(redactor(stdout.String()), slog.Duration("duration", time.Since(start)))

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// RunCommand runs name with the given arguments. See [RunCommandExt].
func RunCommand(name string, opts CmdOpts, arg ...string) (string, error) {
	return RunCommandExt(exec.Command(name, arg...), opts)
}

// RunFunc is the signature of [RunCommand]. Components take a RunFunc so tests
// can substitute fake tool invocations.
type RunFunc func(name string, opts CmdOpts, arg ...string) (string, error)
