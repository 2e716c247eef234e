package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultCommandTimeout bounds a single external tool invocation.
const DefaultCommandTimeout = 10 * time.Minute

// ExitError reports an external tool that ran but exited unsuccessfully.
type ExitError struct {
	Tool   string
	Args   []string
	Status int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s failed with status %d", e.Tool, strings.Join(e.Args, " "), e.Status)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + lastLine(stderr)
	}

	return msg
}

// CommandAdapter abstracts running the external toolchain.
type CommandAdapter interface {
	// Output runs name with args in dir and returns its stdout. Stderr is
	// captured for the error message.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)

	// Run runs name with args in dir, streaming stdout and stderr to out.
	Run(ctx context.Context, dir string, out io.Writer, name string, args ...string) error
}

// LocalCommandAdapter provides a concrete implementation using os/exec.
type LocalCommandAdapter struct {
	timeout time.Duration
}

// NewLocalCommandAdapter constructs a LocalCommandAdapter. A non-positive
// timeout falls back to DefaultCommandTimeout.
func NewLocalCommandAdapter(timeout time.Duration) *LocalCommandAdapter {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	return &LocalCommandAdapter{timeout: timeout}
}

// Output runs a command and returns its stdout.
func (a *LocalCommandAdapter) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running command", "tool", name, "args", args, "dir", dir)

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), commandError(ctx, name, args, stderr.String(), err)
	}

	return stdout.Bytes(), nil
}

// Run runs a command with its output streamed to out.
func (a *LocalCommandAdapter) Run(ctx context.Context, dir string, out io.Writer, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer

	shared := &syncWriter{w: out}
	cmd.Stdout = shared
	cmd.Stderr = io.MultiWriter(shared, &stderr)

	slog.Debug("running command", "tool", name, "args", args, "dir", dir)

	if err := cmd.Run(); err != nil {
		return commandError(ctx, name, args, stderr.String(), err)
	}

	return nil
}

func commandError(ctx context.Context, name string, args []string, stderr string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Error("command interrupted", "tool", name, "error", ctxErr)
		return fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		slog.Error("command failed", "tool", name, "args", args, "status", exitErr.ExitCode())

		return &ExitError{
			Tool:   name,
			Args:   args,
			Status: exitErr.ExitCode(),
			Stderr: stderr,
		}
	}

	slog.Error("command could not start", "tool", name, "error", err)

	return fmt.Errorf("run %s: %w", name, err)
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}

	return s
}

// syncWriter serializes writes from the stdout and stderr copy goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.w.Write(p)
}
