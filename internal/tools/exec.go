package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxStderr bounds how much diagnostic output is kept in an error.
const maxStderr = 2000

// runFn runs a command and returns its stdout and stderr.
type runFn func(ctx context.Context, path string, args []string) (stdout, stderr string, err error)

// Executor runs external binaries and captures their output.
type Executor struct {
	run runFn
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRun sets a custom run function (for testing).
func WithRun(fn runFn) ExecutorOption {
	return func(e *Executor) { e.run = fn }
}

// NewExecutor creates an Executor with the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{run: defaultRun}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Output runs path with args and returns trimmed stdout.
// On failure the error wraps ErrCommandFailed and carries the tail of stderr.
// A canceled or expired ctx is returned as-is so callers can tell timeouts apart.
func (e *Executor) Output(ctx context.Context, path string, args ...string) (string, error) {
	stdout, stderr, err := e.run(ctx, path, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%s: %v: %s: %w", path, err, Tail(stderr, maxStderr), ErrCommandFailed)
	}
	return strings.TrimSpace(stdout), nil
}

// Version returns the first line of "<binary> --version" (or -version for ffmpeg).
func (e *Executor) Version(ctx context.Context, t Tool, path string) (string, error) {
	flag := "--version"
	if t.Name == FFmpeg.Name {
		flag = "-version"
	}
	out, err := e.Output(ctx, path, flag)
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}

func defaultRun(ctx context.Context, path string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, path, args...) // #nosec G204 -- path comes from Resolver
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Tail returns the last n bytes of s, trimmed, for embedding in errors.
func Tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
