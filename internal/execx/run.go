// Package execx runs external tool commands with a hard timeout and shapes
// their failures into errors the cleaners can log and recover from.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds commands that don't specify their own.
const DefaultTimeout = 30 * time.Second

// Runner executes external commands. The indirection exists so provider tests
// can substitute canned output for docker/kubectl/git/brew invocations.
type Runner interface {
	// Run executes name with args and returns trimmed stdout. A non-zero
	// exit, a missing binary, or an overrun timeout all return an error.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)

	// RunIn is Run with an explicit working directory.
	RunIn(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (string, error)
}

// System is the Runner backed by os/exec.
type System struct{}

func (System) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	return System{}.RunIn(ctx, timeout, "", name, args...)
}

func (System) RunIn(ctx context.Context, timeout time.Duration, dir, name string, args ...string) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Debug("running command", "cmd", name, "args", strings.Join(args, " "), "dir", dir)
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		// The context error, not the process error, says whether the
		// timeout fired: a killed process reports only "signal: killed".
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", shapeError(err, name, timeout, stderr.Bytes())
	}

	log.Debug("command completed", "cmd", name, "elapsed", elapsed.Round(time.Millisecond))
	return strings.TrimSpace(stdout.String()), nil
}

// shapeError turns the raw exec failure into something actionable, keeping a
// truncated slice of stderr for context.
func shapeError(err error, name string, timeout time.Duration, stderr []byte) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", name, timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(string(stderr))
		if len(msg) > 200 {
			// Truncate at a valid UTF-8 boundary.
			msg = msg[:200]
			for len(msg) > 0 && !utf8.ValidString(msg) {
				msg = msg[:len(msg)-1]
			}
			msg += "..."
		}
		if msg != "" {
			return fmt.Errorf("%s failed (exit code %d): %s", name, exitErr.ExitCode(), msg)
		}
		return fmt.Errorf("%s failed (exit code %d)", name, exitErr.ExitCode())
	}

	return fmt.Errorf("%s: %w", name, err)
}
