// Package proc runs short-lived helper binaries such as ffmpeg and gtts-cli.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultGrace is how long a process gets to exit after an interrupt before
// it is killed.
const DefaultGrace = 100 * time.Millisecond

// MaxOutput caps the captured stdout of a helper process.
const MaxOutput = 50 * 1024 * 1024

// ErrOutputTooLarge is returned when a process writes more than MaxOutput bytes.
var ErrOutputTooLarge = errors.New("process output too large")

// Run executes name with args under timeout and returns its stdout.
// On timeout or cancellation the process is interrupted, then killed after
// DefaultGrace.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader("")
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = DefaultGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, n: MaxOutput}
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
	}
	if err != nil {
		if errors.Is(err, ErrOutputTooLarge) {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output, stderr: %s", name, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Available reports whether name can be found on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

type limitedWriter struct {
	w *bytes.Buffer
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.w.Len()+len(p) > l.n {
		return 0, ErrOutputTooLarge
	}
	return l.w.Write(p)
}
