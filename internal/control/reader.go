package control

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"
)

// DefaultQueueSize bounds the command channel.
const DefaultQueueSize = 16

// maxLine allows personalities longer than bufio's default token size.
const maxLine = 64 * 1024

// Read parses lines from r and sends them on out until r is exhausted, a STOP
// command is delivered or ctx is done. Malformed lines are logged and
// skipped. Read does not close out.
func Read(ctx context.Context, r io.Reader, out chan<- Command) error {
	logger := log.WithPrefix("control")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLine)
	for scanner.Scan() {
		cmd, err := Parse(scanner.Text())
		if errors.Is(err, ErrEmpty) {
			continue
		}
		if err != nil {
			logger.Warn("Ignoring control line", "err", err)
			continue
		}

		if cmd.Sensitive() {
			logger.Debug("Received command", "cmd", cmd.Kind)
		} else {
			logger.Debug("Received command", "cmd", cmd.Kind, "value", cmd.Value)
		}

		select {
		case out <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
		if cmd.Kind == KindStop {
			return nil
		}
	}
	return scanner.Err()
}
