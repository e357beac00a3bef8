package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vozbot/vozbot/internal/config"
)

// setupLog configures the default logger. Logs go to stderr, since stdout
// may carry JSON events, and are copied to file when one is set. "auto"
// selects the log file in the user cache dir.
func setupLog(level, file string) (func() error, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	log.SetReportTimestamp(true)

	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if file == "auto" {
		if file, err = config.LogFile(); err != nil {
			return nil, err
		}
	}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil { //nolint:gosec
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closer = f.Close
	}

	log.SetOutput(out)
	if file == "" && term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(log.TextFormatter)
	} else {
		log.SetFormatter(log.LogfmtFormatter)
	}
	return closer, nil
}
