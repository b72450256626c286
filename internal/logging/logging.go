// Package logging builds the logr.Logger used across awsbrowse. The TUI owns
// the terminal, so logs only ever go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logger appending to path at the given verbosity, and a
// function that closes the file. An empty path discards everything.
func New(path string, verbosity int) (logr.Logger, func() error, error) {
	if path == "" {
		return logr.Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewWriter(f, verbosity), f.Close, nil
}

// NewWriter returns a logger writing one JSON object per line to w.
func NewWriter(w io.Writer, verbosity int) logr.Logger {
	return funcr.NewJSON(func(obj string) {
		fmt.Fprintln(w, obj)
	}, funcr.Options{
		LogTimestamp: true,
		Verbosity:    verbosity,
	}).WithName("awsbrowse")
}
