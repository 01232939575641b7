// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lithammer/shortuuid/v4"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewRunID returns a short unique id identifying one invocation.
func NewRunID() string {
	return shortuuid.New()
}

// New creates a tint logger writing to w. Colour is used only when w is a
// terminal. Every record carries the run id.
func New(w io.Writer, verbose bool, runID string) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isTerminal(w),
	})

	logger := slog.New(handler)
	if runID != "" {
		logger = logger.With("run", runID)
	}
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
