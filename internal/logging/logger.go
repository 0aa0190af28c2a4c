// Package logging builds the slog.Logger used across mstools.
//
// Log entries go to stderr so stdout stays reserved for reports and
// completion scripts. An optional rotated file copy captures the same
// entries in plain text (or JSON) for postmortems of long clone runs.
// There is no package-level logger: callers construct one and inject it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for the optional log file.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 3
	fileMaxAgeDays = 28
)

// Options selects the console level and output streams.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool

	// NoColor disables ANSI colors regardless of terminal detection.
	NoColor bool

	// File, when set, mirrors every entry to a rotated log file.
	File string

	// JSON emits JSON records instead of human-readable text.
	JSON bool
}

// New constructs a logger per the options. It never fails: a bad file path
// surfaces as write errors later, handled (and dropped) by lumberjack.
func New(opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var fileWriter io.Writer
	if opts.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		}
	}

	if opts.JSON {
		w := io.Writer(os.Stderr)
		if fileWriter != nil {
			w = io.MultiWriter(os.Stderr, fileWriter)
		}
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	console := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    opts.NoColor || !shouldUseColors(os.Stderr),
	})
	if fileWriter == nil {
		return slog.New(console)
	}

	// The file copy is plain text: full timestamps, no colors.
	file := slog.NewTextHandler(fileWriter, &slog.HandlerOptions{Level: level})
	return slog.New(NewMultiHandler(console, file))
}

// isTerminal checks if the given file is a terminal (TTY)
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// shouldUseColors determines if colored output should be used
// based on terminal capabilities and environment settings
func shouldUseColors(f *os.File) bool {
	if !isTerminal(f) {
		return false
	}

	// Respect NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Don't use colors for dumb terminals
	term := os.Getenv("TERM")
	if term == "dumb" || term == "" {
		return false
	}

	return true
}

// MultiHandler writes to multiple handlers
type MultiHandler struct {
	handlers []slog.Handler
}

func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: newHandlers}
}

func (h *MultiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: newHandlers}
}
