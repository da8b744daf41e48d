package logx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// Options builds structured logger options for a level name.
func Options(level string) (pslog.Options, error) {
	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true}
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "", "info":
		opts.MinLevel = pslog.InfoLevel
	case "warn", "warning":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	default:
		return pslog.Options{}, fmt.Errorf("unknown log level %q", level)
	}
	return opts, nil
}

// New returns a structured logger writing to w.
func New(w io.Writer, level string) (pslog.Logger, error) {
	opts, err := Options(level)
	if err != nil {
		return nil, err
	}
	return pslog.NewWithOptions(w, opts), nil
}

// OpenFile appends structured logs to path. The terminal belongs to the UI,
// so the workspace never logs to stderr while it runs.
func OpenFile(path, level string) (pslog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log, err := New(f, level)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return log, f, nil
}

// WithTab annotates the logger with a tab id when present.
func WithTab(log pslog.Logger, tabID string) pslog.Logger {
	if tabID != "" {
		log = log.With("tab", tabID)
	}
	return log
}

// WithPage annotates the logger with the workspace page.
func WithPage(log pslog.Logger, page string) pslog.Logger {
	if page != "" {
		log = log.With("page", page)
	}
	return log
}
