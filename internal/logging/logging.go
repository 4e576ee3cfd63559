// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Setup installs a text handler writing to w as the default logger.
// Verbose enables debug output; otherwise only warnings and errors are written.
func Setup(verbose bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	logger := slog.New(NewContextHandler(slog.NewTextHandler(w, opts)))
	slog.SetDefault(logger)
	return logger
}

// SetupFile opens (or creates) the log file at path and installs it as the
// default sink. The caller closes the returned file.
func SetupFile(verbose bool, path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	Setup(verbose, f)
	return f, nil
}

// ContextHandler adds the fields stored in the context to every record
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h with context field enrichment
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	fields := GetFields(ctx)
	if fields.SessionID != "" {
		r.AddAttrs(slog.String("session_id", fields.SessionID))
	}
	if fields.ThreadID != "" {
		r.AddAttrs(slog.String("thread_id", fields.ThreadID))
	}
	if fields.RunID != "" {
		r.AddAttrs(slog.String("run_id", fields.RunID))
	}
	if fields.Component != "" {
		r.AddAttrs(slog.String("component", fields.Component))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
