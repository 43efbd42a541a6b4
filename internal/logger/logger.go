package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

const (
	red   = "\x1b[31m"
	reset = "\x1b[0m"
)

// New returns the service logger writing to stdout.
// Kubernetes, prod and dev get JSON at info; anything else gets text at debug
// with error messages in red.
func New() *slog.Logger {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	env := os.Getenv("ENV")
	return NewWithWriter(os.Stdout, inK8s || env == "prod" || env == "dev")
}

func NewWithWriter(w io.Writer, useJSON bool) *slog.Logger {
	if useJSON {
		return slog.New(&contextHandler{
			Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo, AddSource: true}),
		})
	}
	return slog.New(&contextHandler{
		Handler:     slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}),
		colorErrors: true,
	})
}

func NewWithServiceContext(serviceName, version string) *slog.Logger {
	return New().With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", os.Getenv("ENV")),
	)
}

// Err wraps an error as a log attribute.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// contextHandler stamps trace_id/span_id from the record's context.
type contextHandler struct {
	slog.Handler
	colorErrors bool
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.colorErrors && r.Level >= slog.LevelError {
		painted := slog.NewRecord(r.Time, r.Level, red+r.Message+reset, r.PC)
		r.Attrs(func(a slog.Attr) bool {
			painted.AddAttrs(a)
			return true
		})
		r = painted
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), colorErrors: h.colorErrors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), colorErrors: h.colorErrors}
}
