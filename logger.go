package hello

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for hello and all its sub-packages.
// By default, nothing is logged. Pass nil to restore the silent default.
//
// Log levels used by the samples:
//   - [slog.LevelDebug]: per-frame diagnostics (fence values, back-buffer index)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, swap chain bound)
//   - [slog.LevelWarn]: validation-layer findings, release errors
//
// Example:
//
//	hello.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
// Sub-packages (d3d12, eventloop, glsample, ...) call this to share the same
// logger configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// SampleLogger returns the current logger tagged with the sample name.
// It reads the logger on every call, so a later SetLogger takes effect.
func SampleLogger(name string) *slog.Logger {
	return Logger().With("sample", name)
}
