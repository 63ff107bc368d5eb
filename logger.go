package upscaler

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/upscaler/metrics"
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
// SetLogger can be called concurrently with logging from any goroutine,
// including the goroutine that drops the last reference to a context.
var loggerPtr atomic.Pointer[slog.Logger]

// collectorPtr stores the active metrics collector.
var collectorPtr atomic.Pointer[metrics.Collector]

func init() {
	loggerPtr.Store(newNopLogger())
	var c metrics.Collector = metrics.NewNoopCollector()
	collectorPtr.Store(&c)
}

// SetLogger configures the logger for upscaler and its sub-packages.
// By default, upscaler produces no log output. Pass nil to restore the
// default silent behavior.
//
// Log levels used by upscaler:
//   - [slog.LevelDebug]: context creation and teardown, fence draining
//   - [slog.LevelWarn]: teardown of a context that was never created,
//     backend fence errors
//
// Example:
//
//	upscaler.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by upscaler.
// Sub-packages (backend/wgpu) call this to share the same configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// SetCollector installs the metrics collector that receives lifetime events.
// Pass nil to restore the no-op collector.
func SetCollector(c metrics.Collector) {
	if c == nil {
		c = metrics.NewNoopCollector()
	}
	collectorPtr.Store(&c)
}

// collector returns the active metrics collector.
func collector() metrics.Collector {
	return *collectorPtr.Load()
}
