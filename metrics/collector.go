// Package metrics exposes lifetime counters for upscaler contexts, history
// records and in-flight GPU fences.
//
// The upscaler package reports through the Collector interface. By default a
// NoopCollector is installed; install a PrometheusCollector with
// upscaler.SetCollector to export the counters.
package metrics

// Collector receives lifetime events from the upscaler core.
// Implementations must be safe for concurrent use: events arrive from the
// submission goroutine, the orchestration goroutine, and whichever goroutine
// drops the last reference to an object.
type Collector interface {
	// ContextCreated records a new ContextState.
	ContextCreated()

	// ContextDestroyed records a ContextState torn down on last release.
	ContextDestroyed()

	// FenceQueued records a fence pushed into an activity queue.
	FenceQueued()

	// FencesDrained records n fences removed from an activity queue,
	// either by completion or by context teardown.
	FencesDrained(n int)

	// HistoryCreated records a new HistoryRecord.
	HistoryCreated()

	// HistoryDestroyed records a HistoryRecord torn down on last release.
	HistoryDestroyed()
}
