package metrics

// NoopCollector discards all events.
type NoopCollector struct{}

// NewNoopCollector creates a no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (NoopCollector) ContextCreated()   {}
func (NoopCollector) ContextDestroyed() {}
func (NoopCollector) FenceQueued()      {}
func (NoopCollector) FencesDrained(int) {}
func (NoopCollector) HistoryCreated()   {}
func (NoopCollector) HistoryDestroyed() {}
