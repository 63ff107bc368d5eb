package upscaler

import (
	"errors"
	"sync"
	"sync/atomic"
)

// mockBackend records context creation and destruction.
type mockBackend struct {
	mu        sync.Mutex
	next      ContextHandle
	created   []ContextParams
	destroyed []ContextHandle
	failNext  bool
}

var errMockCreate = errors.New("mock create failed")

func (b *mockBackend) CreateContext(params *ContextParams) (ContextHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNext {
		b.failNext = false
		return 0, errMockCreate
	}
	b.next++
	b.created = append(b.created, *params)
	return b.next, nil
}

func (b *mockBackend) DestroyContext(handle ContextHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = append(b.destroyed, handle)
}

func (b *mockBackend) destroyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.destroyed)
}

// mockFence is a fence whose state is set by the test.
type mockFence struct {
	invalid  atomic.Bool
	done     atomic.Bool
	polls    atomic.Int32
	released atomic.Int32
}

func newDoneFence() *mockFence {
	f := &mockFence{}
	f.done.Store(true)
	return f
}

func (f *mockFence) IsValid() bool { return !f.invalid.Load() }

func (f *mockFence) Poll() bool {
	f.polls.Add(1)
	return f.done.Load()
}

func (f *mockFence) Release() { f.released.Add(1) }

// plainFence has no Release method.
type plainFence struct{ done bool }

func (f plainFence) IsValid() bool { return true }
func (f plainFence) Poll() bool    { return f.done }

// mockResource is a pooled render target stand-in.
type mockResource struct {
	refs atomic.Int32
	size uint64
}

func (r *mockResource) AddRef() uint32    { return uint32(r.refs.Add(1)) }
func (r *mockResource) Release() uint32   { return uint32(r.refs.Add(-1)) }
func (r *mockResource) SizeBytes() uint64 { return r.size }

// recordingCollector counts lifetime events.
type recordingCollector struct {
	contextsCreated   atomic.Int32
	contextsDestroyed atomic.Int32
	fencesQueued      atomic.Int32
	fencesDrained     atomic.Int32
	historyCreated    atomic.Int32
	historyDestroyed  atomic.Int32
}

func (c *recordingCollector) ContextCreated()     { c.contextsCreated.Add(1) }
func (c *recordingCollector) ContextDestroyed()   { c.contextsDestroyed.Add(1) }
func (c *recordingCollector) FenceQueued()        { c.fencesQueued.Add(1) }
func (c *recordingCollector) FencesDrained(n int) { c.fencesDrained.Add(int32(n)) }
func (c *recordingCollector) HistoryCreated()     { c.historyCreated.Add(1) }
func (c *recordingCollector) HistoryDestroyed()   { c.historyDestroyed.Add(1) }
