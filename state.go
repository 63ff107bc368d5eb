package upscaler

import (
	"fmt"
	"sync/atomic"
)

// FrameNever is the LastUsedFrame of a ContextState that has not been used yet.
const FrameNever = ^uint64(0)

// ContextState owns one algorithm context and keeps it alive across frames.
//
// The context is destroyed through the Backend exactly once, by the Release
// call that drops the reference count to zero. Destruction does not wait for
// GPU work: the activity queue is an advisory signal the orchestrator consults
// through PollActivity before it decides to drop its references.
//
// Threading:
//   - AddRef, Release and RefCount are safe from any goroutine.
//   - PushActivity belongs to one producer goroutine (GPU submission).
//   - PollActivity belongs to one consumer goroutine (frame orchestration).
//   - Handle, Params, ViewID, RequestedProvider and the last-used frame are
//     plain fields. Callers serialize writes, normally by mutating them only
//     from the orchestration goroutine.
type ContextState struct {
	// Handle is the algorithm context. It is zero until populated by
	// CreateContext or directly by the caller.
	Handle ContextHandle

	// Params is the snapshot of the parameters Handle was created with.
	Params ContextParams

	// ViewID identifies the view this context was created for.
	ViewID uint32

	// RequestedProvider is the backend provider ID the orchestrator asked for.
	RequestedProvider uint32

	backend       Backend
	lastUsedFrame uint64
	created       bool

	refs   refCount
	fences *fenceQueue

	// producing and consuming detect overlapping calls from a second
	// producer or consumer goroutine.
	producing atomic.Bool
	consuming atomic.Bool
}

// NewContextState binds a new ContextState to backend. The caller holds the
// only reference. The algorithm context is not created until CreateContext.
//
// NewContextState panics if backend is nil.
func NewContextState(backend Backend) *ContextState {
	if backend == nil {
		panic(ErrNilBackend)
	}
	s := &ContextState{
		backend:       backend,
		lastUsedFrame: FrameNever,
		fences:        newFenceQueue(),
	}
	s.refs.init(1)
	collector().ContextCreated()
	return s
}

// CreateContext snapshots params and asks the backend for an algorithm
// context. It must be called at most once, before the state is shared.
func (s *ContextState) CreateContext(params ContextParams) error {
	if s.created {
		return ErrContextCreated
	}
	handle, err := s.backend.CreateContext(&params)
	if err != nil {
		return fmt.Errorf("upscaler: create context for view %d: %w", s.ViewID, err)
	}
	s.Params = params
	s.Handle = handle
	s.created = true
	Logger().Debug("upscaler: context created",
		"view", s.ViewID, "provider", s.RequestedProvider, "handle", uintptr(handle))
	return nil
}

// Backend returns the backend that owns the algorithm context.
func (s *ContextState) Backend() Backend {
	return s.backend
}

// AddRef adds a reference and returns the new count.
func (s *ContextState) AddRef() uint32 {
	return s.refs.add()
}

// Release drops a reference and returns the new count. When the count
// reaches zero the algorithm context is destroyed on the calling goroutine
// and the ContextState must not be used again.
func (s *ContextState) Release() uint32 {
	n := s.refs.release()
	if n == 0 {
		s.destroy()
	}
	return n
}

// RefCount returns the current number of references.
func (s *ContextState) RefCount() uint32 {
	return s.refs.load()
}

func (s *ContextState) destroy() {
	drained := 0
	for {
		f, ok := s.fences.pop()
		if !ok {
			break
		}
		releaseFence(f)
		drained++
	}

	if !s.created && s.Handle == 0 {
		Logger().Warn("upscaler: destroying context that was never created", "view", s.ViewID)
	}
	s.backend.DestroyContext(s.Handle)
	Logger().Debug("upscaler: context destroyed",
		"view", s.ViewID, "handle", uintptr(s.Handle), "pending_fences", drained)
	s.Handle = 0

	c := collector()
	c.FencesDrained(drained)
	c.ContextDestroyed()
}

// PushActivity records a fence for GPU work that reads or writes resources
// owned by this context. It never blocks.
//
// Only the submission goroutine may call PushActivity. Overlapping calls
// from two goroutines panic. f must be valid: an invalid fence stalls
// PollActivity until the state is destroyed.
func (s *ContextState) PushActivity(f Fence) {
	if !s.producing.CompareAndSwap(false, true) {
		panic("upscaler: concurrent PushActivity; fences must be pushed from a single goroutine")
	}
	defer s.producing.Store(false)

	s.fences.enqueue(f)
	collector().FenceQueued()
}

// PollActivity drains completed fences in submission order and reports
// whether no known GPU work is outstanding. It never blocks.
//
// Draining stops at the first fence that is invalid or not yet complete, even
// if later fences have completed. Fences complete in submission order, so
// a later completion implies nothing about an earlier invalid fence.
//
// Only the orchestration goroutine may call PollActivity. Overlapping calls
// from two goroutines panic.
func (s *ContextState) PollActivity() bool {
	if !s.consuming.CompareAndSwap(false, true) {
		panic("upscaler: concurrent PollActivity; fences must be polled from a single goroutine")
	}
	defer s.consuming.Store(false)

	drained := 0
	for {
		f, ok := s.fences.peek()
		if !ok || f == nil || !f.IsValid() || !f.Poll() {
			break
		}
		s.fences.pop()
		releaseFence(f)
		drained++
	}
	if drained > 0 {
		collector().FencesDrained(drained)
		Logger().Debug("upscaler: fences drained", "view", s.ViewID, "count", drained)
	}
	return s.fences.isEmpty()
}

// PendingFences returns the number of queued fences. The value is
// approximate while the producer is pushing.
func (s *ContextState) PendingFences() int {
	return s.fences.size()
}

// LastUsedFrame returns the last frame the orchestrator marked, or FrameNever.
func (s *ContextState) LastUsedFrame() uint64 {
	return s.lastUsedFrame
}

// MarkUsed records that the context was used in frame. The counter never
// moves backwards: older frame numbers are ignored.
func (s *ContextState) MarkUsed(frame uint64) {
	if s.lastUsedFrame == FrameNever || frame > s.lastUsedFrame {
		s.lastUsedFrame = frame
	}
}

func releaseFence(f Fence) {
	if r, ok := f.(fenceReleaser); ok {
		r.Release()
	}
}
