package upscaler

import (
	"sync/atomic"
)

// HistoryRecord carries the state a temporal upscaler needs from one frame to
// the next for a single view: a shared ContextState and the motion vectors of
// the previous frame.
//
// A HistoryRecord has its own reference count, independent of the count on
// the ContextState it holds. Releasing the last reference to a record drops
// the record's references to its ContextState and motion vectors; the
// ContextState is only destroyed if that was its last reference too.
//
// Reads (Context, MotionVectors and the accessors built on them) observe
// either the old or the new state across a concurrent SetState, never a
// partially updated one. Mutation of one record must still be serialized by
// the caller.
type HistoryRecord struct {
	state         atomic.Pointer[ContextState]
	motionVectors SharedResource

	historyID         atomic.Uint64
	historyIDResolved atomic.Bool

	refs refCount
}

// NewHistoryRecord creates a record holding a reference to state and to
// motionVectors. Both references are added here; the caller keeps its own.
// motionVectors may be nil.
//
// NewHistoryRecord panics if state is nil.
func NewHistoryRecord(state *ContextState, motionVectors SharedResource) *HistoryRecord {
	if state == nil {
		panic("upscaler: NewHistoryRecord with nil ContextState")
	}
	state.AddRef()
	if motionVectors != nil {
		motionVectors.AddRef()
	}

	h := &HistoryRecord{motionVectors: motionVectors}
	h.state.Store(state)
	h.refs.init(1)
	collector().HistoryCreated()
	return h
}

// Context returns the held ContextState, or nil if the record holds none.
// The returned pointer is borrowed: AddRef it to keep it past the record.
func (h *HistoryRecord) Context() *ContextState {
	return h.state.Load()
}

// MotionVectors returns the motion-vector resource of the previous frame.
func (h *HistoryRecord) MotionVectors() SharedResource {
	return h.motionVectors
}

// ContextHandle returns the algorithm context of the held state, or zero.
func (h *HistoryRecord) ContextHandle() ContextHandle {
	if s := h.state.Load(); s != nil {
		return s.Handle
	}
	return 0
}

// ContextParams returns the creation parameters of the held state.
// ok is false if the record holds no state.
func (h *HistoryRecord) ContextParams() (params ContextParams, ok bool) {
	if s := h.state.Load(); s != nil {
		return s.Params, true
	}
	return ContextParams{}, false
}

// SetState replaces the held ContextState with state, which may be nil.
// The new state gains a reference before the old one loses its reference,
// so setting the state a record already holds is safe. Releasing the old
// state may destroy it on the calling goroutine.
func (h *HistoryRecord) SetState(state *ContextState) {
	if state != nil {
		state.AddRef()
	}
	if old := h.state.Swap(state); old != nil {
		old.Release()
	}
}

// DebugName returns the name of the upscaler that produced this history.
func (h *HistoryRecord) DebugName() string {
	return UpscalerName()
}

// GPUSizeBytes returns the GPU memory held by the record's motion vectors,
// if the resource reports it.
func (h *HistoryRecord) GPUSizeBytes() uint64 {
	if r, ok := h.motionVectors.(sizedResource); ok {
		return r.SizeBytes()
	}
	return 0
}

// HistoryIdentifier returns the identifier derived from the upscaler debug
// name, resolving it on first use.
func (h *HistoryRecord) HistoryIdentifier() uint64 {
	if !h.historyIDResolved.Load() {
		h.historyID.Store(IdentifierFromDebugName())
		h.historyIDResolved.Store(true)
	}
	return h.historyID.Load()
}

// HasHistoryIdentifier reports whether HistoryIdentifier has been resolved.
func (h *HistoryRecord) HasHistoryIdentifier() bool {
	return h.historyIDResolved.Load()
}

// AddRef adds a reference to the record and returns the new count.
func (h *HistoryRecord) AddRef() uint32 {
	return h.refs.add()
}

// Release drops a reference to the record and returns the new count. The
// last release drops the record's references to its state and motion vectors.
func (h *HistoryRecord) Release() uint32 {
	n := h.refs.release()
	if n == 0 {
		h.SetState(nil)
		if h.motionVectors != nil {
			h.motionVectors.Release()
			h.motionVectors = nil
		}
		collector().HistoryDestroyed()
	}
	return n
}

// RefCount returns the number of references to the record.
func (h *HistoryRecord) RefCount() uint32 {
	return h.refs.load()
}
