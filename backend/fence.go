package backend

import (
	"sync/atomic"
)

const (
	fencePending int32 = iota
	fenceSignaled
	fenceInvalid
)

// ManualFence is a fence completed by an explicit Signal call.
// All methods are safe for concurrent use.
type ManualFence struct {
	state atomic.Int32
}

// NewManualFence returns a pending fence.
func NewManualFence() *ManualFence {
	return &ManualFence{}
}

// Signal marks the fence complete.
func (f *ManualFence) Signal() {
	f.state.CompareAndSwap(fencePending, fenceSignaled)
}

// Invalidate marks the fence as not referring to real work.
func (f *ManualFence) Invalidate() {
	f.state.Store(fenceInvalid)
}

// IsValid reports whether the fence has not been invalidated.
func (f *ManualFence) IsValid() bool {
	return f.state.Load() != fenceInvalid
}

// Poll reports whether the fence has been signalled.
func (f *ManualFence) Poll() bool {
	return f.state.Load() == fenceSignaled
}
