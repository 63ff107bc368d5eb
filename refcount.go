package upscaler

import (
	"sync/atomic"
)

// RefCounter is implemented by objects whose lifetime is governed by an
// explicit reference count. The object is torn down by the Release call that
// drops the count to zero.
type RefCounter interface {
	AddRef() uint32
	Release() uint32
	RefCount() uint32
}

// refCount is an atomic reference counter shared by ContextState and
// HistoryRecord. Each owner embeds its own refCount; the counts are never
// shared between ownership domains.
type refCount struct {
	n atomic.Int32
}

// init sets the count for a freshly constructed object.
func (r *refCount) init(n int32) {
	r.n.Store(n)
}

// add increments the count and returns the new value.
func (r *refCount) add() uint32 {
	n := r.n.Add(1)
	if n <= 1 {
		panic("upscaler: AddRef on released object")
	}
	return uint32(n)
}

// release decrements the count and returns the new value.
// The caller tears the object down when release returns 0.
func (r *refCount) release() uint32 {
	n := r.n.Add(-1)
	if n < 0 {
		panic("upscaler: too many releases")
	}
	return uint32(n)
}

func (r *refCount) load() uint32 {
	return uint32(r.n.Load())
}
