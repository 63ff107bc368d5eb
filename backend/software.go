package backend

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gogpu/upscaler"
)

// ErrInvalidParams is returned by the software backend for parameter sets it
// cannot build a context for.
var ErrInvalidParams = errors.New("backend: invalid context parameters")

// BackendSoftware is the name of the CPU-based software backend.
const BackendSoftware = "software"

// init registers the software backend on package import.
func init() {
	Register(ProviderSoftware, BackendSoftware, NewSoftware())
}

// Software is a CPU backend that hands out context handles without touching a
// GPU. It is safe for concurrent use.
type Software struct {
	next      atomic.Uintptr
	destroyed atomic.Int64

	mu   sync.Mutex
	live map[upscaler.ContextHandle]upscaler.ContextParams
}

// NewSoftware creates a software backend with no live contexts.
func NewSoftware() *Software {
	return &Software{live: make(map[upscaler.ContextHandle]upscaler.ContextParams)}
}

// CreateContext allocates a new handle for params.
func (s *Software) CreateContext(params *upscaler.ContextParams) (upscaler.ContextHandle, error) {
	if params == nil {
		return 0, ErrInvalidParams
	}
	h := upscaler.ContextHandle(s.next.Add(1))

	s.mu.Lock()
	s.live[h] = *params
	s.mu.Unlock()
	return h, nil
}

// DestroyContext forgets handle. A zero handle is a context that was never
// created and is ignored.
func (s *Software) DestroyContext(handle upscaler.ContextHandle) {
	if handle == 0 {
		return
	}
	s.mu.Lock()
	_, ok := s.live[handle]
	delete(s.live, handle)
	s.mu.Unlock()

	if !ok {
		upscaler.Logger().Warn("backend: destroy of unknown software context", "handle", uintptr(handle))
		return
	}
	s.destroyed.Add(1)
}

// Live returns the number of contexts created and not yet destroyed.
func (s *Software) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Destroyed returns the number of contexts destroyed so far.
func (s *Software) Destroyed() int64 {
	return s.destroyed.Load()
}

// Params returns the parameters a live context was created with.
func (s *Software) Params(handle upscaler.ContextHandle) (upscaler.ContextParams, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.live[handle]
	return p, ok
}
