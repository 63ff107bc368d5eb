package backend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/upscaler"
)

// Provider IDs.
const (
	// ProviderSoftware is the CPU backend registered by this package.
	ProviderSoftware uint32 = 0
	// ProviderNative is the GPU provider backed by gogpu/wgpu.
	ProviderNative uint32 = 1
)

// ErrBackendNotAvailable is returned when a requested provider is not registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Provider describes a registered backend.
type Provider struct {
	ID   uint32
	Name string
}

type entry struct {
	name    string
	backend upscaler.Backend
}

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[uint32]entry)
	// Priority order for Default (first available wins).
	providerPriority = []uint32{ProviderNative, ProviderSoftware}
)

// Register registers a backend under the given provider ID.
// This is typically called from init() functions in backend packages.
// If a backend with the same ID is already registered, it will be replaced.
// Every ContextState created for the ID shares the registered backend.
func Register(id uint32, name string, b upscaler.Backend) {
	if b == nil {
		panic("backend: Register with nil backend")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[id] = entry{name: name, backend: b}
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(id uint32) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, id)
}

// Available returns the registered providers ordered by ID.
func Available() []Provider {
	registryMu.RLock()
	defer registryMu.RUnlock()

	providers := make([]Provider, 0, len(backends))
	for id, e := range backends {
		providers = append(providers, Provider{ID: id, Name: e.name})
	}
	slices.SortFunc(providers, func(a, b Provider) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return providers
}

// IsRegistered checks if a backend with the given provider ID is registered.
func IsRegistered(id uint32) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[id]
	return ok
}

// Get returns the backend registered under id.
func Get(id uint32) (upscaler.Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: provider %d", ErrBackendNotAvailable, id)
	}
	return e.backend, nil
}

// Default returns the best available provider based on priority.
// Priority order: native > software, then the lowest registered ID.
func Default() (uint32, upscaler.Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, id := range providerPriority {
		if e, ok := backends[id]; ok {
			return id, e.backend, nil
		}
	}

	// Fallback: lowest registered ID
	var (
		bestID uint32
		best   upscaler.Backend
	)
	for id, e := range backends {
		if best == nil || id < bestID {
			bestID, best = id, e.backend
		}
	}
	if best == nil {
		return 0, nil, ErrBackendNotAvailable
	}
	return bestID, best, nil
}

// NewContextState creates a ContextState on the backend registered under
// provider and records provider and view on it. The caller owns the returned
// reference.
func NewContextState(provider, view uint32) (*upscaler.ContextState, error) {
	b, err := Get(provider)
	if err != nil {
		return nil, err
	}
	s := upscaler.NewContextState(b)
	s.RequestedProvider = provider
	s.ViewID = view
	return s, nil
}
