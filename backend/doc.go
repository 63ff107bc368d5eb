// Package backend provides the provider registry and a software backend for
// upscaler contexts.
//
// # Provider Registration
//
// Each backend is registered under a numeric provider ID. ContextState
// records the ID it was requested with in RequestedProvider, so an
// orchestrator can tell which provider owns a context after a fallback:
//
//	state, err := backend.NewContextState(backend.ProviderSoftware, viewID)
//
// The software backend is registered on import. It hands out monotonically
// increasing context handles and tracks live contexts, which makes it a
// deterministic stand-in for a GPU provider in tests and tools.
//
// # Fences
//
// ManualFence is a fence whose completion is signalled explicitly, e.g. by a
// simulated GPU goroutine. GPU-backed fences live in backend/wgpu.
package backend
