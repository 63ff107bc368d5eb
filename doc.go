// Package upscaler manages the persistent GPU state of a temporal upscaler
// across frames.
//
// # Overview
//
// A temporal upscaler keeps an algorithm context and per-view history (motion
// vectors of the previous frame) alive between frames. That state must not be
// destroyed while GPU work that reads it is still in flight, and it is shared
// by several history slots while a view changes resolution or configuration.
//
// Two types cover this:
//   - ContextState owns one algorithm context, destroys it through the Backend
//     on last Release, and tracks outstanding GPU fences in a lock-free
//     single-producer single-consumer queue.
//   - HistoryRecord is the per-view history. It holds a shared reference to a
//     ContextState and to a motion-vector resource, and has its own
//     reference count.
//
// # Threading
//
// Reference counting is safe from any goroutine. Fences are pushed by a single
// submission goroutine (PushActivity) and polled by a single orchestration
// goroutine (PollActivity). Overlapping calls from a second goroutine panic.
//
// # Usage
//
//	state := upscaler.NewContextState(be)
//	if err := state.CreateContext(params); err != nil {
//	    return err
//	}
//	history := upscaler.NewHistoryRecord(state, motionVectors)
//	state.Release() // history now owns the only reference
//
//	// submission goroutine
//	state.PushActivity(fence)
//
//	// next frame, orchestration goroutine
//	if history.Context().PollActivity() {
//	    // no GPU work in flight: safe to recreate on resize
//	}
//
// Backends live in sub-packages: backend provides a registry and a software
// backend, backend/wgpu submits work and tracks fences through wgpu/hal.
package upscaler

// Compile-time interface checks.
var (
	_ RefCounter     = (*ContextState)(nil)
	_ RefCounter     = (*HistoryRecord)(nil)
	_ SharedResource = (*HistoryRecord)(nil)
)
