package upscaler

import (
	"github.com/gogpu/gputypes"
)

// ContextHandle is the opaque algorithm context produced by a Backend.
// The zero value means no context has been created.
type ContextHandle uintptr

// ContextFlags selects optional behavior of the temporal upscaling algorithm.
// These flags can be combined with bitwise OR.
type ContextFlags uint32

const (
	// FlagHighDynamicRange marks the color input as HDR (linear, unclamped).
	FlagHighDynamicRange ContextFlags = 1 << iota

	// FlagDepthInverted marks the depth buffer as reversed-Z.
	FlagDepthInverted

	// FlagDepthInfinite marks the projection as using an infinite far plane.
	FlagDepthInfinite

	// FlagAutoExposure asks the algorithm to compute its own exposure.
	FlagAutoExposure

	// FlagDynamicResolution allows the render size to change every frame.
	FlagDynamicResolution

	// FlagDisplayResolutionMotionVectors marks motion vectors as rendered
	// at output resolution instead of render resolution.
	FlagDisplayResolutionMotionVectors

	// FlagMotionVectorsJitterCancellation marks motion vectors as already
	// containing the camera jitter offset.
	FlagMotionVectorsJitterCancellation
)

// Has reports whether all bits of flag are set.
func (f ContextFlags) Has(flag ContextFlags) bool {
	return f&flag == flag
}

// ContextParams is the creation-parameter snapshot a ContextState keeps for
// the lifetime of its algorithm context. Orchestrators compare it against the
// parameters of the current frame to decide whether a context can be reused.
type ContextParams struct {
	// MaxRenderSize is the largest input resolution the context accepts.
	MaxRenderSize gputypes.Extent3D

	// MaxUpscaleSize is the output resolution.
	MaxUpscaleSize gputypes.Extent3D

	// OutputFormat is the pixel format of the upscaled output.
	OutputFormat gputypes.TextureFormat

	// Flags selects optional algorithm behavior.
	Flags ContextFlags

	// Version is the algorithm version requested from the provider.
	Version uint64
}

// Backend creates and destroys algorithm contexts.
//
// DestroyContext is called exactly once per ContextState, synchronously, on
// whichever goroutine drops the last reference. Implementations must either be
// safe for concurrent use or be driven by an orchestrator that releases
// ContextStates from a single goroutine.
type Backend interface {
	// CreateContext builds an algorithm context for params.
	CreateContext(params *ContextParams) (ContextHandle, error)

	// DestroyContext tears down a context returned by CreateContext.
	// It is also called with a zero handle when a ContextState is released
	// without ever having created a context.
	DestroyContext(handle ContextHandle)
}

// Fence signals completion of previously submitted GPU work.
type Fence interface {
	// IsValid reports whether the fence refers to real submitted work.
	IsValid() bool

	// Poll reports, without blocking, whether the work has completed.
	Poll() bool
}

// fenceReleaser is implemented by fences that own backend resources.
// Release is called once the fence leaves the activity queue.
type fenceReleaser interface {
	Release()
}

// SharedResource is a reference-counted resource owned by an external pool,
// such as a motion-vector render target.
type SharedResource interface {
	AddRef() uint32
	Release() uint32
}

// sizedResource is implemented by resources that can report their GPU footprint.
type sizedResource interface {
	SizeBytes() uint64
}
