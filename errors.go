package upscaler

import "errors"

var (
	// ErrNilBackend is returned when a context is created without a backend.
	ErrNilBackend = errors.New("upscaler: backend is nil")

	// ErrContextCreated is returned when CreateContext is called on a
	// ContextState that already owns an algorithm context.
	ErrContextCreated = errors.New("upscaler: context already created")
)
