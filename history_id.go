package upscaler

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// MaxHistoryBuffers is the number of history slots an orchestrator keeps per
// view. A ContextState can be referenced from every slot at once during a
// configuration transition.
const MaxHistoryBuffers = 3

// DebugName identifies the temporal upscaler in frame-history bookkeeping.
const DebugName = "gogpu.TemporalUpscaler"

// UpscalerName returns the fixed name of the temporal upscaler.
func UpscalerName() string {
	return DebugName
}

var historyIdentifier = sync.OnceValue(func() uint64 {
	return xxhash.Sum64String(DebugName)
})

// IdentifierFromDebugName returns the numeric identifier derived from
// DebugName. It is computed on first use and identical for every caller.
func IdentifierFromDebugName() uint64 {
	return historyIdentifier()
}
