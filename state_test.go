package upscaler

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
)

func withCollector(t *testing.T) *recordingCollector {
	t.Helper()
	c := &recordingCollector{}
	SetCollector(c)
	t.Cleanup(func() { SetCollector(nil) })
	return c
}

func TestNewContextState(t *testing.T) {
	be := &mockBackend{}
	s := NewContextState(be)

	if got := s.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}
	if s.Handle != 0 {
		t.Errorf("Handle = %d, want 0 before CreateContext", s.Handle)
	}
	if got := s.LastUsedFrame(); got != FrameNever {
		t.Errorf("LastUsedFrame() = %d, want FrameNever", got)
	}
	if s.Backend() != be {
		t.Error("Backend() did not return the bound backend")
	}
	if !s.PollActivity() {
		t.Error("PollActivity() = false on a fresh state, want true")
	}
}

func TestNewContextState_NilBackendPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNilBackend) {
			t.Errorf("recover() = %v, want ErrNilBackend", r)
		}
	}()
	NewContextState(nil)
}

func TestContextState_CreateContext(t *testing.T) {
	be := &mockBackend{}
	s := NewContextState(be)
	s.ViewID = 7

	params := ContextParams{
		MaxRenderSize:  gputypes.Extent3D{Width: 1280, Height: 720, DepthOrArrayLayers: 1},
		MaxUpscaleSize: gputypes.Extent3D{Width: 2560, Height: 1440, DepthOrArrayLayers: 1},
		OutputFormat:   gputypes.TextureFormatRGBA8Unorm,
		Flags:          FlagHighDynamicRange | FlagDepthInverted,
	}
	if err := s.CreateContext(params); err != nil {
		t.Fatalf("CreateContext() = %v", err)
	}
	if s.Handle == 0 {
		t.Error("Handle is zero after CreateContext")
	}
	if s.Params != params {
		t.Errorf("Params = %+v, want %+v", s.Params, params)
	}
	if len(be.created) != 1 {
		t.Errorf("backend CreateContext calls = %d, want 1", len(be.created))
	}

	if err := s.CreateContext(params); !errors.Is(err, ErrContextCreated) {
		t.Errorf("second CreateContext() = %v, want ErrContextCreated", err)
	}
	if len(be.created) != 1 {
		t.Errorf("backend CreateContext calls = %d after second call, want 1", len(be.created))
	}

	handle := s.Handle
	s.Release()
	if len(be.destroyed) != 1 || be.destroyed[0] != handle {
		t.Errorf("destroyed = %v, want [%d]", be.destroyed, handle)
	}
}

func TestContextState_CreateContextError(t *testing.T) {
	be := &mockBackend{failNext: true}
	s := NewContextState(be)
	defer s.Release()

	err := s.CreateContext(ContextParams{})
	if !errors.Is(err, errMockCreate) {
		t.Fatalf("CreateContext() = %v, want wrapped errMockCreate", err)
	}
	if s.Handle != 0 {
		t.Error("Handle set after failed CreateContext")
	}

	// A failed attempt does not consume the single creation.
	if err := s.CreateContext(ContextParams{}); err != nil {
		t.Errorf("CreateContext() after failure = %v", err)
	}
}

func TestContextState_DestroyExactlyOnce(t *testing.T) {
	c := withCollector(t)
	be := &mockBackend{}
	s := NewContextState(be)

	if got := s.AddRef(); got != 2 {
		t.Errorf("AddRef() = %d, want 2", got)
	}
	if got := s.AddRef(); got != 3 {
		t.Errorf("AddRef() = %d, want 3", got)
	}

	for want := uint32(2); want > 0; want-- {
		if got := s.Release(); got != want {
			t.Errorf("Release() = %d, want %d", got, want)
		}
		if be.destroyCount() != 0 {
			t.Fatalf("DestroyContext called with %d references left", want)
		}
	}

	if got := s.Release(); got != 0 {
		t.Errorf("final Release() = %d, want 0", got)
	}
	if got := be.destroyCount(); got != 1 {
		t.Errorf("DestroyContext calls = %d, want 1", got)
	}
	if got := c.contextsCreated.Load(); got != 1 {
		t.Errorf("ContextCreated events = %d, want 1", got)
	}
	if got := c.contextsDestroyed.Load(); got != 1 {
		t.Errorf("ContextDestroyed events = %d, want 1", got)
	}
}

func TestContextState_ConcurrentRefCounting(t *testing.T) {
	be := &mockBackend{}
	s := NewContextState(be)

	var wg sync.WaitGroup
	const goroutines = 64
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				s.AddRef()
				s.Release()
			}
		}()
	}
	wg.Wait()

	if got := s.RefCount(); got != 1 {
		t.Errorf("RefCount() = %d, want 1", got)
	}
	if got := be.destroyCount(); got != 0 {
		t.Fatalf("DestroyContext calls = %d while a reference is held", got)
	}
	s.Release()
	if got := be.destroyCount(); got != 1 {
		t.Errorf("DestroyContext calls = %d, want 1", got)
	}
}

func TestContextState_ConcurrentFinalRelease(t *testing.T) {
	be := &mockBackend{}
	s := NewContextState(be)

	const owners = 32
	for range owners - 1 {
		s.AddRef()
	}

	var wg sync.WaitGroup
	for range owners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Release()
		}()
	}
	wg.Wait()

	if got := be.destroyCount(); got != 1 {
		t.Errorf("DestroyContext calls = %d, want exactly 1", got)
	}
}

func TestPollActivity_FIFOCompletion(t *testing.T) {
	for _, n := range []int{1, 2, 5, 16} {
		s := NewContextState(&mockBackend{})
		fences := make([]*mockFence, n)
		for i := range fences {
			fences[i] = &mockFence{}
			s.PushActivity(fences[i])
		}

		for i, f := range fences {
			if s.PollActivity() {
				t.Fatalf("n=%d: PollActivity() = true with %d fences pending", n, n-i)
			}
			f.done.Store(true)
		}
		if !s.PollActivity() {
			t.Errorf("n=%d: PollActivity() = false after all fences completed", n)
		}
		if got := s.PendingFences(); got != 0 {
			t.Errorf("n=%d: PendingFences() = %d, want 0", n, got)
		}
		s.Release()
	}
}

func TestPollActivity_DrainsCompletedPrefix(t *testing.T) {
	c := withCollector(t)
	s := NewContextState(&mockBackend{})
	defer s.Release()

	f1 := newDoneFence()
	f2 := &mockFence{}
	s.PushActivity(f1)
	s.PushActivity(f2)

	if s.PollActivity() {
		t.Fatal("PollActivity() = true with F2 pending")
	}
	if got := s.PendingFences(); got != 1 {
		t.Errorf("PendingFences() = %d after draining F1, want 1", got)
	}
	if got := f1.released.Load(); got != 1 {
		t.Errorf("F1 released %d times, want 1", got)
	}
	if got := f2.released.Load(); got != 0 {
		t.Errorf("F2 released %d times while pending, want 0", got)
	}

	f2.done.Store(true)
	if !s.PollActivity() {
		t.Error("PollActivity() = false after F2 completed")
	}
	if got := f2.released.Load(); got != 1 {
		t.Errorf("F2 released %d times, want 1", got)
	}
	if got := c.fencesQueued.Load(); got != 2 {
		t.Errorf("FenceQueued events = %d, want 2", got)
	}
	if got := c.fencesDrained.Load(); got != 2 {
		t.Errorf("FencesDrained total = %d, want 2", got)
	}
}

func TestPollActivity_InvalidFenceStalls(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	f1 := &mockFence{}
	f1.invalid.Store(true)
	f1.done.Store(true)
	f2 := newDoneFence()
	s.PushActivity(f1)
	s.PushActivity(f2)

	for range 3 {
		if s.PollActivity() {
			t.Fatal("PollActivity() = true behind an invalid fence")
		}
	}
	if got := s.PendingFences(); got != 2 {
		t.Errorf("PendingFences() = %d, want 2 (nothing drained)", got)
	}
	if got := f1.polls.Load(); got != 0 {
		t.Errorf("invalid fence polled %d times, want 0", got)
	}
	if got := f2.polls.Load(); got != 0 {
		t.Errorf("fence behind the stall polled %d times, want 0", got)
	}

	f1.invalid.Store(false)
	if !s.PollActivity() {
		t.Error("PollActivity() = false once the stalled fence became valid")
	}
}

func TestPollActivity_NilFenceStalls(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	s.PushActivity(nil)
	if s.PollActivity() {
		t.Error("PollActivity() = true behind a nil fence")
	}
}

func TestPollActivity_FenceWithoutRelease(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	s.PushActivity(plainFence{done: true})
	if !s.PollActivity() {
		t.Error("PollActivity() = false after a completed fence")
	}
}

func TestContextState_DestroyReleasesPendingFences(t *testing.T) {
	c := withCollector(t)
	s := NewContextState(&mockBackend{})

	f1 := &mockFence{}
	f2 := &mockFence{}
	s.PushActivity(f1)
	s.PushActivity(f2)
	s.Release()

	if f1.released.Load() != 1 || f2.released.Load() != 1 {
		t.Errorf("released = (%d, %d), want (1, 1)", f1.released.Load(), f2.released.Load())
	}
	if got := c.fencesDrained.Load(); got != 2 {
		t.Errorf("FencesDrained total = %d, want 2", got)
	}
}

func TestPushActivity_OverlappingProducerPanics(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	s.producing.Store(true)
	defer s.producing.Store(false)
	defer func() {
		if recover() == nil {
			t.Error("expected panic from overlapping PushActivity")
		}
	}()
	s.PushActivity(newDoneFence())
}

func TestPollActivity_OverlappingConsumerPanics(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	s.consuming.Store(true)
	defer s.consuming.Store(false)
	defer func() {
		if recover() == nil {
			t.Error("expected panic from overlapping PollActivity")
		}
	}()
	s.PollActivity()
}

func TestContextState_ProducerConsumerGoroutines(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	const n = 2000
	fences := make([]*mockFence, n)
	for i := range fences {
		fences[i] = newDoneFence()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, f := range fences {
			s.PushActivity(f)
		}
	}()

	released := func() int {
		total := 0
		for _, f := range fences {
			total += int(f.released.Load())
		}
		return total
	}
	for released() < n {
		s.PollActivity()
	}
	wg.Wait()

	if !s.PollActivity() {
		t.Error("PollActivity() = false after every fence drained")
	}
}

func TestContextState_MarkUsed(t *testing.T) {
	s := NewContextState(&mockBackend{})
	defer s.Release()

	tests := []struct {
		frame uint64
		want  uint64
	}{
		{frame: 10, want: 10},
		{frame: 12, want: 12},
		{frame: 11, want: 12},
		{frame: 0, want: 12},
		{frame: 40, want: 40},
	}
	for _, tt := range tests {
		s.MarkUsed(tt.frame)
		if got := s.LastUsedFrame(); got != tt.want {
			t.Errorf("MarkUsed(%d): LastUsedFrame() = %d, want %d", tt.frame, got, tt.want)
		}
	}
}

func TestContextFlags_Has(t *testing.T) {
	f := FlagAutoExposure | FlagDynamicResolution
	if !f.Has(FlagAutoExposure) {
		t.Error("Has(FlagAutoExposure) = false")
	}
	if !f.Has(FlagAutoExposure | FlagDynamicResolution) {
		t.Error("Has(both) = false")
	}
	if f.Has(FlagDepthInfinite) {
		t.Error("Has(FlagDepthInfinite) = true")
	}
}

func BenchmarkPollActivity_Idle(b *testing.B) {
	s := NewContextState(&mockBackend{})
	defer s.Release()
	b.ReportAllocs()
	for b.Loop() {
		s.PollActivity()
	}
}
