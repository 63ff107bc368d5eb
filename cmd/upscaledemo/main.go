// Command upscaledemo drives the upscaler core through a simulated frame loop.
//
// The orchestration loop runs on the main goroutine and owns PollActivity.
// A submission goroutine owns PushActivity, and a simulated GPU signals
// fences a few frames after submission. Halfway through, the output
// resolution changes and every view transitions to a new context while the
// old one is still referenced by older history slots.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/prometheus/common/expfmt"

	"github.com/gogpu/upscaler"
	"github.com/gogpu/upscaler/backend"
	"github.com/gogpu/upscaler/metrics"
)

// retireAfter is how many frames an idle, superseded context is kept before
// the orchestrator drops its reference.
const retireAfter = 4

func main() {
	var (
		frames   = flag.Int("frames", 240, "number of frames to simulate")
		resizeAt = flag.Int("resize-at", 120, "frame at which the output resolution changes")
		views    = flag.Int("views", 2, "number of views")
		latency  = flag.Duration("gpu-latency", 2*time.Millisecond, "simulated GPU latency per submission")
		verbose  = flag.Bool("v", false, "enable debug logging")
		dump     = flag.Bool("metrics", false, "print Prometheus metrics on exit")
	)
	flag.Parse()

	if *verbose {
		upscaler.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	collector := metrics.NewPrometheusCollector()
	upscaler.SetCollector(collector)

	sw := backend.NewSoftware()
	backend.Register(backend.ProviderSoftware, backend.BackendSoftware, sw)

	gpu := newSimulatedGPU(*latency)
	sub := newSubmitter(gpu)

	o := &orchestrator{views: make([]*view, *views), sub: sub}
	for i := range o.views {
		o.views[i] = &view{id: uint32(i)}
	}

	for frame := 0; frame < *frames; frame++ {
		params := paramsFor(frame >= *resizeAt)
		if err := o.frame(uint64(frame), params); err != nil {
			log.Fatalf("frame %d: %v", frame, err)
		}
		time.Sleep(time.Millisecond)
	}

	sub.close()
	gpu.close()
	o.shutdown()

	log.Printf("frames=%d contexts destroyed=%d live=%d", *frames, sw.Destroyed(), sw.Live())
	if sw.Live() != 0 {
		log.Fatalf("leaked %d contexts", sw.Live())
	}

	if *dump {
		families, err := collector.Registry().Gather()
		if err != nil {
			log.Fatalf("gather metrics: %v", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
				log.Fatalf("write metrics: %v", err)
			}
		}
	}
}

func paramsFor(resized bool) upscaler.ContextParams {
	p := upscaler.ContextParams{
		MaxRenderSize:  gputypes.Extent3D{Width: 1280, Height: 720, DepthOrArrayLayers: 1},
		MaxUpscaleSize: gputypes.Extent3D{Width: 1920, Height: 1080, DepthOrArrayLayers: 1},
		OutputFormat:   gputypes.TextureFormatRGBA8Unorm,
		Flags:          upscaler.FlagDepthInverted | upscaler.FlagAutoExposure,
	}
	if resized {
		p.MaxRenderSize = gputypes.Extent3D{Width: 1920, Height: 1080, DepthOrArrayLayers: 1}
		p.MaxUpscaleSize = gputypes.Extent3D{Width: 3840, Height: 2160, DepthOrArrayLayers: 1}
	}
	return p
}

// view is the per-view history kept by the orchestrator.
type view struct {
	id      uint32
	slots   [upscaler.MaxHistoryBuffers]*upscaler.HistoryRecord
	next    int
	retired []*upscaler.ContextState
}

type orchestrator struct {
	views []*view
	sub   *submitter
}

func (o *orchestrator) frame(frame uint64, params upscaler.ContextParams) error {
	for _, v := range o.views {
		if err := o.frameView(v, frame, params); err != nil {
			return err
		}
	}
	return nil
}

func (o *orchestrator) frameView(v *view, frame uint64, params upscaler.ContextParams) error {
	var prev *upscaler.HistoryRecord
	if i := (v.next + len(v.slots) - 1) % len(v.slots); v.slots[i] != nil {
		prev = v.slots[i]
	}

	var state *upscaler.ContextState
	if prev != nil {
		state = prev.Context()
	}
	var touched []*upscaler.ContextState
	if state == nil || state.Params != params {
		next, err := backend.NewContextState(backend.ProviderSoftware, v.id)
		if err != nil {
			return err
		}
		if err := next.CreateContext(params); err != nil {
			next.Release()
			return err
		}
		if state != nil {
			// The old context is still read this frame while its history is resolved.
			state.AddRef()
			v.retired = append(v.retired, state)
			touched = append(touched, state)
		}
		state = next
		defer state.Release()
	}
	state.MarkUsed(frame)
	touched = append(touched, state)

	mv := newMotionVectors(params.MaxRenderSize)
	record := upscaler.NewHistoryRecord(state, mv)
	mv.Release()
	record.HistoryIdentifier()

	if old := v.slots[v.next]; old != nil {
		old.Release()
	}
	v.slots[v.next] = record
	v.next = (v.next + 1) % len(v.slots)

	o.sub.submit(touched)
	// Drain completed work so the current queue stays short.
	state.PollActivity()

	kept := v.retired[:0]
	for _, s := range v.retired {
		if s.PollActivity() && frame-s.LastUsedFrame() > retireAfter {
			s.Release()
			continue
		}
		kept = append(kept, s)
	}
	v.retired = kept
	return nil
}

func (o *orchestrator) shutdown() {
	for _, v := range o.views {
		for i, h := range v.slots {
			if h == nil {
				continue
			}
			for !h.Context().PollActivity() {
				time.Sleep(time.Millisecond)
			}
			h.Release()
			v.slots[i] = nil
		}
		for _, s := range v.retired {
			for !s.PollActivity() {
				time.Sleep(time.Millisecond)
			}
			s.Release()
		}
		v.retired = nil
	}
}

// submitter is the single producer for every activity queue.
type submitter struct {
	work chan []*upscaler.ContextState
	gpu  *simulatedGPU
	wg   sync.WaitGroup
}

func newSubmitter(gpu *simulatedGPU) *submitter {
	s := &submitter{work: make(chan []*upscaler.ContextState, 16), gpu: gpu}
	s.wg.Add(1)
	go s.run()
	return s
}

// submit hands states to the submission goroutine, which owns the added references.
func (s *submitter) submit(states []*upscaler.ContextState) {
	for _, st := range states {
		st.AddRef()
	}
	s.work <- states
}

func (s *submitter) run() {
	defer s.wg.Done()
	for states := range s.work {
		f := backend.NewManualFence()
		for _, st := range states {
			st.PushActivity(f)
			st.Release()
		}
		s.gpu.enqueue(f)
	}
}

func (s *submitter) close() {
	close(s.work)
	s.wg.Wait()
}

// simulatedGPU signals fences in submission order after a fixed latency.
type simulatedGPU struct {
	fences  chan *backend.ManualFence
	latency time.Duration
	wg      sync.WaitGroup
}

func newSimulatedGPU(latency time.Duration) *simulatedGPU {
	g := &simulatedGPU{fences: make(chan *backend.ManualFence, 64), latency: latency}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		for f := range g.fences {
			time.Sleep(g.latency)
			f.Signal()
		}
	}()
	return g
}

func (g *simulatedGPU) enqueue(f *backend.ManualFence) {
	g.fences <- f
}

func (g *simulatedGPU) close() {
	close(g.fences)
	g.wg.Wait()
}

// motionVectors is a pooled render target stand-in.
type motionVectors struct {
	refs atomic.Int32
	size uint64
}

func newMotionVectors(extent gputypes.Extent3D) *motionVectors {
	mv := &motionVectors{size: uint64(extent.Width) * uint64(extent.Height) * 4}
	mv.refs.Store(1)
	return mv
}

func (m *motionVectors) AddRef() uint32    { return uint32(m.refs.Add(1)) }
func (m *motionVectors) Release() uint32   { return uint32(m.refs.Add(-1)) }
func (m *motionVectors) SizeBytes() uint64 { return m.size }
