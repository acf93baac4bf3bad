package d3d12

import (
	"fmt"

	"github.com/gogpu/hello"
)

// State is the renderer's position in the frame cycle.
type State int

const (
	// StateIdle means no resources are bound.
	StateIdle State = iota
	// StateReady means bound and waiting for Render.
	StateReady
	// StateRecording means commands for a frame are being recorded.
	StateRecording
	// StateSubmitted means the frame is queued and the CPU waits on the fence.
	StateSubmitted
	// StateFailed means a frame failed; the renderer refuses further frames.
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReady:
		return "Ready"
	case StateRecording:
		return "Recording"
	case StateSubmitted:
		return "Submitted"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Pipeline is what a sample draws with. The zero Pipeline draws three
// vertices with no pipeline state, as the hello-window sample does.
type Pipeline struct {
	// State is passed to the command list reset. May be nil.
	State PipelineState

	// Bind records input bindings (vertex buffers, root constant buffers)
	// right before the draw.
	Bind func(list GraphicsCommandList)

	// VertexCount defaults to 3.
	VertexCount uint32
}

// FrameStats describes a completed frame.
type FrameStats struct {
	Frame           uint64 // 1-based frame number
	FenceValue      uint64
	BackBufferIndex uint32 // buffer rendered and presented
	NextIndex       uint32 // current buffer after present
}

// RendererOption configures a Renderer.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	clear        hello.Color
	pipeline     Pipeline
	syncInterval uint32
	onError      func(error)
	onFrame      func(FrameStats)
}

// WithClearColor sets the background color.
func WithClearColor(c hello.Color) RendererOption {
	return func(o *rendererOptions) { o.clear = c }
}

// WithPipeline sets what the renderer draws.
func WithPipeline(p Pipeline) RendererOption {
	return func(o *rendererOptions) { o.pipeline = p }
}

// WithSyncInterval sets the present sync interval. The default is 1.
func WithSyncInterval(n uint32) RendererOption {
	return func(o *rendererOptions) { o.syncInterval = n }
}

// WithErrorHandler registers a callback that receives the first frame
// failure.
func WithErrorHandler(fn func(error)) RendererOption {
	return func(o *rendererOptions) { o.onError = fn }
}

// WithFrameObserver registers a callback invoked after every completed frame.
func WithFrameObserver(fn func(FrameStats)) RendererOption {
	return func(o *rendererOptions) { o.onFrame = fn }
}

// Renderer records and presents one frame per Render call, blocking until
// the GPU finishes it before returning.
type Renderer struct {
	res   *Resources
	opts  rendererOptions
	state State
	err   error
	frame uint64
}

// NewRenderer moves from Idle to Ready on res.
func NewRenderer(res *Resources, opts ...RendererOption) (*Renderer, error) {
	if res == nil {
		return nil, hello.SetupError("new renderer", ErrNotBound)
	}
	if res.Released() {
		return nil, hello.SetupError("new renderer", ErrReleased)
	}
	o := rendererOptions{
		clear:        hello.CornflowerNavy,
		syncInterval: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pipeline.VertexCount == 0 {
		o.pipeline.VertexCount = 3
	}
	return &Renderer{res: res, opts: o, state: StateReady}, nil
}

// State returns the current state. Between Render calls it is Ready,
// Failed or (after Close) Idle.
func (r *Renderer) State() State { return r.state }

// Err returns the failure that moved the renderer to StateFailed.
func (r *Renderer) Err() error { return r.err }

// Frames returns the number of completed frames.
func (r *Renderer) Frames() uint64 { return r.frame }

// Resources returns the bound resources, nil after Close.
func (r *Renderer) Resources() *Resources { return r.res }

// Render records, submits and presents one frame, then waits for the GPU.
// Failures are fatal: they carry hello.PhaseFrame and every later call
// returns the same failure wrapped in ErrRendererFailed.
func (r *Renderer) Render() error {
	switch r.state {
	case StateReady:
		if r.res.Released() {
			return hello.FrameError("render", ErrReleased)
		}
	case StateFailed:
		return fmt.Errorf("%w: %w", ErrRendererFailed, r.err)
	case StateIdle:
		return hello.FrameError("render", ErrReleased)
	default:
		return hello.FrameError("render", fmt.Errorf("%w: render called in state %s", ErrInvalidArg, r.state))
	}
	if err := r.render(); err != nil {
		r.fail(err)
		return r.err
	}
	return nil
}

func (r *Renderer) fail(err error) {
	r.state = StateFailed
	r.err = hello.FrameError("render", err)
	slogger().Error("d3d12: frame failed", "frame", r.frame+1, "err", err)
	if r.opts.onError != nil {
		r.opts.onError(r.err)
	}
}

func (r *Renderer) render() error {
	res := r.res
	list := res.list
	idx := res.frameIndex
	target, err := res.RenderTarget(idx)
	if err != nil {
		return err
	}
	rtv, err := res.RTV(idx)
	if err != nil {
		return err
	}
	p := r.opts.pipeline

	// 1. Reset. The previous frame's fence wait makes this safe; check it
	// anyway since a reset under the GPU is undefined.
	if !res.fence.Idle() {
		return fmt.Errorf("%w: completed %d < signaled %d",
			ErrAllocatorInFlight, res.fence.Completed(), res.fence.LastSignaled())
	}
	if err := res.allocator.Reset(); err != nil {
		return fmt.Errorf("reset allocator: %w", err)
	}
	if err := list.Reset(res.allocator, p.State); err != nil {
		return fmt.Errorf("reset command list: %w", err)
	}
	r.state = StateRecording

	// 2. Rasterizer state.
	list.RSSetViewports(res.viewport)
	list.RSSetScissorRects(res.scissor)

	// 3. Present -> RenderTarget.
	list.ResourceBarrier(Transition(target, ResourceStatePresent, ResourceStateRenderTarget))

	// 4. Clear and draw.
	list.OMSetRenderTargets(rtv)
	list.ClearRenderTargetView(rtv, r.opts.clear)
	list.IASetPrimitiveTopology(PrimitiveTopologyTriangleList)
	if p.Bind != nil {
		p.Bind(list)
	}
	list.DrawInstanced(p.VertexCount, 1, 0, 0)

	// 5. RenderTarget -> Present.
	list.ResourceBarrier(Transition(target, ResourceStateRenderTarget, ResourceStatePresent))

	// 6. Close.
	if err := list.Close(); err != nil {
		return fmt.Errorf("close command list: %w", err)
	}

	// 7. Submit and present.
	if err := res.queue.ExecuteCommandLists(list); err != nil {
		return fmt.Errorf("execute command list: %w", err)
	}
	r.state = StateSubmitted
	if err := res.swapChain.Present(r.opts.syncInterval, 0); err != nil {
		return fmt.Errorf("present: %w", err)
	}

	// 8. Wait for the GPU, then pick up the new back buffer.
	value, err := res.fence.SignalAndWait()
	if err != nil {
		return err
	}
	next := res.swapChain.CurrentBackBufferIndex()
	if int(next) >= len(res.targets) {
		return fmt.Errorf("%w: back buffer index %d out of range [0, %d)", ErrInvalidArg, next, len(res.targets))
	}
	res.frameIndex = next
	r.state = StateReady
	r.frame++

	slogger().Debug("d3d12: frame presented",
		"frame", r.frame,
		"fence", value,
		"buffer", idx,
		"next", next,
	)
	if r.opts.onFrame != nil {
		r.opts.onFrame(FrameStats{
			Frame:           r.frame,
			FenceValue:      value,
			BackBufferIndex: idx,
			NextIndex:       next,
		})
	}
	return nil
}

// Close waits for the GPU to finish submitted work and releases the
// resources. After a frame failure the wait is skipped, and resources
// already released elsewhere are left alone. Close moves the renderer to
// Idle and is safe to call more than once.
func (r *Renderer) Close() error {
	if r.res == nil {
		return nil
	}
	if r.res.Released() {
		r.res = nil
		if r.state != StateFailed {
			r.state = StateIdle
		}
		return nil
	}
	var err error
	if r.state != StateFailed && r.res.fence.LastSignaled() > 0 {
		if ferr := r.res.fence.Flush(); ferr != nil {
			err = hello.FrameError("flush", ferr)
		}
	}
	r.res.Release()
	r.res = nil
	if r.state != StateFailed {
		r.state = StateIdle
	}
	return err
}
