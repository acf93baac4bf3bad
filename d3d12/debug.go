package d3d12

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/hello"
)

// The debug layer wraps a device and the queues, allocators and command
// lists it creates. It tracks resource states across barriers and which
// allocators have work in flight, reporting misuse through the logger and
// through errors from Close and Reset.

type debugDevice struct {
	Device

	mu     sync.Mutex
	states map[any]ResourceState // keyed by native resource
}

func newDebugDevice(d Device) Device {
	slogger().Info("d3d12: debug layer enabled")
	return &debugDevice{Device: d, states: make(map[any]ResourceState)}
}

func (d *debugDevice) Unwrap() any { return d.Device }

func (d *debugDevice) CreateCommandQueue(typ CommandListType) (CommandQueue, error) {
	q, err := d.Device.CreateCommandQueue(typ)
	if err != nil {
		return nil, err
	}
	return &debugQueue{CommandQueue: q, dev: d}, nil
}

func (d *debugDevice) CreateCommandAllocator(typ CommandListType) (CommandAllocator, error) {
	a, err := d.Device.CreateCommandAllocator(typ)
	if err != nil {
		return nil, err
	}
	return &debugAllocator{CommandAllocator: a}, nil
}

func (d *debugDevice) CreateCommandList(typ CommandListType, alloc CommandAllocator, pso PipelineState) (GraphicsCommandList, error) {
	da, ok := alloc.(*debugAllocator)
	if !ok {
		return nil, fmt.Errorf("%w: allocator %T was not created by the debug device", ErrWrongObject, alloc)
	}
	l, err := d.Device.CreateCommandList(typ, da.CommandAllocator, pso)
	if err != nil {
		return nil, err
	}
	dl := &debugList{GraphicsCommandList: l, dev: d, alloc: da, recording: true}
	dl.begin()
	return dl, nil
}

func (d *debugDevice) state(res Resource) (ResourceState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[Native(res)]
	return s, ok
}

func (d *debugDevice) commit(states map[any]ResourceState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, v := range states {
		d.states[k] = v
	}
}

// submission is a batch of work from one allocator, stamped with the fence
// value that marks its completion once the queue signals.
type submission struct {
	fence Fence
	value uint64
}

type debugAllocator struct {
	CommandAllocator

	mu      sync.Mutex
	pending []submission
}

func (a *debugAllocator) Unwrap() any { return a.CommandAllocator }

func (a *debugAllocator) Reset() error {
	a.mu.Lock()
	pending := a.pending
	a.mu.Unlock()

	for _, s := range pending {
		if s.fence == nil {
			err := fmt.Errorf("%w: executed work was never followed by a fence signal", ErrAllocatorInFlight)
			slogger().Warn("d3d12 debug: "+err.Error())
			return err
		}
		if done := s.fence.CompletedValue(); done < s.value {
			err := fmt.Errorf("%w: fence completed %d < %d", ErrAllocatorInFlight, done, s.value)
			slogger().Warn("d3d12 debug: "+err.Error())
			return err
		}
	}

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()
	return a.CommandAllocator.Reset()
}

func (a *debugAllocator) executed() {
	a.mu.Lock()
	a.pending = append(a.pending, submission{})
	a.mu.Unlock()
}

func (a *debugAllocator) stamp(f Fence, v uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.pending {
		if a.pending[i].fence == nil {
			a.pending[i] = submission{fence: f, value: v}
		}
	}
}

type debugQueue struct {
	CommandQueue
	dev *debugDevice

	mu       sync.Mutex
	unsigned []*debugAllocator
}

func (q *debugQueue) Unwrap() any { return q.CommandQueue }

func (q *debugQueue) ExecuteCommandLists(lists ...GraphicsCommandList) error {
	native := make([]GraphicsCommandList, len(lists))
	for i, l := range lists {
		dl, ok := l.(*debugList)
		if !ok {
			return fmt.Errorf("%w: list %T was not created by the debug device", ErrWrongObject, l)
		}
		if dl.recording {
			return ErrListOpen
		}
		native[i] = dl.GraphicsCommandList
	}
	if err := q.CommandQueue.ExecuteCommandLists(native...); err != nil {
		return err
	}

	q.mu.Lock()
	for _, l := range lists {
		dl := l.(*debugList)
		q.dev.commit(dl.states)
		dl.alloc.executed()
		q.unsigned = append(q.unsigned, dl.alloc)
	}
	q.mu.Unlock()
	return nil
}

func (q *debugQueue) Signal(fence Fence, value uint64) error {
	if err := q.CommandQueue.Signal(fence, value); err != nil {
		return err
	}
	q.mu.Lock()
	for _, a := range q.unsigned {
		a.stamp(fence, value)
	}
	q.unsigned = q.unsigned[:0]
	q.mu.Unlock()
	return nil
}

type debugList struct {
	GraphicsCommandList
	dev   *debugDevice
	alloc *debugAllocator

	recording bool
	rtvBound  bool
	states    map[any]ResourceState
	errs      []error
}

func (l *debugList) Unwrap() any { return l.GraphicsCommandList }

func (l *debugList) begin() {
	l.recording = true
	l.rtvBound = false
	l.states = make(map[any]ResourceState)
	l.errs = nil
}

func (l *debugList) report(err error) {
	slogger().Warn("d3d12 debug: " + err.Error())
	l.errs = append(l.errs, err)
}

func (l *debugList) Reset(alloc CommandAllocator, pso PipelineState) error {
	da, ok := alloc.(*debugAllocator)
	if !ok {
		return fmt.Errorf("%w: allocator %T was not created by the debug device", ErrWrongObject, alloc)
	}
	if l.recording {
		return ErrListOpen
	}
	if err := l.GraphicsCommandList.Reset(da.CommandAllocator, pso); err != nil {
		return err
	}
	l.alloc = da
	l.begin()
	return nil
}

func (l *debugList) Close() error {
	if !l.recording {
		return ErrListClosed
	}
	l.recording = false
	err := l.GraphicsCommandList.Close()
	return errors.Join(append(l.errs, err)...)
}

func (l *debugList) ResourceBarrier(barriers ...ResourceBarrier) {
	if !l.recording {
		l.report(fmt.Errorf("%w: ResourceBarrier", ErrListClosed))
		return
	}
	for _, b := range barriers {
		key := Native(b.Resource)
		cur, ok := l.states[key]
		if !ok {
			cur, ok = l.dev.state(b.Resource)
		}
		if ok && cur != b.StateBefore {
			l.report(fmt.Errorf("%w: resource is in %s, barrier expects %s", ErrInvalidBarrier, cur, b.StateBefore))
		}
		l.states[key] = b.StateAfter
	}
	l.GraphicsCommandList.ResourceBarrier(barriers...)
}

func (l *debugList) OMSetRenderTargets(rtv CPUDescriptorHandle) {
	if !l.recording {
		l.report(fmt.Errorf("%w: OMSetRenderTargets", ErrListClosed))
		return
	}
	l.rtvBound = true
	l.GraphicsCommandList.OMSetRenderTargets(rtv)
}

func (l *debugList) ClearRenderTargetView(rtv CPUDescriptorHandle, c hello.Color) {
	if !l.recording {
		l.report(fmt.Errorf("%w: ClearRenderTargetView", ErrListClosed))
		return
	}
	l.GraphicsCommandList.ClearRenderTargetView(rtv, c)
}

func (l *debugList) DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) {
	if !l.recording {
		l.report(fmt.Errorf("%w: DrawInstanced", ErrListClosed))
		return
	}
	if !l.rtvBound {
		slogger().Warn("d3d12 debug: draw without a render target bound")
	}
	l.GraphicsCommandList.DrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance)
}
