package sim

import (
	"fmt"

	"github.com/gogpu/hello/d3d12"
)

// signalOp is a queued fence signal that completes after every command
// list submitted before it.
type signalOp struct {
	fence  *Fence
	value  uint64
	serial uint64
}

// The GPU timeline lives on the API so that all queues share it.
// Fields are guarded by API.mu.
type timeline struct {
	submitted uint64 // serial of the last executed batch
	done      uint64 // serial of the last completed batch
	pending   []signalOp
}

// Queue implements d3d12.CommandQueue.
type Queue struct {
	*object
	api *API
}

var _ d3d12.CommandQueue = (*Queue)(nil)

// ExecuteCommandLists implements d3d12.CommandQueue. Resource state changes
// of the lists are applied immediately, in submission order.
func (q *Queue) ExecuteCommandLists(lists ...d3d12.GraphicsCommandList) error {
	native := make([]*CommandList, len(lists))
	for i, l := range lists {
		cl, ok := d3d12.Native(l).(*CommandList)
		if !ok {
			return fmt.Errorf("%w: list %T", d3d12.ErrWrongObject, l)
		}
		if cl.recording {
			return d3d12.ErrListOpen
		}
		native[i] = cl
	}
	if err := q.api.check("ExecuteCommandLists"); err != nil {
		return err
	}
	for _, cl := range native {
		if err := cl.apply(); err != nil {
			return err
		}
	}

	a := q.api
	a.mu.Lock()
	a.gpu.submitted++
	serial := a.gpu.submitted
	for _, cl := range native {
		cl.alloc.lastSerial = serial
	}
	if !a.lazy {
		a.gpu.done = serial
	}
	a.mu.Unlock()

	a.record("ExecuteCommandLists", uint64(len(lists)), "")
	return nil
}

// Signal implements d3d12.CommandQueue.
func (q *Queue) Signal(fence d3d12.Fence, value uint64) error {
	f, ok := d3d12.Native(fence).(*Fence)
	if !ok {
		return fmt.Errorf("%w: fence %T", d3d12.ErrWrongObject, fence)
	}
	if err := q.api.check("Signal"); err != nil {
		return err
	}
	q.api.record("Signal", value, "")

	a := q.api
	a.mu.Lock()
	a.gpu.pending = append(a.gpu.pending, signalOp{fence: f, value: value, serial: a.gpu.submitted})
	a.mu.Unlock()

	if !a.lazy {
		a.Tick()
	}
	return nil
}

// Tick lets the simulated GPU finish all submitted work.
func (a *API) Tick() {
	for a.step(nil, 0) {
	}
}

// step completes the oldest pending signal. When target is set, it stops
// (returning false) once target reached until.
func (a *API) step(target *Fence, until uint64) bool {
	a.mu.Lock()
	if len(a.gpu.pending) == 0 || (target != nil && target.completed >= until) {
		a.mu.Unlock()
		return false
	}
	op := a.gpu.pending[0]
	a.gpu.pending = a.gpu.pending[1:]
	if op.serial > a.gpu.done {
		a.gpu.done = op.serial
	}
	op.fence.completed = op.value
	fired := op.fence.takeWaiters()
	a.mu.Unlock()

	a.record("GPU.Complete", op.value, "")
	for _, ev := range fired {
		ev.Signal()
	}
	return true
}

// Allocator implements d3d12.CommandAllocator.
type Allocator struct {
	*object
	api        *API
	lastSerial uint64 // guarded by api.mu
}

// Reset implements d3d12.CommandAllocator. It fails with
// d3d12.ErrAllocatorInFlight while work recorded from it has not completed.
func (a *Allocator) Reset() error {
	if err := a.api.check("Allocator.Reset"); err != nil {
		return err
	}
	a.api.mu.Lock()
	last, done := a.lastSerial, a.api.gpu.done
	a.api.mu.Unlock()
	if last > done {
		a.api.record("Allocator.Reset", 0, "in flight")
		return fmt.Errorf("%w: batch %d not done (gpu at %d)", d3d12.ErrAllocatorInFlight, last, done)
	}
	a.api.record("Allocator.Reset", 0, "")
	return nil
}

type waiter struct {
	value uint64
	ev    *d3d12.Event
}

// Fence implements d3d12.Fence.
type Fence struct {
	*object
	api       *API
	completed uint64 // guarded by api.mu
	waiters   []waiter
}

var _ d3d12.Fence = (*Fence)(nil)

// CompletedValue implements d3d12.Fence.
func (f *Fence) CompletedValue() uint64 {
	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	return f.completed
}

// SetEventOnCompletion implements d3d12.Fence. With a lazy GPU, waiting is
// what makes the GPU progress.
func (f *Fence) SetEventOnCompletion(value uint64, ev *d3d12.Event) error {
	if err := f.api.check("SetEventOnCompletion"); err != nil {
		return err
	}
	f.api.record("SetEventOnCompletion", value, "")

	f.api.mu.Lock()
	if f.completed >= value {
		f.api.mu.Unlock()
		ev.Signal()
		return nil
	}
	f.waiters = append(f.waiters, waiter{value: value, ev: ev})
	f.api.mu.Unlock()

	for f.api.step(f, value) {
	}
	return nil
}

// takeWaiters removes and returns the events whose value was reached.
// Called with api.mu held.
func (f *Fence) takeWaiters() []*d3d12.Event {
	var fired []*d3d12.Event
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if f.completed >= w.value {
			fired = append(fired, w.ev)
		} else {
			kept = append(kept, w)
		}
	}
	f.waiters = kept
	return fired
}
