// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halnative

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hello/d3d12"
)

// Queue implements d3d12.CommandQueue on the device's hal queue.
type Queue struct {
	device   *Device
	last     uint64
	released bool
}

var _ d3d12.CommandQueue = (*Queue)(nil)

// ExecuteCommandLists implements d3d12.CommandQueue.
func (q *Queue) ExecuteCommandLists(lists ...d3d12.GraphicsCommandList) error {
	bufs := make([]hal.CommandBuffer, 0, len(lists))
	for _, list := range lists {
		l, ok := d3d12.Native(list).(*CommandList)
		if !ok || l.device != q.device {
			return fmt.Errorf("%w: command list %T", d3d12.ErrWrongObject, list)
		}
		if l.recording {
			return d3d12.ErrListOpen
		}
		if l.cmdBuf == nil {
			return fmt.Errorf("%w: command list has nothing to execute", d3d12.ErrInvalidArg)
		}
		bufs = append(bufs, l.cmdBuf)
	}

	idx, err := q.device.submit(bufs)
	if err != nil {
		return err
	}
	q.last = idx
	return nil
}

// Signal implements d3d12.CommandQueue. The fence reaches value once the
// device's latest submission completes.
func (q *Queue) Signal(fence d3d12.Fence, value uint64) error {
	f, ok := d3d12.Native(fence).(*Fence)
	if !ok || f.device != q.device {
		return fmt.Errorf("%w: fence %T", d3d12.ErrWrongObject, fence)
	}
	f.signal(value, q.device.lastSubmission())
	return nil
}

// Release implements d3d12.CommandQueue after waiting for the queue's
// last submission.
func (q *Queue) Release() {
	if q.released {
		return
	}
	q.released = true
	if err := q.device.waitSubmission(q.last); err != nil {
		slogger().Warn("halnative: queue released with work in flight", "submission", q.last, "error", err)
	}
}

// Allocator implements d3d12.CommandAllocator. It owns the command buffers
// of the lists recorded from it and frees them on Reset.
type Allocator struct {
	device   *Device
	recorded []hal.CommandBuffer
	released bool
}

var _ d3d12.CommandAllocator = (*Allocator)(nil)

func (a *Allocator) track(buf hal.CommandBuffer) {
	a.recorded = append(a.recorded, buf)
}

// Reset implements d3d12.CommandAllocator.
func (a *Allocator) Reset() error {
	if a.released {
		return fmt.Errorf("%w: allocator released", d3d12.ErrInvalidArg)
	}
	for _, buf := range a.recorded {
		a.device.hal.FreeCommandBuffer(buf)
	}
	a.recorded = a.recorded[:0]
	return nil
}

// Release implements d3d12.CommandAllocator.
func (a *Allocator) Release() {
	if a.released {
		return
	}
	_ = a.Reset()
	a.released = true
}

// Fence implements d3d12.Fence as a timeline over queue submissions:
// each signaled value completes with the submission it was queued behind.
type Fence struct {
	device *Device

	mu        sync.Mutex
	pending   []fencePoint
	completed uint64
}

// fencePoint is a value waiting for a submission index.
type fencePoint struct {
	value      uint64
	submission uint64
}

var _ d3d12.Fence = (*Fence)(nil)

func (f *Fence) signal(value, submission uint64) {
	f.mu.Lock()
	f.pending = append(f.pending, fencePoint{value: value, submission: submission})
	f.mu.Unlock()
	f.advance(f.device.queue.PollCompleted())
}

// advance completes every point whose submission is done.
func (f *Fence) advance(done uint64) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	keep := f.pending[:0]
	for _, p := range f.pending {
		if p.submission <= done {
			if p.value > f.completed {
				f.completed = p.value
			}
			continue
		}
		keep = append(keep, p)
	}
	f.pending = keep
	return f.completed
}

// submissionFor returns the submission index that completes value, and
// false if no signal up to value is pending.
func (f *Fence) submissionFor(value uint64) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pending {
		if p.value >= value {
			return p.submission, true
		}
	}
	return 0, false
}

// CompletedValue implements d3d12.Fence.
func (f *Fence) CompletedValue() uint64 {
	return f.advance(f.device.queue.PollCompleted())
}

// SetEventOnCompletion implements d3d12.Fence. The wait runs on its own
// goroutine, which signals ev when the fence reaches value or the wait
// fails.
func (f *Fence) SetEventOnCompletion(value uint64, ev *d3d12.Event) error {
	if ev == nil {
		return fmt.Errorf("%w: nil event", d3d12.ErrInvalidArg)
	}
	if f.CompletedValue() >= value {
		ev.Signal()
		return nil
	}
	submission, ok := f.submissionFor(value)
	if !ok {
		return fmt.Errorf("%w: value %d was never signaled", d3d12.ErrInvalidArg, value)
	}
	go f.waitFor(submission, ev)
	return nil
}

func (f *Fence) waitFor(submission uint64, ev *d3d12.Event) {
	defer ev.Signal()
	if err := f.device.waitSubmission(submission); err != nil {
		slogger().Warn("halnative: fence wait failed", "submission", submission, "error", err)
		return
	}
	f.advance(submission)
}

// Release implements d3d12.Fence. The timeline holds no hal objects.
func (f *Fence) Release() {
	f.mu.Lock()
	f.pending = nil
	f.mu.Unlock()
}
