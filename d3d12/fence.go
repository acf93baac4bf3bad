package d3d12

import (
	"fmt"
)

// FenceSync keeps the CPU from reusing command memory the GPU still reads.
// It owns one fence and one event and hands out strictly increasing fence
// values, one per submitted frame, starting at 1.
type FenceSync struct {
	queue CommandQueue
	fence Fence
	event *Event

	next     uint64 // value the next SignalAndWait signals
	signaled uint64 // last value signaled, 0 before the first frame
}

// NewFenceSync creates the fence at 0 and the wake event.
func NewFenceSync(device Device, queue CommandQueue) (*FenceSync, error) {
	fence, err := device.CreateFence(0)
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &FenceSync{
		queue: queue,
		fence: fence,
		event: NewEvent(),
		next:  1,
	}, nil
}

// SignalAndWait asks the queue to signal the next fence value after all
// submitted work, then blocks until the GPU reaches it. It returns the
// value that was waited for.
func (s *FenceSync) SignalAndWait() (uint64, error) {
	v := s.next
	if err := s.queue.Signal(s.fence, v); err != nil {
		return 0, fmt.Errorf("signal fence %d: %w", v, err)
	}
	s.signaled = v
	s.next++

	if s.fence.CompletedValue() < v {
		if err := s.fence.SetEventOnCompletion(v, s.event); err != nil {
			return v, fmt.Errorf("set event on fence %d: %w", v, err)
		}
		s.event.Wait()
		if got := s.fence.CompletedValue(); got < v {
			return v, fmt.Errorf("%w: completed %d, want %d", ErrFenceWait, got, v)
		}
	}
	slogger().Debug("d3d12: fence reached", "value", v)
	return v, nil
}

// Flush waits for all work submitted so far.
func (s *FenceSync) Flush() error {
	_, err := s.SignalAndWait()
	return err
}

// Idle reports whether the GPU has finished everything signaled so far,
// i.e. whether command memory may be reset.
func (s *FenceSync) Idle() bool {
	return s.fence.CompletedValue() >= s.signaled
}

// NextValue returns the value the next SignalAndWait will use.
func (s *FenceSync) NextValue() uint64 { return s.next }

// LastSignaled returns the last value signaled, 0 if none.
func (s *FenceSync) LastSignaled() uint64 { return s.signaled }

// Completed returns the fence's completed value.
func (s *FenceSync) Completed() uint64 { return s.fence.CompletedValue() }

// Fence returns the underlying fence.
func (s *FenceSync) Fence() Fence { return s.fence }

// Release releases the fence. The event needs no release.
func (s *FenceSync) Release() {
	if s.fence != nil {
		s.fence.Release()
		s.fence = nil
	}
}
