package d3d12

import "context"

// Event is an auto-reset event: Signal wakes exactly one Wait, and a
// Signal with no waiter is remembered until the next Wait.
type Event struct {
	ch chan struct{}
}

// NewEvent returns an unsignaled event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{}, 1)}
}

// Signal sets the event. Signaling a set event is a no-op.
func (e *Event) Signal() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until the event is set, then resets it.
func (e *Event) Wait() {
	<-e.ch
}

// WaitContext is Wait with cancellation.
func (e *Event) WaitContext(ctx context.Context) error {
	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signaled reports whether the event is set, without resetting it.
func (e *Event) Signaled() bool {
	return len(e.ch) > 0
}
