package eventloop

import (
	"context"
	"sync"
)

// Queue is an in-process Source. Platform adapters push window events into
// it; RequestRedraw coalesces into at most one pending RedrawRequested.
// When nothing is pending, NextEvent delivers AboutToWait.
type Queue struct {
	mu     sync.Mutex
	events []Event
	redraw bool
	pump   func()

	redraws int
}

// NewQueue returns an empty queue. pump, if non-nil, is called before each
// NextEvent to let the platform deliver pending window events (for GLFW,
// glfw.PollEvents).
func NewQueue(pump func()) *Queue {
	return &Queue{pump: pump}
}

// Push appends a window event.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// RequestRedraw implements Source.
func (q *Queue) RequestRedraw() {
	q.mu.Lock()
	q.redraw = true
	q.redraws++
	q.mu.Unlock()
}

// RedrawRequests returns how many times RequestRedraw was called.
func (q *Queue) RedrawRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.redraws
}

// NextEvent implements Source. Window events come first, then a pending
// redraw, then AboutToWait.
func (q *Queue) NextEvent(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if q.pump != nil {
		q.pump()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case len(q.events) > 0:
		ev := q.events[0]
		q.events = q.events[1:]
		return ev, nil
	case q.redraw:
		q.redraw = false
		return Event{Kind: RedrawRequested}, nil
	default:
		return Event{Kind: AboutToWait}, nil
	}
}
