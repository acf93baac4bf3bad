// Package eventloop drives a sample from a platform event stream: every
// idle notification requests one redraw, every redraw renders a frame and
// a close request (or Escape, when enabled) ends the loop.
package eventloop

import (
	"context"
	"fmt"

	"github.com/gogpu/hello"
)

// Kind is the type of an Event.
type Kind int

const (
	// CloseRequested is sent when the user closes the window.
	CloseRequested Kind = iota
	// RedrawRequested is sent once for each RequestRedraw.
	RedrawRequested
	// AboutToWait is sent when the queue of window events is drained.
	AboutToWait
	// KeyPressed is sent on a key press; Event.Key says which.
	KeyPressed
	// Resized is sent when the client area changes size.
	Resized
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case CloseRequested:
		return "CloseRequested"
	case RedrawRequested:
		return "RedrawRequested"
	case AboutToWait:
		return "AboutToWait"
	case KeyPressed:
		return "KeyPressed"
	case Resized:
		return "Resized"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Key identifies a keyboard key. Only the keys the samples react to are named.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
)

// Event is one notification from the platform.
type Event struct {
	Kind          Kind
	Key           Key
	Width, Height int // for Resized
}

// Source is a platform window's event stream.
type Source interface {
	// NextEvent blocks until an event is available or ctx is done.
	NextEvent(ctx context.Context) (Event, error)

	// RequestRedraw asks the source to deliver RedrawRequested.
	RequestRedraw()
}

// Loop dispatches events from Source.
type Loop struct {
	Source Source

	// Redraw renders one frame. An error ends Run.
	Redraw func() error

	// OnKey, if set, sees every key press before the loop does.
	OnKey func(Key)

	// OnResize, if set, is called on Resized.
	OnResize func(width, height int)

	// ExitOnEscape makes Escape behave like a close request.
	ExitOnEscape bool

	// MaxFrames ends the loop after that many redraws; 0 means no limit.
	MaxFrames int

	frames int
}

// Frames returns the number of redraws performed.
func (l *Loop) Frames() int { return l.frames }

// Run dispatches events until the window closes, Redraw fails, MaxFrames
// is reached or ctx is done. A close request returns nil.
func (l *Loop) Run(ctx context.Context) error {
	log := hello.Logger()
	for {
		ev, err := l.Source.NextEvent(ctx)
		if err != nil {
			return err
		}

		switch ev.Kind {
		case CloseRequested:
			log.Info("eventloop: close requested", "frames", l.frames)
			return nil

		case AboutToWait:
			l.Source.RequestRedraw()

		case RedrawRequested:
			if l.Redraw != nil {
				if err := l.Redraw(); err != nil {
					return err
				}
			}
			l.frames++
			if l.MaxFrames > 0 && l.frames >= l.MaxFrames {
				log.Info("eventloop: frame limit reached", "frames", l.frames)
				return nil
			}

		case KeyPressed:
			if l.OnKey != nil {
				l.OnKey(ev.Key)
			}
			if l.ExitOnEscape && ev.Key == KeyEscape {
				log.Info("eventloop: escape pressed", "frames", l.frames)
				return nil
			}

		case Resized:
			if l.OnResize != nil {
				l.OnResize(ev.Width, ev.Height)
			}
		}
	}
}
