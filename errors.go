package hello

import (
	"errors"
	"fmt"
)

// Phase identifies where in a sample's life an error originated.
type Phase int

const (
	// PhaseSetup covers adapter, device, swap-chain, pipeline and shader creation.
	PhaseSetup Phase = iota
	// PhaseFrame covers command recording, submission, present and fence waits.
	PhaseFrame
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseFrame:
		return "frame"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Common errors.
var (
	// ErrUnknownSample is returned when a sample name is not registered.
	ErrUnknownSample = errors.New("hello: unknown sample")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("hello: invalid config")

	// ErrUnsupportedImageFormat is returned by SaveImage for unknown extensions.
	ErrUnsupportedImageFormat = errors.New("hello: unsupported image format")
)

// Error is a failure tagged with the phase it happened in and the
// operation that produced it. All errors are fatal; the tag only tells
// the caller whether the sample ever got as far as rendering.
type Error struct {
	Phase Phase
	Op    string
	Err   error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Phase.String() + ": " + e.Err.Error()
	}
	return e.Phase.String() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// SetupError tags err as a setup-phase failure of op.
// It returns nil for a nil err and leaves an already tagged error alone.
func SetupError(op string, err error) error {
	return tag(PhaseSetup, op, err)
}

// FrameError tags err as a frame-phase failure of op.
// It returns nil for a nil err and leaves an already tagged error alone.
func FrameError(op string, err error) error {
	return tag(PhaseFrame, op, err)
}

func tag(p Phase, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Phase: p, Op: op, Err: err}
}

// IsSetup reports whether err carries the setup phase.
func IsSetup(err error) bool { return phaseOf(err) == PhaseSetup }

// IsFrame reports whether err carries the frame phase.
func IsFrame(err error) bool { return phaseOf(err) == PhaseFrame }

func phaseOf(err error) Phase {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase
	}
	return -1
}
