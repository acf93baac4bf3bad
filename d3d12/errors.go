package d3d12

import "errors"

// Native API errors. Implementations of the native interfaces return (or
// wrap) these so callers can match them with errors.Is.
var (
	// ErrNotFound is returned by adapter enumeration past the last adapter.
	ErrNotFound = errors.New("d3d12: not found")

	// ErrDebugLayerAfterDevice is returned when the debug layer is enabled
	// after a device already exists.
	ErrDebugLayerAfterDevice = errors.New("d3d12: debug layer must be enabled before any device is created")

	// ErrFeatureLevel is returned when an adapter cannot create a device at
	// the requested feature level.
	ErrFeatureLevel = errors.New("d3d12: feature level not supported")

	// ErrDeviceRemoved is returned once the device is lost.
	ErrDeviceRemoved = errors.New("d3d12: device removed")

	// ErrWrongObject is returned when an object from another implementation
	// (or another device) is passed to a native call.
	ErrWrongObject = errors.New("d3d12: object belongs to a different device")

	// ErrListClosed is returned when recording into a closed command list.
	ErrListClosed = errors.New("d3d12: command list is closed")

	// ErrListOpen is returned when executing or resetting a list that is
	// still recording.
	ErrListOpen = errors.New("d3d12: command list is still recording")

	// ErrInvalidArg is returned for out-of-range arguments.
	ErrInvalidArg = errors.New("d3d12: invalid argument")
)

// Sample-level errors.
var (
	// ErrNoSuitableAdapter is returned when no hardware adapter passes the
	// device-creation probe within DeviceFactory.MaxAdapters.
	ErrNoSuitableAdapter = errors.New("d3d12: no suitable adapter")

	// ErrNoAPI is returned when DeviceFactory needs an API but got nil.
	ErrNoAPI = errors.New("d3d12: no API to create a factory from")

	// ErrNotBound is returned when a renderer is created without resources.
	ErrNotBound = errors.New("d3d12: resources are not bound")

	// ErrReleased is returned when using resources after Release.
	ErrReleased = errors.New("d3d12: resources already released")

	// ErrAllocatorInFlight is returned when a command allocator would be
	// reset while commands recorded from it may still execute.
	ErrAllocatorInFlight = errors.New("d3d12: command allocator reset while in flight")

	// ErrInvalidBarrier is returned by the debug layer when a transition's
	// before-state does not match the resource's tracked state.
	ErrInvalidBarrier = errors.New("d3d12: resource barrier before-state mismatch")

	// ErrFenceWait is returned when a fence wait woke up before the fence
	// reached the awaited value.
	ErrFenceWait = errors.New("d3d12: fence wait returned before completion")

	// ErrRendererFailed wraps the first frame failure; later Render calls
	// return it without touching the GPU.
	ErrRendererFailed = errors.New("d3d12: renderer failed earlier")
)
