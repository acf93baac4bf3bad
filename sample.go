package hello

// Sample is one runnable example. Setup happens in the sample's
// constructor; afterwards the event loop calls Update and Render once per
// redraw and Close when the window goes away.
type Sample interface {
	// Name returns the registry name, e.g. "d3d12/hello-triangle".
	Name() string

	// Update advances per-frame animation state. It must not touch the GPU
	// command stream.
	Update()

	// Render records, submits and presents one frame. Errors are fatal and
	// carry PhaseFrame.
	Render() error

	// Close waits for outstanding GPU work and releases every resource.
	// Calling Close more than once is safe.
	Close() error
}
