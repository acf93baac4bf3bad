// Package sim is an in-memory implementation of the d3d12 native
// interfaces. It keeps a deterministic GPU timeline, tracks every live
// object, checks resource states when command lists execute and records a
// call trace, so samples can run headless and tests can assert ordering.
//
// By default the simulated GPU finishes work as soon as it is submitted.
// WithLazyGPU makes it finish only when the CPU waits on a fence (or when
// Tick is called), which exercises the wait path of fence synchronization.
package sim

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/hello/d3d12"
)

// ErrInjected is returned by operations failed with WithFailure.
var ErrInjected = errors.New("sim: injected failure")

// AdapterSpec describes one simulated adapter.
type AdapterSpec struct {
	Description     string
	Software        bool
	MaxFeatureLevel d3d12.FeatureLevel
	// Broken adapters fail device creation.
	Broken bool
}

// DefaultAdapters is a hardware GPU followed by the WARP rasterizer.
var DefaultAdapters = []AdapterSpec{
	{Description: "Simulated GPU", MaxFeatureLevel: d3d12.FeatureLevel12_1},
	{Description: "Microsoft Basic Render Driver", Software: true, MaxFeatureLevel: d3d12.FeatureLevel12_1},
}

// Call is one trace entry.
type Call struct {
	Op     string
	Value  uint64
	Detail string
}

func (c Call) String() string {
	switch {
	case c.Detail != "" && c.Value != 0:
		return fmt.Sprintf("%s(%d, %s)", c.Op, c.Value, c.Detail)
	case c.Detail != "":
		return fmt.Sprintf("%s(%s)", c.Op, c.Detail)
	case c.Value != 0:
		return fmt.Sprintf("%s(%d)", c.Op, c.Value)
	default:
		return c.Op
	}
}

// Option configures an API.
type Option func(*API)

// WithAdapters replaces DefaultAdapters.
func WithAdapters(specs ...AdapterSpec) Option {
	return func(a *API) { a.adapters = specs }
}

// WithLazyGPU makes fences complete only when waited on or on Tick.
func WithLazyGPU() Option {
	return func(a *API) { a.lazy = true }
}

// WithFailure makes the named operation fail with ErrInjected after it
// succeeded `after` times. Operation names are the interface method names,
// e.g. "CreateSwapChain", "Present", "Signal".
func WithFailure(op string, after int) Option {
	return func(a *API) { a.failures[op] = after }
}

// WithInitialBackBufferIndex sets the index swap chains report before the
// first Present. The index is reported as given, even past the buffer
// count, to model a misbehaving driver.
func WithInitialBackBufferIndex(i uint32) Option {
	return func(a *API) { a.initialIndex = i }
}

// API is the simulated runtime. It implements d3d12.API.
type API struct {
	mu sync.Mutex

	adapters     []AdapterSpec
	lazy         bool
	failures     map[string]int
	initialIndex uint32

	debug          bool
	devicesCreated int
	live           map[*object]struct{}
	doubleReleases int
	trace          []Call
	nextHeap       uintptr
	gpu            timeline
}

// New returns a simulated runtime.
func New(opts ...Option) *API {
	a := &API{
		adapters: DefaultAdapters,
		failures: make(map[string]int),
		live:     make(map[*object]struct{}),
		nextHeap: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var _ d3d12.API = (*API)(nil)

// EnableDebugLayer implements d3d12.API.
func (a *API) EnableDebugLayer() error {
	a.record("EnableDebugLayer", 0, "")
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.devicesCreated > 0 {
		return d3d12.ErrDebugLayerAfterDevice
	}
	a.debug = true
	return nil
}

// DebugLayerEnabled reports whether EnableDebugLayer succeeded.
func (a *API) DebugLayerEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debug
}

// CreateFactory implements d3d12.API.
func (a *API) CreateFactory(debug bool) (d3d12.Factory, error) {
	if err := a.check("CreateFactory"); err != nil {
		return nil, err
	}
	a.record("CreateFactory", 0, fmt.Sprintf("debug=%t", debug))
	f := &Factory{api: a}
	f.object = a.newObject("Factory", nil)
	return f, nil
}

// Trace returns a copy of the call trace.
func (a *API) Trace() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.trace)
}

// ResetTrace clears the call trace.
func (a *API) ResetTrace() {
	a.mu.Lock()
	a.trace = nil
	a.mu.Unlock()
}

// Calls returns the trace entries with the given op, in order.
func (a *API) Calls(op string) []Call {
	var out []Call
	for _, c := range a.Trace() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Live returns the kinds of objects not yet released, sorted.
func (a *API) Live() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.live))
	for o := range a.live {
		out = append(out, o.kind)
	}
	slices.Sort(out)
	return out
}

// DoubleReleases counts Release calls on already released objects.
func (a *API) DoubleReleases() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doubleReleases
}

func (a *API) record(op string, v uint64, detail string) {
	a.mu.Lock()
	a.trace = append(a.trace, Call{Op: op, Value: v, Detail: detail})
	a.mu.Unlock()
}

// check consumes one success of op, failing once the budget is spent.
func (a *API) check(op string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	left, ok := a.failures[op]
	if !ok {
		return nil
	}
	if left == 0 {
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	a.failures[op] = left - 1
	return nil
}

// object is the lifetime record every simulated object embeds.
type object struct {
	api      *API
	kind     string
	released bool
	onFree   func()
}

func (a *API) newObject(kind string, onFree func()) *object {
	o := &object{api: a, kind: kind, onFree: onFree}
	a.mu.Lock()
	a.live[o] = struct{}{}
	a.mu.Unlock()
	return o
}

// Release implements the Release method of every native interface.
func (o *object) Release() {
	a := o.api
	a.mu.Lock()
	if o.released {
		a.doubleReleases++
		a.mu.Unlock()
		return
	}
	o.released = true
	delete(a.live, o)
	a.mu.Unlock()
	if o.onFree != nil {
		o.onFree()
	}
}

// Released reports whether the object was released.
func (o *object) Released() bool {
	o.api.mu.Lock()
	defer o.api.mu.Unlock()
	return o.released
}
