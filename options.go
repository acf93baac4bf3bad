package hello

import (
	"errors"
	"fmt"
)

// Config describes the window and device settings shared by all samples.
// Build one with NewConfig and functional options, or load it with
// LoadConfig and override fields from command-line flags.
type Config struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`

	// BufferCount is the number of swap-chain back buffers.
	BufferCount int `toml:"buffer_count"`

	// VSync is the present sync interval. 0 presents immediately,
	// 1 waits for one vertical blank.
	VSync int `toml:"vsync"`

	DebugLayer bool `toml:"debug_layer"`
	WARP       bool `toml:"warp"`

	// Backend names the device backend: "auto", "vulkan", "noop" or "sim".
	Backend string `toml:"backend"`

	// MaxAdapters bounds the hardware adapter probe.
	MaxAdapters int `toml:"max_adapters"`

	// ClearColor overrides the sample's background when set.
	ClearColor *Color `toml:"clear_color,omitempty"`
}

// Option configures a Config during creation.
//
// Example:
//
//	cfg := hello.NewConfig(
//	    hello.WithSize(1280, 720),
//	    hello.WithDebugLayer(true),
//	)
type Option func(*Config)

// DefaultConfig returns the settings the samples use when nothing is set.
func DefaultConfig() Config {
	return Config{
		Title:       "hello",
		Width:       1280,
		Height:      720,
		BufferCount: 2,
		VSync:       1,
		Backend:     "auto",
		MaxAdapters: 16,
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Apply applies opts to c in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) { c.Title = title }
}

// WithSize sets the window client size in pixels.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithBufferCount sets the number of swap-chain back buffers.
func WithBufferCount(n int) Option {
	return func(c *Config) { c.BufferCount = n }
}

// WithVSync sets the present sync interval.
func WithVSync(interval int) Option {
	return func(c *Config) { c.VSync = interval }
}

// WithDebugLayer enables the validation layer. It is enabled before any
// device is created.
func WithDebugLayer(enabled bool) Option {
	return func(c *Config) { c.DebugLayer = enabled }
}

// WithWARP selects the software adapter instead of probing hardware adapters.
func WithWARP(enabled bool) Option {
	return func(c *Config) { c.WARP = enabled }
}

// WithBackend selects the graphics backend by name.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithClearColor overrides the sample background.
func WithClearColor(col Color) Option {
	return func(c *Config) { c.ClearColor = &col }
}

// WithMaxAdapters bounds the number of hardware adapters probed.
func WithMaxAdapters(n int) Option {
	return func(c *Config) { c.MaxAdapters = n }
}

// ClearColorOr returns the configured clear color, or def when none is set.
func (c Config) ClearColorOr(def Color) Color {
	if c.ClearColor != nil {
		return *c.ClearColor
	}
	return def
}

// Validate reports every invalid field, joined, each wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height))
	}
	if c.BufferCount < 2 || c.BufferCount > 16 {
		errs = append(errs, fmt.Errorf("%w: buffer_count %d not in [2, 16]", ErrInvalidConfig, c.BufferCount))
	}
	if c.VSync < 0 || c.VSync > 4 {
		errs = append(errs, fmt.Errorf("%w: vsync %d not in [0, 4]", ErrInvalidConfig, c.VSync))
	}
	if c.MaxAdapters <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_adapters %d", ErrInvalidConfig, c.MaxAdapters))
	}
	return errors.Join(errs...)
}
