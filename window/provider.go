package window

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/internal/gpu"
)

// Default window geometry.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
	DefaultTitle  = "Robotic Eye"
)

var (
	// ErrNotOpen is returned by Run before a successful Open.
	ErrNotOpen = errors.New("window: provider not open")

	// ErrClosed is returned when a closed provider is used again.
	ErrClosed = errors.New("window: provider closed")
)

// Config describes the window to open.
type Config struct {
	Width  int
	Height int
	Title  string
}

// DefaultConfig returns a 640x480 window titled "Robotic Eye".
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Height: DefaultHeight, Title: DefaultTitle}
}

// WithDefaults fills zero fields of c from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	return c
}

// RenderTarget is the surface a frame is drawn into.
type RenderTarget = gpu.RenderTarget

// Frame is one iteration of a provider's loop. Device and Queue stay the
// same for the provider's lifetime; Target and its size may change
// between frames.
type Frame struct {
	Device hal.Device
	Queue  hal.Queue
	Limits gputypes.Limits
	Format gputypes.TextureFormat
	Width  uint32
	Height uint32
	Target RenderTarget
}

// FrameFunc draws one frame. A non-nil error stops the loop and is
// returned from Provider.Run.
type FrameFunc func(f *Frame) error

// Provider is a window (or offscreen stand-in) with a GPU context.
type Provider interface {
	// Name returns the registry name of the provider.
	Name() string

	// Open creates the window. It must be called once, before Run.
	Open(cfg Config) error

	// Events returns the provider's input and lifecycle stream.
	Events() gpucontext.EventSource

	// Run polls events and calls fn whenever the window needs a frame,
	// until Quit is called, the window is closed or fn fails.
	Run(fn FrameFunc) error

	// Quit asks a running loop to stop after the current iteration.
	Quit()

	// Close releases the window and any GPU objects the provider owns.
	Close() error
}

// Releaser is implemented by providers whose device does not outlive Run.
// Functions passed to OnRelease run while the device is still valid,
// right before the provider tears it down.
type Releaser interface {
	OnRelease(fn func())
}
