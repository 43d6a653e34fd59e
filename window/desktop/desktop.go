// Package desktop provides the windowed provider backed by gogpu.
//
// The gogpu application owns the window, the device and the swapchain.
// The provider borrows its HAL device and queue and draws each frame
// straight into the current surface view; gogpu presents once the draw
// callback returns. Rendering is event driven, so frames are produced on
// expose and resize only.
//
// Importing the package registers it as "desktop" in the window registry.
package desktop

import (
	"fmt"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/window"
)

// Name is the registry name of the provider.
const Name = "desktop"

func init() {
	window.Register(Name, func() window.Provider { return New() })
}

// halDevice is the part of *wgpu.Device the provider borrows: the HAL
// device and queue underneath it and the limits it was opened with.
type halDevice interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
	Limits() gputypes.Limits
}

var _ halDevice = (*wgpu.Device)(nil)

// Provider is the windowed window.Provider.
type Provider struct {
	app *gogpu.App
	cfg window.Config

	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
	format gputypes.TextureFormat

	frames   int
	err      error
	closed   bool
	releases []func()
}

var (
	_ window.Provider = (*Provider)(nil)
	_ window.Releaser = (*Provider)(nil)
)

// New returns an unopened desktop provider.
func New() *Provider { return &Provider{} }

// Name returns "desktop".
func (p *Provider) Name() string { return Name }

// Open creates the gogpu application for a window of cfg's size and
// title. The window appears when Run starts.
func (p *Provider) Open(cfg window.Config) error {
	if p.closed {
		return window.ErrClosed
	}
	if p.app != nil {
		return fmt.Errorf("desktop: already open")
	}
	p.cfg = cfg.WithDefaults()
	p.app = gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(p.cfg.Title).
		WithSize(p.cfg.Width, p.cfg.Height).
		WithContinuousRender(false))
	p.app.OnClose(func() {
		window.Logger().Info("desktop: window closed", "frames", p.frames)
		p.runReleases()
	})
	window.Logger().Info("desktop: window created",
		"title", p.cfg.Title, "width", p.cfg.Width, "height", p.cfg.Height)
	return nil
}

// Events returns the window's input stream, or a null source before Open.
func (p *Provider) Events() gpucontext.EventSource {
	if p.app == nil {
		return gpucontext.NullEventSource{}
	}
	return p.app.EventSource()
}

// Run shows the window and calls fn on every redraw until the window is
// closed, Quit is called or fn fails.
func (p *Provider) Run(fn window.FrameFunc) error {
	if p.closed {
		return window.ErrClosed
	}
	if p.app == nil {
		return window.ErrNotOpen
	}
	p.app.OnDraw(func(dc *gogpu.Context) {
		if p.err != nil {
			return
		}
		if err := p.draw(dc, fn); err != nil {
			p.err = err
			p.app.Quit()
		}
	})
	runErr := p.app.Run()
	if p.err != nil {
		return p.err
	}
	if runErr != nil {
		return fmt.Errorf("desktop: %w", runErr)
	}
	return nil
}

// draw wraps the current surface as a frame. Redraws that arrive before
// the GPU context is ready are skipped.
func (p *Provider) draw(dc *gogpu.Context, fn window.FrameFunc) error {
	if dc.Width() <= 0 || dc.Height() <= 0 {
		return nil
	}
	if p.device == nil {
		ready, err := p.bindDevice()
		if err != nil || !ready {
			return err
		}
	}

	sv := dc.SurfaceView()
	if sv == nil {
		return nil
	}
	view := sv.HalTextureView()
	if view == nil {
		return nil
	}
	sw, sh := dc.SurfaceSize()

	err := fn(&window.Frame{
		Device: p.device,
		Queue:  p.queue,
		Limits: p.limits,
		Format: p.format,
		Width:  sw,
		Height: sh,
		Target: &surfaceTarget{view: view, w: sw, h: sh},
	})
	if err != nil {
		return err
	}
	p.frames++
	return nil
}

// bindDevice borrows the HAL device and queue from the application.
func (p *Provider) bindDevice() (bool, error) {
	provider := p.app.GPUContextProvider()
	if provider == nil {
		return false, nil
	}
	return p.bind(provider)
}

// bind takes the device, queue, limits and surface format from provider.
// It reports false while the provider has no device yet.
func (p *Provider) bind(provider gpucontext.DeviceProvider) (bool, error) {
	d := provider.Device()
	if d == nil {
		return false, nil
	}
	wd, ok := d.(halDevice)
	if !ok {
		return false, fmt.Errorf("desktop: device %T does not expose HAL types", d)
	}
	device, queue := wd.HalDevice(), wd.HalQueue()
	if device == nil || queue == nil {
		return false, fmt.Errorf("desktop: device has no HAL device or queue")
	}
	p.device, p.queue = device, queue
	p.limits = wd.Limits()
	p.format = provider.SurfaceFormat()
	window.Logger().Info("desktop: GPU context bound",
		"adapter", provider.AdapterInfo().Name, "format", p.format,
		"maxTextureArrayLayers", p.limits.MaxTextureArrayLayers)
	return true, nil
}

// OnRelease registers fn to run when the window closes, before gogpu
// destroys the device. Functions run in reverse registration order.
func (p *Provider) OnRelease(fn func()) {
	p.releases = append(p.releases, fn)
}

func (p *Provider) runReleases() {
	for i := len(p.releases) - 1; i >= 0; i-- {
		p.releases[i]()
	}
	p.releases = nil
}

// Quit closes the window after the current frame.
func (p *Provider) Quit() {
	if p.app != nil {
		p.app.Quit()
	}
}

// Close marks the provider closed. The application releases the window
// and device itself when Run returns.
func (p *Provider) Close() error {
	p.closed = true
	p.device, p.queue = nil, nil
	return nil
}

// surfaceTarget is the swapchain image of the current frame. gogpu
// presents it after the draw callback, so Present has nothing to do.
type surfaceTarget struct {
	view hal.TextureView
	w, h uint32
}

func (t *surfaceTarget) View() hal.TextureView  { return t.view }
func (t *surfaceTarget) Size() (uint32, uint32) { return t.w, t.h }
func (t *surfaceTarget) Present() error         { return nil }
