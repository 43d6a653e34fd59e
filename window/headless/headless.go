// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package headless provides an offscreen window provider.
//
// The provider opens its own GPU device, renders every frame into an
// offscreen texture and reads the result back to an *image.RGBA on
// present. Input is scripted: each loop iteration is one expose, and key
// presses can be queued with Inject. After the last frame the image can
// be written as a BMP snapshot, zstd-compressed when the path ends in
// ".zst".
//
// Importing the package registers it as "headless" in the window registry.
package headless

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/internal/gpu"
	"github.com/gogpu/tileview/window"
)

// Name is the registry name of the provider.
const Name = "headless"

// targetFormat is the offscreen color format. Readback assumes 4 bytes
// per texel.
const targetFormat = gputypes.TextureFormatRGBA8Unorm

func init() {
	window.Register(Name, func() window.Provider { return New() })
}

// Option configures a Provider.
type Option func(*Provider)

// WithBackend selects the HAL backend the provider opens. The default is
// gputypes.BackendEmpty, served by the software rasterizer or the noop
// backend depending on which is linked.
func WithBackend(b gputypes.Backend) Option {
	return func(p *Provider) { p.backend = b }
}

// WithFrames sets how many exposes Run delivers before quitting. Zero or
// less runs until Quit.
func WithFrames(n int) Option {
	return func(p *Provider) { p.frames = n }
}

// WithSnapshot writes the last presented frame to path when Run returns.
func WithSnapshot(path string) Option {
	return func(p *Provider) { p.snapshot = path }
}

// Provider is the offscreen window.Provider.
type Provider struct {
	backend  gputypes.Backend
	frames   int
	snapshot string

	cfg    window.Config
	dev    *gpu.Device
	target *offscreenTarget
	hub    window.EventHub

	mu      sync.Mutex
	pending []gpucontext.Key

	quit     atomic.Bool
	rendered int
	closed   bool
}

var _ window.Provider = (*Provider)(nil)

// New returns an unopened provider that renders one frame by default.
func New(opts ...Option) *Provider {
	p := &Provider{backend: gputypes.BackendEmpty, frames: 1}
	p.Apply(opts...)
	return p
}

// Apply sets options on a provider that has not started running.
func (p *Provider) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

// Name returns "headless".
func (p *Provider) Name() string { return Name }

// Open opens the device and the offscreen target sized per cfg.
func (p *Provider) Open(cfg window.Config) error {
	if p.closed {
		return window.ErrClosed
	}
	if p.dev != nil {
		return fmt.Errorf("headless: already open")
	}
	p.cfg = cfg.WithDefaults()

	dev, err := gpu.OpenDevice(p.backend)
	if err != nil {
		return err
	}
	target, err := newOffscreenTarget(dev, uint32(p.cfg.Width), uint32(p.cfg.Height))
	if err != nil {
		dev.Close()
		return &gpu.GPUInitError{Op: "create offscreen target", Err: err}
	}
	p.dev = dev
	p.target = target
	window.Logger().Info("headless: window opened",
		"title", p.cfg.Title, "width", p.cfg.Width, "height", p.cfg.Height,
		"backend", p.backend.String(), "frames", p.frames)
	return nil
}

// Events returns the scripted event stream.
func (p *Provider) Events() gpucontext.EventSource { return &p.hub }

// Hub exposes the event hub so tests and drivers can emit arbitrary
// events.
func (p *Provider) Hub() *window.EventHub { return &p.hub }

// Inject queues a key press. Queued keys are delivered at the start of
// the next loop iteration, before its expose.
func (p *Provider) Inject(key gpucontext.Key) {
	p.mu.Lock()
	p.pending = append(p.pending, key)
	p.mu.Unlock()
}

// Run delivers a resize, then one expose per iteration until the frame
// budget is spent, Quit is called or fn fails. The snapshot, if
// configured, is written after the loop ends without error.
func (p *Provider) Run(fn window.FrameFunc) error {
	if p.closed {
		return window.ErrClosed
	}
	if p.dev == nil {
		return window.ErrNotOpen
	}
	p.hub.EmitResize(p.cfg.Width, p.cfg.Height)

	for i := 0; p.frames <= 0 || i < p.frames; i++ {
		p.pollEvents()
		if p.quit.Load() {
			window.Logger().Debug("headless: quit requested", "frame", i)
			break
		}
		window.Logger().Debug("headless: expose", "frame", i)
		w, h := p.target.Size()
		f := &window.Frame{
			Device: p.dev.Device,
			Queue:  p.dev.Queue,
			Limits: p.dev.Limits,
			Format: targetFormat,
			Width:  w,
			Height: h,
			Target: p.target,
		}
		if err := fn(f); err != nil {
			return err
		}
		p.rendered++
	}

	if p.snapshot != "" && p.target.last != nil {
		if err := WriteSnapshot(p.snapshot, p.target.last); err != nil {
			return err
		}
		window.Logger().Info("headless: snapshot written", "path", p.snapshot)
	}
	return nil
}

func (p *Provider) pollEvents() {
	p.mu.Lock()
	keys := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, k := range keys {
		p.hub.EmitKeyPress(k, 0)
		p.hub.EmitKeyRelease(k, 0)
	}
}

// Quit stops the loop before the next expose.
func (p *Provider) Quit() { p.quit.Store(true) }

// Frames returns the number of exposes delivered so far.
func (p *Provider) Frames() int { return p.rendered }

// Image returns the most recently presented frame, or nil before the
// first present.
func (p *Provider) Image() *image.RGBA {
	if p.target == nil {
		return nil
	}
	return p.target.last
}

// Close destroys the offscreen target and the device. Safe to call more
// than once.
func (p *Provider) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	if p.target != nil {
		p.target.destroy()
	}
	if p.dev != nil {
		p.dev.Close()
		p.dev = nil
	}
	return nil
}

// offscreenTarget is a texture the frame renders into in place of a
// swapchain image.
type offscreenTarget struct {
	dev  *gpu.Device
	tex  hal.Texture
	view hal.TextureView
	w, h uint32

	last *image.RGBA
}

func newOffscreenTarget(dev *gpu.Device, w, h uint32) (*offscreenTarget, error) {
	tex, err := dev.Device.CreateTexture(&hal.TextureDescriptor{
		Label:         "headless_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture: %w", err)
	}
	view, err := dev.Device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "headless_target_view",
		Format:          targetFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		dev.Device.DestroyTexture(tex)
		return nil, fmt.Errorf("create view: %w", err)
	}
	return &offscreenTarget{dev: dev, tex: tex, view: view, w: w, h: h}, nil
}

func (t *offscreenTarget) View() hal.TextureView { return t.view }

func (t *offscreenTarget) Size() (uint32, uint32) { return t.w, t.h }

// Present reads the rendered texture back into an image.
func (t *offscreenTarget) Present() error {
	px, err := gpu.ReadTexture(t.dev, t.tex, targetFormat, t.w, t.h)
	if err != nil {
		return fmt.Errorf("headless: present: %w", err)
	}
	t.last = &image.RGBA{
		Pix:    px,
		Stride: int(t.w) * 4,
		Rect:   image.Rect(0, 0, int(t.w), int(t.h)),
	}
	return nil
}

func (t *offscreenTarget) destroy() {
	if t.view != nil {
		t.dev.Device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		t.dev.Device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
