// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tileview

import (
	"fmt"
	"io"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tileview/bitmap"
	"github.com/gogpu/tileview/internal/gpu"
	"github.com/gogpu/tileview/tile"
	"github.com/gogpu/tileview/window"
)

// Stats summarizes an engine's work so far.
type Stats struct {
	Width, Height int
	TilesX        int
	TilesY        int
	Tiles         int
	Vertices      int
	Indices       int
	// TileBytes is the size of the CPU tile arena while it is held.
	TileBytes int
	// UploadedBytes counts texel bytes written to the GPU.
	UploadedBytes int64
	Frames        uint64
	Draws         uint64
}

// Engine holds the render state for one image: its tile plan, the CPU
// tiles until they are uploaded, and the GPU objects that draw them.
//
// Typical use:
//
//	e := tileview.New()
//	defer e.Close()
//	if err := e.Load("big.bmp"); err != nil { ... }
//	p, _ := window.Get("desktop")
//	p.Open(window.DefaultConfig())
//	defer p.Close()
//	err := e.Run(p)
//
// An Engine is not safe for concurrent use.
type Engine struct {
	opts engineOptions

	name   string
	header bitmap.Header
	plan   *tile.Plan
	set    *tile.Set

	program  *gpu.Program
	geometry *gpu.Geometry
	textures *gpu.TileTextures
	renderer *gpu.FrameRenderer
	format   gputypes.TextureFormat

	uploaded int64
	frames   uint64
	draws    uint64
	closed   bool
}

// New returns an engine with the given options applied.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o}
}

// Load reads the bitmap at path, plans its tile grid and scatters its
// pixels into tiles. The file is closed before Load returns.
func (e *Engine) Load(path string) error {
	if err := e.checkLoad(); err != nil {
		return err
	}
	r, err := bitmap.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return e.load(r)
}

// LoadReader is Load for an already open stream; name labels errors.
func (e *Engine) LoadReader(rs io.ReadSeeker, name string) error {
	if err := e.checkLoad(); err != nil {
		return err
	}
	r, err := bitmap.NewReader(rs, name)
	if err != nil {
		return err
	}
	defer r.Close()
	return e.load(r)
}

func (e *Engine) checkLoad() error {
	if e.closed {
		return ErrClosed
	}
	if e.plan != nil {
		return ErrLoaded
	}
	return nil
}

func (e *Engine) load(r *bitmap.Reader) error {
	h := r.Header()
	plan, err := tile.NewPlan(int(h.Width), int(h.Height), e.opts.tileEdge)
	if err != nil {
		return &bitmap.FormatError{Path: r.Path(), Reason: err.Error()}
	}
	set := tile.NewSet(plan.Grid)
	sc := tile.NewScatterer(set)
	r.SetChunkSize(e.opts.chunkSize)
	if err := tile.Fill(sc, r); err != nil {
		return fmt.Errorf("load %s: %w", r.Path(), err)
	}

	e.name = r.Path()
	e.header = h
	e.plan = plan
	e.set = set
	Logger().Info("tileview: image loaded",
		"path", e.name, "width", h.Width, "height", h.Height,
		"tiles", plan.Count(), "tilesX", plan.TilesX, "tilesY", plan.TilesY)
	Logger().Debug("tileview: mesh planned",
		"vertices", len(plan.Vertices), "indices", len(plan.Indices), "tileBytes", set.Bytes())
	return nil
}

// Plan returns the tile plan of the loaded image, or nil.
func (e *Engine) Plan() *tile.Plan { return e.plan }

// Header returns the header of the loaded image.
func (e *Engine) Header() bitmap.Header { return e.header }

// Stats reports sizes and counters.
func (e *Engine) Stats() Stats {
	s := Stats{UploadedBytes: e.uploaded, Frames: e.frames, Draws: e.draws}
	if e.renderer != nil {
		s.Frames += e.renderer.Frames()
		s.Draws += e.renderer.Draws()
	}
	if p := e.plan; p != nil {
		s.Width, s.Height = p.Width, p.Height
		s.TilesX, s.TilesY, s.Tiles = p.TilesX, p.TilesY, p.Count()
		s.Vertices, s.Indices = len(p.Vertices), len(p.Indices)
	}
	if e.set != nil {
		s.TileBytes = e.set.Bytes()
	}
	return s
}

// Run renders the loaded image through p until the provider's loop ends.
// p must already be open. GPU objects are created on the first frame,
// after which the CPU tiles are released. Q quits.
func (e *Engine) Run(p window.Provider) error {
	if e.closed {
		return ErrClosed
	}
	if e.plan == nil {
		return ErrNotLoaded
	}
	if e.set == nil && e.renderer == nil {
		return ErrReleased
	}
	e.wireEvents(p)
	if r, ok := p.(window.Releaser); ok {
		r.OnRelease(e.releaseGPU)
	}

	err := p.Run(func(f *window.Frame) error {
		if e.renderer == nil {
			if err := e.prepare(f); err != nil {
				return err
			}
		}
		return e.renderer.Render(f.Target)
	})
	if err != nil {
		return err
	}
	Logger().Info("tileview: loop ended", "frames", e.Stats().Frames)
	return nil
}

// wireEvents makes Q quit and logs input.
func (e *Engine) wireEvents(p window.Provider) {
	ev := p.Events()
	ev.OnKeyPress(func(k gpucontext.Key, mods gpucontext.Modifiers) {
		Logger().Debug("tileview: key press", "key", uint16(k), "mods", uint8(mods))
		if k == gpucontext.KeyQ {
			p.Quit()
		}
	})
	ev.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		Logger().Debug("tileview: button press", "button", uint8(b), "x", x, "y", y)
	})
	ev.OnResize(func(w, h int) {
		Logger().Debug("tileview: resize", "width", w, "height", h)
	})
}

// prepare compiles the program and moves the tiles and mesh to the GPU.
func (e *Engine) prepare(f *window.Frame) error {
	dev := gpu.WrapDevice(f.Device, f.Queue)
	if f.Limits.MaxTextureArrayLayers > 0 {
		dev.Limits = f.Limits
	}

	program, err := gpu.BuildProgram(e.opts.vertexPath, e.opts.fragmentPath)
	if err != nil {
		return err
	}
	e.program = program

	geometry, err := gpu.NewGeometry(dev.Device, dev.Queue, e.plan)
	if err != nil {
		return &gpu.GPUInitError{Op: "upload geometry", Err: err}
	}
	e.geometry = geometry

	textures, err := gpu.NewTileUploader(dev).Upload(e.set)
	if err != nil {
		return &gpu.GPUInitError{Op: "upload tiles", Err: err}
	}
	e.textures = textures
	e.uploaded = textures.Bytes()

	renderer, err := gpu.NewFrameRenderer(dev, gpu.RendererConfig{
		Program:    program,
		Geometry:   geometry,
		Textures:   textures,
		Grid:       e.plan.Grid,
		Format:     f.Format,
		ClearColor: e.opts.clearColor,
	})
	if err != nil {
		return &gpu.GPUInitError{Op: "create renderer", Err: err}
	}
	e.renderer = renderer
	e.format = f.Format

	// The GPU holds the only copy needed from here on.
	e.set.Release()
	e.set = nil
	Logger().Info("tileview: GPU resources ready",
		"format", f.Format, "tiles", textures.Len(), "uploadedBytes", e.uploaded)
	return nil
}

// releaseGPU destroys GPU objects in reverse creation order. Counters
// survive so Stats stays meaningful after the loop.
func (e *Engine) releaseGPU() {
	if e.renderer != nil {
		e.frames += e.renderer.Frames()
		e.draws += e.renderer.Draws()
		e.renderer.Destroy()
		e.renderer = nil
	}
	if e.textures != nil {
		e.textures.Destroy()
		e.textures = nil
	}
	if e.geometry != nil {
		e.geometry.Destroy()
		e.geometry = nil
	}
	e.program = nil
}

// Close releases everything the engine holds. It must be called before
// the provider that supplied the device is closed. Safe to call more
// than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.releaseGPU()
	if e.set != nil {
		e.set.Release()
		e.set = nil
	}
	return nil
}
