package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/tile"
)

// tileGridUniformSize is the size of the TileGrid uniform in
// tile.frag.wgsl: tiles (vec2<f32>) + packing (vec2<f32>).
const tileGridUniformSize = 16

// ErrNoTarget is returned when a frame is rendered without a target view.
var ErrNoTarget = errors.New("gpu: render target has no view")

// FrameState tracks a FrameRenderer through one frame.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameBound
	FrameDrawn
	FramePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "Idle"
	case FrameBound:
		return "FrameBound"
	case FrameDrawn:
		return "Drawn"
	case FramePresented:
		return "Presented"
	default:
		return fmt.Sprintf("FrameState(%d)", int(s))
	}
}

// RenderTarget is where a frame lands. Present is called once per frame
// after the draw has been submitted.
type RenderTarget interface {
	View() hal.TextureView
	Size() (width, height uint32)
	Present() error
}

// RendererConfig collects what a FrameRenderer draws with.
type RendererConfig struct {
	Program    *Program
	Geometry   *Geometry
	Textures   *TileTextures
	Grid       tile.Grid
	Format     gputypes.TextureFormat
	ClearColor gputypes.Color
}

// DefaultClearColor is the mid grey the viewer clears to before drawing.
var DefaultClearColor = gputypes.Color{R: 0.3, G: 0.3, B: 0.3, A: 1}

// FrameRenderer draws the whole tile grid with a single indexed
// triangle-strip draw per frame.
//
// The renderer owns its pipeline, uniform buffer and bind group. Geometry
// and textures are borrowed and must outlive it.
type FrameRenderer struct {
	device hal.Device
	queue  hal.Queue

	geometry *Geometry
	textures *TileTextures
	format   gputypes.TextureFormat
	clear    gputypes.Color

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup

	state    FrameState
	frames   uint64
	draws    uint64
	inflight []inflightFrame

	// OnState, if set, observes every state transition.
	OnState func(FrameState)
}

// inflightFrame is a submitted command buffer awaiting GPU completion.
type inflightFrame struct {
	index uint64
	cmd   hal.CommandBuffer
}

// NewFrameRenderer builds the tile pipeline for cfg.Format.
func NewFrameRenderer(dev *Device, cfg RendererConfig) (*FrameRenderer, error) {
	if cfg.Program == nil || cfg.Geometry == nil || cfg.Textures == nil {
		return nil, fmt.Errorf("gpu: renderer needs program, geometry and textures")
	}
	r := &FrameRenderer{
		device:   dev.Device,
		queue:    dev.Queue,
		geometry: cfg.Geometry,
		textures: cfg.Textures,
		format:   cfg.Format,
		clear:    cfg.ClearColor,
	}
	if err := r.createPipeline(cfg.Program); err != nil {
		r.Destroy()
		return nil, err
	}
	if err := r.createBindings(cfg.Grid, cfg.Textures.Packing()); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// createPipeline creates the shader module, layouts and render pipeline.
func (r *FrameRenderer) createPipeline(prog *Program) error {
	shader, err := prog.createModule(r.device)
	if err != nil {
		return fmt.Errorf("create tile shader module: %w", err)
	}
	r.shader = shader

	// Bind group layout:
	//   Binding 0: TileGrid (uniform buffer, fragment)
	//   Binding 1: tile layers (texture_2d_array, fragment)
	//   Binding 2: Sampler (fragment)
	uniformLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "tile_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create tile uniform layout: %w", err)
	}
	r.uniformLayout = uniformLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "tile_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create tile pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	stripFormat := gputypes.IndexFormatUint32
	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "tile_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: prog.VertexEntry,
			Buffers:    tileVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: prog.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:         gputypes.PrimitiveTopologyTriangleStrip,
			StripIndexFormat: &stripFormat,
			FrontFace:        gputypes.FrontFaceCCW,
			CullMode:         gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create tile pipeline: %w", err)
	}
	r.pipeline = pipeline
	slogger().Debug("gpu: tile pipeline created", "format", r.format, "vertex", prog.VertexEntry, "fragment", prog.FragmentEntry)
	return nil
}

// createBindings uploads the grid uniform and binds it with the tile
// layers and sampler.
func (r *FrameRenderer) createBindings(g tile.Grid, p Packing) error {
	uniformBuf, err := createAndUploadBuffer(r.device, r.queue, "tile_grid_uniform", makeTileGridUniform(g, p),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	r.uniformBuf = uniformBuf

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "tile_bind",
		Layout: r.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: tileGridUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: r.textures.arrayView.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: r.textures.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create tile bind group: %w", err)
	}
	r.bindGroup = bindGroup
	return nil
}

// Render clears the target, draws the tile strip once and presents.
// A failure at any step returns the renderer to Idle with the error.
func (r *FrameRenderer) Render(target RenderTarget) error {
	if r.state != FrameIdle {
		return fmt.Errorf("gpu: render: frame already in state %s", r.state)
	}
	r.reclaim()

	view := target.View()
	if view == nil {
		return ErrNoTarget
	}
	w, h := target.Size()

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "tile_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("tile_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "tile_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.clear,
		}},
	})
	r.setState(FrameBound)
	rp.SetViewport(0, 0, float32(w), float32(h), 0, 1)
	r.RecordDraw(rp)
	r.setState(FrameDrawn)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		r.setState(FrameIdle)
		return fmt.Errorf("end encoding: %w", err)
	}
	index, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		r.device.FreeCommandBuffer(cmdBuf)
		r.setState(FrameIdle)
		return fmt.Errorf("submit: %w", err)
	}
	r.inflight = append(r.inflight, inflightFrame{index: index, cmd: cmdBuf})

	if err := target.Present(); err != nil {
		r.setState(FrameIdle)
		return fmt.Errorf("present: %w", err)
	}
	r.setState(FramePresented)
	r.frames++
	r.setState(FrameIdle)
	return nil
}

// RecordDraw records the bind calls and the single strip draw into rp.
func (r *FrameRenderer) RecordDraw(rp hal.RenderPassEncoder) {
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
	rp.SetVertexBuffer(0, r.geometry.vertBuf, 0)
	rp.SetIndexBuffer(r.geometry.idxBuf, gputypes.IndexFormatUint32, 0)
	rp.DrawIndexed(r.geometry.indexCount, 1, 0, 0, 0)
	r.draws++
}

// State returns the current frame state.
func (r *FrameRenderer) State() FrameState { return r.state }

// Frames returns the number of frames presented.
func (r *FrameRenderer) Frames() uint64 { return r.frames }

// Draws returns the number of draw calls recorded.
func (r *FrameRenderer) Draws() uint64 { return r.draws }

func (r *FrameRenderer) setState(s FrameState) {
	r.state = s
	if r.OnState != nil {
		r.OnState(s)
	}
}

// reclaim frees command buffers of frames the GPU has finished.
func (r *FrameRenderer) reclaim() {
	if len(r.inflight) == 0 {
		return
	}
	done := r.queue.PollCompleted()
	kept := r.inflight[:0]
	for _, f := range r.inflight {
		if f.index <= done {
			r.device.FreeCommandBuffer(f.cmd)
			continue
		}
		kept = append(kept, f)
	}
	r.inflight = kept
}

// Destroy waits for outstanding frames and releases all renderer-owned
// GPU objects in reverse creation order. Safe to call more than once.
func (r *FrameRenderer) Destroy() {
	if r.device == nil {
		return
	}
	if len(r.inflight) > 0 {
		if err := r.device.WaitIdle(); err != nil {
			slogger().Warn("gpu: wait idle before renderer destroy", "error", err)
		}
		for _, f := range r.inflight {
			r.device.FreeCommandBuffer(f.cmd)
		}
		r.inflight = nil
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.uniformLayout != nil {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// makeTileGridUniform encodes the TileGrid uniform for g laid out as p.
func makeTileGridUniform(g tile.Grid, p Packing) []byte {
	buf := make([]byte, tileGridUniformSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(g.TilesX)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(g.TilesY)))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(p.Cols)))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(float32(g.Edge)))
	return buf
}
