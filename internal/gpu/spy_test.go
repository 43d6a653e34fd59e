package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// spyDevice wraps a HAL device and records the draw-related calls made
// through the encoders it hands out.
type spyDevice struct {
	hal.Device
	calls *spyCalls
}

type spyCalls struct {
	encoders     int
	passes       int
	drawIndexed  []uint32
	draws        int
	indexFormats []gputypes.IndexFormat
	pipelines    []*hal.RenderPipelineDescriptor
	clearValues  []gputypes.Color
	textureWrite []hal.ImageCopyTexture
	submits      int
}

func (d *spyDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	d.calls.encoders++
	return &spyEncoder{CommandEncoder: enc, calls: d.calls}, nil
}

func (d *spyDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.calls.pipelines = append(d.calls.pipelines, desc)
	return d.Device.CreateRenderPipeline(desc)
}

type spyEncoder struct {
	hal.CommandEncoder
	calls *spyCalls
}

func (e *spyEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.calls.passes++
	for _, ca := range desc.ColorAttachments {
		e.calls.clearValues = append(e.calls.clearValues, ca.ClearValue)
	}
	return &spyPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), calls: e.calls}
}

type spyPass struct {
	hal.RenderPassEncoder
	calls *spyCalls
}

func (p *spyPass) SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64) {
	p.calls.indexFormats = append(p.calls.indexFormats, format)
	p.RenderPassEncoder.SetIndexBuffer(buffer, format, offset)
}

func (p *spyPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.calls.draws++
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *spyPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.calls.drawIndexed = append(p.calls.drawIndexed, indexCount)
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

type spyQueue struct {
	hal.Queue
	calls *spyCalls
}

func (q *spyQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.calls.textureWrite = append(q.calls.textureWrite, *dst)
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func (q *spyQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	q.calls.submits++
	return q.Queue.Submit(cmds)
}

// spyOn returns a Device sharing dev's HAL objects whose calls are
// recorded in the returned spyCalls.
func spyOn(dev *Device) (*Device, *spyCalls) {
	calls := &spyCalls{}
	return &Device{
		Device: &spyDevice{Device: dev.Device, calls: calls},
		Queue:  &spyQueue{Queue: dev.Queue, calls: calls},
		Info:   dev.Info,
		Limits: dev.Limits,
	}, calls
}
