package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/tile"
)

// tileVertexStride is the byte stride per vertex: position (vec3<f32>) at
// location 0, tightly packed.
const tileVertexStride = 12

// Geometry holds the vertex and index buffers of a tile plan. Both are
// written once and only read afterwards.
type Geometry struct {
	device hal.Device

	vertBuf     hal.Buffer
	idxBuf      hal.Buffer
	vertexCount uint32
	indexCount  uint32
}

// NewGeometry uploads the plan's vertex grid and strip indices.
func NewGeometry(device hal.Device, queue hal.Queue, plan *tile.Plan) (*Geometry, error) {
	g := &Geometry{device: device}

	vertData := buildTileVertexData(plan.Vertices)
	vertBuf, err := createAndUploadBuffer(device, queue, "tile_vertices", vertData,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	g.vertBuf = vertBuf

	idxData := buildTileIndexData(plan.Indices)
	idxBuf, err := createAndUploadBuffer(device, queue, "tile_indices", idxData,
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		g.Destroy()
		return nil, err
	}
	g.idxBuf = idxBuf

	g.vertexCount = uint32(len(plan.Vertices))
	g.indexCount = uint32(len(plan.Indices))
	slogger().Debug("gpu: geometry uploaded",
		"vertices", g.vertexCount, "vertexBytes", len(vertData),
		"indices", g.indexCount, "indexBytes", len(idxData))
	return g, nil
}

// IndexCount returns the number of strip indices drawn per frame.
func (g *Geometry) IndexCount() uint32 { return g.indexCount }

// VertexCount returns the number of grid vertices.
func (g *Geometry) VertexCount() uint32 { return g.vertexCount }

// Destroy releases both buffers. Safe to call more than once.
func (g *Geometry) Destroy() {
	if g.idxBuf != nil {
		g.device.DestroyBuffer(g.idxBuf)
		g.idxBuf = nil
	}
	if g.vertBuf != nil {
		g.device.DestroyBuffer(g.vertBuf)
		g.vertBuf = nil
	}
}

// tileVertexLayout returns the vertex buffer layout for the tile pipeline.
// Matches vs_main in tile.vert.wgsl:
//
//	location 0: position (vec3<f32>)
func tileVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: tileVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

func buildTileVertexData(vs []tile.Vertex) []byte {
	buf := make([]byte, len(vs)*tileVertexStride)
	for i, v := range vs {
		off := i * tileVertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.Z))
	}
	return buf
}

func buildTileIndexData(is []uint32) []byte {
	buf := make([]byte, len(is)*4)
	for i, idx := range is {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// createAndUploadBuffer creates a GPU buffer sized for data and fills it.
func createAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}
