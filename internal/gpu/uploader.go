package gpu

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tileview/tile"
)

// tileFormat is the GPU format of every tile layer. Source tiles are 3
// bytes per pixel and gain an opaque alpha byte on upload.
const tileFormat = gputypes.TextureFormatRGBA8Unorm

// TextureHandle addresses one uploaded tile: the array layer holding it,
// the texel origin of the tile inside that layer and a view of the layer.
type TextureHandle struct {
	Layer uint32
	X, Y  uint32
	View  hal.TextureView
}

// Packing describes how tiles are laid out in the array texture. Each
// layer is a Cols x Cols square of tiles, filled row by row; tile i sits
// in layer i / (Cols*Cols). Cols is 1 unless the tile count exceeds the
// device's array layer limit.
type Packing struct {
	Cols   uint32
	Layers uint32
}

// PerLayer returns the number of tiles held by one layer.
func (p Packing) PerLayer() uint32 { return p.Cols * p.Cols }

// packTiles chooses the smallest packing of n tiles of the given edge
// that fits the device limits. Zero limits are treated as unbounded.
func packTiles(n, edge uint32, limits gputypes.Limits) (Packing, error) {
	maxLayers := limits.MaxTextureArrayLayers
	if maxLayers == 0 || n <= maxLayers {
		return Packing{Cols: 1, Layers: n}, nil
	}
	perLayer := (n + maxLayers - 1) / maxLayers
	cols := uint32(math.Ceil(math.Sqrt(float64(perLayer))))
	for cols*cols < perLayer {
		cols++
	}
	if maxDim := limits.MaxTextureDimension2D; maxDim > 0 && uint64(cols)*uint64(edge) > uint64(maxDim) {
		return Packing{}, fmt.Errorf("%w: %d tiles of %d texels, device allows %d layers of %dx%d",
			ErrTooManyTiles, n, edge, maxLayers, maxDim, maxDim)
	}
	return Packing{Cols: cols, Layers: (n + cols*cols - 1) / (cols * cols)}, nil
}

// TileTextures owns the GPU copies of all tiles: a 2D array texture, a
// view per layer, an array view for sampling and the nearest-filtering
// sampler.
type TileTextures struct {
	device hal.Device

	texture    hal.Texture
	arrayView  hal.TextureView
	layerViews []hal.TextureView
	sampler    hal.Sampler

	packing Packing
	count   int
	edge    uint32
	bytes   int64
}

// TileUploader turns populated tile buffers into GPU textures.
type TileUploader struct {
	device hal.Device
	queue  hal.Queue
	limits gputypes.Limits
}

// NewTileUploader returns an uploader bound to dev.
func NewTileUploader(dev *Device) *TileUploader {
	return &TileUploader{device: dev.Device, queue: dev.Queue, limits: dev.Limits}
}

// Upload copies every tile in set into its own slot of an array texture.
// While the device allows it each tile gets a whole layer; larger sets
// share layers (see Packing). The set's bytes are not retained.
func (u *TileUploader) Upload(set *tile.Set) (*TileTextures, error) {
	if set == nil || set.Released() {
		return nil, fmt.Errorf("gpu: upload: tile set released")
	}
	n := uint32(set.Len())
	if n == 0 {
		return nil, fmt.Errorf("gpu: upload: empty tile set")
	}
	edge := uint32(set.Grid().Edge)
	packing, err := packTiles(n, edge, u.limits)
	if err != nil {
		return nil, err
	}
	side := packing.Cols * edge
	tt := &TileTextures{device: u.device, edge: edge, packing: packing}

	tex, err := u.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "tile_array",
		Size:          hal.Extent3D{Width: side, Height: side, DepthOrArrayLayers: packing.Layers},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        tileFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create tile texture (%d layers of %d): %w", packing.Layers, side, err)
	}
	tt.texture = tex

	tt.layerViews = make([]hal.TextureView, 0, packing.Layers)
	for l := uint32(0); l < packing.Layers; l++ {
		view, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:           fmt.Sprintf("tile_layer_%d_view", l),
			Format:          tileFormat,
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			BaseArrayLayer:  l,
			ArrayLayerCount: 1,
		})
		if err != nil {
			tt.Destroy()
			return nil, fmt.Errorf("create tile layer %d view: %w", l, err)
		}
		tt.layerViews = append(tt.layerViews, view)
	}

	rgba := make([]byte, int(edge)*int(edge)*4)
	for i := uint32(0); i < n; i++ {
		h := tt.locate(i)
		bgrToRGBA(rgba, set.Tile(int(i)))
		err := u.queue.WriteTexture(
			&hal.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   hal.Origin3D{X: h.X, Y: h.Y, Z: h.Layer},
				Aspect:   gputypes.TextureAspectAll,
			},
			rgba,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: edge * 4, RowsPerImage: edge},
			&hal.Extent3D{Width: edge, Height: edge, DepthOrArrayLayers: 1},
		)
		if err != nil {
			tt.Destroy()
			return nil, fmt.Errorf("upload tile %d: %w", i, err)
		}
		tt.bytes += int64(len(rgba))
		tt.count++
	}

	arrayView, err := u.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "tile_array_view",
		Format:          tileFormat,
		Dimension:       gputypes.TextureViewDimension2DArray,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: packing.Layers,
	})
	if err != nil {
		tt.Destroy()
		return nil, fmt.Errorf("create tile array view: %w", err)
	}
	tt.arrayView = arrayView

	// Nearest in every direction: tile seams must line up pixel for pixel.
	sampler, err := u.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "tile_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		tt.Destroy()
		return nil, fmt.Errorf("create tile sampler: %w", err)
	}
	tt.sampler = sampler

	slogger().Info("gpu: tiles uploaded", "tiles", n, "edge", edge,
		"layers", packing.Layers, "tilesPerLayer", packing.PerLayer(), "bytes", tt.bytes)
	return tt, nil
}

// locate returns where tile i lives, without a view.
func (tt *TileTextures) locate(i uint32) TextureHandle {
	per := tt.packing.PerLayer()
	slot := i % per
	return TextureHandle{
		Layer: i / per,
		X:     slot % tt.packing.Cols * tt.edge,
		Y:     slot / tt.packing.Cols * tt.edge,
	}
}

// Len returns the number of uploaded tiles.
func (tt *TileTextures) Len() int { return tt.count }

// Handle returns the handle of tile i.
func (tt *TileTextures) Handle(i int) TextureHandle {
	h := tt.locate(uint32(i))
	h.View = tt.layerViews[h.Layer]
	return h
}

// Packing returns the layout of tiles in the array texture.
func (tt *TileTextures) Packing() Packing { return tt.packing }

// Bytes returns the number of texel bytes written to the GPU.
func (tt *TileTextures) Bytes() int64 { return tt.bytes }

// Edge returns the tile edge length in texels.
func (tt *TileTextures) Edge() uint32 { return tt.edge }

// Destroy releases all texture objects in reverse creation order.
func (tt *TileTextures) Destroy() {
	if tt.device == nil {
		return
	}
	if tt.sampler != nil {
		tt.device.DestroySampler(tt.sampler)
		tt.sampler = nil
	}
	if tt.arrayView != nil {
		tt.device.DestroyTextureView(tt.arrayView)
		tt.arrayView = nil
	}
	for i := len(tt.layerViews) - 1; i >= 0; i-- {
		tt.device.DestroyTextureView(tt.layerViews[i])
	}
	tt.layerViews = nil
	tt.count = 0
	if tt.texture != nil {
		tt.device.DestroyTexture(tt.texture)
		tt.texture = nil
	}
}

// bgrToRGBA converts 3-byte B, G, R pixels to 4-byte R, G, B, A with alpha
// 255. dst must hold len(bgr)/3*4 bytes.
func bgrToRGBA(dst, bgr []byte) {
	pixelCount := len(bgr) / 3
	for i := 0; i < pixelCount; i++ {
		srcOff := i * 3
		dstOff := i * 4
		dst[dstOff+0] = bgr[srcOff+2]
		dst[dstOff+1] = bgr[srcOff+1]
		dst[dstOff+2] = bgr[srcOff+0]
		dst[dstOff+3] = 255
	}
}
