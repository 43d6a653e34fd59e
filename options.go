package tileview

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tileview/bitmap"
	"github.com/gogpu/tileview/internal/gpu"
	"github.com/gogpu/tileview/tile"
)

// Option configures an Engine.
//
// Example:
//
//	e := tileview.New(
//	    tileview.WithShaders("tile.vert.wgsl", "tile.frag.wgsl"),
//	    tileview.WithClearColor(0, 0, 0, 1),
//	)
type Option func(*engineOptions)

type engineOptions struct {
	vertexPath   string
	fragmentPath string
	tileEdge     int
	chunkSize    int
	clearColor   gputypes.Color
}

func defaultOptions() engineOptions {
	return engineOptions{
		tileEdge:   tile.Edge,
		chunkSize:  bitmap.ChunkSize,
		clearColor: gpu.DefaultClearColor,
	}
}

// WithShaders loads the vertex and fragment stages from WGSL files. An
// empty path keeps the built-in shader for that stage.
func WithShaders(vertexPath, fragmentPath string) Option {
	return func(o *engineOptions) {
		o.vertexPath = vertexPath
		o.fragmentPath = fragmentPath
	}
}

// WithTileEdge sets the tile edge length in pixels. The default is 256.
// Values below 1 are ignored.
func WithTileEdge(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.tileEdge = n
		}
	}
}

// WithChunkSize sets how many bytes are read from the bitmap at a time.
// The default is 64 KiB. Values below 1 are ignored.
func WithChunkSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithClearColor sets the background color behind the tiles.
func WithClearColor(r, g, b, a float64) Option {
	return func(o *engineOptions) {
		o.clearColor = gputypes.Color{R: r, G: g, B: b, A: a}
	}
}
