// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tile

import (
	"errors"
	"fmt"
)

// Edge is the tile edge length in pixels used by the viewer.
const Edge = 256

// ErrInvalidSize is returned for non-positive plan dimensions.
var ErrInvalidSize = errors.New("tile: width, height and edge must be positive")

// Grid is the arrangement of tiles covering an image.
type Grid struct {
	Width, Height int // source image size in pixels
	Edge          int // tile edge in pixels
	TilesX        int
	TilesY        int
}

// Count returns the number of tiles.
func (g Grid) Count() int { return g.TilesX * g.TilesY }

// Index returns the linear index of tile (tx, ty).
func (g Grid) Index(tx, ty int) int { return tx + ty*g.TilesX }

// TileBytes returns the size of one tile buffer.
func (g Grid) TileBytes() int { return g.Edge * g.Edge * BytesPerPixel }

// Vertex is a position in normalized device coordinates.
type Vertex struct {
	X, Y, Z float32
}

// Plan is the precomputed geometry for a tiled image: the tile grid, a
// (TilesX+1)*(TilesY+1) vertex grid spanning [-1,1] in both axes, and one
// triangle strip over every tile quad.
type Plan struct {
	Grid
	StepX, StepY float32
	Vertices     []Vertex
	Indices      []uint32
}

// NewPlan computes the plan for a width x height image cut into edge x edge
// tiles. The result depends on nothing but its arguments.
func NewPlan(width, height, edge int) (*Plan, error) {
	if width < 1 || height < 1 || edge < 1 {
		return nil, fmt.Errorf("%w: %dx%d edge %d", ErrInvalidSize, width, height, edge)
	}
	g := Grid{
		Width:  width,
		Height: height,
		Edge:   edge,
		TilesX: (width + edge - 1) / edge,
		TilesY: (height + edge - 1) / edge,
	}
	p := &Plan{
		Grid:  g,
		StepX: 2 / float32(g.TilesX),
		StepY: 2 / float32(g.TilesY),
	}
	p.Vertices = p.buildVertices()
	p.Indices = p.buildIndices()
	return p, nil
}

// VertexIndex returns the index of grid corner (x, y).
func (p *Plan) VertexIndex(x, y int) uint32 {
	return uint32(x + y*(p.TilesX+1))
}

// VertexCount returns (TilesX+1)*(TilesY+1).
func (p *Plan) VertexCount() int { return (p.TilesX + 1) * (p.TilesY + 1) }

// IndexCount returns the strip length, 2*(TilesX+2)*TilesY - 2.
func (p *Plan) IndexCount() int { return 2*(p.TilesX+2)*p.TilesY - 2 }

func (p *Plan) buildVertices() []Vertex {
	vs := make([]Vertex, 0, p.VertexCount())
	for y := 0; y <= p.TilesY; y++ {
		for x := 0; x <= p.TilesX; x++ {
			vs = append(vs, Vertex{
				X: p.coord(x, p.TilesX, p.StepX),
				Y: p.coord(y, p.TilesY, p.StepY),
			})
		}
	}
	return vs
}

// coord pins the last grid line to exactly 1 so float rounding in
// n*step never leaves a gap at the viewport edge.
func (p *Plan) coord(n, tiles int, step float32) float32 {
	if n == tiles {
		return 1
	}
	return float32(n)*step - 1
}

// buildIndices sweeps the grid row by row as one strip. Rows after the
// first repeat their opening index, and every row but the last repeats its
// closing index. The resulting zero-area triangles stitch rows together
// without restarting the strip.
func (p *Plan) buildIndices() []uint32 {
	is := make([]uint32, 0, p.IndexCount())
	for y := 0; y < p.TilesY; y++ {
		for x := 0; x <= p.TilesX; x++ {
			is = append(is, p.VertexIndex(x, y))
			if y > 0 && x == 0 {
				is = append(is, p.VertexIndex(x, y))
			}
			is = append(is, p.VertexIndex(x, y+1))
		}
		if y < p.TilesY-1 {
			is = append(is, is[len(is)-1])
		}
	}
	return is
}
