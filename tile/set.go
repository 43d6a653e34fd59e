package tile

import "fmt"

// BytesPerPixel is the stride of tile pixel data.
const BytesPerPixel = 3

// Set owns the pixel buffers of every tile in a grid. All tiles live in a
// single zero-initialised allocation, so padding beyond the image edge is
// deterministic.
type Set struct {
	grid Grid
	buf  []byte
}

// NewSet allocates tile storage for g.
func NewSet(g Grid) *Set {
	return &Set{grid: g, buf: make([]byte, g.Count()*g.TileBytes())}
}

// Grid returns the grid the set was sized for.
func (s *Set) Grid() Grid { return s.grid }

// Len returns the number of tiles.
func (s *Set) Len() int { return s.grid.Count() }

// Tile returns the buffer of the tile with linear index i. The slice
// aliases the set's storage and is capped to the tile's length.
func (s *Set) Tile(i int) []byte {
	if i < 0 || i >= s.Len() {
		panic(fmt.Sprintf("tile: index %d out of range [0,%d)", i, s.Len()))
	}
	n := s.grid.TileBytes()
	return s.buf[i*n : (i+1)*n : (i+1)*n]
}

// At returns the buffer of tile (tx, ty).
func (s *Set) At(tx, ty int) []byte { return s.Tile(s.grid.Index(tx, ty)) }

// Bytes returns the total size of the set.
func (s *Set) Bytes() int { return len(s.buf) }

// Release drops the storage. Tile must not be called afterwards.
func (s *Set) Release() { s.buf = nil }

// Released reports whether Release has been called.
func (s *Set) Released() bool { return s.buf == nil }
