// Package tile splits an image into fixed-size square tiles and builds the
// mesh that draws them.
//
// Everything here is pure CPU work with no GPU or window dependency:
//
//   - [NewPlan] derives the tile grid, the vertex grid in normalized device
//     coordinates and a single triangle-strip index sequence covering it.
//   - [Set] is one contiguous, zero-initialised allocation holding every
//     tile's RGB bytes.
//   - [Scatterer] routes a linear pixel byte stream into the right offset
//     of the right tile, whatever the chunking of the stream.
package tile
