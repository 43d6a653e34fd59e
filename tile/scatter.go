package tile

import (
	"errors"
	"fmt"
	"io"
)

// ErrOverflow is returned when more pixel bytes arrive than the image holds.
var ErrOverflow = errors.New("tile: pixel stream longer than image")

// Scatterer routes a row-major pixel byte stream into the tiles of a Set.
//
// Pixel d of the stream lands in tile (x/edge, y/edge) at byte offset
// ((x%edge) + (y%edge)*edge)*3, where x = d%width and y = d/width. The
// position is advanced incrementally instead of being recomputed. Write
// accepts chunks of any length; up to two bytes of an incomplete pixel are
// carried to the next call.
type Scatterer struct {
	set *Set
	g   Grid

	pixelX, lineY int
	written       int

	pending  [BytesPerPixel]byte
	nPending int
}

// NewScatterer returns a Scatterer filling set.
func NewScatterer(set *Set) *Scatterer {
	return &Scatterer{set: set, g: set.Grid()}
}

// Write implements io.Writer.
func (s *Scatterer) Write(p []byte) (int, error) {
	n := 0
	if s.nPending > 0 {
		k := copy(s.pending[s.nPending:], p)
		s.nPending += k
		n += k
		p = p[k:]
		if s.nPending < BytesPerPixel {
			return n, nil
		}
		if err := s.put(s.pending[:]); err != nil {
			return n, err
		}
		s.nPending = 0
	}
	for len(p) >= BytesPerPixel {
		if err := s.put(p[:BytesPerPixel]); err != nil {
			return n, err
		}
		p = p[BytesPerPixel:]
		n += BytesPerPixel
	}
	if len(p) > 0 {
		if s.Done() {
			return n, ErrOverflow
		}
		s.nPending = copy(s.pending[:], p)
		n += len(p)
	}
	return n, nil
}

// put stores one pixel and advances the position.
func (s *Scatterer) put(px []byte) error {
	if s.Done() {
		return ErrOverflow
	}
	e := s.g.Edge
	tileBuf := s.set.At(s.pixelX/e, s.lineY/e)
	off := ((s.pixelX % e) + (s.lineY%e)*e) * BytesPerPixel
	copy(tileBuf[off:off+BytesPerPixel], px)

	s.written++
	s.pixelX++
	if s.pixelX == s.g.Width {
		s.pixelX = 0
		s.lineY++
	}
	return nil
}

// Pixels returns the number of complete pixels written.
func (s *Scatterer) Pixels() int { return s.written }

// Done reports whether every pixel of the image has been written.
func (s *Scatterer) Done() bool { return s.written == s.g.Width*s.g.Height }

// Position returns the image coordinate of the next pixel.
func (s *Scatterer) Position() (x, y int) { return s.pixelX, s.lineY }

// Close reports an error if the stream ended early or mid-pixel.
func (s *Scatterer) Close() error {
	if s.nPending != 0 {
		return fmt.Errorf("tile: stream ended inside pixel %d (%d of %d bytes)", s.written, s.nPending, BytesPerPixel)
	}
	if !s.Done() {
		return fmt.Errorf("tile: stream ended after %d of %d pixels: %w", s.written, s.g.Width*s.g.Height, io.ErrUnexpectedEOF)
	}
	return nil
}

// ChunkSource yields successive chunks of a byte stream and io.EOF at its
// end. bitmap.Reader satisfies it.
type ChunkSource interface {
	Next() ([]byte, error)
}

// Fill drains src into s and checks that the image was completed.
func Fill(s *Scatterer, src ChunkSource) error {
	for {
		chunk, err := src.Next()
		if errors.Is(err, io.EOF) {
			return s.Close()
		}
		if err != nil {
			return err
		}
		if _, err := s.Write(chunk); err != nil {
			return err
		}
	}
}
