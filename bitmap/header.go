package bitmap

import (
	"encoding/binary"
	"fmt"
)

const (
	// Signature is the little-endian value of the "BM" magic.
	Signature uint16 = 0x4d42

	// FormatCode is the word expected at header offset 26. It packs a
	// plane count of 1 with a depth field of 32, yet the pixel data that
	// follows is read as 3 bytes per pixel. It is checked as an opaque
	// gate and says nothing about the layout.
	FormatCode uint32 = 0x00200001

	// HeaderSize is the number of header bytes the reader inspects.
	HeaderSize = 30

	// BytesPerPixel is the stride of the pixel stream.
	BytesPerPixel = 3

	// ChunkSize bounds every slice returned by Reader.Next.
	ChunkSize = 64 * 1024

	// MaxPixels caps Width*Height so that every size derived from the
	// header fits an int.
	MaxPixels = 1 << 30
)

// Header holds the fields of a bitmap header that the reader uses.
type Header struct {
	FileSize   uint32
	DataOffset uint32
	InfoSize   uint32
	Width      uint32
	Height     uint32
	Format     uint32
}

// PixelBytes returns the length of the pixel stream described by h.
func (h Header) PixelBytes() int64 {
	return int64(h.Width) * int64(h.Height) * BytesPerPixel
}

// parseHeader decodes and validates the first HeaderSize bytes of a file.
func parseHeader(b []byte, path string) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("truncated header (%d of %d bytes)", len(b), HeaderSize)}
	}
	if sig := binary.LittleEndian.Uint16(b[0:2]); sig != Signature {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("not a bmp file (signature %#04x)", sig)}
	}
	h := Header{
		FileSize:   binary.LittleEndian.Uint32(b[2:6]),
		DataOffset: binary.LittleEndian.Uint32(b[10:14]),
		InfoSize:   binary.LittleEndian.Uint32(b[14:18]),
		Width:      binary.LittleEndian.Uint32(b[18:22]),
		Height:     binary.LittleEndian.Uint32(b[22:26]),
		Format:     binary.LittleEndian.Uint32(b[26:30]),
	}
	if h.Format != FormatCode {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("expect a 32 bits per pixel bmp file (format word %#08x)", h.Format)}
	}
	if h.Width == 0 || h.Height == 0 {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("empty image %dx%d", h.Width, h.Height)}
	}
	if px := uint64(h.Width) * uint64(h.Height); px > MaxPixels {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("image %dx%d exceeds %d pixels", h.Width, h.Height, MaxPixels)}
	}
	if h.DataOffset < HeaderSize {
		return Header{}, &FormatError{Path: path, Reason: fmt.Sprintf("data offset %d inside header", h.DataOffset)}
	}
	return h, nil
}

// putHeader encodes h into b, which must hold at least HeaderSize bytes.
func putHeader(b []byte, h Header) {
	binary.LittleEndian.PutUint16(b[0:2], Signature)
	binary.LittleEndian.PutUint32(b[2:6], h.FileSize)
	binary.LittleEndian.PutUint32(b[6:10], 0)
	binary.LittleEndian.PutUint32(b[10:14], h.DataOffset)
	binary.LittleEndian.PutUint32(b[14:18], h.InfoSize)
	binary.LittleEndian.PutUint32(b[18:22], h.Width)
	binary.LittleEndian.PutUint32(b[22:26], h.Height)
	binary.LittleEndian.PutUint32(b[26:30], h.Format)
}
