package bitmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// dataOffset places pixel data after a classic 14+40 byte header so the
// files line up with what common tools emit.
const dataOffset = 54

// Encode writes width*height pixels in the supported layout. pix holds the
// pixel stream exactly as Reader delivers it: B, G, R per pixel, bottom
// row first.
func Encode(w io.Writer, width, height int, pix []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("bitmap: encode: invalid size %dx%d", width, height)
	}
	want := width * height * BytesPerPixel
	if len(pix) != want {
		return fmt.Errorf("bitmap: encode: got %d pixel bytes, want %d", len(pix), want)
	}
	var hdr [dataOffset]byte
	putHeader(hdr[:], Header{
		FileSize:   uint32(dataOffset + want),
		DataOffset: dataOffset,
		InfoSize:   dataOffset - 14,
		Width:      uint32(width),
		Height:     uint32(height),
		Format:     FormatCode,
	})
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(pix)
	return err
}

// WriteFile encodes the pixels to path.
func WriteFile(path string, width, height int, pix []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, width, height, pix); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: path, Op: "close", Err: err}
	}
	return nil
}
