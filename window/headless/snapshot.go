package headless

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/image/bmp"
)

// compressedSuffix selects zstd compression for snapshots.
const compressedSuffix = ".zst"

// WriteSnapshot encodes img as BMP at path. A path ending in ".zst" is
// written zstd-compressed.
func WriteSnapshot(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("headless: snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("headless: snapshot: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := EncodeSnapshot(bw, img, strings.HasSuffix(path, compressedSuffix)); err != nil {
		return err
	}
	return bw.Flush()
}

// EncodeSnapshot writes img to w as BMP, optionally wrapped in a zstd
// frame.
func EncodeSnapshot(w io.Writer, img image.Image, compress bool) error {
	if !compress {
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("headless: encode bmp: %w", err)
		}
		return nil
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("headless: zstd writer: %w", err)
	}
	if err := bmp.Encode(zw, img); err != nil {
		_ = zw.Close()
		return fmt.Errorf("headless: encode bmp: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("headless: zstd close: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("headless: snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, compressedSuffix) {
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("headless: zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("headless: decode bmp: %w", err)
	}
	return img, nil
}
