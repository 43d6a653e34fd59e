package bitmap

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader streams the pixel bytes of a bitmap in bounded chunks.
//
// The underlying file stays open until the stream is exhausted, a read
// fails, or Close is called, whichever happens first.
type Reader struct {
	path      string
	src       io.ReadSeeker
	closer    io.Closer
	header    Header
	remaining int64
	buf       []byte
	chunkSize int
}

// Open opens path, validates its header and positions the reader at the
// start of the pixel data.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Op: "open", Err: err}
	}
	r, err := newReader(f, path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader is like Open but reads from rs. The name is used in error
// messages only. If rs implements io.Closer it is closed along with the
// reader.
func NewReader(rs io.ReadSeeker, name string) (*Reader, error) {
	c, _ := rs.(io.Closer)
	return newReader(rs, name, c)
}

func newReader(rs io.ReadSeeker, path string, c io.Closer) (*Reader, error) {
	var hdr [HeaderSize]byte
	n, err := io.ReadFull(rs, hdr[:])
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("truncated header (%d of %d bytes)", n, HeaderSize)}
	case err != nil:
		return nil, &IOError{Path: path, Op: "read header", Err: err}
	}
	h, err := parseHeader(hdr[:], path)
	if err != nil {
		return nil, err
	}
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &IOError{Path: path, Op: "seek", Err: err}
	}
	if need := int64(h.DataOffset) + h.PixelBytes(); need > size {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf(
			"pixel data truncated (%dx%d needs %d bytes at offset %d, file has %d)",
			h.Width, h.Height, h.PixelBytes(), h.DataOffset, size)}
	}
	if _, err := rs.Seek(int64(h.DataOffset), io.SeekStart); err != nil {
		return nil, &IOError{Path: path, Op: "seek", Err: err}
	}
	return &Reader{
		path:      path,
		src:       rs,
		closer:    c,
		header:    h,
		remaining: h.PixelBytes(),
		chunkSize: ChunkSize,
	}, nil
}

// Header returns the validated header.
func (r *Reader) Header() Header { return r.header }

// Path returns the name the reader was opened with.
func (r *Reader) Path() string { return r.path }

// Remaining returns the number of pixel bytes not yet delivered.
func (r *Reader) Remaining() int64 { return r.remaining }

// SetChunkSize overrides the chunk bound. Values outside (0, ChunkSize]
// are ignored. It exists so callers can exercise odd chunk boundaries.
func (r *Reader) SetChunkSize(n int) {
	if n > 0 && n <= ChunkSize {
		r.chunkSize = n
	}
}

// Next returns the next chunk of pixel bytes. The slice is reused by the
// following call. After the last chunk Next returns io.EOF and closes the
// underlying file. A stream that ends early, such as a file truncated
// after it was opened, yields an *IOError wrapping io.ErrUnexpectedEOF.
func (r *Reader) Next() ([]byte, error) {
	if r.remaining <= 0 {
		_ = r.Close()
		return nil, io.EOF
	}
	if r.src == nil {
		return nil, &IOError{Path: r.path, Op: "read", Err: os.ErrClosed}
	}
	n := r.chunkSize
	if int64(n) > r.remaining {
		n = int(r.remaining)
	}
	if r.buf == nil {
		r.buf = make([]byte, r.chunkSize)
	}
	got, err := io.ReadFull(r.src, r.buf[:n])
	if err != nil {
		_ = r.Close()
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &IOError{Path: r.path, Op: "read pixels", Err: err}
	}
	r.remaining -= int64(got)
	return r.buf[:got], nil
}

// WriteTo streams every remaining pixel byte to w, chunk by chunk.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			_ = r.Close()
			return total, err
		}
	}
}

// Close releases the underlying file. It is safe to call more than once.
func (r *Reader) Close() error {
	r.src = nil
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	if err := c.Close(); err != nil {
		return &IOError{Path: r.path, Op: "close", Err: err}
	}
	return nil
}
