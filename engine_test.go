package tileview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gpucontext"
	_ "github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/tileview/bitmap"
	"github.com/gogpu/tileview/tile"
	"github.com/gogpu/tileview/window"
	"github.com/gogpu/tileview/window/headless"
)

// patternBitmap returns an encoded w x h test bitmap.
func patternBitmap(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bitmap.Encode(&buf, w, h, tile.Pattern(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func openHeadless(t *testing.T, opts ...headless.Option) *headless.Provider {
	t.Helper()
	p := headless.New(opts...)
	if err := p.Open(window.Config{Width: 64, Height: 48}); err != nil {
		t.Fatalf("open headless: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestEngineEndToEnd(t *testing.T) {
	e := New(WithTileEdge(16), WithChunkSize(1000))
	defer e.Close()
	if err := e.LoadReader(bytes.NewReader(patternBitmap(t, 40, 20)), "pattern.bmp"); err != nil {
		t.Fatalf("LoadReader: %v", err)
	}

	before := e.Stats()
	if before.TilesX != 3 || before.TilesY != 2 || before.Tiles != 6 {
		t.Fatalf("grid = %dx%d (%d), want 3x2 (6)", before.TilesX, before.TilesY, before.Tiles)
	}
	if before.Indices != 2*(3+2)*2-2 || before.Vertices != 4*3 {
		t.Errorf("mesh = %d vertices, %d indices", before.Vertices, before.Indices)
	}
	if before.TileBytes != 6*16*16*3 {
		t.Errorf("TileBytes = %d before upload", before.TileBytes)
	}

	p := openHeadless(t, headless.WithFrames(3))
	if err := e.Run(p); err != nil {
		t.Fatalf("Run: %v", err)
	}

	after := e.Stats()
	if after.Frames != 3 || after.Draws != 3 {
		t.Errorf("frames=%d draws=%d, want 3 each", after.Frames, after.Draws)
	}
	if after.TileBytes != 0 {
		t.Errorf("CPU tiles still held after upload: %d bytes", after.TileBytes)
	}
	if want := int64(6 * 16 * 16 * 4); after.UploadedBytes != want {
		t.Errorf("UploadedBytes = %d, want %d", after.UploadedBytes, want)
	}
	if p.Image() == nil {
		t.Error("no frame presented")
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if got := e.Stats(); got.Frames != 3 {
		t.Errorf("Frames after Close = %d, want 3", got.Frames)
	}
}

func TestEngineLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.bmp")
	if err := os.WriteFile(path, patternBitmap(t, 300, 200), 0o600); err != nil {
		t.Fatal(err)
	}
	e := New()
	defer e.Close()
	if err := e.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	plan := e.Plan()
	if plan == nil || plan.TilesX != 2 || plan.TilesY != 1 {
		t.Fatalf("plan = %+v, want 2x1 tiles", plan)
	}
	if e.Header().Width != 300 || e.Header().Height != 200 {
		t.Errorf("header = %+v", e.Header())
	}
	if err := e.Load(path); !errors.Is(err, ErrLoaded) {
		t.Errorf("second Load = %v, want ErrLoaded", err)
	}
}

func TestEngineQuitOnQ(t *testing.T) {
	e := New(WithTileEdge(8))
	defer e.Close()
	if err := e.LoadReader(bytes.NewReader(patternBitmap(t, 8, 8)), "q.bmp"); err != nil {
		t.Fatal(err)
	}
	p := openHeadless(t, headless.WithFrames(0))
	p.Inject(gpucontext.KeyQ)
	if err := e.Run(p); err != nil {
		t.Fatal(err)
	}
	if got := e.Stats().Frames; got != 0 {
		t.Errorf("frames = %d, want 0 (Q before first expose)", got)
	}
}

func TestEngineErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		e := New()
		err := e.Load(filepath.Join(t.TempDir(), "absent.bmp"))
		if Kind(err) != KindIO {
			t.Errorf("Kind = %v for %v, want io", Kind(err), err)
		}
	})
	t.Run("bad format", func(t *testing.T) {
		data := patternBitmap(t, 4, 4)
		data[26] = 0x18 // format word no longer 0x00200001
		err := New().LoadReader(bytes.NewReader(data), "bad.bmp")
		if Kind(err) != KindFormat {
			t.Errorf("Kind = %v for %v, want format", Kind(err), err)
		}
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("errors.As FormatError failed for %v", err)
		}
	})
	t.Run("truncated pixels", func(t *testing.T) {
		data := patternBitmap(t, 10, 10)
		err := New().LoadReader(bytes.NewReader(data[:len(data)-5]), "short.bmp")
		if Kind(err) != KindFormat {
			t.Errorf("Kind = %v for %v, want format", Kind(err), err)
		}
	})
	t.Run("lying header", func(t *testing.T) {
		for _, size := range [][2]uint32{{0xFFFFFFFF, 0xFFFFFFFF}, {100000, 100000}} {
			data := patternBitmap(t, 16, 16)
			binary.LittleEndian.PutUint32(data[18:22], size[0])
			binary.LittleEndian.PutUint32(data[22:26], size[1])
			e := New()
			err := e.LoadReader(bytes.NewReader(data), "lying.bmp")
			if Kind(err) != KindFormat {
				t.Errorf("%dx%d: Kind = %v for %v, want format", size[0], size[1], Kind(err), err)
			}
			if e.Plan() != nil {
				t.Errorf("%dx%d: plan kept after a rejected header", size[0], size[1])
			}
		}
	})
	t.Run("run before load", func(t *testing.T) {
		p := openHeadless(t)
		if err := New().Run(p); !errors.Is(err, ErrNotLoaded) {
			t.Errorf("Run = %v, want ErrNotLoaded", err)
		}
	})
	t.Run("missing shader", func(t *testing.T) {
		e := New(WithShaders(filepath.Join(t.TempDir(), "none.wgsl"), ""), WithTileEdge(4))
		defer e.Close()
		if err := e.LoadReader(bytes.NewReader(patternBitmap(t, 4, 4)), "s.bmp"); err != nil {
			t.Fatal(err)
		}
		err := e.Run(openHeadless(t))
		if Kind(err) != KindCompile {
			t.Errorf("Kind = %v for %v, want compile", Kind(err), err)
		}
	})
	t.Run("closed", func(t *testing.T) {
		e := New()
		_ = e.Close()
		if err := e.Load("x.bmp"); !errors.Is(err, ErrClosed) {
			t.Errorf("Load after Close = %v", err)
		}
		if err := e.Run(openHeadless(t)); !errors.Is(err, ErrClosed) {
			t.Errorf("Run after Close = %v", err)
		}
	})
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{&IOError{Path: "a", Op: "read", Err: errors.New("x")}, KindIO},
		{&FormatError{Path: "a", Reason: "r"}, KindFormat},
		{&CompileError{Path: "a"}, KindCompile},
		{&LinkError{Vertex: "a", Fragment: "b"}, KindLink},
		{&GPUInitError{Op: "open", Err: errors.New("x")}, KindGPUInit},
		{errors.New("other"), KindOther},
	}
	for _, tt := range tests {
		if got := Kind(tt.err); got != tt.want {
			t.Errorf("Kind(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
	if KindGPUInit.String() != "gpu-init" || ErrorKind(99).String() != "other" {
		t.Error("unexpected ErrorKind names")
	}
}

// releasingProvider is a headless provider that, like the desktop window,
// takes release hooks and runs them when its loop ends.
type releasingProvider struct {
	*headless.Provider
	releases []func()
}

func (r *releasingProvider) OnRelease(fn func()) { r.releases = append(r.releases, fn) }

func (r *releasingProvider) Run(fn window.FrameFunc) error {
	err := r.Provider.Run(fn)
	for i := len(r.releases) - 1; i >= 0; i-- {
		r.releases[i]()
	}
	r.releases = nil
	return err
}

func TestEngineRunAfterRelease(t *testing.T) {
	e := New(WithTileEdge(16))
	defer e.Close()
	if err := e.LoadReader(bytes.NewReader(patternBitmap(t, 40, 20)), "p.bmp"); err != nil {
		t.Fatal(err)
	}
	p := &releasingProvider{Provider: openHeadless(t, headless.WithFrames(2))}

	if err := e.Run(p); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if got := e.Stats().Frames; got != 2 {
		t.Errorf("Frames = %d, want 2", got)
	}
	if err := e.Run(p); !errors.Is(err, ErrReleased) {
		t.Errorf("second Run = %v, want ErrReleased", err)
	}
}
