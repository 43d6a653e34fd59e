package headless

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/tileview/internal/gpu"
	"github.com/gogpu/tileview/window"
)

func openProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	p := New(opts...)
	require.NoError(t, p.Open(window.Config{Width: 32, Height: 24}))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// present is a frame func that only presents the target.
func present(f *window.Frame) error { return f.Target.Present() }

func TestRegistered(t *testing.T) {
	require.True(t, window.IsRegistered(Name))
	p, err := window.Get(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, p.Name())
}

func TestRunDeliversFrames(t *testing.T) {
	p := openProvider(t, WithFrames(3))

	var sizes [][2]uint32
	err := p.Run(func(f *window.Frame) error {
		require.NotNil(t, f.Device)
		require.NotNil(t, f.Queue)
		assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, f.Format)
		sizes = append(sizes, [2]uint32{f.Width, f.Height})
		return f.Target.Present()
	})
	require.NoError(t, err)

	assert.Equal(t, 3, p.Frames())
	assert.Equal(t, [][2]uint32{{32, 24}, {32, 24}, {32, 24}}, sizes)

	img := p.Image()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
}

func TestRunEmitsResize(t *testing.T) {
	p := openProvider(t)
	var w, h int
	p.Events().OnResize(func(width, height int) { w, h = width, height })
	require.NoError(t, p.Run(present))
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}

func TestInjectedKeyQuits(t *testing.T) {
	p := openProvider(t, WithFrames(0)) // until Quit
	p.Events().OnKeyPress(func(k gpucontext.Key, _ gpucontext.Modifiers) {
		if k == gpucontext.KeyQ {
			p.Quit()
		}
	})

	err := p.Run(func(f *window.Frame) error {
		if p.Frames() == 1 {
			p.Inject(gpucontext.KeyQ)
		}
		return f.Target.Present()
	})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Frames())
}

func TestRunStopsOnFrameError(t *testing.T) {
	p := openProvider(t, WithFrames(5))
	boom := errors.New("draw failed")
	err := p.Run(func(*window.Frame) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Frames())
}

func TestRunBeforeOpen(t *testing.T) {
	p := New()
	assert.ErrorIs(t, p.Run(present), window.ErrNotOpen)
}

func TestCloseIdempotent(t *testing.T) {
	p := New()
	require.NoError(t, p.Open(window.Config{}))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Run(present), window.ErrClosed)
	assert.ErrorIs(t, p.Open(window.Config{}), window.ErrClosed)
}

func TestOpenDefaultsConfig(t *testing.T) {
	p := New()
	require.NoError(t, p.Open(window.Config{}))
	defer p.Close()
	w, h := p.target.Size()
	assert.Equal(t, uint32(window.DefaultWidth), w)
	assert.Equal(t, uint32(window.DefaultHeight), h)
}

func TestOpenUnknownBackend(t *testing.T) {
	p := New(WithBackend(gputypes.BackendMetal))
	err := p.Open(window.Config{})
	assert.ErrorIs(t, err, gpu.ErrGPUInit)
}

func TestSnapshotWrittenAfterRun(t *testing.T) {
	for _, name := range []string{"frame.bmp", "frame.bmp.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			p := openProvider(t, WithFrames(2), WithSnapshot(path))
			require.NoError(t, p.Run(present))

			img, err := ReadSnapshot(path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
		})
	}
}

func TestSnapshotRoundTripPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 80), G: uint8(y * 120), B: 77, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "rt.bmp.zst")
	require.NoError(t, WriteSnapshot(path, src))

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			r, g, b, _ := got.At(x, y).RGBA()
			want := src.RGBAAt(x, y)
			assert.Equal(t, [3]uint8{want.R, want.G, want.B}, [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}, "pixel %d,%d", x, y)
		}
	}
}

func TestReadSnapshotMissing(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "none.bmp"))
	assert.Error(t, err)
}
