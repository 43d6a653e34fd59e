package window

import (
	"testing"

	"github.com/gogpu/gpucontext"
)

func TestEventHubFanOut(t *testing.T) {
	var hub EventHub
	var order []string
	hub.OnKeyPress(func(k gpucontext.Key, _ gpucontext.Modifiers) {
		if k == gpucontext.KeyQ {
			order = append(order, "first")
		}
	})
	hub.OnKeyPress(func(gpucontext.Key, gpucontext.Modifiers) { order = append(order, "second") })

	hub.EmitKeyPress(gpucontext.KeyQ, 0)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("handlers ran as %v", order)
	}
}

func TestEventHubDispatch(t *testing.T) {
	var hub EventHub
	var (
		released             gpucontext.Key
		moved, pressed, upAt [2]float64
		button               gpucontext.MouseButton
		width, height        int
		focused              bool
	)
	hub.OnKeyRelease(func(k gpucontext.Key, _ gpucontext.Modifiers) { released = k })
	hub.OnMouseMove(func(x, y float64) { moved = [2]float64{x, y} })
	hub.OnMousePress(func(b gpucontext.MouseButton, x, y float64) { button, pressed = b, [2]float64{x, y} })
	hub.OnMouseRelease(func(_ gpucontext.MouseButton, x, y float64) { upAt = [2]float64{x, y} })
	hub.OnResize(func(w, h int) { width, height = w, h })
	hub.OnFocus(func(f bool) { focused = f })

	hub.EmitKeyRelease(gpucontext.KeyEscape, 0)
	hub.EmitMouseMove(1, 2)
	hub.EmitMousePress(gpucontext.MouseButtonLeft, 3, 4)
	hub.EmitMouseRelease(gpucontext.MouseButtonLeft, 5, 6)
	hub.EmitResize(800, 600)
	hub.EmitFocus(true)

	if released != gpucontext.KeyEscape {
		t.Errorf("released = %v", released)
	}
	if moved != [2]float64{1, 2} || pressed != [2]float64{3, 4} || upAt != [2]float64{5, 6} {
		t.Errorf("mouse = %v %v %v", moved, pressed, upAt)
	}
	if button != gpucontext.MouseButtonLeft {
		t.Errorf("button = %v", button)
	}
	if width != 800 || height != 600 || !focused {
		t.Errorf("resize/focus = %dx%d %v", width, height, focused)
	}
}

func TestEventHubRegisterFromHandler(t *testing.T) {
	var hub EventHub
	calls := 0
	hub.OnResize(func(int, int) {
		calls++
		hub.OnResize(func(int, int) { calls++ })
	})
	hub.EmitResize(1, 1) // must not deadlock; the new handler runs next time
	if calls != 1 {
		t.Fatalf("calls = %d after first emit, want 1", calls)
	}
	hub.EmitResize(1, 1)
	if calls != 3 {
		t.Errorf("calls = %d after second emit, want 3", calls)
	}
}

func TestEventHubIgnoresUnsupported(t *testing.T) {
	var hub EventHub
	hub.OnTextInput(func(string) { t.Error("text input should never fire") })
	hub.OnScroll(func(float64, float64) { t.Error("scroll should never fire") })
	hub.EmitKeyPress(gpucontext.KeyQ, 0)
}
