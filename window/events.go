package window

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// EventHub is a gpucontext.EventSource for providers that synthesise
// their own input. Any number of handlers may be registered per event;
// they run in registration order on the goroutine that emits.
//
// Text input, scroll and IME registrations are accepted and ignored.
type EventHub struct {
	gpucontext.NullEventSource

	mu           sync.Mutex
	keyPress     []func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease   []func(gpucontext.Key, gpucontext.Modifiers)
	mouseMove    []func(x, y float64)
	mousePress   []func(gpucontext.MouseButton, float64, float64)
	mouseRelease []func(gpucontext.MouseButton, float64, float64)
	resize       []func(width, height int)
	focus        []func(bool)
}

var _ gpucontext.EventSource = (*EventHub)(nil)

func (h *EventHub) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	h.mu.Lock()
	h.keyPress = append(h.keyPress, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	h.mu.Lock()
	h.keyRelease = append(h.keyRelease, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnMouseMove(fn func(x, y float64)) {
	h.mu.Lock()
	h.mouseMove = append(h.mouseMove, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	h.mu.Lock()
	h.mousePress = append(h.mousePress, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	h.mu.Lock()
	h.mouseRelease = append(h.mouseRelease, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnResize(fn func(width, height int)) {
	h.mu.Lock()
	h.resize = append(h.resize, fn)
	h.mu.Unlock()
}

func (h *EventHub) OnFocus(fn func(bool)) {
	h.mu.Lock()
	h.focus = append(h.focus, fn)
	h.mu.Unlock()
}

// EmitKeyPress delivers a key press to every registered handler.
func (h *EventHub) EmitKeyPress(key gpucontext.Key, mods gpucontext.Modifiers) {
	for _, fn := range snapshot(&h.mu, &h.keyPress) {
		fn(key, mods)
	}
}

// EmitKeyRelease delivers a key release.
func (h *EventHub) EmitKeyRelease(key gpucontext.Key, mods gpucontext.Modifiers) {
	for _, fn := range snapshot(&h.mu, &h.keyRelease) {
		fn(key, mods)
	}
}

// EmitMouseMove delivers a pointer move.
func (h *EventHub) EmitMouseMove(x, y float64) {
	for _, fn := range snapshot(&h.mu, &h.mouseMove) {
		fn(x, y)
	}
}

// EmitMousePress delivers a button press at (x, y).
func (h *EventHub) EmitMousePress(b gpucontext.MouseButton, x, y float64) {
	for _, fn := range snapshot(&h.mu, &h.mousePress) {
		fn(b, x, y)
	}
}

// EmitMouseRelease delivers a button release at (x, y).
func (h *EventHub) EmitMouseRelease(b gpucontext.MouseButton, x, y float64) {
	for _, fn := range snapshot(&h.mu, &h.mouseRelease) {
		fn(b, x, y)
	}
}

// EmitResize delivers a new framebuffer size.
func (h *EventHub) EmitResize(width, height int) {
	for _, fn := range snapshot(&h.mu, &h.resize) {
		fn(width, height)
	}
}

// EmitFocus delivers a focus change.
func (h *EventHub) EmitFocus(focused bool) {
	for _, fn := range snapshot(&h.mu, &h.focus) {
		fn(focused)
	}
}

// snapshot copies a handler list under mu so handlers may register more
// handlers without deadlocking.
func snapshot[F any](mu *sync.Mutex, fns *[]F) []F {
	mu.Lock()
	defer mu.Unlock()
	return append([]F(nil), (*fns)...)
}
