package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/noop"
)

// newTestDevice opens the noop backend through the same path the
// command line uses.
func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := OpenDevice(gputypes.BackendEmpty)
	if err != nil {
		t.Fatalf("OpenDevice(noop): %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func TestOpenDeviceNoop(t *testing.T) {
	dev := newTestDevice(t)
	if dev.Device == nil || dev.Queue == nil {
		t.Fatal("device or queue is nil")
	}
	if dev.Instance() == nil {
		t.Error("opened device should own its instance")
	}
	if dev.Info.Name == "" {
		t.Error("adapter info not recorded")
	}
	if got, want := dev.Limits.MaxTextureArrayLayers, gputypes.DefaultLimits().MaxTextureArrayLayers; got < want {
		t.Errorf("MaxTextureArrayLayers = %d, want >= %d", got, want)
	}
}

func TestOpenDeviceUnregistered(t *testing.T) {
	// No Metal backend is linked into this test binary.
	_, err := OpenDevice(gputypes.BackendMetal)
	if err == nil {
		t.Fatal("expected error for unregistered backend")
	}
	if !errors.Is(err, ErrGPUInit) {
		t.Errorf("errors.Is(err, ErrGPUInit) = false for %v", err)
	}
	var ie *GPUInitError
	if !errors.As(err, &ie) || ie.Op != "select backend" {
		t.Errorf("got %#v, want GPUInitError{Op: select backend}", err)
	}
}

func TestWrapDeviceCloseIsNoop(t *testing.T) {
	owner := newTestDevice(t)
	wrapped := WrapDevice(owner.Device, owner.Queue)
	if wrapped.Instance() != nil {
		t.Error("wrapped device must not own an instance")
	}
	wrapped.Close()
	wrapped.Close()

	// The owner is still usable.
	if _, err := owner.Device.CreateBuffer(&hal.BufferDescriptor{Size: 4, Usage: gputypes.BufferUsageCopyDst}); err != nil {
		t.Errorf("owner device unusable after wrapped Close: %v", err)
	}
}

func TestDeviceCloseTwice(t *testing.T) {
	dev, err := OpenDevice(gputypes.BackendEmpty)
	if err != nil {
		t.Fatal(err)
	}
	dev.Close()
	dev.Close()
	var nilDev *Device
	nilDev.Close()
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name    string
		want    gputypes.Backend
		wantErr bool
	}{
		{"vulkan", gputypes.BackendVulkan, false},
		{"Vulkan", gputypes.BackendVulkan, false},
		{"metal", gputypes.BackendMetal, false},
		{"dx12", gputypes.BackendDX12, false},
		{"gl", gputypes.BackendGL, false},
		{"software", gputypes.BackendEmpty, false},
		{"noop", gputypes.BackendEmpty, false},
		{"directx9", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBackend(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackend(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseBackend(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBackendNamesSorted(t *testing.T) {
	names := BackendNames()
	if len(names) != len(backendNames) {
		t.Fatalf("len = %d, want %d", len(names), len(backendNames))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("not sorted: %v", names)
		}
	}
}

func TestPickAdapterPrefersDiscrete(t *testing.T) {
	adapters := []hal.ExposedAdapter{
		{Info: gputypes.AdapterInfo{Name: "cpu", DeviceType: gputypes.DeviceTypeCPU}},
		{Info: gputypes.AdapterInfo{Name: "igpu", DeviceType: gputypes.DeviceTypeIntegratedGPU}},
		{Info: gputypes.AdapterInfo{Name: "dgpu", DeviceType: gputypes.DeviceTypeDiscreteGPU}},
	}
	if got := pickAdapter(adapters).Info.Name; got != "dgpu" {
		t.Errorf("picked %q, want dgpu", got)
	}
	if got := pickAdapter(adapters[:2]).Info.Name; got != "igpu" {
		t.Errorf("picked %q, want igpu", got)
	}
	if got := pickAdapter(adapters[:1]).Info.Name; got != "cpu" {
		t.Errorf("picked %q, want cpu", got)
	}
}

func TestRequestLimitsRaisesLayers(t *testing.T) {
	supported := gputypes.DefaultLimits()
	supported.MaxTextureArrayLayers = 2048
	if got := requestLimits(supported).MaxTextureArrayLayers; got != 2048 {
		t.Errorf("MaxTextureArrayLayers = %d, want 2048", got)
	}
	if got := requestLimits(gputypes.Limits{}).MaxTextureArrayLayers; got != gputypes.DefaultLimits().MaxTextureArrayLayers {
		t.Errorf("zero supported limits lowered the default to %d", got)
	}
}
