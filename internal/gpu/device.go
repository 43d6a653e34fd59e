package gpu

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// backendNames maps command-line names to HAL variants. The software
// rasterizer and the noop test backend share the BackendEmpty slot, so
// whichever of the two is linked answers to both names.
var backendNames = map[string]gputypes.Backend{
	"vulkan":   gputypes.BackendVulkan,
	"metal":    gputypes.BackendMetal,
	"dx12":     gputypes.BackendDX12,
	"gl":       gputypes.BackendGL,
	"software": gputypes.BackendEmpty,
	"noop":     gputypes.BackendEmpty,
}

// ParseBackend resolves a backend name such as "vulkan" or "software".
func ParseBackend(name string) (gputypes.Backend, error) {
	b, ok := backendNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("gpu: unknown backend %q (want one of %s)", name, strings.Join(BackendNames(), ", "))
	}
	return b, nil
}

// BackendNames lists the accepted backend names in sorted order.
func BackendNames() []string {
	names := make([]string, 0, len(backendNames))
	for n := range backendNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Device bundles an open HAL device with the facts the renderer needs
// about it. A Device returned by OpenDevice owns its instance; one built by
// WrapDevice does not.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	Info   gputypes.AdapterInfo
	Limits gputypes.Limits

	instance hal.Instance
}

// WrapDevice describes a device owned by someone else, such as a window
// framework. Close on the result releases nothing.
func WrapDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{Device: device, Queue: queue, Limits: gputypes.DefaultLimits()}
}

// OpenDevice creates an instance of the given backend and opens the best
// adapter it exposes, preferring discrete and then integrated GPUs.
func OpenDevice(variant gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(variant)
	if !ok {
		return nil, &GPUInitError{Op: "select backend", Err: fmt.Errorf("%s backend not registered", variant)}
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, &GPUInitError{Op: "create instance", Err: err}
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, &GPUInitError{Op: "enumerate adapters", Err: fmt.Errorf("no %s adapters found", variant)}
	}
	selected := pickAdapter(adapters)

	limits := requestLimits(selected.Capabilities.Limits)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, &GPUInitError{Op: "open device", Err: err}
	}
	slogger().Info("gpu: device opened",
		"backend", variant.String(),
		"adapter", selected.Info.Name,
		"type", selected.Info.DeviceType,
		"maxLayers", limits.MaxTextureArrayLayers)

	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Info:     selected.Info,
		Limits:   limits,
		instance: instance,
	}, nil
}

func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// requestLimits starts from the WebGPU defaults and raises the array layer
// limit to what the adapter supports, since every tile is one layer.
func requestLimits(supported gputypes.Limits) gputypes.Limits {
	limits := gputypes.DefaultLimits()
	if supported.MaxTextureArrayLayers > limits.MaxTextureArrayLayers {
		limits.MaxTextureArrayLayers = supported.MaxTextureArrayLayers
	}
	return limits
}

// Instance returns the HAL instance, or nil for wrapped devices.
func (d *Device) Instance() hal.Instance { return d.instance }

// Close waits for the GPU to go idle and destroys the device and instance
// if this Device owns them.
func (d *Device) Close() {
	if d == nil || d.instance == nil {
		return
	}
	if err := d.Device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle on close", "error", err)
	}
	d.Device.Destroy()
	d.instance.Destroy()
	d.instance = nil
}
