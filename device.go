package imdraw

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// backendRank orders backends from most to least preferred. The empty
// backend is the software or noop implementation.
var backendRank = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Device is a GPU device opened by OpenDevice. Close releases it.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	Info   gputypes.AdapterInfo
	Limits gputypes.Limits

	instance hal.Instance
	adapter  hal.Adapter
}

// OpenDevice opens a device on the first of backends that has a usable
// adapter, preferring discrete over integrated GPUs. Without arguments
// every registered backend is tried, Vulkan first. Backends register
// themselves when their hal package is imported, for example through
// github.com/gogpu/wgpu/hal/allbackends.
func OpenDevice(backends ...gputypes.Backend) (*Device, error) {
	if len(backends) == 0 {
		backends = registeredBackends()
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no hal backend registered", ErrNoAdapter)
	}
	var errs []error
	for _, b := range backends {
		d, err := openOn(b)
		if err == nil {
			Logger().Info("GPU device opened",
				"backend", b.String(),
				"adapter", d.Info.Name,
				"type", d.Info.DeviceType.String())
			return d, nil
		}
		Logger().Debug("backend unusable", "backend", b.String(), "err", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
}

func registeredBackends() []gputypes.Backend {
	bs := hal.AvailableBackends()
	rank := func(b gputypes.Backend) int {
		if i := slices.Index(backendRank, b); i >= 0 {
			return i
		}
		return len(backendRank)
	}
	slices.SortFunc(bs, func(a, b gputypes.Backend) int { return rank(a) - rank(b) })
	return bs
}

func openOn(b gputypes.Backend) (*Device, error) {
	backend, ok := hal.GetBackend(b)
	if !ok {
		return nil, fmt.Errorf("%s backend not registered", b)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		return nil, fmt.Errorf("%s: create instance: %w", b, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	selected := pickAdapter(adapters)
	if selected == nil {
		instance.Destroy()
		return nil, fmt.Errorf("%s: no adapters", b)
	}
	limits := gputypes.DefaultLimits()
	open, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%s: open %s: %w", b, selected.Info.Name, err)
	}
	return &Device{
		Device:   open.Device,
		Queue:    open.Queue,
		Info:     selected.Info,
		Limits:   limits,
		instance: instance,
		adapter:  selected.Adapter,
	}, nil
}

func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	rank := func(t gputypes.DeviceType) int {
		switch t {
		case gputypes.DeviceTypeDiscreteGPU:
			return 0
		case gputypes.DeviceTypeIntegratedGPU:
			return 1
		default:
			return 2
		}
	}
	var best *hal.ExposedAdapter
	for i := range adapters {
		if best == nil || rank(adapters[i].Info.DeviceType) < rank(best.Info.DeviceType) {
			best = &adapters[i]
		}
	}
	return best
}

// Options returns the options that render with d.
func (d *Device) Options() []Option {
	return []Option{WithDevice(d.Device, d.Queue), WithLimits(d.Limits)}
}

// Close destroys the device and the instance it was opened from. Close
// any renderer using d first.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
		d.Device, d.Queue = nil, nil
	}
	if d.adapter != nil {
		d.adapter.Destroy()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
