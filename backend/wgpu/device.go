// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/layercomp/device"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g GPUInfo) String() string {
	return fmt.Sprintf("%s (%v, %v)", g.Name, g.DeviceType, g.Backend)
}

func gpuInfo(info gputypes.AdapterInfo) GPUInfo {
	return GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}
}

// Option configures a Device.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	backends webgpu.Backends
	device   *webgpu.Device
	adapter  *webgpu.Adapter
}

// WithLogger sets the device logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithBackends restricts the HAL backends used when the device opens its
// own instance. The default is wgpu.BackendsPrimary.
func WithBackends(b webgpu.Backends) Option {
	return func(c *config) { c.backends = b }
}

// WithDevice wraps a device owned by the host. The adapter is optional and
// only used for AdapterInfo and Recover.
func WithDevice(dev *webgpu.Device, adapter *webgpu.Adapter) Option {
	return func(c *config) {
		c.device = dev
		c.adapter = adapter
	}
}

type lossListener struct {
	lost, restored func()
}

// Device is a device.Device backed by a WebGPU device.
//
// Rendering methods must be called from one goroutine. NotifyLoss may be
// called from any goroutine.
type Device struct {
	logger atomic.Pointer[slog.Logger]

	instance *webgpu.Instance
	adapter  *webgpu.Adapter
	dev      *webgpu.Device
	queue    *webgpu.Queue
	owned    bool
	info     GPUInfo

	generation atomic.Uint64
	lost       atomic.Bool

	mu        sync.Mutex
	listeners map[int]lossListener
	nextID    int

	pipelines *PipelineCache
	samplers  map[device.Sampler]*webgpu.Sampler
	meshes    map[*device.Mesh]*webgpu.Buffer
	surface   *target
}

var (
	_ device.Device       = (*Device)(nil)
	_ device.LossNotifier = (*Device)(nil)
	_ device.Handle       = (*Device)(nil)
	_ device.PixelReader  = (*Device)(nil)
)

// New opens a WebGPU device, or wraps the one given by WithDevice.
func New(opts ...Option) (*Device, error) {
	cfg := config{backends: webgpu.BackendsPrimary}
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		listeners: make(map[int]lossListener),
		samplers:  make(map[device.Sampler]*webgpu.Sampler),
		meshes:    make(map[*device.Mesh]*webgpu.Buffer),
	}
	d.SetLogger(cfg.logger)
	d.generation.Store(1)

	if cfg.device != nil {
		d.dev = cfg.device
		d.adapter = cfg.adapter
	} else {
		if err := d.open(cfg.backends); err != nil {
			return nil, err
		}
		d.owned = true
	}
	if d.adapter != nil {
		d.info = gpuInfo(d.adapter.Info())
	}
	d.queue = d.dev.Queue()

	pc, err := NewPipelineCache(d.dev)
	if err != nil {
		d.Release()
		return nil, err
	}
	d.pipelines = pc

	d.slogger().Info("wgpu: device ready", "gpu", d.info.String(), "driver", d.info.Driver)
	return d, nil
}

func (d *Device) open(backends webgpu.Backends) error {
	instance, err := webgpu.CreateInstance(&webgpu.InstanceDescriptor{Backends: backends})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return fmt.Errorf("wgpu: request adapter: %w", err)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return fmt.Errorf("wgpu: request device: %w", err)
	}
	d.instance, d.adapter, d.dev = instance, adapter, dev
	return nil
}

// SetLogger replaces the device logger. A nil logger disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.logger.Store(l)
}

func (d *Device) slogger() *slog.Logger { return d.logger.Load() }

// Info describes the adapter behind the device.
func (d *Device) Info() GPUInfo { return d.info }

// Generation returns the current device generation. It increases on every
// successful Recover.
func (d *Device) Generation() uint64 { return d.generation.Load() }

// Lost reports whether a device loss has been observed.
func (d *Device) Lost() bool { return d.lost.Load() }

// NotifyLoss registers loss and restore callbacks.
func (d *Device) NotifyLoss(lost, restored func()) (cancel func()) {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = lossListener{lost: lost, restored: restored}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.listeners, id)
		d.mu.Unlock()
	}
}

func (d *Device) snapshotListeners() []lossListener {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]lossListener, 0, len(d.listeners))
	for i := 0; i < d.nextID; i++ {
		if l, ok := d.listeners[i]; ok {
			out = append(out, l)
		}
	}
	return out
}

// check converts WebGPU errors into device errors and fires the lost
// callbacks on the first loss.
func (d *Device) check(op string, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, webgpu.ErrDeviceLost) {
		return fmt.Errorf("wgpu: %s: %w", op, err)
	}
	if d.lost.CompareAndSwap(false, true) {
		d.slogger().Warn("wgpu: device lost", "op", op)
		for _, l := range d.snapshotListeners() {
			if l.lost != nil {
				l.lost()
			}
		}
	}
	return fmt.Errorf("wgpu: %s: %w", op, device.ErrDeviceLost)
}

func (d *Device) checkLost() error {
	if d.lost.Load() {
		return device.ErrDeviceLost
	}
	return nil
}

// Recover replaces a lost device with a new one from the same adapter.
// Resources of the previous generation report Released afterwards.
// Recovering a device that is not lost is a no-op.
func (d *Device) Recover() error {
	if !d.lost.Load() {
		return nil
	}
	if d.adapter == nil {
		return fmt.Errorf("wgpu: recover without adapter: %w", device.ErrDeviceLost)
	}
	dev, err := d.adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("wgpu: recover: %w", err)
	}
	pc, err := NewPipelineCache(dev)
	if err != nil {
		dev.Release()
		return err
	}

	d.dropCaches()
	if d.owned {
		d.dev.Release()
	}
	d.dev, d.queue, d.pipelines = dev, dev.Queue(), pc
	d.owned = true
	d.generation.Add(1)
	d.lost.Store(false)

	d.slogger().Info("wgpu: device restored", "generation", d.generation.Load())
	for _, l := range d.snapshotListeners() {
		if l.restored != nil {
			l.restored()
		}
	}
	return nil
}

func (d *Device) dropCaches() {
	for k, s := range d.samplers {
		s.Release()
		delete(d.samplers, k)
	}
	for k, b := range d.meshes {
		b.Release()
		delete(d.meshes, k)
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface.img.Release()
		d.surface = nil
	}
	if d.pipelines != nil {
		d.pipelines.Release()
		d.pipelines = nil
	}
}

// Release frees cached objects and, when the device was opened by New,
// the device, adapter and instance.
func (d *Device) Release() {
	d.dropCaches()
	if !d.owned {
		return
	}
	if d.dev != nil {
		d.dev.Release()
		d.dev = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// Device returns the underlying *wgpu.Device.
func (d *Device) Device() gpucontext.Device { return d.dev }

// Queue returns the underlying *wgpu.Queue.
func (d *Device) Queue() gpucontext.Queue { return d.queue }

// Adapter returns the underlying *wgpu.Adapter, or nil for a wrapped
// device without one.
func (d *Device) Adapter() gpucontext.Adapter {
	if d.adapter == nil {
		return nil
	}
	return d.adapter
}

// SurfaceFormat returns the format of the presentation surface.
func (d *Device) SurfaceFormat() gputypes.TextureFormat { return device.Format }

// AdapterInfo describes the adapter for render mode decisions.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	t := gpucontext.AdapterTypeUnknown
	switch d.info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		t = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		t = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		t = gpucontext.AdapterTypeSoftware
	}
	return gpucontext.AdapterInfo{Name: d.info.Name, Type: t}
}
