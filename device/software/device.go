// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/device"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Stats counts device activity since creation.
type Stats struct {
	ImagesCreated  int
	ImagesReleased int
	Targets        int
	Programs       int
	Clears         int
	Draws          int
	// Triangles counts rasterized triangles, skipping degenerate ones.
	Triangles int
	Mipmaps   int
	Losses    int
	Restores  int
}

// LiveImages returns the number of images created and not yet released.
func (s Stats) LiveImages() int {
	return s.ImagesCreated - s.ImagesReleased
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the device logger. A nil logger disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.SetLogger(l) }
}

// WithSPIRVValidation makes NewProgram compile every program to SPIR-V
// with naga in addition to checking its entry points.
func WithSPIRVValidation() Option {
	return func(d *Device) { d.compileSPIRV = true }
}

type lossListener struct {
	lost, restored func()
}

// Device is a CPU implementation of device.Device.
//
// Rendering methods must be called from one goroutine. Lose, Restore and
// NotifyLoss may be called from any goroutine.
type Device struct {
	logger atomic.Pointer[slog.Logger]

	compileSPIRV bool

	generation atomic.Uint64
	lost       atomic.Bool

	mu        sync.Mutex
	listeners map[int]lossListener
	nextID    int
	stats     Stats

	surface *target
}

var (
	_ device.Device       = (*Device)(nil)
	_ device.LossNotifier = (*Device)(nil)
	_ device.Handle       = (*Device)(nil)
)

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{listeners: make(map[int]lossListener)}
	d.logger.Store(slog.New(nopHandler{}))
	d.generation.Store(1)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetLogger replaces the device logger. A nil logger disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	d.logger.Store(l)
}

func (d *Device) slogger() *slog.Logger { return d.logger.Load() }

// Stats returns a snapshot of the activity counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Device) count(fn func(*Stats)) {
	d.mu.Lock()
	fn(&d.stats)
	d.mu.Unlock()
}

// Generation returns the current device generation. It increases on every
// Restore.
func (d *Device) Generation() uint64 { return d.generation.Load() }

// Lost reports whether the device is currently lost.
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

// Lose simulates a context loss. Every operation returns
// device.ErrDeviceLost until Restore is called. Losing a lost device is a
// no-op.
func (d *Device) Lose() {
	if !d.lost.CompareAndSwap(false, true) {
		return
	}
	d.count(func(s *Stats) { s.Losses++ })
	d.slogger().Info("software: device lost")
	for _, l := range d.snapshotListeners() {
		if l.lost != nil {
			l.lost()
		}
	}
}

// Restore ends a simulated loss. Resources created before the loss become
// stale and report Released. Restoring a device that is not lost is a
// no-op.
func (d *Device) Restore() {
	if !d.lost.Load() {
		return
	}
	d.generation.Add(1)
	d.surface = nil
	d.lost.Store(false)
	d.count(func(s *Stats) { s.Restores++ })
	d.slogger().Info("software: device restored", "generation", d.generation.Load())
	for _, l := range d.snapshotListeners() {
		if l.restored != nil {
			l.restored()
		}
	}
}

// Release drops the presentation surface. Images stay readable until they
// are released individually.
func (d *Device) Release() {
	if d.surface != nil {
		d.surface.img.Release()
		d.surface = nil
	}
}

// Device returns nil: there is no native device behind the CPU rasterizer.
func (d *Device) Device() gpucontext.Device { return nil }

// Queue returns nil for the CPU rasterizer.
func (d *Device) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the CPU rasterizer.
func (d *Device) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns the format of the presentation surface.
func (d *Device) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// AdapterInfo describes the CPU adapter.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: "layercomp software rasterizer",
		Type: gpucontext.AdapterTypeSoftware,
	}
}

func (d *Device) checkLost() error {
	if d.lost.Load() {
		return device.ErrDeviceLost
	}
	return nil
}
