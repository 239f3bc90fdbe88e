// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"
	_ "github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
	"github.com/gogpu/layercomp/internal/shaders"
)

func bareDevice() *Device {
	d := &Device{listeners: make(map[int]lossListener)}
	d.SetLogger(nil)
	d.generation.Store(1)
	return d
}

func TestGPUInfoString(t *testing.T) {
	info := GPUInfo{Name: "Test GPU", DeviceType: gputypes.DeviceTypeDiscreteGPU}
	if got := info.String(); !strings.HasPrefix(got, "Test GPU (") {
		t.Errorf("String() = %q, want prefix %q", got, "Test GPU (")
	}
}

func TestAdapterInfoType(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucontext.AdapterType
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucontext.AdapterTypeDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucontext.AdapterTypeIntegrated},
		{gputypes.DeviceTypeCPU, gpucontext.AdapterTypeSoftware},
		{gputypes.DeviceTypeVirtualGPU, gpucontext.AdapterTypeUnknown},
		{gputypes.DeviceTypeOther, gpucontext.AdapterTypeUnknown},
	}
	for _, tt := range tests {
		d := bareDevice()
		d.info = GPUInfo{Name: "gpu", DeviceType: tt.in}
		if got := d.AdapterInfo().Type; got != tt.want {
			t.Errorf("AdapterInfo().Type for %v = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCheckMapsDeviceLost(t *testing.T) {
	d := bareDevice()
	lost := 0
	cancel := d.NotifyLoss(func() { lost++ }, nil)
	defer cancel()

	if err := d.check("noop", nil); err != nil {
		t.Fatalf("check(nil) = %v, want nil", err)
	}

	other := errors.New("boom")
	if err := d.check("op", other); !errors.Is(err, other) || errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("check(other) = %v, want wrapped boom", err)
	}
	if d.Lost() {
		t.Fatal("Lost() = true after a non-loss error")
	}

	for range 2 {
		err := d.check("submit", fmt.Errorf("queue: %w", webgpu.ErrDeviceLost))
		if !errors.Is(err, device.ErrDeviceLost) {
			t.Errorf("check(lost) = %v, want device.ErrDeviceLost", err)
		}
	}
	if !d.Lost() {
		t.Error("Lost() = false after device loss")
	}
	if lost != 1 {
		t.Errorf("lost callbacks = %d, want 1", lost)
	}
	if err := d.checkLost(); !errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("checkLost() = %v, want ErrDeviceLost", err)
	}
}

func TestRecover(t *testing.T) {
	d := bareDevice()
	if err := d.Recover(); err != nil {
		t.Errorf("Recover() on a live device = %v, want nil", err)
	}
	if d.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", d.Generation())
	}

	_ = d.check("draw", webgpu.ErrDeviceLost)
	if err := d.Recover(); !errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("Recover() without adapter = %v, want ErrDeviceLost", err)
	}
}

func TestForeignResources(t *testing.T) {
	d := bareDevice()
	other := bareDevice()
	img := &gpuImage{dev: other, generation: 1}
	if _, err := d.image(img); !errors.Is(err, device.ErrForeignResource) {
		t.Errorf("image(foreign) = %v, want ErrForeignResource", err)
	}
	stale := &gpuImage{dev: d, generation: 0, released: true}
	if _, err := d.image(stale); !errors.Is(err, device.ErrReleased) {
		t.Errorf("image(stale) = %v, want ErrReleased", err)
	}
	if _, err := d.program(&program{dev: other}); !errors.Is(err, device.ErrForeignResource) {
		t.Errorf("program(foreign) = %v, want ErrForeignResource", err)
	}
}

// openDevice returns a real device or skips when no adapter is available.
func openDevice(t *testing.T) *Device {
	t.Helper()
	d, err := New(WithBackends(webgpu.BackendsAll))
	if err != nil {
		t.Skipf("no wgpu adapter: %v", err)
	}
	t.Cleanup(d.Release)
	return d
}

func TestDrawQuad(t *testing.T) {
	d := openDevice(t)

	px := make([]byte, 4*4*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = 255, 0, 0, 255
	}
	src, err := d.NewImage(device.ImageDescriptor{
		Label: "red", Width: 4, Height: 4, Format: device.Format, Sampler: device.LayerSampler(),
	}, px)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	defer src.Release()

	dstImg, err := d.NewImage(device.ImageDescriptor{
		Label: "dst", Width: 8, Height: 8, Format: device.Format, RenderTarget: true, Sampler: device.LayerSampler(),
	}, nil)
	if err != nil {
		t.Fatalf("NewImage(dst) error = %v", err)
	}
	defer dstImg.Release()
	dst, err := d.NewTarget(dstImg)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}

	prog, err := d.NewProgram(device.ProgramDescriptor{
		Label: "layer", Source: shaders.Layer, VertexEntry: shaders.VertexEntry, FragmentEntry: shaders.FragmentEntry,
	})
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	defer prog.Release()

	if err := d.Clear(dst, gputypes.Color{}); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	u := &device.Uniforms{
		ViewToScreen: geom.Ortho(0, 8, 0, 8),
		ScreenToView: geom.Identity(),
		WorldToView:  geom.Identity(),
		LocalToWorld: geom.Scale(8, 8),
		LayerMap:     src,
		UVToTexture:  geom.Identity(),
	}
	if err := d.Draw(dst, prog, u, device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	out, err := d.ReadPixels(context.Background(), dst)
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	c := out.RGBAAt(4, 4)
	if c.R != 255 || c.A != 255 {
		t.Errorf("center = %v, want opaque red", c)
	}
}
