// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
	"github.com/gogpu/layercomp/internal/shaders"
)

func solid(w, h int, r, g, b, a byte) []byte {
	px := make([]byte, w*h*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = r, g, b, a
	}
	return px
}

func layerProgram(t *testing.T, d *Device) device.Program {
	t.Helper()
	p, err := d.NewProgram(device.ProgramDescriptor{
		Label:         "layer",
		Source:        shaders.Layer,
		VertexEntry:   shaders.VertexEntry,
		FragmentEntry: shaders.FragmentEntry,
	})
	if err != nil {
		t.Fatalf("NewProgram() error = %v", err)
	}
	return p
}

func renderTarget(t *testing.T, d *Device, w, h int) device.Target {
	t.Helper()
	img, err := d.NewImage(device.ImageDescriptor{
		Label:        "target",
		Width:        w,
		Height:       h,
		Format:       device.Format,
		RenderTarget: true,
		Sampler:      device.TrilinearSampler(),
	}, nil)
	if err != nil {
		t.Fatalf("NewImage(target) error = %v", err)
	}
	tg, err := d.NewTarget(img)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	return tg
}

func sourceImage(t *testing.T, d *Device, w, h int, px []byte) device.Image {
	t.Helper()
	img, err := d.NewImage(device.ImageDescriptor{
		Label:   "source",
		Width:   w,
		Height:  h,
		Format:  device.Format,
		Sampler: device.LayerSampler(),
	}, px)
	if err != nil {
		t.Fatalf("NewImage(source) error = %v", err)
	}
	return img
}

// quadUniforms places the unit quad at rect inside a w x h target.
func quadUniforms(img device.Image, w, h int, rect [4]float64) *device.Uniforms {
	ortho := geom.Ortho(0, float64(w), 0, float64(h))
	inv, _ := ortho.Invert()
	return &device.Uniforms{
		ViewToScreen: ortho,
		ScreenToView: inv,
		WorldToView:  geom.Identity(),
		LocalToWorld: geom.Translate(rect[0], rect[1]).Multiply(geom.Scale(rect[2], rect[3])),
		LayerMap:     img,
		UVToTexture:  geom.Identity(),
	}
}

func TestNewImageErrors(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		desc device.ImageDescriptor
		px   []byte
	}{
		{"zero size", device.ImageDescriptor{Width: 0, Height: 2, Format: device.Format}, nil},
		{"bad format", device.ImageDescriptor{Width: 2, Height: 2, Format: gputypes.TextureFormatBGRA8Unorm}, nil},
		{"short pixels", device.ImageDescriptor{Width: 2, Height: 2, Format: device.Format}, make([]byte, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.NewImage(tt.desc, tt.px); !errors.Is(err, device.ErrInvalidDescriptor) {
				t.Errorf("NewImage() error = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestNewTargetRequiresRenderTarget(t *testing.T) {
	d := New()
	img := sourceImage(t, d, 2, 2, nil)
	if _, err := d.NewTarget(img); !errors.Is(err, device.ErrInvalidDescriptor) {
		t.Errorf("NewTarget(non-target) error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestNewProgramValidatesEntryPoints(t *testing.T) {
	d := New()
	_, err := d.NewProgram(device.ProgramDescriptor{
		Label:         "bad",
		Source:        shaders.Layer,
		VertexEntry:   "main",
		FragmentEntry: shaders.FragmentEntry,
	})
	if !errors.Is(err, device.ErrInvalidDescriptor) {
		t.Errorf("NewProgram() error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestDrawFullCoverage(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 4, 4)
	prog := layerProgram(t, d)
	img := sourceImage(t, d, 2, 2, solid(2, 2, 255, 0, 0, 255))

	if err := d.Draw(tg, prog, quadUniforms(img, 4, 4, [4]float64{0, 0, 4, 4}), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, err := d.ReadPixels(context.Background(), tg)
	if err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if c := out.RGBAAt(x, y); c.R != 255 || c.G != 0 || c.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v, want opaque red", x, y, c)
			}
		}
	}
	if got := d.Stats().Triangles; got != 2 {
		t.Errorf("Stats().Triangles = %d, want 2", got)
	}
}

func TestDrawSharedEdgeBlendsOnce(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 8, 8)
	prog := layerProgram(t, d)
	img := sourceImage(t, d, 1, 1, []byte{255, 255, 255, 128})

	if err := d.Draw(tg, prog, quadUniforms(img, 8, 8, [4]float64{0, 0, 8, 8}), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if c := out.RGBAAt(x, y); c.A != 128 {
				t.Fatalf("pixel (%d,%d) alpha = %d, want 128", x, y, c.A)
			}
		}
	}
}

func TestDrawPlacement(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 8, 8)
	prog := layerProgram(t, d)
	img := sourceImage(t, d, 1, 1, solid(1, 1, 0, 0, 255, 255))

	if err := d.Draw(tg, prog, quadUniforms(img, 8, 8, [4]float64{2, 4, 3, 2}), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			inside := x >= 2 && x < 5 && y >= 4 && y < 6
			c := out.RGBAAt(x, y)
			if inside && c.B != 255 {
				t.Errorf("pixel (%d,%d) = %v, want blue", x, y, c)
			}
			if !inside && c.A != 0 {
				t.Errorf("pixel (%d,%d) = %v, want transparent", x, y, c)
			}
		}
	}
}

func TestDrawOrientation(t *testing.T) {
	// Top row red, bottom row green: image rows must land top to bottom.
	d := New()
	tg := renderTarget(t, d, 2, 2)
	prog := layerProgram(t, d)
	px := append(solid(1, 1, 255, 0, 0, 255), solid(1, 1, 0, 255, 0, 255)...)
	img := sourceImage(t, d, 1, 2, px)

	if err := d.Draw(tg, prog, quadUniforms(img, 2, 2, [4]float64{0, 0, 2, 2}), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	if c := out.RGBAAt(0, 0); c.R != 255 || c.G != 0 {
		t.Errorf("top-left = %v, want red", c)
	}
	if c := out.RGBAAt(1, 1); c.G != 255 || c.R != 0 {
		t.Errorf("bottom-right = %v, want green", c)
	}
}

func TestDrawPremultipliedSource(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 2, 2)
	prog := layerProgram(t, d)
	img := sourceImage(t, d, 1, 1, []byte{128, 0, 0, 128})

	u := quadUniforms(img, 2, 2, [4]float64{0, 0, 2, 2})
	u.PremultipliedAlpha = true
	if err := d.Draw(tg, prog, u, device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	if c := out.RGBAAt(0, 0); c.R != 128 || c.A != 128 {
		t.Errorf("pixel = %v, want {128 0 0 128}", c)
	}
}

func TestDrawDegenerate(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 4, 4)
	prog := layerProgram(t, d)
	img := sourceImage(t, d, 1, 1, solid(1, 1, 255, 255, 255, 255))

	for _, rect := range [][4]float64{{1, 1, 0, 2}, {1, 1, 2, 0}} {
		if err := d.Draw(tg, prog, quadUniforms(img, 4, 4, rect), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
			t.Fatalf("Draw(%v) error = %v", rect, err)
		}
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 {
			t.Fatal("degenerate quad wrote pixels")
		}
	}
	if got := d.Stats().Triangles; got != 0 {
		t.Errorf("Stats().Triangles = %d, want 0", got)
	}
}

func TestDrawRejectsFeedbackLoop(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 4, 4)
	prog := layerProgram(t, d)
	u := quadUniforms(tg.Image(), 4, 4, [4]float64{0, 0, 4, 4})
	if err := d.Draw(tg, prog, u, device.UnitQuad(), gputypes.BlendStateAlpha()); !errors.Is(err, device.ErrInvalidDescriptor) {
		t.Errorf("Draw(feedback) error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestClear(t *testing.T) {
	d := New()
	tg := renderTarget(t, d, 2, 2)
	if err := d.Clear(tg, gputypes.Color{R: 1, G: 0.5, B: 0, A: 1}); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	if c := out.RGBAAt(1, 1); c.R != 255 || c.G != 128 || c.B != 0 || c.A != 255 {
		t.Errorf("cleared pixel = %v, want {255 128 0 255}", c)
	}
}

func TestGenerateMipmaps(t *testing.T) {
	d := New()
	img, err := d.NewImage(device.ImageDescriptor{
		Width:        4,
		Height:       4,
		Format:       device.Format,
		Mipmaps:      true,
		RenderTarget: true,
		Sampler:      device.TrilinearSampler(),
	}, solid(4, 4, 200, 100, 50, 255))
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	if img.MipLevelCount() != 3 {
		t.Fatalf("MipLevelCount() = %d, want 3", img.MipLevelCount())
	}
	if err := d.GenerateMipmaps(img); err != nil {
		t.Fatalf("GenerateMipmaps() error = %v", err)
	}
	top, err := d.ReadImage(context.Background(), img, 2)
	if err != nil {
		t.Fatalf("ReadImage(2) error = %v", err)
	}
	if c := top.RGBAAt(0, 0); c.R != 200 || c.G != 100 || c.B != 50 || c.A != 255 {
		t.Errorf("1x1 level = %v, want {200 100 50 255}", c)
	}
	if _, err := d.ReadImage(context.Background(), img, 3); !errors.Is(err, device.ErrInvalidDescriptor) {
		t.Errorf("ReadImage(3) error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestMinificationUsesMipmaps(t *testing.T) {
	// An 8x8 checkerboard drawn into 1x1 averages to gray with trilinear
	// filtering instead of picking a single texel.
	d := New()
	px := make([]byte, 8*8*4)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			i := (y*8 + x) * 4
			if (x+y)%2 == 0 {
				px[i], px[i+1], px[i+2] = 255, 255, 255
			}
			px[i+3] = 255
		}
	}
	img, err := d.NewImage(device.ImageDescriptor{
		Width:   8,
		Height:  8,
		Format:  device.Format,
		Mipmaps: true,
		Sampler: device.TrilinearSampler(),
	}, px)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	if err := d.GenerateMipmaps(img); err != nil {
		t.Fatalf("GenerateMipmaps() error = %v", err)
	}
	tg := renderTarget(t, d, 1, 1)
	if err := d.Draw(tg, layerProgram(t, d), quadUniforms(img, 1, 1, [4]float64{0, 0, 1, 1}), device.UnitQuad(), gputypes.BlendStateAlpha()); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	out, _ := d.ReadPixels(context.Background(), tg)
	if c := out.RGBAAt(0, 0); c.R < 120 || c.R > 136 {
		t.Errorf("minified pixel = %v, want mid gray", c)
	}
}

func TestLoseAndRestore(t *testing.T) {
	d := New()
	img := sourceImage(t, d, 1, 1, nil)

	var lost, restored int
	cancel := d.NotifyLoss(func() { lost++ }, func() { restored++ })

	d.Lose()
	d.Lose()
	if !d.Lost() || lost != 1 {
		t.Fatalf("after Lose: Lost() = %v, callbacks = %d, want true, 1", d.Lost(), lost)
	}
	if _, err := d.NewImage(device.ImageDescriptor{Width: 1, Height: 1, Format: device.Format}, nil); !errors.Is(err, device.ErrDeviceLost) {
		t.Errorf("NewImage() while lost error = %v, want ErrDeviceLost", err)
	}
	if img.Released() {
		t.Error("image reported released before restore")
	}

	gen := d.Generation()
	d.Restore()
	if d.Lost() || restored != 1 || d.Generation() != gen+1 {
		t.Fatalf("after Restore: Lost() = %v, callbacks = %d, generation = %d", d.Lost(), restored, d.Generation())
	}
	if !img.Released() {
		t.Error("image from before the loss should report released")
	}
	if _, err := d.NewTarget(img); !errors.Is(err, device.ErrReleased) {
		t.Errorf("NewTarget(stale) error = %v, want ErrReleased", err)
	}

	cancel()
	d.Lose()
	d.Restore()
	if lost != 1 || restored != 1 {
		t.Errorf("callbacks after cancel = %d, %d, want 1, 1", lost, restored)
	}
}

func TestSurfaceReuse(t *testing.T) {
	d := New()
	s1, err := d.Surface(10, 10)
	if err != nil {
		t.Fatalf("Surface() error = %v", err)
	}
	s2, _ := d.Surface(10, 10)
	if s1 != s2 {
		t.Error("Surface() with same size should reuse the target")
	}
	s3, _ := d.Surface(20, 10)
	if s3 == s1 || s3.Width() != 20 {
		t.Errorf("Surface(20, 10) = %dx%d, want a new 20x10 target", s3.Width(), s3.Height())
	}
	if !s1.Image().Released() {
		t.Error("old surface image should be released on resize")
	}
}

func TestForeignResources(t *testing.T) {
	a, b := New(), New()
	img := sourceImage(t, a, 1, 1, nil)
	if _, err := b.NewTarget(img); !errors.Is(err, device.ErrForeignResource) {
		t.Errorf("NewTarget(foreign) error = %v, want ErrForeignResource", err)
	}
}

func TestAdapterInfo(t *testing.T) {
	var h device.Handle = New()
	if h.Device() != nil || h.Queue() != nil {
		t.Error("software device should not expose native handles")
	}
	if h.SurfaceFormat() != device.Format {
		t.Errorf("SurfaceFormat() = %v, want %v", h.SurfaceFormat(), device.Format)
	}
}
