package layercomp

import (
	"fmt"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
)

// Offscreen is the power-of-two render target every layer is composited
// into. Its color image is mipmapped and sampled trilinearly by the
// present pass.
type Offscreen struct {
	dev device.Device

	size   geom.PixelSize
	image  device.Image
	target device.Target

	allocations int
}

// NewOffscreen returns an empty offscreen target on dev. Nothing is
// allocated until EnsureSized.
func NewOffscreen(dev device.Device) *Offscreen {
	return &Offscreen{dev: dev}
}

// EnsureSized makes the target (CeilPow2(w), CeilPow2(h)) for the logical
// size. The old image and target are released when the rounded size
// changes or the image went stale; otherwise nothing happens. It reports
// whether a new image was allocated.
func (o *Offscreen) EnsureSized(logical geom.Size) (bool, error) {
	if logical.IsEmpty() || !logical.IsFinite() {
		return false, fmt.Errorf("%w: logical size %v", device.ErrInvalidDescriptor, logical)
	}
	if logical.Width > device.MaxImageDimension || logical.Height > device.MaxImageDimension {
		return false, fmt.Errorf("%w: logical size %v exceeds %d", device.ErrInvalidDescriptor, logical, device.MaxImageDimension)
	}
	candidate := geom.CeilPow2Size(logical)
	if o.image != nil && !o.image.Released() && o.size == candidate {
		return false, nil
	}
	o.Release()

	img, err := o.dev.NewImage(device.ImageDescriptor{
		Label:         "offscreen",
		Width:         candidate.Width,
		Height:        candidate.Height,
		Format:        device.Format,
		Mipmaps:       true,
		RenderTarget:  true,
		Premultiplied: true,
		Sampler:       device.TrilinearSampler(),
	}, nil)
	if err != nil {
		return false, fmt.Errorf("layercomp: allocate offscreen %v: %w", candidate, err)
	}
	target, err := o.dev.NewTarget(img)
	if err != nil {
		img.Release()
		return false, fmt.Errorf("layercomp: offscreen target %v: %w", candidate, err)
	}
	o.size, o.image, o.target = candidate, img, target
	o.allocations++
	return true, nil
}

// Size returns the allocated size, zero before the first allocation.
func (o *Offscreen) Size() geom.PixelSize { return o.size }

// Image returns the color image, or nil when none is allocated.
func (o *Offscreen) Image() device.Image { return o.image }

// Target returns the render target, or nil when none is allocated.
func (o *Offscreen) Target() device.Target { return o.target }

// Allocated reports whether a color image exists.
func (o *Offscreen) Allocated() bool { return o.image != nil }

// Allocations returns how many color images have been allocated.
func (o *Offscreen) Allocations() int { return o.allocations }

// Release frees the target and its color image. References obtained from
// Image or Target become invalid.
func (o *Offscreen) Release() {
	if o.target != nil {
		o.target.Release()
		o.target = nil
	}
	if o.image != nil {
		o.image.Release()
		o.image = nil
	}
	o.size = geom.PixelSize{}
}
