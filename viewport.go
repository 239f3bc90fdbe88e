package layercomp

import (
	"math"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/layercomp/geom"
)

// Viewport is the visible surface the composite is presented into.
// Width and Height are in logical points; PixelRatio converts them to
// physical pixels. A zero PixelRatio counts as 1.
type Viewport struct {
	Width, Height float64
	PixelRatio    float64
}

// ViewportFromWindow reads the current size and scale factor of a window.
func ViewportFromWindow(w gpucontext.WindowProvider) Viewport {
	width, height := w.Size()
	return Viewport{
		Width:      float64(width),
		Height:     float64(height),
		PixelRatio: w.ScaleFactor(),
	}
}

// Size returns the logical size of the viewport.
func (v Viewport) Size() geom.Size {
	return geom.Sz(v.Width, v.Height)
}

// Ratio returns the pixel ratio, 1 when unset or invalid.
func (v Viewport) Ratio() float64 {
	if v.PixelRatio <= 0 || math.IsNaN(v.PixelRatio) || math.IsInf(v.PixelRatio, 0) {
		return 1
	}
	return v.PixelRatio
}

// PhysicalSize returns the size of the backing surface in pixels.
func (v Viewport) PhysicalSize() geom.PixelSize {
	r := v.Ratio()
	return geom.PixelSize{
		Width:  int(math.Ceil(v.Width * r)),
		Height: int(math.Ceil(v.Height * r)),
	}
}

// IsEmpty reports whether nothing can be presented into the viewport.
func (v Viewport) IsEmpty() bool {
	ps := v.PhysicalSize()
	return v.Size().IsEmpty() || ps.Width <= 0 || ps.Height <= 0
}
