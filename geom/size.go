package geom

import (
	"fmt"
	"math"
)

// Size is a width/height pair in logical pixels.
type Size struct {
	Width, Height float64
}

// Sz is a convenience function to create a Size.
func Sz(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// IsEmpty reports whether either dimension is zero, negative or NaN.
func (s Size) IsEmpty() bool {
	return !(s.Width > 0) || !(s.Height > 0)
}

// IsFinite reports whether neither dimension is infinite or NaN.
func (s Size) IsFinite() bool {
	return !math.IsInf(s.Width, 0) && !math.IsNaN(s.Width) &&
		!math.IsInf(s.Height, 0) && !math.IsNaN(s.Height)
}

// Aspect returns width / height, or 0 for an empty size.
func (s Size) Aspect() float64 {
	if s.IsEmpty() {
		return 0
	}
	return s.Width / s.Height
}

// Point returns the size as a vector.
func (s Size) Point() Point {
	return Point{X: s.Width, Y: s.Height}
}

// Scale returns the size multiplied by k.
func (s Size) Scale(k float64) Size {
	return Size{Width: s.Width * k, Height: s.Height * k}
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// PixelSize is an integer size used for device allocations.
type PixelSize struct {
	Width, Height int
}

// Float returns the pixel size as a logical Size.
func (s PixelSize) Float() Size {
	return Size{Width: float64(s.Width), Height: float64(s.Height)}
}

func (s PixelSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// CeilPow2 returns the smallest power of two that is >= v.
// Values below 1 round up to 1.
func CeilPow2(v int) int {
	if v <= 1 {
		return 1
	}
	p := 1
	for p < v {
		p <<= 1
	}
	return p
}

// MaxPow2 is the largest dimension CeilPow2Size returns.
const MaxPow2 = 1 << 30

// CeilPow2Size rounds both dimensions of a logical size up to a power of two.
// Fractional dimensions are first rounded up to whole pixels. Dimensions
// above MaxPow2, including +Inf, saturate at MaxPow2 and NaN rounds to 1, so
// callers that need the result to cover s must check s against their own
// limit first.
func CeilPow2Size(s Size) PixelSize {
	return PixelSize{
		Width:  CeilPow2(ceilPixels(s.Width)),
		Height: CeilPow2(ceilPixels(s.Height)),
	}
}

// ceilPixels rounds v up to whole pixels without overflowing int.
func ceilPixels(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= MaxPow2:
		return MaxPow2
	}
	return int(math.Ceil(v))
}

// Fit scales content uniformly so it fits entirely inside container,
// preserving its aspect ratio. Empty inputs yield an empty Size.
func Fit(container, content Size) Size {
	if container.IsEmpty() || content.IsEmpty() {
		return Size{}
	}
	k := math.Min(container.Width/content.Width, container.Height/content.Height)
	return content.Scale(k)
}
