package image

import "github.com/chewxy/math32"

// InterpolationMode defines how texture sampling is performed.
type InterpolationMode uint8

const (
	// InterpNearest selects the closest pixel (no interpolation).
	InterpNearest InterpolationMode = iota

	// InterpBilinear performs linear interpolation between 4 neighboring pixels.
	InterpBilinear
)

// String returns a string representation of the interpolation mode.
func (m InterpolationMode) String() string {
	switch m {
	case InterpNearest:
		return "Nearest"
	case InterpBilinear:
		return "Bilinear"
	default:
		return "Unknown"
	}
}

// Sample samples img at normalized coordinates (s, t), where (0,0) is the
// top-left corner of the first texel and (1,1) the bottom-right corner of
// the last. Coordinates outside [0,1] clamp to the edge.
func Sample(img *ImageBuf, s, t float32, mode InterpolationMode) [4]float32 {
	if mode == InterpBilinear {
		return SampleBilinear(img, s, t)
	}
	return SampleNearest(img, s, t)
}

// SampleNearest performs nearest-neighbor sampling at (s, t).
func SampleNearest(img *ImageBuf, s, t float32) [4]float32 {
	w, h := img.Bounds()
	x := clamp(int(math32.Floor(s*float32(w))), 0, w-1)
	y := clamp(int(math32.Floor(t*float32(h))), 0, h-1)
	return img.Texel(x, y)
}

// SampleBilinear performs bilinear interpolation at (s, t).
func SampleBilinear(img *ImageBuf, s, t float32) [4]float32 {
	w, h := img.Bounds()

	// Continuous texel coordinates relative to texel centers
	fx := s*float32(w) - 0.5
	fy := t*float32(h) - 0.5

	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f
	x0, y0 := int(x0f), int(y0f)

	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	c00 := img.Texel(x0, y0)
	c10 := img.Texel(x1, y0)
	c01 := img.Texel(x0, y1)
	c11 := img.Texel(x1, y1)

	var out [4]float32
	for i := range out {
		top := lerp(c00[i], c10[i], tx)
		bottom := lerp(c01[i], c11[i], tx)
		out[i] = lerp(top, bottom, ty)
	}
	return out
}

// Lerp4 linearly interpolates two colors.
func Lerp4(a, b [4]float32, t float32) [4]float32 {
	return [4]float32{
		lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t), lerp(a[3], b[3], t),
	}
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}
