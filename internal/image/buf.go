// Package image provides the RGBA8 texel storage used by the software device.
//
// Pixels are stored row-major, top row first, four bytes per texel. Color
// channels are stored as given; the package does not interpret alpha.
package image

import (
	"errors"
	stdimage "image"
)

// Common errors for image operations.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("image: invalid dimensions")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("image: data buffer too small")

	// ErrOutOfBounds is returned when pixel coordinates are outside image bounds.
	ErrOutOfBounds = errors.New("image: coordinates out of bounds")
)

// BytesPerPixel is the size of one RGBA8 texel.
const BytesPerPixel = 4

// ImageBuf is a contiguous RGBA8 texel buffer.
//
// Write operations require external synchronization.
type ImageBuf struct {
	data   []byte
	width  int
	height int
}

// NewImageBuf creates a transparent image buffer.
func NewImageBuf(width, height int) (*ImageBuf, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	return &ImageBuf{
		data:   make([]byte, width*height*BytesPerPixel),
		width:  width,
		height: height,
	}, nil
}

// FromPixels creates a buffer holding a copy of pixels.
func FromPixels(pixels []byte, width, height int) (*ImageBuf, error) {
	b, err := NewImageBuf(width, height)
	if err != nil {
		return nil, err
	}
	if len(pixels) < len(b.data) {
		return nil, ErrDataTooSmall
	}
	copy(b.data, pixels)
	return b, nil
}

// Width returns the buffer width in pixels.
func (b *ImageBuf) Width() int { return b.width }

// Height returns the buffer height in pixels.
func (b *ImageBuf) Height() int { return b.height }

// Bounds returns width and height.
func (b *ImageBuf) Bounds() (width, height int) { return b.width, b.height }

// Data returns the underlying texel slice.
func (b *ImageBuf) Data() []byte { return b.data }

// IsEmpty reports whether the buffer holds no texels.
func (b *ImageBuf) IsEmpty() bool {
	return b == nil || b.width <= 0 || b.height <= 0
}

// PixelOffset returns the byte offset of (x, y), or -1 when out of bounds.
func (b *ImageBuf) PixelOffset(x, y int) int {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return -1
	}
	return (y*b.width + x) * BytesPerPixel
}

// GetRGBA returns the texel at (x, y), or zeros when out of bounds.
func (b *ImageBuf) GetRGBA(x, y int) (r, g, bl, a byte) {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return 0, 0, 0, 0
	}
	p := b.data[off : off+4 : off+4]
	return p[0], p[1], p[2], p[3]
}

// SetRGBA stores a texel.
func (b *ImageBuf) SetRGBA(x, y int, r, g, bl, a byte) error {
	off := b.PixelOffset(x, y)
	if off < 0 {
		return ErrOutOfBounds
	}
	p := b.data[off : off+4 : off+4]
	p[0], p[1], p[2], p[3] = r, g, bl, a
	return nil
}

// Texel returns the texel at (x, y) as normalized floats.
func (b *ImageBuf) Texel(x, y int) [4]float32 {
	r, g, bl, a := b.GetRGBA(x, y)
	return [4]float32{
		float32(r) / 255, float32(g) / 255, float32(bl) / 255, float32(a) / 255,
	}
}

// SetTexel stores normalized floats, clamped to [0, 1] and rounded to the
// nearest byte.
func (b *ImageBuf) SetTexel(x, y int, c [4]float32) {
	_ = b.SetRGBA(x, y, unorm8(c[0]), unorm8(c[1]), unorm8(c[2]), unorm8(c[3]))
}

// Fill sets every texel to the same value.
func (b *ImageBuf) Fill(r, g, bl, a byte) {
	for i := 0; i < len(b.data); i += BytesPerPixel {
		b.data[i], b.data[i+1], b.data[i+2], b.data[i+3] = r, g, bl, a
	}
}

// ToRGBA copies the buffer into a new *image.RGBA.
func (b *ImageBuf) ToRGBA() *stdimage.RGBA {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// unorm8 converts a normalized float to a byte with round-to-nearest.
func unorm8(v float32) byte {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}

// Unorm8 is the exported form of the float to byte conversion used by
// SetTexel.
func Unorm8(v float32) byte { return unorm8(v) }
