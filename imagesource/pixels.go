package imagesource

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/draw"

	// Decoders for formats beyond the standard library's.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Pixels is a decoded RGBA8 image, rows top to bottom.
type Pixels struct {
	Width, Height int

	// Data holds Width*Height*4 bytes in R, G, B, A order.
	Data []byte

	// Premultiplied reports whether the color channels are premultiplied by
	// alpha.
	Premultiplied bool
}

// Source produces pixels for one layer image.
type Source interface {
	// ID returns the identifier the source was resolved from.
	ID() string

	// Decode fetches and decodes the image.
	Decode(ctx context.Context) (Pixels, error)
}

// Bounds returns the pixel rectangle.
func (p Pixels) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// Validate checks that Data matches the dimensions.
func (p Pixels) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, p.Width, p.Height)
	}
	if len(p.Data) != p.Width*p.Height*4 {
		return fmt.Errorf("imagesource: %d bytes for %dx%d pixels", len(p.Data), p.Width, p.Height)
	}
	return nil
}

// FromImage converts img to Pixels. Images whose color model is
// premultiplied (*image.RGBA, *image.RGBA64) keep premultiplied data;
// everything else is converted to straight alpha.
func FromImage(img image.Image) (Pixels, error) {
	b := img.Bounds()
	if b.Empty() {
		return Pixels{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, b.Dx(), b.Dy())
	}

	switch img.(type) {
	case *image.RGBA, *image.RGBA64:
		rgba := clone.AsRGBA(img)
		return Pixels{
			Width:         b.Dx(),
			Height:        b.Dy(),
			Data:          packed(rgba.Pix, rgba.Stride, b.Dx(), b.Dy()),
			Premultiplied: true,
		}, nil
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	return Pixels{Width: b.Dx(), Height: b.Dy(), Data: nrgba.Pix}, nil
}

// packed returns pix without row padding.
func packed(pix []byte, stride, w, h int) []byte {
	row := w * 4
	if stride == row {
		return pix[:row*h]
	}
	out := make([]byte, row*h)
	for y := 0; y < h; y++ {
		copy(out[y*row:], pix[y*stride:y*stride+row])
	}
	return out
}
