package imagesource

import (
	"context"
	"image"
)

// Decoded is an image that is already in memory.
type Decoded struct {
	Name  string
	Image image.Image
}

// ID returns the name the image was registered under.
func (d Decoded) ID() string { return d.Name }

// Decode converts the image to pixels.
func (d Decoded) Decode(ctx context.Context) (Pixels, error) {
	if err := ctx.Err(); err != nil {
		return Pixels{}, err
	}
	if d.Image == nil {
		return Pixels{}, ErrEmptyImage
	}
	return FromImage(d.Image)
}
