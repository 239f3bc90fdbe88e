package imagesource

import "errors"

var (
	// ErrUnknownSource is returned when an identifier cannot be resolved.
	ErrUnknownSource = errors.New("imagesource: unknown source")

	// ErrNotImage is returned when content is not a supported image.
	ErrNotImage = errors.New("imagesource: not an image")

	// ErrEmptyImage is returned for images with zero width or height.
	ErrEmptyImage = errors.New("imagesource: empty image")
)
