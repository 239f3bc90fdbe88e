package layercomp

import "errors"

var (
	// ErrNilDevice is returned by New when no device is given.
	ErrNilDevice = errors.New("layercomp: nil device")

	// ErrLayerNotFound is returned when a layer is not part of the stack.
	ErrLayerNotFound = errors.New("layercomp: layer not found")

	// ErrClosed is returned by operations on a closed Compositor.
	ErrClosed = errors.New("layercomp: compositor closed")
)
