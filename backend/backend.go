package backend

import (
	"errors"

	"github.com/gogpu/layercomp/device"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or no backend could open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// Software is the name of the CPU rasterizer.
	Software = "software"
	// WGPU is the name of the WebGPU device (gogpu/wgpu).
	WGPU = "wgpu"
)

// Factory opens a new device.
//
// A factory returns an error when its device cannot be opened on this
// machine, for example when no GPU adapter is present.
type Factory func() (device.Device, error)
