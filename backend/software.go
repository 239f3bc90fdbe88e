package backend

import (
	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/device/software"
)

// init registers the CPU rasterizer on package import.
func init() {
	Register(Software, func() (device.Device, error) {
		return software.New(), nil
	})
}
