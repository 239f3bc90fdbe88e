// Package backend selects the device a compositor renders with.
//
// Devices are registered by name through factories and opened at runtime.
// The software rasterizer is registered on import; the WebGPU device
// registers itself when its package is imported:
//
//	import _ "github.com/gogpu/layercomp/backend/wgpu"
//
// # Device Selection
//
// Use Default() to open the best available device, or Get() to request a
// specific one by name:
//
//	// Open the best device that works on this machine
//	dev, name, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Get(backend.Software)
//
// # Available Backends
//
//   - "wgpu": GPU-accelerated via gogpu/wgpu
//   - "software": CPU rasterizer (always available)
package backend
