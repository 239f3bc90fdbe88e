// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements device.Device on top of gogpu/wgpu.
//
// The device either wraps a host-provided *wgpu.Device (WithDevice) or
// opens its own instance, adapter and device. Images become 2D RGBA8
// textures with an optional full mip chain, programs become shader modules
// whose render pipelines are built lazily per blend state and topology, and
// every Draw records and submits one render pass.
//
// # Backends
//
// The package does not register any HAL backend. Programs that let the
// device create its own instance import them explicitly:
//
//	import _ "github.com/gogpu/wgpu/hal/allbackends"
//
// # Device loss
//
// Errors wrapping wgpu.ErrDeviceLost are reported as device.ErrDeviceLost
// and fire the lost callbacks registered through NotifyLoss. Recover
// requests a new device from the same adapter, invalidates every resource
// of the previous generation and fires the restored callbacks.
//
// Device registers itself with the backend registry under backend.WGPU.
package wgpu
