// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the graphics capability surface the compositor
// draws through.
//
// A Device creates images, render targets and shader programs, clears
// targets, issues quad draws with a fixed uniform set, and regenerates
// mipmap chains. Two implementations ship with this module:
//
//   - device/software: a CPU rasterizer with pixel readback, used by tests
//     and headless tools
//   - backend/wgpu: a WebGPU implementation on top of gogpu/wgpu
//
// Coordinate conventions follow package geom: texture space has v = 0 at
// the bottom row of an image and v = 1 at its top row, and pixel data passed
// to NewImage is stored top row first.
//
// Devices that can lose their GPU state implement LossNotifier so the owner
// can rebuild its resources after a restore.
package device
