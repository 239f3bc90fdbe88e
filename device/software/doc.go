// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements device.Device on the CPU.
//
// Images are RGBA8 mip chains in memory, draws are rasterized triangle by
// triangle with pixel-center sampling, and the fixed-function blend state is
// evaluated per pixel. The layer program's semantics are executed natively;
// WGSL sources passed to NewProgram are parsed with naga to validate their
// entry points.
//
// The device can simulate GPU loss with Lose and Restore. Restore bumps the
// device generation, which invalidates every image, target and program
// created before it, exactly as a real context loss would.
//
// Example:
//
//	dev := software.New()
//	img, _ := dev.NewImage(desc, pixels)
//	...
//	frame, _ := dev.ReadPixels(ctx, surface)
package software
