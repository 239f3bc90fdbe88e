// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"context"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Handle provides access to the native GPU objects behind a Device.
//
// Handle is an alias for gpucontext.DeviceProvider so a Device can be handed
// to any library in the gpucontext ecosystem. CPU devices return nil handles.
type Handle = gpucontext.DeviceProvider

// Device is the set of graphics capabilities the compositor needs.
//
// All methods must be called from a single goroutine (the frame thread).
// Implementations return ErrDeviceLost from every method while lost.
type Device interface {
	// NewImage allocates an image and uploads pixels into mip level 0.
	// pixels holds Width*Height RGBA8 texels, top row first. A nil pixels
	// slice leaves the image transparent.
	NewImage(desc ImageDescriptor, pixels []byte) (Image, error)

	// NewTarget wraps an image so it can be drawn into.
	// The image must have been created with RenderTarget set.
	NewTarget(img Image) (Target, error)

	// NewProgram compiles a WGSL program.
	NewProgram(desc ProgramDescriptor) (Program, error)

	// Surface returns the presentation target sized to width x height
	// physical pixels, reallocating it when the size changes.
	Surface(width, height int) (Target, error)

	// Clear fills every pixel of t with c.
	Clear(t Target, c gputypes.Color) error

	// Draw rasterizes mesh into t with program p, uniforms u and blend state.
	Draw(t Target, p Program, u *Uniforms, mesh *Mesh, blend gputypes.BlendState) error

	// GenerateMipmaps rebuilds mip levels 1..n of img from level 0.
	GenerateMipmaps(img Image) error

	// Release frees every resource owned by the device.
	Release()
}

// Image is a device-resident RGBA8 image with an attached sampler.
//
// Image satisfies gpucontext.Texture.
type Image interface {
	Width() int
	Height() int

	// Descriptor returns the descriptor the image was created with.
	Descriptor() ImageDescriptor

	// MipLevelCount returns the number of mip levels, 1 without mipmaps.
	MipLevelCount() int

	// Release frees the image. Release is idempotent.
	Release()

	// Released reports whether the image can no longer be sampled, either
	// because Release was called or because the device was restored after
	// a loss.
	Released() bool
}

// Target is a render destination.
type Target interface {
	Width() int
	Height() int

	// Image returns the color image the target renders into.
	Image() Image

	// Release frees the target. It does not release the color image.
	Release()
}

// Program is a compiled shader program.
type Program interface {
	Label() string
	Release()
}

// LossNotifier is implemented by devices that can lose their GPU state.
type LossNotifier interface {
	// NotifyLoss registers callbacks for loss and restore events. The
	// callbacks run on the goroutine that reports the event. The returned
	// function unregisters them.
	NotifyLoss(lost, restored func()) (cancel func())
}

// PixelReader is implemented by devices that can copy rendered pixels back
// to the CPU.
type PixelReader interface {
	ReadPixels(ctx context.Context, t Target) (*image.RGBA, error)
	ReadImage(ctx context.Context, img Image, level int) (*image.RGBA, error)
}

// ProgramDescriptor describes a WGSL shader program.
type ProgramDescriptor struct {
	Label         string
	Source        string
	VertexEntry   string
	FragmentEntry string
}

var _ gpucontext.Texture = Image(nil)
