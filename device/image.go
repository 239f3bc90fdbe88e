// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
)

// Format is the pixel format of every image and surface.
const Format = gputypes.TextureFormatRGBA8Unorm

// Sampler describes how an image is filtered and addressed.
// The fields use the WebGPU enums from gputypes.
type Sampler struct {
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.MipmapFilterMode
}

// LayerSampler is the sampler used for layer source images: edge clamp,
// nearest minification, linear magnification.
func LayerSampler() Sampler {
	return Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.MipmapFilterModeNearest,
	}
}

// TrilinearSampler is the sampler used for the offscreen composite: edge
// clamp, linear magnification and linear-mipmap-linear minification.
func TrilinearSampler() Sampler {
	return Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.MipmapFilterModeLinear,
	}
}

// Descriptor converts the sampler to a full gputypes descriptor.
func (s Sampler) Descriptor(label string) gputypes.SamplerDescriptor {
	d := gputypes.DefaultSamplerDescriptor()
	d.Label = label
	d.AddressModeU = s.AddressModeU
	d.AddressModeV = s.AddressModeV
	d.AddressModeW = gputypes.AddressModeClampToEdge
	d.MagFilter = s.MagFilter
	d.MinFilter = s.MinFilter
	d.MipmapFilter = s.MipmapFilter
	return d
}

// ImageDescriptor describes an image to allocate.
type ImageDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the level 0 dimensions in pixels.
	Width, Height int

	// Format must be Format.
	Format gputypes.TextureFormat

	// Mipmaps allocates a full mip chain down to 1x1.
	Mipmaps bool

	// RenderTarget allows the image to be wrapped by NewTarget.
	RenderTarget bool

	// Premultiplied records that the pixel data has premultiplied alpha.
	Premultiplied bool

	// Sampler is used whenever the image is bound as a texture.
	Sampler Sampler
}

// MipLevelCount returns the number of levels the descriptor allocates.
func (d ImageDescriptor) MipLevelCount() int {
	if !d.Mipmaps {
		return 1
	}
	return MipLevels(d.Width, d.Height)
}

// MaxImageDimension is the largest image side a device must accept, the
// WebGPU default for maxTextureDimension2D.
const MaxImageDimension = 8192

// Validate checks sizes and format.
func (d ImageDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if d.Width > MaxImageDimension || d.Height > MaxImageDimension {
		return fmt.Errorf("%w: size %dx%d exceeds %d", ErrInvalidDescriptor, d.Width, d.Height, MaxImageDimension)
	}
	if d.Format != Format {
		return fmt.Errorf("%w: format %v", ErrInvalidDescriptor, d.Format)
	}
	return nil
}

// Usage returns the WebGPU usage flags the descriptor implies.
func (d ImageDescriptor) Usage() gputypes.TextureUsage {
	u := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
	if d.RenderTarget || d.Mipmaps {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

// MipLevels returns the length of a full mip chain for a w x h image, or 0
// when either side is empty.
func MipLevels(w, h int) int {
	if w <= 0 || h <= 0 {
		return 0
	}
	return bits.Len(uint(max(w, h)))
}
