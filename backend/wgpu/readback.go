// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"fmt"
	stdimage "image"

	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/layercomp/device"
)

// copyRowAlignment is the WebGPU alignment for bytesPerRow in
// texture-to-buffer copies.
const copyRowAlignment = 256

// ReadPixels copies level 0 of the target's image into a new *image.RGBA.
func (d *Device) ReadPixels(ctx context.Context, t device.Target) (*stdimage.RGBA, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	gt, err := d.target(t)
	if err != nil {
		return nil, err
	}
	return d.readLevel(ctx, gt.img, 0)
}

// ReadImage copies one mip level of img into a new *image.RGBA.
func (d *Device) ReadImage(ctx context.Context, img device.Image, level int) (*stdimage.RGBA, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	gi, err := d.image(img)
	if err != nil {
		return nil, err
	}
	if level < 0 || level >= gi.levels {
		return nil, fmt.Errorf("%w: level %d of %d", device.ErrInvalidDescriptor, level, gi.levels)
	}
	return d.readLevel(ctx, gi, level)
}

func (d *Device) readLevel(ctx context.Context, gi *gpuImage, level int) (*stdimage.RGBA, error) {
	w := max(gi.desc.Width>>level, 1)
	h := max(gi.desc.Height>>level, 1)
	rowBytes := uint32(w * 4)
	stride := (rowBytes + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
	size := uint64(stride) * uint64(h)

	staging, err := d.dev.CreateBuffer(&webgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: webgpu.BufferUsageMapRead | webgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, d.check("create staging buffer", err)
	}
	defer staging.Release()

	encoder, err := d.dev.CreateCommandEncoder(&webgpu.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, d.check("create command encoder", err)
	}
	encoder.CopyTextureToBuffer(gi.tex, staging, []webgpu.BufferTextureCopy{
		{
			BufferLayout: webgpu.ImageDataLayout{BytesPerRow: stride, RowsPerImage: uint32(h)},
			TextureBase: webgpu.ImageCopyTexture{
				Texture:  gi.tex,
				MipLevel: uint32(level),
				Aspect:   gputypes.TextureAspectAll,
			},
			Size: webgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		},
	})
	cmd, err := encoder.Finish()
	if err != nil {
		return nil, d.check("finish encoder", err)
	}
	if _, err := d.queue.Submit(cmd); err != nil {
		return nil, d.check("submit", err)
	}

	if err := staging.Map(ctx, webgpu.MapModeRead, 0, size); err != nil {
		return nil, d.check("map staging buffer", err)
	}
	rng, err := staging.MappedRange(0, size)
	if err != nil {
		_ = staging.Unmap()
		return nil, d.check("mapped range", err)
	}
	data := rng.Bytes()

	out := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := data[uint32(y)*stride : uint32(y)*stride+rowBytes]
		copy(out.Pix[y*out.Stride:], src)
	}
	rng.Release()
	if err := staging.Unmap(); err != nil {
		return nil, d.check("unmap staging buffer", err)
	}
	return out, nil
}
