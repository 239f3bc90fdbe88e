// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/internal/shaders"
)

// gpuImage is a 2D texture with a view over all of its mip levels.
type gpuImage struct {
	dev        *Device
	generation uint64
	desc       device.ImageDescriptor
	levels     int
	tex        *webgpu.Texture
	view       *webgpu.TextureView
	released   bool
}

func (i *gpuImage) Width() int                         { return i.desc.Width }
func (i *gpuImage) Height() int                        { return i.desc.Height }
func (i *gpuImage) Descriptor() device.ImageDescriptor { return i.desc }
func (i *gpuImage) MipLevelCount() int                 { return i.levels }

func (i *gpuImage) Released() bool {
	return i.released || i.generation != i.dev.generation.Load()
}

func (i *gpuImage) Release() {
	if i.released {
		return
	}
	i.released = true
	// Objects of a lost generation died with their device.
	if i.generation == i.dev.generation.Load() {
		i.view.Release()
		i.tex.Release()
	}
}

// levelView creates a view of a single mip level for rendering into it.
func (i *gpuImage) levelView(level int) (*webgpu.TextureView, error) {
	return i.dev.dev.CreateTextureView(i.tex, &webgpu.TextureViewDescriptor{
		Label:           fmt.Sprintf("%s-level-%d", i.desc.Label, level),
		Format:          device.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		BaseMipLevel:    uint32(level),
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
}

type target struct {
	dev        *Device
	generation uint64
	img        *gpuImage
	view       *webgpu.TextureView
	released   bool
}

func (t *target) Width() int          { return t.img.Width() }
func (t *target) Height() int         { return t.img.Height() }
func (t *target) Image() device.Image { return t.img }

func (t *target) Release() {
	if t.released {
		return
	}
	t.released = true
	if t.generation == t.dev.generation.Load() {
		t.view.Release()
	}
}

type program struct {
	dev           *Device
	generation    uint64
	label         string
	vertexEntry   string
	fragmentEntry string
	module        *webgpu.ShaderModule
	released      bool
}

func (p *program) Label() string { return p.label }

func (p *program) Release() {
	if p.released {
		return
	}
	p.released = true
	if p.generation == p.dev.generation.Load() {
		if p.dev.pipelines != nil {
			p.dev.pipelines.Forget(p.module)
		}
		p.module.Release()
	}
}

// NewImage allocates a texture and uploads pixels into level 0.
func (d *Device) NewImage(desc device.ImageDescriptor, pixels []byte) (device.Image, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if pixels != nil && len(pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("%w: %d bytes of pixels for %dx%d image",
			device.ErrInvalidDescriptor, len(pixels), desc.Width, desc.Height)
	}

	levels := desc.MipLevelCount()
	size := webgpu.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1}
	tex, err := d.dev.CreateTexture(&webgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          size,
		MipLevelCount: uint32(levels),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        device.Format,
		Usage:         desc.Usage() | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, d.check("create texture", err)
	}
	view, err := d.dev.CreateTextureView(tex, nil)
	if err != nil {
		tex.Release()
		return nil, d.check("create texture view", err)
	}

	if pixels != nil {
		err = d.queue.WriteTexture(
			&webgpu.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
			pixels,
			&webgpu.ImageDataLayout{BytesPerRow: uint32(desc.Width * 4), RowsPerImage: uint32(desc.Height)},
			&size,
		)
		if err != nil {
			view.Release()
			tex.Release()
			return nil, d.check("write texture", err)
		}
	}

	d.slogger().Debug("wgpu: image created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height, "levels", levels)
	return &gpuImage{
		dev:        d,
		generation: d.generation.Load(),
		desc:       desc,
		levels:     levels,
		tex:        tex,
		view:       view,
	}, nil
}

// NewTarget wraps level 0 of a render-target image.
func (d *Device) NewTarget(img device.Image) (device.Target, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	gi, err := d.image(img)
	if err != nil {
		return nil, err
	}
	if !gi.desc.RenderTarget {
		return nil, fmt.Errorf("%w: image %q is not a render target", device.ErrInvalidDescriptor, gi.desc.Label)
	}
	view, err := gi.levelView(0)
	if err != nil {
		return nil, d.check("create target view", err)
	}
	return &target{dev: d, generation: d.generation.Load(), img: gi, view: view}, nil
}

// NewProgram checks the entry points with naga and creates a shader module.
func (d *Device) NewProgram(desc device.ProgramDescriptor) (device.Program, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	if err := shaders.CheckEntryPoints(desc.Source, desc.VertexEntry, desc.FragmentEntry); err != nil {
		return nil, fmt.Errorf("%w: program %q: %w", device.ErrInvalidDescriptor, desc.Label, err)
	}
	module, err := d.dev.CreateShaderModule(&webgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSL:  desc.Source,
	})
	if err != nil {
		return nil, d.check("create shader module", err)
	}
	return &program{
		dev:           d,
		generation:    d.generation.Load(),
		label:         desc.Label,
		vertexEntry:   desc.VertexEntry,
		fragmentEntry: desc.FragmentEntry,
		module:        module,
	}, nil
}

// Surface returns the offscreen presentation target, reallocating it on
// resize. Hosts present it through SurfaceTexture.
func (d *Device) Surface(width, height int) (device.Target, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	if d.surface != nil && d.surface.Width() == width && d.surface.Height() == height {
		return d.surface, nil
	}
	img, err := d.NewImage(device.ImageDescriptor{
		Label:        "surface",
		Width:        width,
		Height:       height,
		Format:       device.Format,
		RenderTarget: true,
		Sampler:      device.TrilinearSampler(),
	}, nil)
	if err != nil {
		return nil, err
	}
	t, err := d.NewTarget(img)
	if err != nil {
		img.Release()
		return nil, err
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface.img.Release()
	}
	d.surface = t.(*target)
	return d.surface, nil
}

// SurfaceTexture returns the texture behind the current surface, or nil.
func (d *Device) SurfaceTexture() *webgpu.Texture {
	if d.surface == nil {
		return nil
	}
	return d.surface.img.tex
}

// sampler returns a cached sampler for s.
func (d *Device) sampler(s device.Sampler) (*webgpu.Sampler, error) {
	if cached, ok := d.samplers[s]; ok {
		return cached, nil
	}
	gd := s.Descriptor("layer-sampler")
	smp, err := d.dev.CreateSampler(&webgpu.SamplerDescriptor{
		Label:        gd.Label,
		AddressModeU: gd.AddressModeU,
		AddressModeV: gd.AddressModeV,
		AddressModeW: gd.AddressModeW,
		MagFilter:    gd.MagFilter,
		MinFilter:    gd.MinFilter,
		MipmapFilter: gputypes.FilterMode(gd.MipmapFilter),
		LodMinClamp:  gd.LodMinClamp,
		LodMaxClamp:  gd.LodMaxClamp,
		Anisotropy:   gd.MaxAnisotropy,
	})
	if err != nil {
		return nil, d.check("create sampler", err)
	}
	d.samplers[s] = smp
	return smp, nil
}

// vertexBuffer returns a cached vertex buffer holding m's vertices.
func (d *Device) vertexBuffer(m *device.Mesh) (*webgpu.Buffer, error) {
	if buf, ok := d.meshes[m]; ok {
		return buf, nil
	}
	data := m.VertexBytes()
	buf, err := d.dev.CreateBuffer(&webgpu.BufferDescriptor{
		Label: m.Label,
		Size:  uint64(len(data)),
		Usage: webgpu.BufferUsageVertex | webgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, d.check("create vertex buffer", err)
	}
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, d.check("write vertex buffer", err)
	}
	d.meshes[m] = buf
	return buf, nil
}

func (d *Device) image(img device.Image) (*gpuImage, error) {
	gi, ok := img.(*gpuImage)
	if !ok || gi == nil || gi.dev != d {
		return nil, device.ErrForeignResource
	}
	if gi.Released() {
		return nil, fmt.Errorf("%w: image %q", device.ErrReleased, gi.desc.Label)
	}
	return gi, nil
}

func (d *Device) target(t device.Target) (*target, error) {
	gt, ok := t.(*target)
	if !ok || gt == nil || gt.dev != d {
		return nil, device.ErrForeignResource
	}
	if gt.released || gt.generation != d.generation.Load() || gt.img.Released() {
		return nil, fmt.Errorf("%w: target %q", device.ErrReleased, gt.img.desc.Label)
	}
	return gt, nil
}

func (d *Device) program(p device.Program) (*program, error) {
	gp, ok := p.(*program)
	if !ok || gp == nil || gp.dev != d {
		return nil, device.ErrForeignResource
	}
	if gp.released || gp.generation != d.generation.Load() {
		return nil, fmt.Errorf("%w: program %q", device.ErrReleased, gp.label)
	}
	return gp, nil
}
