// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/layercomp/device"
)

// Clear fills the target with c.
func (d *Device) Clear(t device.Target, c gputypes.Color) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	gt, err := d.target(t)
	if err != nil {
		return err
	}
	return d.submitPass("clear", gt.view, gputypes.LoadOpClear, c, func(*webgpu.RenderPassEncoder) {})
}

// Draw renders mesh into t with program p, sampling u.LayerMap.
func (d *Device) Draw(t device.Target, p device.Program, u *device.Uniforms, mesh *device.Mesh, blend gputypes.BlendState) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	if u == nil || mesh == nil {
		return fmt.Errorf("%w: draw needs uniforms and a mesh", device.ErrInvalidDescriptor)
	}
	gt, err := d.target(t)
	if err != nil {
		return err
	}
	gp, err := d.program(p)
	if err != nil {
		return err
	}
	src, err := d.image(u.LayerMap)
	if err != nil {
		return err
	}
	if src == gt.img {
		return fmt.Errorf("%w: image %q is both source and target", device.ErrInvalidDescriptor, src.desc.Label)
	}
	if mesh.VertexCount() == 0 {
		return nil
	}

	pipeline, err := d.pipelines.Pipeline(gp, blend, mesh.Topology)
	if err != nil {
		return d.check("create render pipeline", err)
	}
	smp, err := d.sampler(src.desc.Sampler)
	if err != nil {
		return err
	}
	vb, err := d.vertexBuffer(mesh)
	if err != nil {
		return err
	}

	ub, err := d.dev.CreateBuffer(&webgpu.BufferDescriptor{
		Label: "layer-uniforms",
		Size:  device.UniformSize,
		Usage: webgpu.BufferUsageUniform | webgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return d.check("create uniform buffer", err)
	}
	defer ub.Release()
	if err := d.queue.WriteBuffer(ub, 0, u.Bytes()); err != nil {
		return d.check("write uniforms", err)
	}

	group, err := d.dev.CreateBindGroup(&webgpu.BindGroupDescriptor{
		Label:  gp.label,
		Layout: d.pipelines.layerGroup,
		Entries: []webgpu.BindGroupEntry{
			{Binding: 0, Buffer: ub, Size: device.UniformSize},
			{Binding: 1, TextureView: src.view},
			{Binding: 2, Sampler: smp},
		},
	})
	if err != nil {
		return d.check("create bind group", err)
	}
	defer group.Release()

	return d.submitPass(gp.label, gt.view, gputypes.LoadOpLoad, gputypes.Color{}, func(pass *webgpu.RenderPassEncoder) {
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, group, nil)
		pass.SetVertexBuffer(0, vb, 0)
		pass.Draw(uint32(mesh.VertexCount()), 1, 0, 0)
	})
}

// submitPass records one render pass into view and submits it.
func (d *Device) submitPass(label string, view *webgpu.TextureView, load gputypes.LoadOp, clear gputypes.Color, record func(*webgpu.RenderPassEncoder)) error {
	encoder, err := d.dev.CreateCommandEncoder(&webgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return d.check("create command encoder", err)
	}
	pass, err := encoder.BeginRenderPass(&webgpu.RenderPassDescriptor{
		Label: label,
		ColorAttachments: []webgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clear,
			},
		},
	})
	if err != nil {
		encoder.DiscardEncoding()
		return d.check("begin render pass", err)
	}
	record(pass)
	if err := pass.End(); err != nil {
		encoder.DiscardEncoding()
		return d.check("end render pass", err)
	}
	cmd, err := encoder.Finish()
	if err != nil {
		return d.check("finish encoder", err)
	}
	if _, err := d.queue.Submit(cmd); err != nil {
		return d.check("submit", err)
	}
	return nil
}

// GenerateMipmaps fills levels 1..n-1 by downsampling each level from the
// previous one with a linear filter.
func (d *Device) GenerateMipmaps(img device.Image) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	gi, err := d.image(img)
	if err != nil {
		return err
	}
	if gi.levels < 2 {
		return nil
	}
	smp, err := d.sampler(device.Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.MipmapFilterModeNearest,
	})
	if err != nil {
		return err
	}

	views := make([]*webgpu.TextureView, gi.levels)
	defer func() {
		for _, v := range views {
			if v != nil {
				v.Release()
			}
		}
	}()
	for level := range views {
		if views[level], err = gi.levelView(level); err != nil {
			return d.check("create level view", err)
		}
	}

	for level := 1; level < gi.levels; level++ {
		group, err := d.dev.CreateBindGroup(&webgpu.BindGroupDescriptor{
			Label:  "mipmap",
			Layout: d.pipelines.mipGroup,
			Entries: []webgpu.BindGroupEntry{
				{Binding: 0, TextureView: views[level-1]},
				{Binding: 1, Sampler: smp},
			},
		})
		if err != nil {
			return d.check("create mipmap bind group", err)
		}
		err = d.submitPass("mipmap", views[level], gputypes.LoadOpClear, gputypes.Color{}, func(pass *webgpu.RenderPassEncoder) {
			pass.SetPipeline(d.pipelines.mipPipeline)
			pass.SetBindGroup(0, group, nil)
			pass.Draw(3, 1, 0, 0)
		})
		group.Release()
		if err != nil {
			return err
		}
	}
	d.slogger().Debug("wgpu: mipmaps generated", "label", gi.desc.Label, "levels", gi.levels)
	return nil
}
