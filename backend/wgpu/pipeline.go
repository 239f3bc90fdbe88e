// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	webgpu "github.com/gogpu/wgpu"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/internal/shaders"
)

// PipelineCache owns the bind group layouts shared by every layer program,
// the mipmap downsample pipeline, and the render pipelines built for each
// program, blend state and topology combination.
//
// PipelineCache is safe for concurrent use.
type PipelineCache struct {
	mu sync.Mutex

	dev *webgpu.Device

	layerGroup  *webgpu.BindGroupLayout
	layerLayout *webgpu.PipelineLayout

	mipModule   *webgpu.ShaderModule
	mipGroup    *webgpu.BindGroupLayout
	mipLayout   *webgpu.PipelineLayout
	mipPipeline *webgpu.RenderPipeline

	pipelines map[pipelineKey]*webgpu.RenderPipeline
}

type pipelineKey struct {
	module   *webgpu.ShaderModule
	blend    gputypes.BlendState
	topology gputypes.PrimitiveTopology
}

// NewPipelineCache creates the shared layouts and the mipmap pipeline.
func NewPipelineCache(dev *webgpu.Device) (*PipelineCache, error) {
	pc := &PipelineCache{
		dev:       dev,
		pipelines: make(map[pipelineKey]*webgpu.RenderPipeline),
	}
	if err := pc.createLayerLayout(); err != nil {
		pc.Release()
		return nil, err
	}
	if err := pc.createMipmapPipeline(); err != nil {
		pc.Release()
		return nil, err
	}
	return pc, nil
}

func (pc *PipelineCache) createLayerLayout() error {
	group, err := pc.dev.CreateBindGroupLayout(&webgpu.BindGroupLayoutDescriptor{
		Label: "layer-bind-group-layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: device.UniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: layer bind group layout: %w", err)
	}
	pc.layerGroup = group

	layout, err := pc.dev.CreatePipelineLayout(&webgpu.PipelineLayoutDescriptor{
		Label:            "layer-pipeline-layout",
		BindGroupLayouts: []*webgpu.BindGroupLayout{group},
	})
	if err != nil {
		return fmt.Errorf("wgpu: layer pipeline layout: %w", err)
	}
	pc.layerLayout = layout
	return nil
}

func (pc *PipelineCache) createMipmapPipeline() error {
	module, err := pc.dev.CreateShaderModule(&webgpu.ShaderModuleDescriptor{
		Label: "mipmap",
		WGSL:  shaders.Mipmap,
	})
	if err != nil {
		return fmt.Errorf("wgpu: mipmap shader: %w", err)
	}
	pc.mipModule = module

	group, err := pc.dev.CreateBindGroupLayout(&webgpu.BindGroupLayoutDescriptor{
		Label: "mipmap-bind-group-layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: mipmap bind group layout: %w", err)
	}
	pc.mipGroup = group

	layout, err := pc.dev.CreatePipelineLayout(&webgpu.PipelineLayoutDescriptor{
		Label:            "mipmap-pipeline-layout",
		BindGroupLayouts: []*webgpu.BindGroupLayout{group},
	})
	if err != nil {
		return fmt.Errorf("wgpu: mipmap pipeline layout: %w", err)
	}
	pc.mipLayout = layout

	pipeline, err := pc.dev.CreateRenderPipeline(&webgpu.RenderPipelineDescriptor{
		Label:  "mipmap",
		Layout: layout,
		Vertex: webgpu.VertexState{
			Module:     module,
			EntryPoint: shaders.VertexEntry,
		},
		Primitive:   gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: ^uint64(0)},
		Fragment: &webgpu.FragmentState{
			Module:     module,
			EntryPoint: shaders.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{Format: device.Format, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: mipmap pipeline: %w", err)
	}
	pc.mipPipeline = pipeline
	return nil
}

// Pipeline returns the render pipeline for a program, creating it on first
// use.
func (pc *PipelineCache) Pipeline(p *program, blend gputypes.BlendState, topology gputypes.PrimitiveTopology) (*webgpu.RenderPipeline, error) {
	key := pipelineKey{module: p.module, blend: blend, topology: topology}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if rp, ok := pc.pipelines[key]; ok {
		return rp, nil
	}

	rp, err := pc.dev.CreateRenderPipeline(&webgpu.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: pc.layerLayout,
		Vertex: webgpu.VertexState{
			Module:     p.module,
			EntryPoint: p.vertexEntry,
			Buffers:    []webgpu.VertexBufferLayout{device.VertexLayout()},
		},
		Primitive:   gputypes.PrimitiveState{Topology: topology},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: ^uint64(0)},
		Fragment: &webgpu.FragmentState{
			Module:     p.module,
			EntryPoint: p.fragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{Format: device.Format, Blend: &blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	pc.pipelines[key] = rp
	return rp, nil
}

// Forget releases every pipeline built for module.
func (pc *PipelineCache) Forget(module *webgpu.ShaderModule) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for k, rp := range pc.pipelines {
		if k.module == module {
			rp.Release()
			delete(pc.pipelines, k)
		}
	}
}

// Release frees all cached GPU objects.
func (pc *PipelineCache) Release() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	for k, rp := range pc.pipelines {
		rp.Release()
		delete(pc.pipelines, k)
	}
	if pc.mipPipeline != nil {
		pc.mipPipeline.Release()
		pc.mipPipeline = nil
	}
	if pc.mipLayout != nil {
		pc.mipLayout.Release()
		pc.mipLayout = nil
	}
	if pc.mipGroup != nil {
		pc.mipGroup.Release()
		pc.mipGroup = nil
	}
	if pc.mipModule != nil {
		pc.mipModule.Release()
		pc.mipModule = nil
	}
	if pc.layerLayout != nil {
		pc.layerLayout.Release()
		pc.layerLayout = nil
	}
	if pc.layerGroup != nil {
		pc.layerGroup.Release()
		pc.layerGroup = nil
	}
}
