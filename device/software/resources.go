// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/internal/image"
	"github.com/gogpu/layercomp/internal/shaders"
)

// softImage is a CPU mip chain.
type softImage struct {
	dev        *Device
	generation uint64
	desc       device.ImageDescriptor
	chain      *image.MipmapChain
	released   bool
}

func (i *softImage) Width() int                        { return i.desc.Width }
func (i *softImage) Height() int                       { return i.desc.Height }
func (i *softImage) Descriptor() device.ImageDescriptor { return i.desc }
func (i *softImage) MipLevelCount() int                { return i.chain.NumLevels() }

func (i *softImage) Released() bool {
	return i.released || i.generation != i.dev.generation.Load()
}

func (i *softImage) Release() {
	if i.released {
		return
	}
	i.released = true
	i.dev.count(func(s *Stats) { s.ImagesReleased++ })
}

type target struct {
	dev        *Device
	generation uint64
	img        *softImage
	released   bool
}

func (t *target) Width() int          { return t.img.Width() }
func (t *target) Height() int         { return t.img.Height() }
func (t *target) Image() device.Image { return t.img }
func (t *target) Release()            { t.released = true }

type program struct {
	dev        *Device
	generation uint64
	label      string
	released   bool
}

func (p *program) Label() string { return p.label }
func (p *program) Release()      { p.released = true }

// NewImage allocates an image and copies pixels into level 0.
func (d *Device) NewImage(desc device.ImageDescriptor, pixels []byte) (device.Image, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	chain, err := image.NewMipmapChain(desc.Width, desc.Height, desc.MipLevelCount())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrInvalidDescriptor, err)
	}
	if pixels != nil {
		base := chain.Level(0)
		if len(pixels) != len(base.Data()) {
			return nil, fmt.Errorf("%w: %d bytes of pixels for %dx%d image",
				device.ErrInvalidDescriptor, len(pixels), desc.Width, desc.Height)
		}
		copy(base.Data(), pixels)
	}
	img := &softImage{
		dev:        d,
		generation: d.generation.Load(),
		desc:       desc,
		chain:      chain,
	}
	d.count(func(s *Stats) { s.ImagesCreated++ })
	d.slogger().Debug("software: image created",
		"label", desc.Label, "width", desc.Width, "height", desc.Height, "levels", chain.NumLevels())
	return img, nil
}

// NewTarget wraps a render-target image.
func (d *Device) NewTarget(img device.Image) (device.Target, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	si, err := d.image(img)
	if err != nil {
		return nil, err
	}
	if !si.desc.RenderTarget {
		return nil, fmt.Errorf("%w: image %q is not a render target", device.ErrInvalidDescriptor, si.desc.Label)
	}
	d.count(func(s *Stats) { s.Targets++ })
	return &target{dev: d, generation: d.generation.Load(), img: si}, nil
}

// NewProgram validates a WGSL program with naga.
func (d *Device) NewProgram(desc device.ProgramDescriptor) (device.Program, error) {
	if err := d.checkLost(); err != nil {
		return nil, err
	}
	if err := shaders.CheckEntryPoints(desc.Source, desc.VertexEntry, desc.FragmentEntry); err != nil {
		return nil, fmt.Errorf("%w: program %q: %w", device.ErrInvalidDescriptor, desc.Label, err)
	}
	if d.compileSPIRV {
		if _, err := shaders.CompileSPIRV(desc.Source); err != nil {
			return nil, fmt.Errorf("%w: program %q: %w", device.ErrInvalidDescriptor, desc.Label, err)
		}
	}
	d.count(func(s *Stats) { s.Programs++ })
	return &program{dev: d, generation: d.generation.Load(), label: desc.Label}, nil
}

// Surface returns the presentation target, reallocating it on resize.
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
	if d.surface != nil {
		d.surface.img.Release()
	}
	t, err := d.NewTarget(img)
	if err != nil {
		return nil, err
	}
	d.surface = t.(*target)
	return d.surface, nil
}

func (d *Device) image(img device.Image) (*softImage, error) {
	si, ok := img.(*softImage)
	if !ok || si == nil {
		return nil, device.ErrForeignResource
	}
	if si.dev != d {
		return nil, device.ErrForeignResource
	}
	if si.Released() {
		return nil, fmt.Errorf("%w: image %q", device.ErrReleased, si.desc.Label)
	}
	return si, nil
}

func (d *Device) target(t device.Target) (*target, error) {
	st, ok := t.(*target)
	if !ok || st == nil || st.dev != d {
		return nil, device.ErrForeignResource
	}
	if st.released || st.generation != d.generation.Load() || st.img.Released() {
		return nil, fmt.Errorf("%w: target %q", device.ErrReleased, st.img.desc.Label)
	}
	return st, nil
}

func (d *Device) program(p device.Program) (*program, error) {
	sp, ok := p.(*program)
	if !ok || sp == nil || sp.dev != d {
		return nil, device.ErrForeignResource
	}
	if sp.released || sp.generation != d.generation.Load() {
		return nil, fmt.Errorf("%w: program %q", device.ErrReleased, sp.label)
	}
	return sp, nil
}
