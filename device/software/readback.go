// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"context"
	"fmt"
	stdimage "image"

	"github.com/gogpu/layercomp/device"
)

var _ device.PixelReader = (*Device)(nil)

// ReadPixels copies the target's color image into a new *image.RGBA.
func (d *Device) ReadPixels(_ context.Context, t device.Target) (*stdimage.RGBA, error) {
	st, err := d.target(t)
	if err != nil {
		return nil, err
	}
	return st.img.chain.Level(0).ToRGBA(), nil
}

// ReadImage copies one mip level of img into a new *image.RGBA.
func (d *Device) ReadImage(_ context.Context, img device.Image, level int) (*stdimage.RGBA, error) {
	si, err := d.image(img)
	if err != nil {
		return nil, err
	}
	buf := si.chain.Level(level)
	if buf == nil {
		return nil, fmt.Errorf("%w: level %d of %d", device.ErrInvalidDescriptor, level, si.chain.NumLevels())
	}
	return buf.ToRGBA(), nil
}
