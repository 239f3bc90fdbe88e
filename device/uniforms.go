// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/layercomp/geom"
)

// Uniforms is the fixed uniform set consumed by the layer program.
//
// A vertex in local space is transformed by LocalToWorld, WorldToView and
// ViewToScreen, in that order, to reach clip space. Texture coordinates are
// transformed by UVToTexture before sampling LayerMap.
type Uniforms struct {
	ViewToScreen geom.Matrix
	ScreenToView geom.Matrix
	WorldToView  geom.Matrix
	LocalToWorld geom.Matrix

	// LayerMap is the image sampled by the fragment stage.
	LayerMap Image

	UVToTexture geom.Matrix

	// MipmapBias is added to the computed level of detail.
	MipmapBias float32

	// PremultipliedAlpha marks LayerMap as holding premultiplied color.
	// The program divides it out before blending.
	PremultipliedAlpha bool
}

// UniformSize is the byte size of the WGSL uniform block, rounded up to
// the 16-byte struct alignment.
const UniformSize = 336

// LocalToScreen returns the full vertex transform.
func (u *Uniforms) LocalToScreen() geom.Matrix {
	return u.ViewToScreen.Multiply(u.WorldToView).Multiply(u.LocalToWorld)
}

// Bytes encodes the uniforms with WGSL uniform-buffer layout: five
// mat4x4<f32> (64 bytes each) followed by the bias and the flag.
// Transforms are 4x4 so every column is a 16-byte vec4 and no reader
// depends on the MatrixStride decoration.
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	for _, m := range [5]geom.Matrix{
		u.ViewToScreen, u.ScreenToView, u.WorldToView, u.LocalToWorld, u.UVToTexture,
	} {
		for _, f := range m.Mat4() {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	var premul float32
	if u.PremultipliedAlpha {
		premul = 1
	}
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(u.MipmapBias))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(premul))
	return append(buf, make([]byte, UniformSize-len(buf))...)
}
