// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/geom"
)

// Mesh is a vertex list with a 2D position and a texture coordinate per
// vertex.
type Mesh struct {
	Label     string
	Topology  gputypes.PrimitiveTopology
	Positions []geom.Point
	UVs       []geom.Point
}

// VertexStride is the size of one interleaved vertex in bytes.
const VertexStride = 16

// UnitQuad returns the quad covering [0,1] x [0,1] in local space as a
// triangle strip. Local y grows downward, so uv.y = 1 - y.
func UnitQuad() *Mesh {
	return &Mesh{
		Label:    "unit-quad",
		Topology: gputypes.PrimitiveTopologyTriangleStrip,
		Positions: []geom.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1},
		},
		UVs: []geom.Point{
			{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0}, {X: 1, Y: 0},
		},
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Triangles calls fn for each triangle of the mesh, as vertex indices.
func (m *Mesh) Triangles(fn func(i0, i1, i2 int)) {
	n := m.VertexCount()
	switch m.Topology {
	case gputypes.PrimitiveTopologyTriangleStrip:
		for i := 0; i+2 < n; i++ {
			fn(i, i+1, i+2)
		}
	case gputypes.PrimitiveTopologyTriangleList:
		for i := 0; i+2 < n; i += 3 {
			fn(i, i+1, i+2)
		}
	}
}

// VertexBytes returns the mesh as interleaved float32 position/uv pairs.
func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, 0, m.VertexCount()*VertexStride)
	for i, p := range m.Positions {
		var uv geom.Point
		if i < len(m.UVs) {
			uv = m.UVs[i]
		}
		for _, f := range [4]float64{p.X, p.Y, uv.X, uv.Y} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(f)))
		}
	}
	return buf
}

// VertexLayout describes VertexBytes for a render pipeline.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}
