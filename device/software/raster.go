// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
	"github.com/gogpu/layercomp/internal/blend"
	"github.com/gogpu/layercomp/internal/image"
)

// Clear fills level 0 of the target image with c.
func (d *Device) Clear(t device.Target, c gputypes.Color) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	st, err := d.target(t)
	if err != nil {
		return err
	}
	st.img.chain.Level(0).Fill(
		image.Unorm8(float32(c.R)), image.Unorm8(float32(c.G)),
		image.Unorm8(float32(c.B)), image.Unorm8(float32(c.A)),
	)
	d.count(func(s *Stats) { s.Clears++ })
	return nil
}

// Draw rasterizes mesh into t.
//
// A pixel is covered when its center lies inside a triangle; pixels on a
// shared edge belong to exactly one triangle. Meshes whose transform has a
// zero determinant draw nothing.
func (d *Device) Draw(t device.Target, p device.Program, u *device.Uniforms, mesh *device.Mesh, state gputypes.BlendState) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	if u == nil || mesh == nil {
		return fmt.Errorf("%w: nil uniforms or mesh", device.ErrInvalidDescriptor)
	}
	st, err := d.target(t)
	if err != nil {
		return err
	}
	if _, err := d.program(p); err != nil {
		return err
	}
	src, err := d.image(u.LayerMap)
	if err != nil {
		return err
	}
	if src == st.img {
		return fmt.Errorf("%w: image %q sampled while bound as target", device.ErrInvalidDescriptor, src.desc.Label)
	}

	dst := st.img.chain.Level(0)
	w, h := dst.Bounds()
	hw, hh := float64(w)/2, float64(h)/2
	pixelFromClip := geom.Translate(hw, hh).Multiply(geom.Scale(hw, -hh))

	r := rasterizer{
		dst:     dst,
		src:     src,
		u:       u,
		blend:   state,
		toPixel: pixelFromClip.Multiply(u.LocalToScreen()),
	}
	drawn := 0
	if r.toPixel.Determinant() != 0 {
		mesh.Triangles(func(i0, i1, i2 int) {
			if r.triangle(mesh, i0, i1, i2) {
				drawn++
			}
		})
	}
	d.count(func(s *Stats) {
		s.Draws++
		s.Triangles += drawn
	})
	return nil
}

// GenerateMipmaps rebuilds the mip chain of img from level 0.
func (d *Device) GenerateMipmaps(img device.Image) error {
	if err := d.checkLost(); err != nil {
		return err
	}
	si, err := d.image(img)
	if err != nil {
		return err
	}
	si.chain.Generate()
	d.count(func(s *Stats) { s.Mipmaps++ })
	return nil
}

type vertex struct {
	pos geom.Point // pixel space
	uv  geom.Point // texture space
}

type rasterizer struct {
	dst     *image.ImageBuf
	src     *softImage
	u       *device.Uniforms
	blend   gputypes.BlendState
	toPixel geom.Matrix
}

// triangle rasterizes one triangle and reports whether it had area.
func (r *rasterizer) triangle(mesh *device.Mesh, i0, i1, i2 int) bool {
	if max(i0, i1, i2) >= len(mesh.UVs) {
		return false
	}
	v0, v1, v2 := r.vertex(mesh, i0), r.vertex(mesh, i1), r.vertex(mesh, i2)

	area := edgeRaw(v0.pos, v1.pos, v2.pos)
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return false
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	// Texture coordinates are affine in pixel space, so their screen-space
	// derivatives are constant over the triangle.
	origin := v0.pos
	uvAt := func(p geom.Point) geom.Point {
		b0 := edgeRaw(v1.pos, v2.pos, p) / area
		b1 := edgeRaw(v2.pos, v0.pos, p) / area
		b2 := edgeRaw(v0.pos, v1.pos, p) / area
		return v0.uv.Mul(b0).Add(v1.uv.Mul(b1)).Add(v2.uv.Mul(b2))
	}
	base := uvAt(origin)
	ddx := uvAt(origin.Add(geom.Pt(1, 0))).Sub(base)
	ddy := uvAt(origin.Add(geom.Pt(0, 1))).Sub(base)
	lod := r.lod(ddx, ddy)

	w, h := r.dst.Bounds()
	minX := max(0, int(math.Floor(min(v0.pos.X, v1.pos.X, v2.pos.X))))
	maxX := min(w-1, int(math.Ceil(max(v0.pos.X, v1.pos.X, v2.pos.X))))
	minY := max(0, int(math.Floor(min(v0.pos.Y, v1.pos.Y, v2.pos.Y))))
	maxY := min(h-1, int(math.Ceil(max(v0.pos.Y, v1.pos.Y, v2.pos.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c := geom.Pt(float64(x)+0.5, float64(y)+0.5)
			w0 := edge(v1.pos, v2.pos, c)
			w1 := edge(v2.pos, v0.pos, c)
			w2 := edge(v0.pos, v1.pos, c)
			if !covers(w0, v1.pos, v2.pos) || !covers(w1, v2.pos, v0.pos) || !covers(w2, v0.pos, v1.pos) {
				continue
			}
			uv := v0.uv.Mul(w0 / area).Add(v1.uv.Mul(w1 / area)).Add(v2.uv.Mul(w2 / area))
			r.shade(x, y, uv, lod)
		}
	}
	return true
}

func (r *rasterizer) vertex(mesh *device.Mesh, i int) vertex {
	return vertex{
		pos: r.toPixel.TransformPoint(mesh.Positions[i]),
		uv:  r.u.UVToTexture.TransformPoint(mesh.UVs[i]),
	}
}

// shade runs the layer program for one pixel and blends the result.
func (r *rasterizer) shade(x, y int, uv geom.Point, lod float32) {
	c := r.sample(uv, lod)
	if r.u.PremultipliedAlpha && c[3] > 0 {
		c[0] /= c[3]
		c[1] /= c[3]
		c[2] /= c[3]
	}
	r.dst.SetTexel(x, y, blend.Apply(r.blend, c, r.dst.Texel(x, y)))
}

// lod returns the biased level of detail for the given per-pixel
// texture-coordinate derivatives.
func (r *rasterizer) lod(ddx, ddy geom.Point) float32 {
	tw, th := float32(r.src.Width()), float32(r.src.Height())
	lx := math32.Hypot(float32(ddx.X)*tw, float32(ddx.Y)*th)
	ly := math32.Hypot(float32(ddy.X)*tw, float32(ddy.Y)*th)
	rho := math32.Max(lx, ly)
	if rho <= 0 {
		return float32(math.Inf(-1))
	}
	return math32.Log2(rho) + r.u.MipmapBias
}

// sample reads the source image at texture coordinate uv (v up).
func (r *rasterizer) sample(uv geom.Point, lod float32) [4]float32 {
	sampler := r.src.desc.Sampler
	chain := r.src.chain
	s, t := float32(uv.X), float32(1-uv.Y)

	if lod <= 0 {
		return image.Sample(chain.Level(0), s, t, interp(sampler.MagFilter))
	}

	mode := interp(sampler.MinFilter)
	top := float32(chain.NumLevels() - 1)
	lod = math32.Min(lod, top)
	if sampler.MipmapFilter == gputypes.MipmapFilterModeLinear {
		l0 := math32.Floor(lod)
		c0 := image.Sample(chain.Level(int(l0)), s, t, mode)
		f := lod - l0
		if f <= 0 || l0 >= top {
			return c0
		}
		c1 := image.Sample(chain.Level(int(l0)+1), s, t, mode)
		return image.Lerp4(c0, c1, f)
	}
	return image.Sample(chain.Level(int(math32.Floor(lod+0.5))), s, t, mode)
}

func interp(f gputypes.FilterMode) image.InterpolationMode {
	if f == gputypes.FilterModeLinear {
		return image.InterpBilinear
	}
	return image.InterpNearest
}

func edgeRaw(a, b, p geom.Point) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// edge evaluates the edge function with a canonical endpoint order, so the
// two triangles sharing an edge see exactly negated values.
func edge(a, b, p geom.Point) float64 {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		return -edgeRaw(b, a, p)
	}
	return edgeRaw(a, b, p)
}

// covers applies the fill rule: points exactly on an edge belong to the
// triangle for which the edge runs downward, or leftward when horizontal.
func covers(w float64, a, b geom.Point) bool {
	if w > 0 {
		return true
	}
	if w < 0 {
		return false
	}
	dy := b.Y - a.Y
	return dy > 0 || (dy == 0 && b.X < a.X)
}
