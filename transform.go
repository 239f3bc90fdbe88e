package layercomp

import "github.com/gogpu/layercomp/geom"

// Coordinate spaces:
//
//   - local: the unit quad [0,1] x [0,1], y down.
//   - image: logical image pixels, y down, origin top-left.
//   - canvas: logical viewport points, y down, origin top-left.
//   - texture: uv in [0,1] x [0,1], v up. Offscreen padding sits at the
//     right and at the bottom (low v) of the texture.

// LocalToImage maps the unit quad onto the rectangle offset..offset+size
// in image space.
func LocalToImage(offset geom.Point, size geom.Size) geom.Matrix {
	return geom.Translate(offset.X, offset.Y).Multiply(geom.Scale(size.Width, size.Height))
}

// ImageProjection maps image space onto clip space over the whole
// offscreen target, flipping y.
func ImageProjection(offscreen geom.PixelSize) geom.Matrix {
	return geom.Ortho(0, float64(offscreen.Width), 0, float64(offscreen.Height))
}

// CanvasProjection maps canvas space onto clip space, flipping y.
func CanvasProjection(canvas geom.Size) geom.Matrix {
	return geom.Ortho(0, canvas.Width, 0, canvas.Height)
}

// OffscreenUV maps unit-quad texture coordinates onto the region of the
// padded offscreen texture that holds the logical image.
func OffscreenUV(image geom.Size, offscreen geom.PixelSize) geom.Matrix {
	if offscreen.Width <= 0 || offscreen.Height <= 0 {
		return geom.Identity()
	}
	ow, oh := float64(offscreen.Width), float64(offscreen.Height)
	return geom.Translate(0, (oh-image.Height)/oh).Multiply(geom.Scale(image.Width/ow, image.Height/oh))
}

// ImageToCanvas fits image inside canvas preserving its aspect ratio,
// scales the fitted image by zoom about the canvas center, and moves the
// image point at pan (normalized, (0.5, 0.5) is the image center) to the
// canvas center. ok is false when either size is empty or zoom is not
// positive.
func ImageToCanvas(canvas, image geom.Size, pan geom.Point, zoom float64) (m geom.Matrix, ok bool) {
	fitted := geom.Fit(canvas, image)
	if fitted.IsEmpty() || !(zoom > 0) {
		return geom.Identity(), false
	}
	k := fitted.Width / image.Width * zoom
	return geom.Translate(canvas.Width/2, canvas.Height/2).
		Multiply(geom.Scale(k, k)).
		Multiply(geom.Translate(-pan.X*image.Width, -pan.Y*image.Height)), true
}
