// Package geom provides the 2D value types shared by the compositor and its
// device backends: points, sizes and 2x3 affine matrices.
//
// Coordinate conventions used across the module:
//
//   - Logical image space: pixels, origin at the top-left, y grows down.
//   - Clip space: [-1, 1] on both axes, y grows up.
//   - Texture space: [0, 1] on both axes, v = 0 is the bottom row of the
//     image and v = 1 its top row.
package geom
