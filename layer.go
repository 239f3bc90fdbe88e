package layercomp

import (
	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
	"github.com/gogpu/layercomp/texcache"
)

// Layer is one positioned image in the composite.
//
// The exported fields may be changed between frames; the derived
// transforms are recomputed on every render. Layers belong to the frame
// thread.
type Layer struct {
	// ID identifies the image source, for example a file path or URL.
	ID string

	// Offset is the top-left corner of the layer in image space.
	Offset geom.Point

	// Size is the extent of the layer in image space. A zero dimension
	// hides the layer.
	Size geom.Size

	// PremultipliedAlpha marks the source pixels as premultiplied.
	PremultipliedAlpha bool

	texture    device.Image
	err        error
	loading    bool
	pending    *texcache.Pending
	generation uint64
}

// NewLayer returns a layer showing id at offset with the given size.
func NewLayer(id string, offset geom.Point, size geom.Size) *Layer {
	return &Layer{ID: id, Offset: offset, Size: size}
}

// Texture returns the image the layer samples, or nil while it is not
// loaded.
func (l *Layer) Texture() device.Image { return l.texture }

// Err returns the error of the last failed load.
func (l *Layer) Err() error { return l.err }

// Loading reports whether a load for the layer is in flight.
func (l *Layer) Loading() bool { return l.loading }

// Ready reports whether the layer has a live texture.
func (l *Layer) Ready() bool {
	return l.texture != nil && !l.texture.Released()
}

// Degenerate reports whether the layer covers no area.
func (l *Layer) Degenerate() bool { return l.Size.IsEmpty() }

// LocalToImage maps the unit quad onto the layer's rectangle.
func (l *Layer) LocalToImage() geom.Matrix {
	return LocalToImage(l.Offset, l.Size)
}

// UVToTexture maps quad texture coordinates onto the layer texture. Layer
// textures are unpadded and share the quad orientation, so this is the
// identity.
func (l *Layer) UVToTexture() geom.Matrix { return geom.Identity() }

// premultiplied reports whether the shader must divide out alpha.
func (l *Layer) premultiplied() bool {
	if l.PremultipliedAlpha {
		return true
	}
	return l.texture != nil && l.texture.Descriptor().Premultiplied
}

// detach forgets the texture and invalidates any load in flight.
func (l *Layer) detach() {
	l.texture = nil
	l.loading = false
	l.pending = nil
	l.generation++
}
