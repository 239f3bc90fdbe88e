package image

import "math/bits"

// MipmapChain holds an image and its successively halved levels.
//
// Level 0 is the full-resolution image. Each following level halves both
// dimensions (never below 1) until a 1x1 level is reached.
type MipmapChain struct {
	levels []*ImageBuf // Level 0 = original size
}

// NewMipmapChain allocates a transparent chain for a width x height image.
// levels limits the chain length; values < 1 allocate the full chain.
func NewMipmapChain(width, height, levels int) (*MipmapChain, error) {
	full := bits.Len(uint(max(width, height)))
	if levels < 1 || levels > full {
		levels = full
	}
	chain := &MipmapChain{levels: make([]*ImageBuf, levels)}
	w, h := width, height
	for i := range chain.levels {
		buf, err := NewImageBuf(w, h)
		if err != nil {
			return nil, err
		}
		chain.levels[i] = buf
		w, h = max(1, w/2), max(1, h/2)
	}
	return chain, nil
}

// Generate rebuilds levels 1..n from level 0 with a 2x2 box filter.
func (m *MipmapChain) Generate() {
	for i := 1; i < len(m.levels); i++ {
		downsample(m.levels[i-1], m.levels[i])
	}
}

// downsample averages 2x2 blocks of src into dst.
func downsample(src, dst *ImageBuf) {
	srcW, srcH := src.Bounds()
	dstW, dstH := dst.Bounds()

	for dy := 0; dy < dstH; dy++ {
		for dx := 0; dx < dstW; dx++ {
			sx := dx * 2
			sy := dy * 2

			// Sample 2x2 region (handle odd dimensions)
			r0, g0, b0, a0 := src.GetRGBA(sx, sy)
			r1, g1, b1, a1 := src.GetRGBA(min(sx+1, srcW-1), sy)
			r2, g2, b2, a2 := src.GetRGBA(sx, min(sy+1, srcH-1))
			r3, g3, b3, a3 := src.GetRGBA(min(sx+1, srcW-1), min(sy+1, srcH-1))

			r := (uint16(r0) + uint16(r1) + uint16(r2) + uint16(r3) + 2) / 4
			g := (uint16(g0) + uint16(g1) + uint16(g2) + uint16(g3) + 2) / 4
			b := (uint16(b0) + uint16(b1) + uint16(b2) + uint16(b3) + 2) / 4
			a := (uint16(a0) + uint16(a1) + uint16(a2) + uint16(a3) + 2) / 4

			_ = dst.SetRGBA(dx, dy, byte(r), byte(g), byte(b), byte(a))
		}
	}
}

// Level returns the mipmap at the specified level.
// Level 0 is the original image. Returns nil if level is out of range.
func (m *MipmapChain) Level(n int) *ImageBuf {
	if m == nil || n < 0 || n >= len(m.levels) {
		return nil
	}
	return m.levels[n]
}

// NumLevels returns the total number of mipmap levels in the chain.
// Returns 0 if the chain is nil.
func (m *MipmapChain) NumLevels() int {
	if m == nil {
		return 0
	}
	return len(m.levels)
}
