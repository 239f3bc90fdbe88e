// Package blend evaluates WebGPU fixed-function blend states on the CPU.
//
// Colors are normalized RGBA in [0, 1]. The result of Apply is what a GPU
// writes to a unorm color attachment for the same blend state.
package blend

import "github.com/gogpu/gputypes"

// Apply blends src (the fragment output) onto dst (the attachment value).
func Apply(state gputypes.BlendState, src, dst [4]float32) [4]float32 {
	var out [4]float32
	for i := 0; i < 3; i++ {
		out[i] = component(state.Color, src[i], dst[i], src, dst, i)
	}
	out[3] = component(state.Alpha, src[3], dst[3], src, dst, 3)
	for i := range out {
		out[i] = clamp01(out[i])
	}
	return out
}

// SourceOver composites straight-alpha src over premultiplied dst.
func SourceOver(src, dst [4]float32) [4]float32 {
	return Apply(gputypes.BlendStateAlpha(), src, dst)
}

func component(c gputypes.BlendComponent, s, d float32, src, dst [4]float32, ch int) float32 {
	switch c.Operation {
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	}
	fs := s * factor(c.SrcFactor, src, dst, ch)
	fd := d * factor(c.DstFactor, src, dst, ch)
	switch c.Operation {
	case gputypes.BlendOperationSubtract:
		return fs - fd
	case gputypes.BlendOperationReverseSubtract:
		return fd - fs
	default:
		return fs + fd
	}
}

// factor returns the blend factor for channel ch. Alpha channels use the
// alpha term for Src and Dst factors, matching the WebGPU definition.
func factor(f gputypes.BlendFactor, src, dst [4]float32, ch int) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne, gputypes.BlendFactorUndefined:
		return 1
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	default:
		// Constant factors use a zero blend constant.
		if f == gputypes.BlendFactorOneMinusConstant {
			return 1
		}
		return 0
	}
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
