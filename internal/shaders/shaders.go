// Package shaders holds the WGSL programs used by the compositor and helpers
// to compile them with naga.
package shaders

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Entry point names shared by every program in this package.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// Layer draws one textured quad with the device.Uniforms block.
//
//go:embed layer.wgsl
var Layer string

// Mipmap downsamples one mip level into the next.
//
//go:embed mipmap.wgsl
var Mipmap string

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// CheckEntryPoints parses source and verifies it declares a vertex entry
// point named vertex and a fragment entry point named fragment.
func CheckEntryPoints(source, vertex, fragment string) error {
	ast, err := naga.Parse(source)
	if err != nil {
		return err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return err
	}
	want := map[string]ir.ShaderStage{vertex: ir.StageVertex, fragment: ir.StageFragment}
	for _, ep := range module.EntryPoints {
		if stage, ok := want[ep.Name]; ok && stage == ep.Stage {
			delete(want, ep.Name)
		}
	}
	for name := range want {
		return fmt.Errorf("missing entry point %q", name)
	}
	return nil
}
