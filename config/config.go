// Package config reads layercomp scene files.
//
// A scene is a TOML document:
//
//	[image]
//	width = 1920
//	height = 1080
//
//	[view]
//	width = 1280
//	height = 720
//	pixel_ratio = 2
//	zoom = 1.5
//	pan = [0.25, 0.5]
//
//	[render]
//	backend = "software"
//	frames = 10
//
//	[[layer]]
//	source = "base.png"
//	size = [1920, 1080]
//
//	[[layer]]
//	source = "https://example.com/logo.png"
//	offset = [40, 40]
//	size = [256, 256]
//	premultiplied = false
//
// Relative layer sources are resolved against the directory of the scene
// file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/layercomp"
	"github.com/gogpu/layercomp/geom"
)

// ErrInvalid is returned for scenes that decode but fail validation.
var ErrInvalid = errors.New("config: invalid scene")

// Backends accepted by Render.Backend. The empty string and "auto" pick
// the best registered device.
var Backends = []string{"", "auto", "software", "wgpu"}

// Scene is a decoded scene file.
type Scene struct {
	Image  Size    `toml:"image"`
	View   View    `toml:"view"`
	Render Render  `toml:"render"`
	Layers []Layer `toml:"layer"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// View describes the viewport and the pan/zoom state.
type View struct {
	Width      float64    `toml:"width"`
	Height     float64    `toml:"height"`
	PixelRatio float64    `toml:"pixel_ratio"`
	Zoom       float64    `toml:"zoom"`
	Pan        [2]float64 `toml:"pan"`
}

// Render holds renderer settings.
type Render struct {
	Backend    string     `toml:"backend"`
	Frames     int        `toml:"frames"`
	MipmapBias float32    `toml:"mipmap_bias"`
	ClearColor [4]float64 `toml:"clear_color"`
	Watch      bool       `toml:"watch"`
}

// Layer is one layer entry.
type Layer struct {
	Source        string     `toml:"source"`
	Offset        [2]float64 `toml:"offset"`
	Size          [2]float64 `toml:"size"`
	Premultiplied bool       `toml:"premultiplied"`
}

// Default returns a scene with every default applied and no layers.
func Default() Scene {
	return Scene{
		View: View{
			Width:      800,
			Height:     600,
			PixelRatio: 1,
			Zoom:       1,
			Pan:        [2]float64{0.5, 0.5},
		},
		Render: Render{
			Frames:     1,
			MipmapBias: layercomp.DefaultMipmapBias,
		},
	}
}

// Load reads and validates the scene at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	s.resolvePaths(filepath.Dir(path))
	return s, nil
}

// Parse decodes a scene document strictly: unknown keys are errors.
// Missing keys keep their defaults.
func Parse(data []byte) (*Scene, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scene for values the compositor cannot use.
func (s *Scene) Validate() error {
	var errs []error
	if s.Image.Width <= 0 || s.Image.Height <= 0 {
		errs = append(errs, fmt.Errorf("image size %gx%g must be positive", s.Image.Width, s.Image.Height))
	}
	if s.View.Width <= 0 || s.View.Height <= 0 {
		errs = append(errs, fmt.Errorf("view size %gx%g must be positive", s.View.Width, s.View.Height))
	}
	if s.View.PixelRatio < 0 {
		errs = append(errs, fmt.Errorf("pixel_ratio %g is negative", s.View.PixelRatio))
	}
	if s.View.Zoom <= 0 {
		errs = append(errs, fmt.Errorf("zoom %g must be positive", s.View.Zoom))
	}
	if s.Render.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames %d is negative", s.Render.Frames))
	}
	if !validBackend(s.Render.Backend) {
		errs = append(errs, fmt.Errorf("backend %q is not one of %s", s.Render.Backend, strings.Join(Backends[1:], ", ")))
	}
	for i, l := range s.Layers {
		if l.Source == "" {
			errs = append(errs, fmt.Errorf("layer %d: empty source", i))
		}
		if l.Size[0] < 0 || l.Size[1] < 0 {
			errs = append(errs, fmt.Errorf("layer %d: negative size %v", i, l.Size))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// resolvePaths makes relative file sources relative to dir.
func (s *Scene) resolvePaths(dir string) {
	for i, l := range s.Layers {
		if strings.Contains(l.Source, "://") || filepath.IsAbs(l.Source) {
			continue
		}
		s.Layers[i].Source = filepath.Join(dir, l.Source)
	}
}

// Marshal encodes the scene as TOML.
func (s *Scene) Marshal() ([]byte, error) {
	return toml.Marshal(s)
}

// LogicalImageSize returns the image size.
func (s *Scene) LogicalImageSize() geom.Size {
	return geom.Sz(s.Image.Width, s.Image.Height)
}

// Viewport returns the configured viewport.
func (s *Scene) Viewport() layercomp.Viewport {
	return layercomp.Viewport{
		Width:      s.View.Width,
		Height:     s.View.Height,
		PixelRatio: s.View.PixelRatio,
	}
}

// PanPoint returns the pan position.
func (s *Scene) PanPoint() geom.Point {
	return geom.Pt(s.View.Pan[0], s.View.Pan[1])
}

// NewLayers builds compositor layers in file order.
func (s *Scene) NewLayers() []*layercomp.Layer {
	out := make([]*layercomp.Layer, 0, len(s.Layers))
	for _, l := range s.Layers {
		layer := layercomp.NewLayer(l.Source,
			geom.Pt(l.Offset[0], l.Offset[1]),
			geom.Sz(l.Size[0], l.Size[1]))
		layer.PremultipliedAlpha = l.Premultiplied
		out = append(out, layer)
	}
	return out
}

// Options returns the compositor options the scene sets.
func (s *Scene) Options() []layercomp.Option {
	c := s.Render.ClearColor
	return []layercomp.Option{
		layercomp.WithMipmapBias(s.Render.MipmapBias),
		layercomp.WithClearColor(gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}),
	}
}
