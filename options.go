package layercomp

import (
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/imagesource"
	"github.com/gogpu/layercomp/internal/shaders"
	"github.com/gogpu/layercomp/texcache"
)

// DefaultMipmapBias is the level-of-detail bias of the present pass. The
// slight negative value keeps minified composites sharp.
const DefaultMipmapBias = -0.25

// Option configures a Compositor during creation.
//
// Example:
//
//	cache := texcache.New(dev, imagesource.NewRegistry())
//	c, err := layercomp.New(dev,
//	    layercomp.WithCache(cache),
//	    layercomp.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	cache      *texcache.Cache
	resolver   imagesource.Resolver
	mipmapBias float32
	logger     *slog.Logger
	clearColor gputypes.Color
	program    string
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		mipmapBias: DefaultMipmapBias,
		program:    shaders.Layer,
	}
}

// WithCache shares an existing texture cache with the compositor. The
// compositor does not close a cache it did not create.
func WithCache(c *texcache.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithResolver sets the resolver of the cache the compositor creates when
// WithCache is not given. The default is imagesource.NewRegistry().
func WithResolver(r imagesource.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithMipmapBias overrides the level-of-detail bias of the present pass.
func WithMipmapBias(bias float32) Option {
	return func(o *options) {
		o.mipmapBias = bias
	}
}

// WithLogger gives the compositor its own logger instead of the package
// logger. The logger is passed on to the device and the cache when they
// accept one.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClearColor sets the color the viewport is cleared to before the
// composite is presented. The default is transparent black.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithProgramSource replaces the WGSL source of the compositing program.
// The program must declare vs_main and fs_main and the uniform layout of
// device.Uniforms.
func WithProgramSource(wgsl string) Option {
	return func(o *options) {
		o.program = wgsl
	}
}
