package layercomp

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/geom"
	"github.com/gogpu/layercomp/imagesource"
	"github.com/gogpu/layercomp/internal/shaders"
	"github.com/gogpu/layercomp/texcache"
)

// Stats counts compositor activity since creation.
type Stats struct {
	// Frames counts renders that reached the device.
	Frames int
	// LostFrames counts renders skipped while the device was lost.
	LostFrames int
	// Draws counts layer draws into the offscreen target.
	Draws int
	// Presents counts draws into the viewport.
	Presents int
	// SkippedLayers counts layers left out of a frame because they were
	// not loaded or covered no area.
	SkippedLayers int
	// OffscreenAllocations counts offscreen color images allocated.
	OffscreenAllocations int
	// Loads counts load requests issued for layers.
	Loads int
	// StaleLoads counts load results dropped because the layer had been
	// reloaded or removed since.
	StaleLoads int
	// Errors counts device errors logged during frames.
	Errors int
}

// Compositor composites a stack of layers into a power-of-two offscreen
// target and presents it fit to a viewport with pan and zoom.
//
// A Compositor and its layers must be used from a single goroutine, the
// frame thread. Image sources are fetched in the background; their results
// are applied at the start of the next Render.
type Compositor struct {
	dev       device.Device
	cache     *texcache.Cache
	ownsCache bool
	opts      options

	ctx    context.Context
	cancel context.CancelFunc

	program   device.Program
	quad      *device.Mesh
	offscreen *Offscreen
	surface   device.Target

	imageSize geom.Size
	pan       geom.Point
	zoom      float64
	layers    []*Layer

	imageToCanvas geom.Matrix
	canvasToImage geom.Matrix

	lost       bool
	closed     bool
	cancelLoss func()

	stats Stats
}

// New creates a compositor drawing with dev. When dev implements
// device.LossNotifier the compositor follows its loss and restore events;
// otherwise the host calls OnDeviceLost and OnDeviceRestored.
func New(dev device.Device, opts ...Option) (*Compositor, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compositor{
		dev:           dev,
		opts:          o,
		quad:          device.UnitQuad(),
		offscreen:     NewOffscreen(dev),
		pan:           geom.Pt(0.5, 0.5),
		zoom:          1,
		imageToCanvas: geom.Identity(),
		canvasToImage: geom.Identity(),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.cache = o.cache
	if c.cache == nil {
		resolver := o.resolver
		if resolver == nil {
			resolver = imagesource.NewRegistry()
		}
		c.cache = texcache.New(dev, resolver, texcache.WithLogger(c.logger()))
		c.ownsCache = true
	}
	if o.logger != nil {
		propagateLogger(dev, o.logger)
		propagateLogger(c.cache, o.logger)
	}

	if ln, ok := dev.(device.LossNotifier); ok {
		c.cancelLoss = ln.NotifyLoss(c.OnDeviceLost, c.OnDeviceRestored)
	}
	return c, nil
}

func (c *Compositor) logger() *slog.Logger {
	if c.opts.logger != nil {
		return c.opts.logger
	}
	return Logger()
}

// Cache returns the texture cache the compositor loads through.
func (c *Compositor) Cache() *texcache.Cache { return c.cache }

// Offscreen returns the offscreen target. Its image and target are only
// valid until the next Render or device restore.
func (c *Compositor) Offscreen() *Offscreen { return c.offscreen }

// Surface returns the viewport target of the last presented frame, or nil.
func (c *Compositor) Surface() device.Target { return c.surface }

// Stats returns a snapshot of the activity counters.
func (c *Compositor) Stats() Stats { return c.stats }

// SetLogicalImageSize sets the size of the composed image. The offscreen
// target follows it on the next Render.
func (c *Compositor) SetLogicalImageSize(size geom.Size) {
	c.imageSize = size
}

// LogicalImageSize returns the size of the composed image.
func (c *Compositor) LogicalImageSize() geom.Size { return c.imageSize }

// SetPan sets the image point, in normalized image coordinates, shown at
// the center of the viewport. (0.5, 0.5) centers the image.
func (c *Compositor) SetPan(p geom.Point) { c.pan = p }

// Pan returns the current pan position.
func (c *Compositor) Pan() geom.Point { return c.pan }

// SetZoom sets the scale applied on top of the fit-to-viewport scale.
// A zoom that is not positive presents nothing.
func (c *Compositor) SetZoom(z float64) { c.zoom = z }

// Zoom returns the current zoom.
func (c *Compositor) Zoom() float64 { return c.zoom }

// ImageToCanvas returns the image-to-viewport transform of the last
// rendered frame, in logical viewport points.
func (c *Compositor) ImageToCanvas() geom.Matrix { return c.imageToCanvas }

// CanvasToImage returns the inverse of ImageToCanvas.
func (c *Compositor) CanvasToImage() geom.Matrix { return c.canvasToImage }

// SetLayers replaces the layer stack. Layers are drawn in slice order,
// back to front. Layers without a texture start loading. Layers dropped
// from the stack keep their textures, and the cache keeps its entries.
func (c *Compositor) SetLayers(layers []*Layer) {
	c.layers = c.layers[:0]
	for _, l := range layers {
		if l == nil {
			continue
		}
		c.layers = append(c.layers, l)
		c.ensureLoading(l)
	}
}

// Layers returns the layer stack, back to front.
func (c *Compositor) Layers() []*Layer {
	return slices.Clone(c.layers)
}

// AddLayer puts l on top of the stack. Adding a layer twice is a no-op.
func (c *Compositor) AddLayer(l *Layer) {
	if l == nil || slices.Contains(c.layers, l) {
		return
	}
	c.layers = append(c.layers, l)
	c.ensureLoading(l)
}

// RemoveLayer takes l off the stack. Its texture stays cached.
func (c *Compositor) RemoveLayer(l *Layer) error {
	i := slices.Index(c.layers, l)
	if i < 0 {
		return ErrLayerNotFound
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	return nil
}

// MoveLayer moves l to position index in the stack, 0 being the back.
// The index is clamped to the stack.
func (c *Compositor) MoveLayer(l *Layer, index int) error {
	i := slices.Index(c.layers, l)
	if i < 0 {
		return ErrLayerNotFound
	}
	c.layers = slices.Delete(c.layers, i, i+1)
	index = max(0, min(index, len(c.layers)))
	c.layers = slices.Insert(c.layers, index, l)
	return nil
}

// Reload drops the cached image for id and loads it again for every layer
// showing it. It retries failed loads and picks up changed files. It
// returns the number of layers reloaded.
func (c *Compositor) Reload(id string) int {
	if c.closed {
		return 0
	}
	n := 0
	for _, l := range c.layers {
		if l.ID != id {
			continue
		}
		if n == 0 {
			c.cache.Dispose(id)
		}
		l.detach()
		c.load(l)
		n++
	}
	return n
}

// WaitLoaded blocks until every layer load in flight has resolved or ctx
// is done. It returns ctx's error, or the joined load errors of the
// layers.
func (c *Compositor) WaitLoaded(ctx context.Context) error {
	for _, l := range c.layers {
		for l.loading && l.pending != nil {
			p := l.pending
			if _, err := c.cache.Wait(ctx, p); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if l.pending == p {
				break
			}
		}
	}
	var errs []error
	for _, l := range c.layers {
		if l.err != nil {
			errs = append(errs, l.err)
		}
	}
	return errors.Join(errs...)
}

func (c *Compositor) ensureLoading(l *Layer) {
	if c.closed || l.loading || l.Ready() || l.err != nil {
		return
	}
	c.load(l)
}

// load requests l's image from the cache. Only the result of the latest
// request is applied to the layer.
func (c *Compositor) load(l *Layer) {
	l.generation++
	gen := l.generation
	l.loading = true
	l.err = nil
	c.stats.Loads++

	p := c.cache.Load(c.ctx, l.ID)
	l.pending = p
	p.Then(func(img device.Image, err error) {
		if l.generation != gen {
			c.stats.StaleLoads++
			c.logger().Debug("layercomp: stale load dropped", "id", l.ID)
			return
		}
		l.loading = false
		l.pending = nil
		if err != nil {
			l.err = err
			c.logger().Warn("layercomp: layer load failed", "id", l.ID, "err", err)
			return
		}
		l.texture = img
		c.logger().Debug("layercomp: layer loaded", "id", l.ID, "width", img.Width(), "height", img.Height())
	})
}

// OnDeviceLost marks the device lost. Renders are skipped until
// OnDeviceRestored.
func (c *Compositor) OnDeviceLost() {
	if c.lost {
		return
	}
	c.lost = true
	c.logger().Info("layercomp: device lost")
}

// OnDeviceRestored rebuilds device state after a loss. When an offscreen
// target exists it is released (and rebuilt by the next Render), the cache
// is purged and every layer reloads its image. Without an offscreen target
// nothing is rebuilt.
func (c *Compositor) OnDeviceRestored() {
	c.lost = false
	if c.closed || !c.offscreen.Allocated() {
		return
	}
	c.logger().Info("layercomp: device restored", "layers", len(c.layers))

	c.offscreen.Release()
	c.releaseProgram()
	c.surface = nil
	c.cache.Purge()
	for _, l := range c.layers {
		if l.texture != nil {
			l.texture.Release()
		}
		l.detach()
		c.load(l)
	}
}

// Render composites the layers into the offscreen target and presents it
// into vp. Layers that are not loaded are skipped. Device errors are
// logged and leave the frame partially drawn; Render never fails.
func (c *Compositor) Render(vp Viewport) {
	if c.closed {
		return
	}
	if c.lost {
		c.stats.LostFrames++
		return
	}
	c.cache.Poll()
	c.stats.Frames++

	for _, l := range c.layers {
		// Images go stale when the cache disposes them or the device is
		// restored behind the compositor's back.
		if l.texture != nil && l.texture.Released() && !l.loading {
			l.detach()
			c.load(l)
		}
	}

	if m, ok := ImageToCanvas(vp.Size(), c.imageSize, c.pan, c.zoom); ok {
		inv, _ := m.Invert()
		c.imageToCanvas, c.canvasToImage = m, inv
	}

	if err := c.compose(); err != nil {
		c.frameError("compose", err)
		return
	}
	if err := c.present(vp); err != nil {
		c.frameError("present", err)
	}
}

// compose draws every ready layer into the offscreen target and rebuilds
// its mipmaps.
func (c *Compositor) compose() error {
	if c.imageSize.IsEmpty() {
		return nil
	}
	prog, err := c.ensureProgram()
	if err != nil {
		return err
	}
	allocated, err := c.offscreen.EnsureSized(c.imageSize)
	if err != nil {
		return err
	}
	if allocated {
		c.stats.OffscreenAllocations++
		c.logger().Info("layercomp: offscreen allocated", "size", c.offscreen.Size().String(), "image", c.imageSize.String())
	}

	target := c.offscreen.Target()
	if err := c.dev.Clear(target, gputypes.Color{}); err != nil {
		return err
	}

	proj := ImageProjection(c.offscreen.Size())
	inv, _ := proj.Invert()
	for _, l := range c.layers {
		if !l.Ready() || l.Degenerate() {
			c.stats.SkippedLayers++
			continue
		}
		u := &device.Uniforms{
			ViewToScreen:       proj,
			ScreenToView:       inv,
			WorldToView:        geom.Identity(),
			LocalToWorld:       l.LocalToImage(),
			LayerMap:           l.texture,
			UVToTexture:        l.UVToTexture(),
			PremultipliedAlpha: l.premultiplied(),
		}
		if err := c.dev.Draw(target, prog, u, c.quad, gputypes.BlendStateAlpha()); err != nil {
			if errors.Is(err, device.ErrDeviceLost) {
				return err
			}
			c.stats.Errors++
			c.logger().Warn("layercomp: layer draw failed", "id", l.ID, "err", err)
			continue
		}
		c.stats.Draws++
	}
	return c.dev.GenerateMipmaps(c.offscreen.Image())
}

// present draws the logical image region of the offscreen target into the
// viewport surface.
func (c *Compositor) present(vp Viewport) error {
	if !c.offscreen.Allocated() || vp.IsEmpty() {
		return nil
	}
	prog, err := c.ensureProgram()
	if err != nil {
		return err
	}
	ps := vp.PhysicalSize()
	surface, err := c.dev.Surface(ps.Width, ps.Height)
	if err != nil {
		return err
	}
	c.surface = surface
	if err := c.dev.Clear(surface, c.opts.clearColor); err != nil {
		return err
	}

	imageToCanvas, ok := ImageToCanvas(vp.Size(), c.imageSize, c.pan, c.zoom)
	if !ok {
		return nil
	}
	proj := CanvasProjection(vp.Size())
	inv, _ := proj.Invert()
	u := &device.Uniforms{
		ViewToScreen:       proj,
		ScreenToView:       inv,
		WorldToView:        imageToCanvas,
		LocalToWorld:       geom.Scale(c.imageSize.Width, c.imageSize.Height),
		LayerMap:           c.offscreen.Image(),
		UVToTexture:        OffscreenUV(c.imageSize, c.offscreen.Size()),
		MipmapBias:         c.opts.mipmapBias,
		// The offscreen holds premultiplied color. The program divides it
		// out so straight-alpha blending matches a premultiplied over.
		PremultipliedAlpha: true,
	}
	if err := c.dev.Draw(surface, prog, u, c.quad, gputypes.BlendStateAlpha()); err != nil {
		return err
	}
	c.stats.Presents++
	return nil
}

func (c *Compositor) ensureProgram() (device.Program, error) {
	if c.program != nil {
		return c.program, nil
	}
	p, err := c.dev.NewProgram(device.ProgramDescriptor{
		Label:         "layercomp",
		Source:        c.opts.program,
		VertexEntry:   shaders.VertexEntry,
		FragmentEntry: shaders.FragmentEntry,
	})
	if err != nil {
		return nil, err
	}
	c.program = p
	return p, nil
}

func (c *Compositor) releaseProgram() {
	if c.program != nil {
		c.program.Release()
		c.program = nil
	}
}

// frameError logs a failed frame. A lost device is treated like a loss
// event for devices that do not report one; stale programs are rebuilt
// on the next frame.
func (c *Compositor) frameError(pass string, err error) {
	c.stats.Errors++
	switch {
	case errors.Is(err, device.ErrDeviceLost):
		c.logger().Warn("layercomp: device lost during frame", "pass", pass)
		c.OnDeviceLost()
	case errors.Is(err, device.ErrReleased):
		c.logger().Warn("layercomp: stale device resource", "pass", pass, "err", err)
		c.releaseProgram()
	default:
		c.logger().Warn("layercomp: frame failed", "pass", pass, "err", err)
	}
}

// Close releases the offscreen target and the program, stops following
// device loss and closes the cache when the compositor created it.
// Loads still in flight are cancelled.
func (c *Compositor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.cancelLoss != nil {
		c.cancelLoss()
	}
	c.cancel()
	c.offscreen.Release()
	c.releaseProgram()
	c.surface = nil
	if c.ownsCache {
		c.cache.Close()
	}
}
