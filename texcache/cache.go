package texcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/imagesource"
)

// Stats reports cache activity.
type Stats struct {
	// Entries is the number of stored images.
	Entries int
	// Hits counts loads resolved from a live entry.
	Hits uint64
	// Misses counts loads that had to fetch.
	Misses uint64
	// Fetches counts fetch goroutines started.
	Fetches uint64
	// Uploads counts images created on the device.
	Uploads uint64
	// Failures counts loads resolved with an error.
	Failures uint64
}

// HitRate returns Hits / (Hits + Misses), or 0 before any load.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// completion is a decoded fetch waiting for upload on the frame thread.
type completion struct {
	p      *Pending
	pixels imagesource.Pixels
	err    error
}

// Cache maps source identifiers to device images.
//
// Load may be called from any goroutine. Poll, Wait, Preload, Dispose,
// Purge and Close touch the device and must be called from the frame
// thread.
type Cache struct {
	dev      device.Device
	resolver imagesource.Resolver
	logger   atomic.Pointer[slog.Logger]

	store *store

	mu     sync.Mutex
	queue  []completion
	signal chan struct{}

	closed   atomic.Bool
	inflight sync.WaitGroup

	hits, misses, fetches, uploads, failures atomic.Uint64
}

// New returns a cache that uploads to dev and resolves identifiers with
// resolver.
func New(dev device.Device, resolver imagesource.Resolver, opts ...Option) *Cache {
	c := &Cache{
		dev:      dev,
		resolver: resolver,
		store:    newStore(),
		signal:   make(chan struct{}, 1),
	}
	c.SetLogger(nil)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger replaces the cache logger. A nil logger disables logging.
func (c *Cache) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	c.logger.Store(l)
}

func (c *Cache) slogger() *slog.Logger { return c.logger.Load() }

// Load returns a Pending for id. A live entry resolves immediately without
// I/O. Otherwise the source is fetched and decoded in a new goroutine and
// uploaded by the next Poll or Wait. Concurrent loads of the same id each
// fetch; the last upload wins the slot.
func (c *Cache) Load(ctx context.Context, id string) *Pending {
	p := newPending(id)
	if c.closed.Load() {
		p.resolve(nil, ErrClosed)
		return p
	}
	if img, ok := c.store.get(id); ok {
		c.hits.Add(1)
		p.resolve(img, nil)
		return p
	}
	c.misses.Add(1)

	src, err := c.resolver.Resolve(id)
	if err != nil {
		c.enqueue(completion{p: p, err: err})
		return p
	}

	c.fetches.Add(1)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		pixels, err := src.Decode(ctx)
		c.enqueue(completion{p: p, pixels: pixels, err: err})
	}()
	return p
}

func (c *Cache) enqueue(done completion) {
	c.mu.Lock()
	c.queue = append(c.queue, done)
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Poll uploads every finished fetch, stores the images and resolves their
// Pending values, running callbacks registered with Then. It returns the
// number of loads resolved.
func (c *Cache) Poll() int {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, done := range queue {
		c.finish(done)
	}
	return len(queue)
}

func (c *Cache) finish(done completion) {
	id := done.p.id
	if c.closed.Load() {
		done.p.resolve(nil, ErrClosed)
		return
	}
	if done.err != nil {
		c.failures.Add(1)
		c.slogger().Warn("texcache: load failed", "id", id, "err", done.err)
		done.p.resolve(nil, done.err)
		return
	}

	img, err := c.upload(id, done.pixels)
	if err != nil {
		c.failures.Add(1)
		c.slogger().Warn("texcache: upload failed", "id", id, "err", err)
		done.p.resolve(nil, err)
		return
	}
	c.store.set(id, img)
	done.p.resolve(img, nil)
}

// upload creates a layer image with clamped, nearest-min, linear-mag
// sampling and no mipmaps.
func (c *Cache) upload(id string, px imagesource.Pixels) (device.Image, error) {
	if err := px.Validate(); err != nil {
		return nil, err
	}
	img, err := c.dev.NewImage(device.ImageDescriptor{
		Label:         id,
		Width:         px.Width,
		Height:        px.Height,
		Format:        device.Format,
		Premultiplied: px.Premultiplied,
		Sampler:       device.LayerSampler(),
	}, px.Data)
	if err != nil {
		return nil, err
	}
	c.uploads.Add(1)
	c.slogger().Debug("texcache: uploaded", "id", id, "width", px.Width, "height", px.Height)
	return img, nil
}

// Wait polls until p resolves or ctx is done.
func (c *Cache) Wait(ctx context.Context, p *Pending) (device.Image, error) {
	for {
		c.Poll()
		if p.Resolved() {
			return p.Result()
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.signal:
		}
	}
}

// Preload uploads already decoded pixels under id, replacing any entry.
func (c *Cache) Preload(id string, px imagesource.Pixels) (device.Image, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	img, err := c.upload(id, px)
	if err != nil {
		return nil, fmt.Errorf("texcache: preload %s: %w", id, err)
	}
	c.store.set(id, img)
	return img, nil
}

// Get returns the live image for id without loading.
func (c *Cache) Get(id string) (device.Image, bool) {
	return c.store.get(id)
}

// Dispose releases the image stored under id. Later loads of id miss.
func (c *Cache) Dispose(id string) {
	if img, ok := c.store.remove(id); ok {
		img.Release()
		c.slogger().Debug("texcache: disposed", "id", id)
	}
}

// Purge releases every stored image.
func (c *Cache) Purge() {
	imgs := c.store.purge()
	for _, img := range imgs {
		img.Release()
	}
	if len(imgs) > 0 {
		c.slogger().Debug("texcache: purged", "images", len(imgs))
	}
}

// IDs returns the identifiers currently stored.
func (c *Cache) IDs() []string { return c.store.ids() }

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:  c.store.len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Uploads:  c.uploads.Load(),
		Failures: c.failures.Load(),
	}
}

// Close purges the cache and waits for in-flight fetches. Pending values
// still queued resolve with ErrClosed, as do later loads.
func (c *Cache) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.inflight.Wait()
	c.Poll()
	c.Purge()
}
