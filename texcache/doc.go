// Package texcache keeps device images for layer sources, keyed by source
// identifier.
//
// Entries live independently of the layers that use them: removing a layer
// does not release its image, and a later layer with the same identifier
// is served from the cache without I/O. Entries are invalidated only by
// Dispose, Purge, Close or a device loss (a released image is a miss).
//
// Fetching and decoding run in goroutines. Uploading to the device and
// resolving Pending values happen on the frame thread, inside Poll or
// Wait:
//
//	p := cache.Load(ctx, "layers/base.png")
//	...
//	cache.Poll() // once per frame
//	if img, err := p.Result(); p.Resolved() && err == nil {
//		use(img)
//	}
package texcache
