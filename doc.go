// Package layercomp composites a stack of positioned 2D image layers into
// one image and presents it fit to a viewport with pan and zoom.
//
// # Overview
//
// A [Compositor] renders in two passes. The layer pass draws every loaded
// [Layer], back to front, into an [Offscreen] target whose size is the
// logical image size rounded up to powers of two, then rebuilds the
// target's mipmaps. The present pass draws the logical region of that
// target into the viewport surface, scaled to fit, centered, then zoomed
// and panned.
//
// Layer images are loaded through a [texcache.Cache] keyed by source
// identifier. Loads run in the background and are applied at the start of
// the next [Compositor.Render]; a layer that is not loaded yet is simply
// left out of the frame.
//
// # Quick Start
//
//	dev, name, err := backend.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := layercomp.New(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.SetLogicalImageSize(geom.Sz(1920, 1080))
//	c.SetLayers([]*layercomp.Layer{
//	    layercomp.NewLayer("photos/base.png", geom.Pt(0, 0), geom.Sz(1920, 1080)),
//	    layercomp.NewLayer("photos/logo.png", geom.Pt(40, 40), geom.Sz(256, 256)),
//	})
//	for frame := range frames {
//	    c.Render(layercomp.Viewport{Width: 1280, Height: 720, PixelRatio: 2})
//	}
//
// # Device loss
//
// Devices implementing device.LossNotifier are followed automatically.
// Otherwise the host calls [Compositor.OnDeviceLost] and
// [Compositor.OnDeviceRestored]. After a restore the offscreen target is
// rebuilt and every layer reloads its image; layer positions and sizes are
// kept.
//
// # Logging
//
// layercomp is silent by default. See [SetLogger].
package layercomp
