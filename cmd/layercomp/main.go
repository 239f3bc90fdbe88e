// Command layercomp renders a layer scene described by a TOML file.
//
// It opens a device from the backend registry, loads every layer, renders
// the configured number of frames and logs compositor statistics. With
// -watch it keeps running and re-renders whenever a file-backed layer
// source changes.
//
// Usage:
//
//	layercomp -scene scene.toml [-backend software|wgpu] [-frames n] [-watch] [-v]
//	layercomp -print-default
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/layercomp"
	"github.com/gogpu/layercomp/backend"
	_ "github.com/gogpu/layercomp/backend/wgpu"
	"github.com/gogpu/layercomp/config"
	"github.com/gogpu/layercomp/device"
	"github.com/gogpu/layercomp/imagesource"
	"github.com/gogpu/layercomp/texcache"
)

// recoverer is implemented by devices that can replace a lost GPU device.
type recoverer interface {
	Lost() bool
	Recover() error
}

func main() {
	var (
		scenePath    = flag.String("scene", "scene.toml", "scene file")
		backendName  = flag.String("backend", "", "device backend, overrides the scene (software, wgpu)")
		frames       = flag.Int("frames", -1, "frames to render, overrides the scene")
		watch        = flag.Bool("watch", false, "re-render when file sources change")
		loadTimeout  = flag.Duration("load-timeout", 30*time.Second, "time allowed for loading layer sources")
		verbose      = flag.Bool("v", false, "debug logging")
		printDefault = flag.Bool("print-default", false, "print the default scene and exit")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	layercomp.SetLogger(logger)

	if *printDefault {
		s := config.Default()
		data, err := s.Marshal()
		if err != nil {
			logger.Error("encode default scene", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	scene, err := config.Load(*scenePath)
	if err != nil {
		logger.Error("load scene", "err", err)
		os.Exit(1)
	}
	if *backendName != "" {
		scene.Render.Backend = *backendName
	}
	if *frames >= 0 {
		scene.Render.Frames = *frames
	}
	if *watch {
		scene.Render.Watch = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, scene, *loadTimeout); err != nil {
		logger.Error("layercomp failed", "err", err)
		os.Exit(1)
	}
}

func openDevice(name string) (device.Device, string, error) {
	if name == "" || name == "auto" {
		return backend.Default()
	}
	dev, err := backend.Get(name)
	return dev, name, err
}

func run(ctx context.Context, logger *slog.Logger, scene *config.Scene, loadTimeout time.Duration) error {
	dev, name, err := openDevice(scene.Render.Backend)
	if err != nil {
		return err
	}
	defer dev.Release()
	logger.Info("device opened", "backend", name, "adapter", adapterName(dev))

	cache := texcache.New(dev, imagesource.NewRegistry(), texcache.WithLogger(logger))
	defer cache.Close()

	opts := append(scene.Options(), layercomp.WithCache(cache), layercomp.WithLogger(logger))
	c, err := layercomp.New(dev, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	c.SetLogicalImageSize(scene.LogicalImageSize())
	c.SetPan(scene.PanPoint())
	c.SetZoom(scene.View.Zoom)
	c.SetLayers(scene.NewLayers())

	waitLoaded(ctx, logger, c, loadTimeout)
	vp := scene.Viewport()
	start := time.Now()
	for range scene.Render.Frames {
		renderFrame(logger, dev, c, vp)
	}
	logStats(logger, c, time.Since(start))

	if !scene.Render.Watch {
		return nil
	}
	return watchLoop(ctx, logger, dev, c, vp, loadTimeout)
}

func waitLoaded(ctx context.Context, logger *slog.Logger, c *layercomp.Compositor, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.WaitLoaded(ctx); err != nil {
		logger.Warn("some layers did not load", "err", err)
	}
}

// renderFrame renders one frame and replaces the GPU device when it was
// lost during the frame.
func renderFrame(logger *slog.Logger, dev device.Device, c *layercomp.Compositor, vp layercomp.Viewport) {
	c.Render(vp)
	if r, ok := dev.(recoverer); ok && r.Lost() {
		if err := r.Recover(); err != nil {
			logger.Warn("device recovery failed", "err", err)
		}
	}
}

func watchLoop(ctx context.Context, logger *slog.Logger, dev device.Device, c *layercomp.Compositor, vp layercomp.Viewport, loadTimeout time.Duration) error {
	w, err := imagesource.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, l := range c.Layers() {
		switch err := w.Add(l.ID); {
		case err == nil:
			watched++
		case errors.Is(err, imagesource.ErrUnknownSource):
			logger.Debug("source not watchable", "id", l.ID)
		default:
			logger.Warn("watch source", "id", l.ID, "err", err)
		}
	}
	logger.Info("watching sources", "count", watched)

	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-w.Events():
			if !ok {
				return nil
			}
			n := c.Reload(id)
			logger.Info("source changed", "id", id, "layers", n)
			waitLoaded(ctx, logger, c, loadTimeout)
			start := time.Now()
			renderFrame(logger, dev, c, vp)
			logStats(logger, c, time.Since(start))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher", "err", err)
		}
	}
}

func adapterName(dev device.Device) string {
	if h, ok := dev.(device.Handle); ok {
		return h.AdapterInfo().Name
	}
	return "unknown"
}

func logStats(logger *slog.Logger, c *layercomp.Compositor, elapsed time.Duration) {
	st := c.Stats()
	cs := c.Cache().Stats()
	logger.Info("frames rendered",
		"frames", st.Frames,
		"lost_frames", st.LostFrames,
		"draws", st.Draws,
		"presents", st.Presents,
		"skipped_layers", st.SkippedLayers,
		"offscreen_allocations", st.OffscreenAllocations,
		"errors", st.Errors,
		"elapsed", elapsed,
		"cache_entries", cs.Entries,
		"cache_hit_rate", cs.HitRate(),
		"cache_failures", cs.Failures,
	)
}
