package layercomp

import (
	"math"
	"testing"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/layercomp/geom"
)

const eps = 1e-9

func near(a, b geom.Point) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

func TestLocalToImageCorners(t *testing.T) {
	tests := []struct {
		offset geom.Point
		size   geom.Size
	}{
		{geom.Pt(0, 0), geom.Sz(500, 300)},
		{geom.Pt(12, 34), geom.Sz(100, 50)},
		{geom.Pt(-20, 7.5), geom.Sz(1, 1)},
		{geom.Pt(3, 4), geom.Sz(0, 10)},
	}
	for _, tt := range tests {
		m := LocalToImage(tt.offset, tt.size)
		if got := m.TransformPoint(geom.Pt(0, 0)); !near(got, tt.offset) {
			t.Errorf("LocalToImage(%v, %v)(0,0) = %v, want %v", tt.offset, tt.size, got, tt.offset)
		}
		want := tt.offset.Add(tt.size.Point())
		if got := m.TransformPoint(geom.Pt(1, 1)); !near(got, want) {
			t.Errorf("LocalToImage(%v, %v)(1,1) = %v, want %v", tt.offset, tt.size, got, want)
		}
	}
}

func TestLocalToImageDegenerateHasNoInverse(t *testing.T) {
	m := LocalToImage(geom.Pt(5, 5), geom.Sz(0, 40))
	if _, ok := m.Invert(); ok {
		t.Error("Invert() of a zero-width layer transform ok = true, want false")
	}
}

func TestImageProjection(t *testing.T) {
	proj := ImageProjection(geom.PixelSize{Width: 512, Height: 256})
	tests := []struct {
		in, want geom.Point
	}{
		{geom.Pt(0, 0), geom.Pt(-1, 1)},
		{geom.Pt(512, 256), geom.Pt(1, -1)},
		{geom.Pt(256, 128), geom.Pt(0, 0)},
	}
	for _, tt := range tests {
		if got := proj.TransformPoint(tt.in); !near(got, tt.want) {
			t.Errorf("ImageProjection(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestOffscreenUV(t *testing.T) {
	m := OffscreenUV(geom.Sz(500, 300), geom.PixelSize{Width: 512, Height: 512})
	tests := []struct {
		name     string
		in, want geom.Point
	}{
		// uv (0,0) is the bottom-left of the logical image, above the padding.
		{"bottom left", geom.Pt(0, 0), geom.Pt(0, 212.0/512)},
		{"top right", geom.Pt(1, 1), geom.Pt(500.0/512, 1)},
		{"top left", geom.Pt(0, 1), geom.Pt(0, 1)},
	}
	for _, tt := range tests {
		if got := m.TransformPoint(tt.in); !near(got, tt.want) {
			t.Errorf("%s: OffscreenUV(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}

	if got := OffscreenUV(geom.Sz(10, 10), geom.PixelSize{}); !got.IsIdentity() {
		t.Errorf("OffscreenUV(empty target) = %v, want identity", got)
	}
}

func TestImageToCanvasCentered(t *testing.T) {
	// 400x400 in 800x600 fits as a centered 600x600 square.
	m, ok := ImageToCanvas(geom.Sz(800, 600), geom.Sz(400, 400), geom.Pt(0.5, 0.5), 1)
	if !ok {
		t.Fatal("ImageToCanvas() ok = false")
	}
	tests := []struct {
		in, want geom.Point
	}{
		{geom.Pt(0, 0), geom.Pt(100, 0)},
		{geom.Pt(400, 400), geom.Pt(700, 600)},
		{geom.Pt(200, 200), geom.Pt(400, 300)},
	}
	for _, tt := range tests {
		if got := m.TransformPoint(tt.in); !near(got, tt.want) {
			t.Errorf("ImageToCanvas(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert() ok = false")
	}
	for _, p := range []geom.Point{{X: 0, Y: 0}, {X: 400, Y: 400}, {X: 123.25, Y: 7}} {
		if got := inv.TransformPoint(m.TransformPoint(p)); !near(got, p) {
			t.Errorf("round trip of %v = %v", p, got)
		}
	}
}

func TestImageToCanvasZoomAndPan(t *testing.T) {
	canvas, image := geom.Sz(800, 600), geom.Sz(400, 400)
	tests := []struct {
		name string
		pan  geom.Point
		zoom float64
		in   geom.Point
		want geom.Point
	}{
		{"zoom keeps center", geom.Pt(0.5, 0.5), 2, geom.Pt(200, 200), geom.Pt(400, 300)},
		{"zoom scales about center", geom.Pt(0.5, 0.5), 2, geom.Pt(0, 0), geom.Pt(-200, -300)},
		{"pan to corner", geom.Pt(0, 0), 1, geom.Pt(0, 0), geom.Pt(400, 300)},
		{"pan and zoom", geom.Pt(1, 1), 0.5, geom.Pt(400, 400), geom.Pt(400, 300)},
	}
	for _, tt := range tests {
		m, ok := ImageToCanvas(canvas, image, tt.pan, tt.zoom)
		if !ok {
			t.Fatalf("%s: ok = false", tt.name)
		}
		if got := m.TransformPoint(tt.in); !near(got, tt.want) {
			t.Errorf("%s: ImageToCanvas(%v) = %v, want %v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestImageToCanvasDegenerate(t *testing.T) {
	tests := []struct {
		name          string
		canvas, image geom.Size
		zoom          float64
	}{
		{"empty canvas", geom.Sz(0, 600), geom.Sz(10, 10), 1},
		{"empty image", geom.Sz(800, 600), geom.Sz(10, 0), 1},
		{"zero zoom", geom.Sz(800, 600), geom.Sz(10, 10), 0},
		{"negative zoom", geom.Sz(800, 600), geom.Sz(10, 10), -1},
		{"nan zoom", geom.Sz(800, 600), geom.Sz(10, 10), math.NaN()},
	}
	for _, tt := range tests {
		if _, ok := ImageToCanvas(tt.canvas, tt.image, geom.Pt(0.5, 0.5), tt.zoom); ok {
			t.Errorf("%s: ok = true, want false", tt.name)
		}
	}
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name  string
		vp    Viewport
		want  geom.PixelSize
		empty bool
	}{
		{"unit ratio", Viewport{Width: 800, Height: 600, PixelRatio: 1}, geom.PixelSize{Width: 800, Height: 600}, false},
		{"zero ratio", Viewport{Width: 800, Height: 600}, geom.PixelSize{Width: 800, Height: 600}, false},
		{"retina", Viewport{Width: 400, Height: 300, PixelRatio: 2}, geom.PixelSize{Width: 800, Height: 600}, false},
		{"fractional", Viewport{Width: 101, Height: 51, PixelRatio: 1.5}, geom.PixelSize{Width: 152, Height: 77}, false},
		{"empty", Viewport{Width: 0, Height: 600, PixelRatio: 1}, geom.PixelSize{Width: 0, Height: 600}, true},
	}
	for _, tt := range tests {
		if got := tt.vp.PhysicalSize(); got != tt.want {
			t.Errorf("%s: PhysicalSize() = %v, want %v", tt.name, got, tt.want)
		}
		if got := tt.vp.IsEmpty(); got != tt.empty {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.empty)
		}
	}
}

func TestViewportFromWindow(t *testing.T) {
	vp := ViewportFromWindow(gpucontext.NullWindowProvider{W: 640, H: 480, SF: 2})
	want := Viewport{Width: 640, Height: 480, PixelRatio: 2}
	if vp != want {
		t.Errorf("ViewportFromWindow() = %+v, want %+v", vp, want)
	}
	if got := ViewportFromWindow(gpucontext.NullWindowProvider{W: 10, H: 10}).PixelRatio; got != 1 {
		t.Errorf("PixelRatio without scale factor = %v, want 1", got)
	}
}
