package geom

import (
	"math"
	"testing"
)

func TestCeilPow2(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {300, 512},
		{500, 512}, {512, 512}, {513, 1024}, {4097, 8192},
	}
	for _, tt := range tests {
		if got := CeilPow2(tt.in); got != tt.want {
			t.Errorf("CeilPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCeilPow2SizeCoversInput(t *testing.T) {
	for w := 1; w <= 700; w += 37 {
		for h := 1; h <= 700; h += 53 {
			got := CeilPow2Size(Sz(float64(w), float64(h)))
			if got.Width < w || got.Height < h {
				t.Fatalf("CeilPow2Size(%dx%d) = %v, smaller than input", w, h, got)
			}
			if got.Width&(got.Width-1) != 0 || got.Height&(got.Height-1) != 0 {
				t.Fatalf("CeilPow2Size(%dx%d) = %v, not a power of two", w, h, got)
			}
			if got.Width >= 2*w && w > 1 || got.Height >= 2*h && h > 1 {
				t.Fatalf("CeilPow2Size(%dx%d) = %v, not the smallest power of two", w, h, got)
			}
		}
	}
}

func TestCeilPow2SizeFractional(t *testing.T) {
	got := CeilPow2Size(Sz(256.5, 0.5))
	if got != (PixelSize{Width: 512, Height: 1}) {
		t.Errorf("CeilPow2Size(256.5x0.5) = %v, want 512x1", got)
	}
}

func TestCeilPow2SizeOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		in   Size
		want PixelSize
	}{
		{"huge", Sz(1e19, 10), PixelSize{Width: MaxPow2, Height: 16}},
		{"inf", Sz(math.Inf(1), 10), PixelSize{Width: MaxPow2, Height: 16}},
		{"nan", Sz(math.NaN(), 10), PixelSize{Width: 1, Height: 16}},
		{"limit", Sz(MaxPow2, 1), PixelSize{Width: MaxPow2, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilPow2Size(tt.in); got != tt.want {
				t.Errorf("CeilPow2Size(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSizeEmptyAndFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		in            Size
		empty, finite bool
	}{
		{Sz(4, 4), false, true},
		{Sz(0, 4), true, true},
		{Sz(4, -1), true, true},
		{Sz(nan, 4), true, false},
		{Sz(4, nan), true, false},
		{Sz(inf, 4), false, false},
		{Sz(-inf, 4), true, false},
	}
	for _, tt := range tests {
		if got := tt.in.IsEmpty(); got != tt.empty {
			t.Errorf("%v.IsEmpty() = %v, want %v", tt.in, got, tt.empty)
		}
		if got := tt.in.IsFinite(); got != tt.finite {
			t.Errorf("%v.IsFinite() = %v, want %v", tt.in, got, tt.finite)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name               string
		container, content Size
		want               Size
	}{
		{"wide container", Sz(800, 600), Sz(400, 400), Sz(600, 600)},
		{"tall container", Sz(300, 900), Sz(200, 100), Sz(300, 150)},
		{"same aspect", Sz(1000, 500), Sz(100, 50), Sz(1000, 500)},
		{"empty content", Sz(800, 600), Sz(0, 10), Size{}},
		{"empty container", Sz(0, 0), Sz(10, 10), Size{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(tt.container, tt.content); got != tt.want {
				t.Errorf("Fit(%v, %v) = %v, want %v", tt.container, tt.content, got, tt.want)
			}
		})
	}
}
