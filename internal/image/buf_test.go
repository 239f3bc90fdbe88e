package image

import (
	"errors"
	"testing"
)

func TestNewImageBuf(t *testing.T) {
	if _, err := NewImageBuf(0, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewImageBuf(0, 4) error = %v, want ErrInvalidDimensions", err)
	}
	b, err := NewImageBuf(3, 2)
	if err != nil {
		t.Fatalf("NewImageBuf(3, 2) error = %v", err)
	}
	if len(b.Data()) != 3*2*BytesPerPixel {
		t.Errorf("len(Data()) = %d, want %d", len(b.Data()), 3*2*BytesPerPixel)
	}
	if r, g, bl, a := b.GetRGBA(2, 1); r|g|bl|a != 0 {
		t.Errorf("new buffer texel = %d,%d,%d,%d, want zeros", r, g, bl, a)
	}
}

func TestFromPixels(t *testing.T) {
	px := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b, err := FromPixels(px, 2, 1)
	if err != nil {
		t.Fatalf("FromPixels() error = %v", err)
	}
	px[0] = 99
	if r, _, _, _ := b.GetRGBA(0, 0); r != 1 {
		t.Errorf("FromPixels did not copy: r = %d, want 1", r)
	}
	if _, err := FromPixels(px, 2, 2); !errors.Is(err, ErrDataTooSmall) {
		t.Errorf("FromPixels(short) error = %v, want ErrDataTooSmall", err)
	}
}

func TestSetRGBAOutOfBounds(t *testing.T) {
	b, _ := NewImageBuf(2, 2)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if err := b.SetRGBA(p[0], p[1], 1, 1, 1, 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetRGBA(%d, %d) error = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}
}

func TestUnorm8(t *testing.T) {
	tests := []struct {
		in   float32
		want byte
	}{
		{-1, 0}, {0, 0}, {0.5, 128}, {1, 255}, {2, 255}, {0.25, 64},
	}
	for _, tt := range tests {
		if got := Unorm8(tt.in); got != tt.want {
			t.Errorf("Unorm8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToRGBA(t *testing.T) {
	b, _ := NewImageBuf(2, 2)
	_ = b.SetRGBA(1, 1, 10, 20, 30, 40)
	img := b.ToRGBA()
	if c := img.RGBAAt(1, 1); c.R != 10 || c.A != 40 {
		t.Errorf("ToRGBA().RGBAAt(1,1) = %v, want {10 20 30 40}", c)
	}
}
