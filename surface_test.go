package mirage

import (
	"errors"
	"image"
	"testing"
)

func TestNewSurface_InvalidDimensions(t *testing.T) {
	for _, vp := range []ViewportDimensions{
		{Width: 0, Height: 100, DPR: 1},
		{Width: 100, Height: -1, DPR: 1},
	} {
		if _, err := NewSurface(vp); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewSurface(%+v) err = %v, want ErrInvalidDimensions", vp, err)
		}
	}
}

func TestSurface_BackingScalesWithDPR(t *testing.T) {
	tests := []struct {
		name   string
		vp     ViewportDimensions
		bw, bh int
	}{
		{"dpr 1", ViewportDimensions{Width: 100, Height: 80, DPR: 1}, 100, 80},
		{"dpr 2", ViewportDimensions{Width: 100, Height: 80, DPR: 2}, 200, 160},
		{"fractional dpr", ViewportDimensions{Width: 100, Height: 80, DPR: 1.5}, 150, 120},
		{"zero dpr defaults to 1", ViewportDimensions{Width: 100, Height: 80}, 100, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSurface(tt.vp)
			if err != nil {
				t.Fatalf("NewSurface: %v", err)
			}
			if w, h := s.BackingSize(); w != tt.bw || h != tt.bh {
				t.Errorf("BackingSize = %dx%d, want %dx%d", w, h, tt.bw, tt.bh)
			}
		})
	}
}

func TestSurface_Release(t *testing.T) {
	s, err := NewSurface(ViewportDimensions{Width: 10, Height: 10, DPR: 1})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.Release()

	if w, h := s.BackingSize(); w != 0 || h != 0 {
		t.Errorf("BackingSize after Release = %dx%d, want 0x0", w, h)
	}
	if s.Image() != nil {
		t.Error("Image after Release is non-nil")
	}

	// Every draw call after Release is a silent no-op, never a panic.
	s.Clear(White)
	s.FillCircle(5, 5, 2, White, true)
	s.DrawLine(0, 0, 9, 9, White)
	s.DrawText(0, 0, "x", White)
	s.Blit(nil)
	if err := s.SavePNG("unused.png"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SavePNG after Release = %v, want ErrNotInitialized", err)
	}
	s.Release() // idempotent
}

func TestSurface_ClearAndFill(t *testing.T) {
	s, err := NewSurface(ViewportDimensions{Width: 20, Height: 20, DPR: 1})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.Clear(Black)
	s.FillCircle(10, 10, 5, White, false)

	img := s.Image()
	if got := img.RGBAAt(10, 10); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Errorf("center pixel = %+v, want white", got)
	}
	if got := img.RGBAAt(0, 0); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("corner pixel = %+v, want black", got)
	}
}

func TestSurface_DPRScalesDrawing(t *testing.T) {
	// The drawing API is in CSS pixels: the same circle lands at doubled
	// backing coordinates when the DPR is 2.
	s, err := NewSurface(ViewportDimensions{Width: 20, Height: 20, DPR: 2})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.Clear(Black)
	s.FillCircle(10, 10, 3, White, false)

	img := s.Image()
	if got := img.RGBAAt(20, 20); got.R != 255 {
		t.Errorf("backing center pixel = %+v, want white", got)
	}
	if got := img.RGBAAt(10, 10); got.R != 0 {
		t.Errorf("CSS-coordinate pixel = %+v, want untouched black", got)
	}
}

func TestSurface_Blit(t *testing.T) {
	vp := ViewportDimensions{Width: 10, Height: 10, DPR: 1}
	src, _ := NewSurface(vp)
	dst, _ := NewSurface(vp)
	src.Clear(White)
	dst.Clear(Black)

	dst.Blit(src)
	if got := dst.Image().RGBAAt(5, 5); got.R != 255 {
		t.Errorf("pixel after blit = %+v, want white", got)
	}

	// A mismatched blit is a no-op, not a corruption.
	small, _ := NewSurface(ViewportDimensions{Width: 4, Height: 4, DPR: 1})
	small.Clear(Black)
	dst.Blit(small)
	if got := dst.Image().RGBAAt(5, 5); got.R != 255 {
		t.Errorf("pixel after mismatched blit = %+v, want unchanged white", got)
	}
}

func TestSurface_DrawImageCentered(t *testing.T) {
	s, _ := NewSurface(ViewportDimensions{Width: 20, Height: 20, DPR: 1})
	s.Clear(Black)

	stamp := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < len(stamp.Pix); i += 4 {
		stamp.Pix[i+0] = 255
		stamp.Pix[i+3] = 255
	}
	s.DrawImage(stamp, 10, 10)

	if got := s.Image().RGBAAt(10, 10); got.R != 255 {
		t.Errorf("center pixel = %+v, want red", got)
	}
	if got := s.Image().RGBAAt(14, 14); got.R != 0 {
		t.Errorf("pixel outside the stamp = %+v, want black", got)
	}

	// nil stamps are ignored.
	s.DrawImage(nil, 10, 10)
}

func TestSurface_Resize(t *testing.T) {
	s, _ := NewSurface(ViewportDimensions{Width: 10, Height: 10, DPR: 1})
	if err := s.Resize(ViewportDimensions{Width: 30, Height: 20, DPR: 1}); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := s.BackingSize(); w != 30 || h != 20 {
		t.Errorf("BackingSize = %dx%d, want 30x20", w, h)
	}
	if err := s.Resize(ViewportDimensions{Width: 0, Height: 20, DPR: 1}); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Resize with zero width = %v, want ErrInvalidDimensions", err)
	}
}
