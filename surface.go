package mirage

import (
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/valak74200/data-mirage-sub000/internal/raster"
)

// Surface is a drawing surface with a high-DPI backing store. The drawing
// API is in CSS pixels; coordinates are scaled by the viewport's device
// pixel ratio on the way to the backing buffer, so callers never deal with
// device pixels directly.
//
// The canvas renderer owns two surfaces of identical backing size: all
// drawing goes to the offscreen one, which is then blitted to the visible
// one (double buffering).
type Surface struct {
	img      *image.RGBA
	buf      raster.Buffer
	viewport ViewportDimensions
}

// NewSurface allocates a surface for the given viewport.
func NewSurface(viewport ViewportDimensions) (*Surface, error) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	s := &Surface{}
	s.reallocate(viewport)
	return s, nil
}

// reallocate sizes the backing store to viewport.Width*DPR x Height*DPR.
func (s *Surface) reallocate(viewport ViewportDimensions) {
	if viewport.DPR <= 0 {
		viewport.DPR = 1
	}
	bw, bh := viewport.backingSize()
	s.img = image.NewRGBA(image.Rect(0, 0, bw, bh))
	s.buf = raster.Buffer{
		Pix:    s.img.Pix,
		Width:  bw,
		Height: bh,
		Stride: s.img.Stride,
	}
	s.viewport = viewport
}

// Viewport returns the surface's CSS-pixel dimensions and DPR.
func (s *Surface) Viewport() ViewportDimensions { return s.viewport }

// BackingSize returns the backing-store dimensions in device pixels.
// After Release both are zero.
func (s *Surface) BackingSize() (int, int) { return s.buf.Width, s.buf.Height }

// Image exposes the backing image for host blits and PNG capture.
// Returns nil after Release.
func (s *Surface) Image() *image.RGBA { return s.img }

// Resize re-sizes the backing store, discarding the previous contents.
func (s *Surface) Resize(viewport ViewportDimensions) error {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return ErrInvalidDimensions
	}
	s.reallocate(viewport)
	return nil
}

// Release zeroes the backing-store dimensions before dropping the pixel
// reference so the memory is reclaimable immediately, not when some later
// GC cycle notices. The surface is unusable afterwards.
func (s *Surface) Release() {
	s.buf = raster.Buffer{}
	s.img = nil
	s.viewport = ViewportDimensions{}
}

// released reports whether Release has been called.
func (s *Surface) released() bool { return s.img == nil }

// dpr returns the effective device pixel ratio.
func (s *Surface) dpr() float64 {
	if s.viewport.DPR <= 0 {
		return 1
	}
	return s.viewport.DPR
}

// rasterColor converts a float RGBA to the raster package's 8-bit color.
func rasterColor(c RGBA) raster.Color {
	return raster.Color{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// Clear fills the surface with a solid color.
func (s *Surface) Clear(c RGBA) {
	if s.released() {
		return
	}
	s.buf.Fill(rasterColor(c))
}

// ClearRadial fills the surface with a radial wash centered on the surface,
// inner at the center fading to outer at the corners.
func (s *Surface) ClearRadial(inner, outer RGBA) {
	if s.released() {
		return
	}
	cx := float64(s.buf.Width) / 2
	cy := float64(s.buf.Height) / 2
	maxR := math.Hypot(cx, cy)
	raster.BackgroundRadial(&s.buf, cx, cy, maxR, rasterColor(inner), rasterColor(outer))
}

// FillCircle draws a filled circle at CSS-pixel coordinates.
func (s *Surface) FillCircle(x, y, r float64, c RGBA, antialias bool) {
	if s.released() {
		return
	}
	d := s.dpr()
	raster.FillCircle(&s.buf, x*d, y*d, r*d, rasterColor(c), antialias)
}

// StrokeCircle draws a circle outline at CSS-pixel coordinates.
func (s *Surface) StrokeCircle(x, y, r, width float64, c RGBA, antialias bool) {
	if s.released() {
		return
	}
	d := s.dpr()
	raster.StrokeCircle(&s.buf, x*d, y*d, r*d, width*d, rasterColor(c), antialias)
}

// Glow draws a radial gradient disc fading from c at the center to fully
// transparent at radius r. Used for anomaly halos.
func (s *Surface) Glow(x, y, r float64, c RGBA) {
	if s.released() {
		return
	}
	d := s.dpr()
	raster.RadialGradient(&s.buf, x*d, y*d, r*d, rasterColor(c), rasterColor(c.WithAlpha(0)))
}

// DrawLine draws a line segment between CSS-pixel coordinates.
func (s *Surface) DrawLine(x0, y0, x1, y1 float64, c RGBA) {
	if s.released() {
		return
	}
	d := s.dpr()
	raster.Line(&s.buf, x0*d, y0*d, x1*d, y1*d, rasterColor(c))
}

// DrawImage blends a pre-rendered RGBA stamp centered at CSS-pixel (x, y).
// Sprites are cached per (color, size, anomaly) batch key.
func (s *Surface) DrawImage(stamp *image.RGBA, x, y float64) {
	if s.released() || stamp == nil {
		return
	}
	d := s.dpr()
	b := stamp.Bounds()
	ox := int(x*d) - b.Dx()/2
	oy := int(y*d) - b.Dy()/2
	src := raster.Buffer{Pix: stamp.Pix, Width: b.Dx(), Height: b.Dy(), Stride: stamp.Stride}
	for sy := 0; sy < src.Height; sy++ {
		for sx := 0; sx < src.Width; sx++ {
			i := sy*src.Stride + sx*4
			a := src.Pix[i+3]
			if a == 0 {
				continue
			}
			s.buf.Blend(ox+sx, oy+sy, raster.Color{
				R: src.Pix[i+0], G: src.Pix[i+1], B: src.Pix[i+2], A: a,
			}, 1)
		}
	}
}

// DrawText draws a small ASCII label at CSS-pixel (x, y) using the built-in
// bitmap face. Only the stats overlay uses text; data labels are chrome UI
// and live in the host.
func (s *Surface) DrawText(x, y float64, text string, c RGBA) {
	if s.released() {
		return
	}
	d := s.dpr()
	drawer := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c.Color()),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(x*d), int(y*d)),
	}
	drawer.DrawString(text)
}

// Blit copies src's pixels onto s. Both surfaces must share backing
// dimensions; a mismatched blit is a silent no-op (the renderer re-sizes
// both surfaces together on resize, so a mismatch only happens mid-dispose).
func (s *Surface) Blit(src *Surface) {
	if s.released() || src == nil || src.released() {
		return
	}
	s.buf.CopyFrom(&src.buf)
}

// SavePNG writes the surface contents to a PNG file.
func (s *Surface) SavePNG(path string) error {
	if s.released() {
		return ErrNotInitialized
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, s.img)
}
