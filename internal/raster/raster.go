// Copyright 2026 The data-mirage Authors
// SPDX-License-Identifier: MIT

// Package raster implements the pixel-level drawing primitives used by the
// canvas renderer: source-over blending, anti-aliased circles, line
// segments and radial gradients, all operating on raw RGBA buffers.
package raster

import "math"

// Color is an 8-bit straight-alpha RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Buffer is a view over a raw RGBA pixel buffer, laid out row by row with
// the given stride in bytes. It matches the layout of image.RGBA.Pix so a
// buffer can alias an image without copying.
type Buffer struct {
	Pix    []uint8
	Width  int
	Height int
	Stride int
}

// Fill sets every pixel to the given color, ignoring alpha blending.
func (b *Buffer) Fill(c Color) {
	for y := 0; y < b.Height; y++ {
		row := y * b.Stride
		for x := 0; x < b.Width; x++ {
			i := row + x*4
			b.Pix[i+0] = c.R
			b.Pix[i+1] = c.G
			b.Pix[i+2] = c.B
			b.Pix[i+3] = c.A
		}
	}
}

// Blend composites c over the pixel at (x, y) with the given coverage in
// [0, 1]. Out-of-bounds coordinates are ignored.
func (b *Buffer) Blend(x, y int, c Color, coverage float64) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}
	if coverage <= 0 {
		return
	}
	if coverage > 1 {
		coverage = 1
	}

	a := float64(c.A) / 255 * coverage
	if a <= 0 {
		return
	}
	inv := 1 - a

	i := y*b.Stride + x*4
	b.Pix[i+0] = uint8(float64(c.R)*a + float64(b.Pix[i+0])*inv)
	b.Pix[i+1] = uint8(float64(c.G)*a + float64(b.Pix[i+1])*inv)
	b.Pix[i+2] = uint8(float64(c.B)*a + float64(b.Pix[i+2])*inv)

	oa := float64(b.Pix[i+3]) / 255
	b.Pix[i+3] = uint8((a + oa*inv) * 255)
}

// CopyFrom copies src into b. Both buffers must have identical dimensions;
// mismatched buffers are left untouched. This is the double-buffer blit.
func (b *Buffer) CopyFrom(src *Buffer) {
	if src == nil || b.Width != src.Width || b.Height != src.Height {
		return
	}
	if b.Stride == src.Stride {
		copy(b.Pix, src.Pix)
		return
	}
	rowBytes := b.Width * 4
	for y := 0; y < b.Height; y++ {
		copy(b.Pix[y*b.Stride:y*b.Stride+rowBytes], src.Pix[y*src.Stride:y*src.Stride+rowBytes])
	}
}

// FillCircle draws a filled circle centered at (cx, cy). With antialias the
// edge coverage falls off over one pixel; without it the edge is hard.
func FillCircle(b *Buffer, cx, cy, r float64, c Color, antialias bool) {
	if r <= 0 {
		return
	}
	minX, maxX, minY, maxY := circleBounds(b, cx, cy, r)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			var coverage float64
			if antialias {
				coverage = r - dist + 0.5
			} else if dist <= r {
				coverage = 1
			}
			b.Blend(x, y, c, coverage)
		}
	}
}

// StrokeCircle draws a circle outline of the given stroke width.
func StrokeCircle(b *Buffer, cx, cy, r, width float64, c Color, antialias bool) {
	if r <= 0 || width <= 0 {
		return
	}
	half := width / 2
	minX, maxX, minY, maxY := circleBounds(b, cx, cy, r+half)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			edge := math.Abs(dist - r)
			var coverage float64
			if antialias {
				coverage = half - edge + 0.5
			} else if edge <= half {
				coverage = 1
			}
			b.Blend(x, y, c, coverage)
		}
	}
}

// RadialGradient fills the disc of radius r around (cx, cy), interpolating
// from inner at the center to outer at the rim. Used for anomaly glows.
func RadialGradient(b *Buffer, cx, cy, r float64, inner, outer Color) {
	if r <= 0 {
		return
	}
	minX, maxX, minY, maxY := circleBounds(b, cx, cy, r)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dist := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if dist > r {
				continue
			}
			t := dist / r
			c := lerpColor(inner, outer, t)
			b.Blend(x, y, c, 1)
		}
	}
}

// BackgroundRadial fills the whole buffer with a radial wash centered at
// (cx, cy): inner at the center fading to outer at maxR and beyond.
// This is the frame-clear gradient; the caller memoizes the result.
func BackgroundRadial(b *Buffer, cx, cy, maxR float64, inner, outer Color) {
	if maxR <= 0 {
		b.Fill(outer)
		return
	}
	for y := 0; y < b.Height; y++ {
		row := y * b.Stride
		for x := 0; x < b.Width; x++ {
			t := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / maxR
			if t > 1 {
				t = 1
			}
			c := lerpColor(inner, outer, t)
			i := row + x*4
			b.Pix[i+0] = c.R
			b.Pix[i+1] = c.G
			b.Pix[i+2] = c.B
			b.Pix[i+3] = c.A
		}
	}
}

// Line draws a blended line segment from (x0, y0) to (x1, y1) using simple
// DDA stepping. Good enough for cluster connection segments, which are
// short, thin and drawn at low alpha.
func Line(b *Buffer, x0, y0, x1, y1 float64, c Color) {
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		b.Blend(int(x0), int(y0), c, 1)
		return
	}
	sx := dx / float64(steps)
	sy := dy / float64(steps)
	x, y := x0, y0
	for i := 0; i <= steps; i++ {
		b.Blend(int(x), int(y), c, 1)
		x += sx
		y += sy
	}
}

// circleBounds clips the bounding box of a circle to the buffer.
func circleBounds(b *Buffer, cx, cy, r float64) (minX, maxX, minY, maxY int) {
	minX = int(math.Floor(cx - r - 1))
	maxX = int(math.Ceil(cx + r + 1))
	minY = int(math.Floor(cy - r - 1))
	maxY = int(math.Ceil(cy + r + 1))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > b.Width-1 {
		maxX = b.Width - 1
	}
	if maxY > b.Height-1 {
		maxY = b.Height - 1
	}
	return minX, maxX, minY, maxY
}

// lerpColor interpolates between two colors component-wise.
func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t),
	}
}
