// Copyright 2026 The data-mirage Authors
// SPDX-License-Identifier: MIT

// Package ebitenhost drives a mirage engine from an ebiten game loop. It
// owns the host side of the engine contract: the per-frame callback, input
// forwarding (mouse, wheel, touch, keyboard) and the blit of the engine's
// frame to the window, including device-scale-factor handling.
package ebitenhost

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	mirage "github.com/valak74200/data-mirage-sub000"
)

// clickSlop is the maximum pointer travel, in CSS pixels, for a press to
// count as a click rather than a drag.
const clickSlop = 4

// pinchZoomScale converts a change in finger spacing, in CSS pixels, to a
// zoom delta.
const pinchZoomScale = 0.01

// Host adapts an engine to ebiten.Game. Create one per engine; the zero
// value is not usable.
type Host struct {
	engine *mirage.Engine

	frame *ebiten.Image

	cssW, cssH int
	dpr        float64

	pressX    float64
	pressY    float64
	touchID   ebiten.TouchID
	touchLive bool
	pinchDist float64
	pinchLive bool
}

// New wraps an engine for ebiten.
func New(engine *mirage.Engine) *Host {
	return &Host{engine: engine, dpr: 1}
}

// Run opens a window titled title and blocks until it closes or the engine
// latches an error.
func Run(engine *mirage.Engine, title string, width, height int) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(New(engine))
}

// Update forwards input and steps the engine one frame.
func (h *Host) Update() error {
	h.pollMouse()
	h.pollTouch()
	h.pollKeys()

	if err := h.engine.Step(); err != nil {
		// The engine latches its error state; stop the loop instead of
		// stepping into the same failure every frame.
		return err
	}
	return nil
}

// pollMouse maps mouse buttons, movement and the wheel.
func (h *Host) pollMouse() {
	x, y := h.cursorCSS()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		h.pressX, h.pressY = x, y
		h.engine.PointerDown(x, y, false)
	}
	h.engine.PointerMove(x, y, false)
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		h.engine.PointerUp()
		if math.Hypot(x-h.pressX, y-h.pressY) <= clickSlop {
			h.engine.Click(x, y, false)
		}
	}

	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		h.engine.Wheel(wheelY * 0.1)
	}
}

// pollTouch maps single-finger touch to drag/tap and two fingers to a
// pinch zoom. Fingers beyond the second are ignored.
func (h *Host) pollTouch() {
	if live := ebiten.AppendTouchIDs(nil); len(live) >= 2 {
		if h.touchLive {
			// The tracked finger became half of a pinch: end the drag
			// without a tap.
			h.touchLive = false
			h.engine.PointerUp()
		}
		x0, y0 := h.toCSS(ebiten.TouchPosition(live[0]))
		x1, y1 := h.toCSS(ebiten.TouchPosition(live[1]))
		h.applyPinch(math.Hypot(x1-x0, y1-y0))
		return
	}
	h.pinchLive = false

	just := inpututil.AppendJustPressedTouchIDs(nil)
	if !h.touchLive && len(just) > 0 {
		h.touchID = just[0]
		h.touchLive = true
		tx, ty := ebiten.TouchPosition(h.touchID)
		x, y := h.toCSS(tx, ty)
		h.pressX, h.pressY = x, y
		h.engine.PointerDown(x, y, true)
		return
	}
	if !h.touchLive {
		return
	}
	if inpututil.IsTouchJustReleased(h.touchID) {
		h.touchLive = false
		h.engine.PointerUp()
		x, y := h.toCSS(inpututil.TouchPositionInPreviousTick(h.touchID))
		if math.Hypot(x-h.pressX, y-h.pressY) <= clickSlop {
			h.engine.Click(x, y, true)
		}
		return
	}
	x, y := h.toCSS(ebiten.TouchPosition(h.touchID))
	h.engine.PointerMove(x, y, true)
}

// applyPinch forwards one pinch frame: spreading the fingers zooms in,
// closing them zooms out. The first frame of a pinch only records the
// spacing.
func (h *Host) applyPinch(dist float64) {
	if h.pinchLive {
		h.engine.Wheel((dist - h.pinchDist) * pinchZoomScale)
	}
	h.pinchDist = dist
	h.pinchLive = true
}

// keyBindings maps ebiten keys to engine shortcuts.
var keyBindings = map[ebiten.Key]mirage.Key{
	ebiten.KeyR:          mirage.KeyReset,
	ebiten.KeySpace:      mirage.KeyToggleRotate,
	ebiten.KeyArrowLeft:  mirage.KeyArrowLeft,
	ebiten.KeyArrowRight: mirage.KeyArrowRight,
	ebiten.KeyArrowUp:    mirage.KeyArrowUp,
	ebiten.KeyArrowDown:  mirage.KeyArrowDown,
	ebiten.KeyEqual:      mirage.KeyZoomIn,
	ebiten.KeyKPAdd:      mirage.KeyZoomIn,
	ebiten.KeyMinus:      mirage.KeyZoomOut,
	ebiten.KeyKPSubtract: mirage.KeyZoomOut,
}

// pollKeys maps just-pressed keys to shortcuts.
func (h *Host) pollKeys() {
	for key, mapped := range keyBindings {
		if inpututil.IsKeyJustPressed(key) {
			h.engine.Press(mapped)
		}
	}
}

// Draw blits the engine's current frame to the window.
func (h *Host) Draw(screen *ebiten.Image) {
	img := h.engine.Frame()
	if img == nil {
		return
	}
	w := img.Bounds().Dx()
	ht := img.Bounds().Dy()
	if h.frame == nil || h.frame.Bounds().Dx() != w || h.frame.Bounds().Dy() != ht {
		if h.frame != nil {
			h.frame.Deallocate()
		}
		h.frame = ebiten.NewImage(w, ht)
	}
	h.frame.WritePixels(img.Pix)
	screen.DrawImage(h.frame, nil)
}

// Layout sizes the backing store to the device scale factor, notifying the
// engine when the viewport changes. The engine itself never polls.
func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.DeviceScaleFactor()
	if outsideWidth != h.cssW || outsideHeight != h.cssH || scale != h.dpr {
		h.cssW, h.cssH = outsideWidth, outsideHeight
		h.dpr = scale
		if err := h.engine.Resize(mirage.ViewportDimensions{
			Width:  outsideWidth,
			Height: outsideHeight,
			DPR:    scale,
		}); err != nil {
			mirage.Logger().Warn("resize rejected", "err", err)
		}
	}
	return int(float64(outsideWidth) * scale), int(float64(outsideHeight) * scale)
}

// cursorCSS returns the mouse position in CSS pixels.
func (h *Host) cursorCSS() (float64, float64) {
	x, y := ebiten.CursorPosition()
	return h.toCSS(x, y)
}

// toCSS converts layout (device-pixel) coordinates to CSS pixels.
func (h *Host) toCSS(x, y int) (float64, float64) {
	if h.dpr <= 0 {
		return float64(x), float64(y)
	}
	return float64(x) / h.dpr, float64(y) / h.dpr
}
