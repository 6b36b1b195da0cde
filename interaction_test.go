package mirage

import (
	"math"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic timing tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestCameraController_ZoomClampsCumulative(t *testing.T) {
	c := NewCameraController(DefaultInteraction())

	for i := 0; i < 100; i++ {
		c.Zoom(1)
	}
	if got := c.Camera().Zoom; got != MaxZoom {
		t.Errorf("zoom after repeated zoom-in = %v, want %v", got, MaxZoom)
	}

	for i := 0; i < 100; i++ {
		c.Zoom(-1)
	}
	if got := c.Camera().Zoom; got != MinZoom {
		t.Errorf("zoom after repeated zoom-out = %v, want %v", got, MinZoom)
	}
}

func TestCameraController_DragRotates(t *testing.T) {
	tests := []struct {
		name        string
		touch       bool
		sensitivity float64
	}{
		{"mouse", false, MouseSensitivity},
		{"touch", true, TouchSensitivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCameraController(DefaultInteraction())
			c.PointerDown(100, 100, tt.touch)
			c.PointerMove(130, 80)

			cam := c.Camera()
			wantY := 30 * tt.sensitivity
			wantX := -20 * tt.sensitivity
			if !approxEq(cam.Rotation.Y, wantY, 1e-12) {
				t.Errorf("Rotation.Y = %v, want %v", cam.Rotation.Y, wantY)
			}
			if !approxEq(cam.Rotation.X, wantX, 1e-12) {
				t.Errorf("Rotation.X = %v, want %v", cam.Rotation.X, wantX)
			}
		})
	}
}

func TestCameraController_MoveWithoutDragIgnored(t *testing.T) {
	c := NewCameraController(DefaultInteraction())
	c.PointerMove(500, 500)
	if !c.Camera().Rotation.IsZero() {
		t.Errorf("rotation changed without an active drag: %v", c.Camera().Rotation)
	}
}

func TestCameraController_InertiaDecays(t *testing.T) {
	c := NewCameraController(InteractionConfig{EnableRotation: true, EnableZoom: true})
	c.PointerDown(0, 0, false)
	c.PointerMove(10, 0)
	c.PointerUp()

	vel := 10 * MouseSensitivity
	prev := c.Camera().Rotation.Y
	for i := 0; i < 5; i++ {
		c.Step()
		cur := c.Camera().Rotation.Y
		delta := cur - prev
		if !approxEq(delta, vel, 1e-12) {
			t.Fatalf("frame %d: inertia delta = %v, want %v", i, delta, vel)
		}
		vel *= inertiaDamping
		prev = cur
	}

	// Inertia must eventually snap to rest.
	for i := 0; i < 200; i++ {
		c.Step()
	}
	before := c.Camera().Rotation.Y
	c.Step()
	if c.Camera().Rotation.Y != before {
		t.Error("inertia never reached rest")
	}
}

func TestCameraController_AutoRotateGrace(t *testing.T) {
	tests := []struct {
		name  string
		touch bool
		grace time.Duration
	}{
		{"mouse 2s", false, 2 * time.Second},
		{"touch 3s", true, 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := NewCameraController(DefaultInteraction())
			c.now = clock.Now
			c.SetAutoRotate(true)

			c.PointerDown(0, 0, tt.touch)
			c.PointerUp()

			// Just before the grace delay: still paused, no auto-rotation.
			clock.Advance(tt.grace - time.Millisecond)
			before := c.Camera().Rotation.Y
			c.Step()
			if c.Camera().Rotation.Y != before {
				t.Error("auto-rotation resumed before the grace delay")
			}

			// The step at the deadline clears the pause; the next one rotates.
			clock.Advance(time.Millisecond)
			c.Step()
			before = c.Camera().Rotation.Y
			c.Step()
			if got := c.Camera().Rotation.Y - before; !approxEq(got, DefaultRotationSpeed, 1e-12) {
				t.Errorf("auto-rotation step = %v, want %v", got, DefaultRotationSpeed)
			}
		})
	}
}

func TestCameraController_Reset(t *testing.T) {
	c := NewCameraController(DefaultInteraction())
	c.PointerDown(0, 0, false)
	c.PointerMove(50, 50)
	c.PointerUp()
	c.Zoom(2)
	c.Reset()

	cam := c.Camera()
	want := DefaultCamera()
	if cam.Zoom != want.Zoom || !cam.Rotation.IsZero() || !cam.Position.Approx(want.Position, 1e-12) {
		t.Errorf("Reset left camera at %+v", cam)
	}

	// Inertia must not survive a reset.
	c.Step()
	if !c.Camera().Rotation.IsZero() {
		t.Error("inertia survived Reset")
	}
}

func TestCameraController_Pan(t *testing.T) {
	c := NewCameraController(DefaultInteraction())
	c.Zoom(1) // zoom = 2
	c.Pan(10, 20)
	cam := c.Camera()
	if !approxEq(cam.Position.X, -5, 1e-12) {
		t.Errorf("Position.X = %v, want -5", cam.Position.X)
	}
	if !approxEq(cam.Position.Y, 10, 1e-12) {
		t.Errorf("Position.Y = %v, want 10", cam.Position.Y)
	}
}

func TestCameraController_Keys(t *testing.T) {
	c := NewCameraController(DefaultInteraction())

	c.Press(KeyArrowRight)
	if !approxEq(c.Camera().Rotation.Y, keyRotateStep, 1e-12) {
		t.Errorf("Rotation.Y = %v after arrow right", c.Camera().Rotation.Y)
	}
	c.Press(KeyArrowUp)
	if !approxEq(c.Camera().Rotation.X, -keyRotateStep, 1e-12) {
		t.Errorf("Rotation.X = %v after arrow up", c.Camera().Rotation.X)
	}
	c.Press(KeyZoomIn)
	if !approxEq(c.Camera().Zoom, 1.1, 1e-12) {
		t.Errorf("Zoom = %v after zoom-in key", c.Camera().Zoom)
	}

	c.Press(KeyToggleRotate)
	on := c.Animation().AutoRotate
	c.Press(KeyToggleRotate)
	if c.Animation().AutoRotate == on {
		t.Error("toggle key did not flip auto-rotation")
	}

	c.Press(KeyReset)
	if c.Camera().Zoom != 1 || math.Abs(c.Camera().Rotation.Y) > 1e-12 {
		t.Errorf("reset key left camera at %+v", c.Camera())
	}
}

func TestCameraController_DisabledInteractions(t *testing.T) {
	c := NewCameraController(InteractionConfig{})

	c.PointerDown(0, 0, false)
	c.PointerMove(100, 100)
	if !c.Camera().Rotation.IsZero() {
		t.Error("rotation applied while disabled")
	}
	c.Zoom(1)
	if c.Camera().Zoom != 1 {
		t.Error("zoom applied while disabled")
	}
	c.Pan(10, 10)
	if !c.Camera().Position.Approx(DefaultCamera().Position, 1e-12) {
		t.Error("pan applied while disabled")
	}
	c.Press(KeyArrowLeft)
	if !c.Camera().Rotation.IsZero() {
		t.Error("keyboard applied while disabled")
	}
}

func TestCameraController_OnChangeFiresOncePerFrame(t *testing.T) {
	c := NewCameraController(DefaultInteraction())
	var calls int
	c.OnChange(func(Camera) { calls++ })

	c.PointerDown(0, 0, false)
	c.PointerMove(10, 0)
	c.PointerMove(20, 0)
	c.Zoom(0.5)
	c.Step()
	if calls != 1 {
		t.Errorf("callback fired %d times in one frame, want 1", calls)
	}

	// A frame without movement fires nothing.
	c.PointerUp()
	for i := 0; i < 300; i++ {
		c.Step() // drain inertia
	}
	calls = 0
	c.Step()
	if calls != 0 {
		t.Errorf("callback fired %d times on an idle frame, want 0", calls)
	}
}
