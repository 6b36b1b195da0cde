package mirage

import (
	"math"
	"time"
)

// Input sensitivity and timing constants for the interaction model.
const (
	// MouseSensitivity converts drag pixels to rotation radians.
	MouseSensitivity = 0.005
	// TouchSensitivity is higher: fingers travel less than mice.
	TouchSensitivity = 0.008

	// Auto-rotation resume delay after a drag ends.
	mouseResumeGrace = 2 * time.Second
	touchResumeGrace = 3 * time.Second

	// Exponential damping applied to inertial rotation each frame.
	inertiaDamping = 0.9
	// Inertia below this magnitude snaps to rest.
	inertiaEpsilon = 1e-4

	// Fixed steps for keyboard nudges.
	keyRotateStep = 0.1
	keyZoomStep   = 0.1

	// Default auto-rotation speed in radians per frame at 60fps.
	DefaultRotationSpeed = 0.005
)

// Key identifies the keyboard shortcuts the controller understands.
type Key int

const (
	KeyNone Key = iota
	KeyReset
	KeyToggleRotate
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
	KeyZoomIn
	KeyZoomOut
)

// AnimationState holds the auto-rotation settings, owned by the controller.
type AnimationState struct {
	AutoRotate    bool
	RotationSpeed float64
}

// CameraController owns the camera pose and turns raw input deltas into
// rotation, zoom and inertia. Hot-path state (rotation, drag velocity) lives
// as plain mutable fields: one owner, one frame loop, no notification
// machinery.
//
// The controller never hands out a mutable camera; Camera() returns a value
// snapshot taken once per frame by the engine.
type CameraController struct {
	cam     Camera
	initial Camera

	interaction InteractionConfig
	anim        AnimationState

	dragging  bool
	dragTouch bool
	lastX     float64
	lastY     float64

	// velocity is the rotation carried over after a drag ends, decayed by
	// inertiaDamping every frame.
	velX float64
	velY float64

	// resumeAt is when auto-rotation restarts after a drag, zero when no
	// resume is pending.
	resumeAt time.Time
	paused   bool

	onChange func(Camera)
	changed  bool

	now func() time.Time
}

// NewCameraController creates a controller starting from the default pose.
func NewCameraController(interaction InteractionConfig) *CameraController {
	cam := DefaultCamera()
	return &CameraController{
		cam:         cam,
		initial:     cam,
		interaction: interaction,
		anim: AnimationState{
			AutoRotate:    interaction.AutoRotate,
			RotationSpeed: DefaultRotationSpeed,
		},
		now: time.Now,
	}
}

// Camera returns the current pose snapshot.
func (c *CameraController) Camera() Camera { return c.cam }

// Animation returns the current animation state.
func (c *CameraController) Animation() AnimationState { return c.anim }

// OnChange registers the camera-changed callback, fired from Step at most
// once per frame and only when the pose actually moved.
func (c *CameraController) OnChange(fn func(Camera)) { c.onChange = fn }

// PointerDown begins a drag and pauses auto-rotation. touch selects the
// touch sensitivity and grace delay.
func (c *CameraController) PointerDown(x, y float64, touch bool) {
	if !c.interaction.EnableRotation {
		return
	}
	if touch && !c.interaction.TouchGestures {
		return
	}
	c.dragging = true
	c.dragTouch = touch
	c.lastX, c.lastY = x, y
	c.velX, c.velY = 0, 0
	c.paused = true
	c.resumeAt = time.Time{}
}

// PointerMove applies drag deltas to the camera rotation.
func (c *CameraController) PointerMove(x, y float64) {
	if !c.dragging {
		return
	}
	sensitivity := MouseSensitivity
	if c.dragTouch {
		sensitivity = TouchSensitivity
	}
	dx := (x - c.lastX) * sensitivity
	dy := (y - c.lastY) * sensitivity
	c.lastX, c.lastY = x, y

	c.cam.Rotation.Y += dx
	c.cam.Rotation.X += dy
	c.velX, c.velY = dy, dx
	c.changed = true
}

// PointerUp ends the drag. Auto-rotation resumes after the grace delay
// unless a new drag starts first; the last drag deltas keep rotating the
// camera as decaying inertia.
func (c *CameraController) PointerUp() {
	if !c.dragging {
		return
	}
	c.dragging = false
	grace := mouseResumeGrace
	if c.dragTouch {
		grace = touchResumeGrace
	}
	c.resumeAt = c.now().Add(grace)
}

// Zoom applies a wheel or pinch delta, clamped to [MinZoom, MaxZoom]
// regardless of cumulative input magnitude.
func (c *CameraController) Zoom(delta float64) {
	if !c.interaction.EnableZoom {
		return
	}
	next := clampZoom(c.cam.Zoom + delta)
	if next != c.cam.Zoom {
		c.cam.Zoom = next
		c.changed = true
	}
}

// Pan translates the camera parallel to the view plane.
func (c *CameraController) Pan(dx, dy float64) {
	if !c.interaction.EnablePan {
		return
	}
	if dx == 0 && dy == 0 {
		return
	}
	c.cam.Position.X -= dx / c.cam.Zoom
	c.cam.Position.Y += dy / c.cam.Zoom
	c.changed = true
}

// Press handles a keyboard shortcut.
func (c *CameraController) Press(key Key) {
	if !c.interaction.KeyboardShortcuts {
		return
	}
	switch key {
	case KeyReset:
		c.Reset()
	case KeyToggleRotate:
		c.anim.AutoRotate = !c.anim.AutoRotate
	case KeyArrowLeft:
		c.cam.Rotation.Y -= keyRotateStep
		c.changed = true
	case KeyArrowRight:
		c.cam.Rotation.Y += keyRotateStep
		c.changed = true
	case KeyArrowUp:
		c.cam.Rotation.X -= keyRotateStep
		c.changed = true
	case KeyArrowDown:
		c.cam.Rotation.X += keyRotateStep
		c.changed = true
	case KeyZoomIn:
		c.Zoom(keyZoomStep)
	case KeyZoomOut:
		c.Zoom(-keyZoomStep)
	}
}

// Reset restores the initial pose and stops any inertia.
func (c *CameraController) Reset() {
	c.cam = c.initial
	c.velX, c.velY = 0, 0
	c.changed = true
}

// SetAutoRotate toggles auto-rotation directly (host API).
func (c *CameraController) SetAutoRotate(on bool) { c.anim.AutoRotate = on }

// SetRotationSpeed sets the auto-rotation speed in radians per frame.
func (c *CameraController) SetRotationSpeed(speed float64) { c.anim.RotationSpeed = speed }

// Step advances one frame: applies decaying inertia, resumes auto-rotation
// when its grace delay has passed, and applies auto-rotation. Fires the
// camera-changed callback once when the pose moved this frame.
func (c *CameraController) Step() {
	if !c.dragging && (c.velX != 0 || c.velY != 0) {
		c.cam.Rotation.X += c.velX
		c.cam.Rotation.Y += c.velY
		c.velX *= inertiaDamping
		c.velY *= inertiaDamping
		if math.Abs(c.velX) < inertiaEpsilon && math.Abs(c.velY) < inertiaEpsilon {
			c.velX, c.velY = 0, 0
		}
		c.changed = true
	}

	if c.paused && !c.dragging && !c.resumeAt.IsZero() && !c.now().Before(c.resumeAt) {
		c.paused = false
		c.resumeAt = time.Time{}
	}

	if c.anim.AutoRotate && !c.paused && !c.dragging {
		c.cam.Rotation.Y += c.anim.RotationSpeed
		c.changed = true
	}

	if c.changed {
		c.changed = false
		if c.onChange != nil {
			c.onChange(c.cam)
		}
	}
}
