package mirage

// Camera is the pose used to project the cloud onto the screen.
// It is exclusively owned by the CameraController; the renderer and the
// selection controller receive per-frame value snapshots, so nothing outside
// the controller can mutate the pose mid-frame.
type Camera struct {
	// Position is the camera location in world space.
	Position Vec3

	// Rotation holds Euler angles in radians. Projection applies them in a
	// fixed Y, X, Z order; changing that order changes every projected
	// coordinate and is a compatibility break.
	Rotation Vec3

	// Zoom scales projected coordinates. Always kept within
	// [MinZoom, MaxZoom] by the controller.
	Zoom float64

	// Target is the look-at hint used by hosts that frame the cloud;
	// projection itself only uses Position and Rotation.
	Target Vec3

	// FOV is an optional field-of-view hint in degrees. Zero means the
	// default focal length is used.
	FOV float64
}

// Zoom bounds enforced by the camera controller.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// DefaultCamera returns the initial pose used before any interaction:
// pulled back along +Z, looking at the origin.
func DefaultCamera() Camera {
	return Camera{
		Position: Vec3{Z: 200},
		Zoom:     1,
	}
}

// clampZoom restricts z to the valid zoom range.
func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
