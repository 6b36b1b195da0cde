package mirage

import "math"

// Projection constants. The focal length fixes the perspective strength of
// the simplified pinhole model; the cull constants bound how far outside the
// view a point may be before it is dropped without being drawn.
const (
	// FocalLength is the distance of the projection plane in world units.
	FocalLength = 400

	// CullDistance is the base camera-distance cull radius. The effective
	// radius is CullDistance / zoom: zooming in tightens the shell.
	CullDistance = 1000

	// ScreenCullMargin is how far outside the viewport, in CSS pixels, a
	// projected point may fall and still be kept (large points straddling
	// an edge must not pop).
	ScreenCullMargin = 50
)

// LOD thresholds: camera distance to level mapping. The mid threshold is
// always three times the near one, also when the near distance is overridden
// by Config.LODThreshold.
const (
	lodNearDistance = 100

	lodNearLevel = 1.0
	lodMidLevel  = 0.5
	lodFarLevel  = 0.25
)

// CameraSpace transforms a world-space position into camera space:
// translate by the camera position, then rotate Y, X, Z in that order.
// The rotation composition is fixed; see Camera.Rotation.
func CameraSpace(p Vec3, cam Camera) Vec3 {
	rel := p.Sub(cam.Position)
	rel = rel.RotateY(cam.Rotation.Y)
	rel = rel.RotateX(cam.Rotation.X)
	rel = rel.RotateZ(cam.Rotation.Z)
	return rel
}

// Project maps a world-space position to screen space.
// Returns the screen coordinates in CSS pixels, the perspective factor, and
// the forward view-space depth (distance in front of the camera; sorting
// ascending by depth gives compositing order).
//
// Degenerate input is defined, never NaN: a point exactly on the focal plane
// projects with perspective 0 to the viewport center.
func Project(p Vec3, cam Camera, width, height int) (x, y, perspective, depth float64) {
	rel := CameraSpace(p, cam)

	denom := FocalLength + rel.Z
	if denom != 0 {
		perspective = FocalLength / denom
	}

	x = rel.X*perspective*cam.Zoom + float64(width)/2
	y = -rel.Y*perspective*cam.Zoom + float64(height)/2
	depth = -rel.Z
	return x, y, perspective, depth
}

// ProjectedSize returns the on-screen radius for a point of the given base
// size at the given perspective factor. Never below 1px so distant points
// stay visible as single pixels.
func ProjectedSize(baseSize, perspective, zoom float64) float64 {
	return math.Max(1, baseSize*perspective*zoom)
}

// LODLevel maps camera distance to a detail level under the default
// thresholds: full detail near, half detail mid-range, quarter detail far.
func LODLevel(distance float64) float64 {
	return lodLevelAt(distance, lodNearDistance)
}

// lodLevelAt is LODLevel with a configurable near threshold. The mid
// threshold keeps the default 3x ratio of the near one. near <= 0 selects
// the defaults.
func lodLevelAt(distance, near float64) float64 {
	if near <= 0 {
		near = lodNearDistance
	}
	switch {
	case distance < near:
		return lodNearLevel
	case distance < near*3:
		return lodMidLevel
	default:
		return lodFarLevel
	}
}

// CullByDistance reports whether a point at the given camera distance is
// outside the effective view shell for the given zoom.
func CullByDistance(distance, zoom float64) bool {
	if zoom <= 0 {
		zoom = MinZoom
	}
	return distance > CullDistance/zoom
}

// CullByScreen reports whether a projected coordinate falls more than
// ScreenCullMargin outside the viewport.
func CullByScreen(x, y float64, width, height int) bool {
	return x < -ScreenCullMargin || x > float64(width)+ScreenCullMargin ||
		y < -ScreenCullMargin || y > float64(height)+ScreenCullMargin
}

// ProjectPoint runs the full per-point pipeline for one Point3D: cull by
// distance, project, cull by screen bounds, assign LOD and screen size.
// Returns false when the point was culled.
//
// lodEnabled reflects the active performance mode; lodScale is the adaptive
// quality manager's global multiplier (1.0 at full quality); lodNear
// overrides the near-LOD distance when > 0.
func ProjectPoint(p *Point3D, cam Camera, width, height int, lodEnabled bool, lodScale, lodNear float64) (ProjectedPoint, bool) {
	dist := p.Position.Distance(cam.Position)
	if CullByDistance(dist, cam.Zoom) {
		return ProjectedPoint{}, false
	}

	x, y, perspective, depth := Project(p.Position, cam, width, height)
	if CullByScreen(x, y, width, height) {
		return ProjectedPoint{}, false
	}

	lod := 1.0
	if lodEnabled {
		lod = lodLevelAt(dist, lodNear) * lodScale
		if lod > 1 {
			lod = 1
		}
	}

	return ProjectedPoint{
		Point:      p,
		X:          x,
		Y:          y,
		ScreenSize: ProjectedSize(p.Size, perspective, cam.Zoom) * lod,
		Depth:      depth,
		LODLevel:   lod,
	}, true
}
