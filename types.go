package mirage

// Point3D is a single point of the cloud as produced by the reduction
// pipeline. The renderer borrows the slice for the duration of a render call
// and never retains it: the producer may replace the whole list between
// frames, and every derived screen-space value is recomputed each frame.
type Point3D struct {
	// ID identifies the point across frames. Selection holds IDs, not
	// pointers, so a wholesale list replacement cannot dangle.
	ID string

	// Position is the point's location in reduced 3D space.
	Position Vec3

	// Color is a hex color string ("#rrggbb") chosen by the producer,
	// usually the cluster color.
	Color string

	// Size is the base point radius in world-independent units.
	Size float64

	// Cluster is the owning cluster id, or empty for unclustered points.
	Cluster string

	// IsAnomaly marks points flagged by the anomaly scorer. Anomalies are
	// drawn with a glow halo.
	IsAnomaly bool

	// OriginalData is an opaque payload carried through for the host
	// (tooltips, detail panels). The renderer never interprets it.
	OriginalData any
}

// Cluster groups points produced by the clustering stage.
// Read-only to the engine.
type Cluster struct {
	ID     string
	Color  string
	Center Vec3

	// PointIDs lists member points in producer order.
	PointIDs []string
}

// PointCloud is the input payload handed to the engine. Clusters and
// Anomalies are optional; an absent or empty Points slice puts the engine in
// an idle state (background only, no error).
type PointCloud struct {
	Points   []Point3D
	Clusters []Cluster

	// Anomalies lists anomalous point IDs. Points additionally carry
	// IsAnomaly; the list exists for hosts that track anomalies separately.
	Anomalies []string
}

// ViewportDimensions describes the drawing area in CSS pixels plus the
// device pixel ratio. Backing stores are sized Width*DPR x Height*DPR;
// all screen-space math (projection, hit-testing) stays in CSS pixels.
type ViewportDimensions struct {
	Width  int
	Height int
	DPR    float64
}

// backingSize returns the backing-store size in device pixels.
func (v ViewportDimensions) backingSize() (int, int) {
	dpr := v.DPR
	if dpr <= 0 {
		dpr = 1
	}
	return int(float64(v.Width) * dpr), int(float64(v.Height) * dpr)
}

// ProjectedPoint is a Point3D with its per-frame screen-space derivation.
// Ephemeral: built during a render or hit-test pass and discarded with it.
type ProjectedPoint struct {
	Point *Point3D

	// X, Y are screen coordinates in CSS pixels.
	X, Y float64

	// ScreenSize is the projected radius after perspective, zoom and LOD.
	ScreenSize float64

	// Depth is the forward view-space distance from the camera. Sorting
	// ascending by Depth yields the compositing order used by the canvas
	// renderer (greater depth draws later).
	Depth float64

	// LODLevel is the level-of-detail factor applied to ScreenSize,
	// 1.0 when LOD is disabled.
	LODLevel float64
}
