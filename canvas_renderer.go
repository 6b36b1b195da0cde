package mirage

import (
	"fmt"
	"image"
	"math"
	"sort"
	"time"

	"github.com/valak74200/data-mirage-sub000/cache"
	"github.com/valak74200/data-mirage-sub000/internal/raster"
)

// lifecycleState tracks the renderer contract's three states.
type lifecycleState int

const (
	stateUninitialized lifecycleState = iota
	stateInitialized
	stateDisposed
)

// Background wash colors: deep blue center fading to near-black edges.
var (
	backgroundInner = Hex("#10173a")
	backgroundOuter = Hex("#05060f")
)

// Connection drawing limits; they keep the visual edge count bounded.
const (
	maxConnectionDistance  = 150 // screen px
	maxConnectionsMobile   = 15  // per cluster, mobile mode
	maxConnectionsDesktop  = 30  // per cluster, other modes
	connectionNeighbors    = 2   // segments per point
	mobileLODSkipThreshold = 0.25
)

// spriteKey is the batch key for pre-rendered point stamps: points sharing
// color, rounded size and anomaly flag are drawn from one cached stamp,
// minimizing per-point drawing state.
type spriteKey struct {
	color   string
	size    int // rounded to half-pixel steps (size*2)
	anomaly bool
}

// gradientKey keys the memoized background wash by backing-store size.
type gradientKey struct {
	width, height int
}

// CanvasRenderer is the software implementation of the Renderer contract.
//
// It maintains a visible surface and an offscreen surface of identical
// backing size; every frame is drawn offscreen and blitted to the visible
// surface in one step, so the host never observes a partially drawn frame.
//
// Derived drawables (the background gradient, point sprites) are memoized
// in LRU caches cleared wholesale on Resize and Dispose.
type CanvasRenderer struct {
	state lifecycleState
	ctx   RendererContext

	visible   *Surface
	offscreen *Surface

	// Limits fixed at Init from the performance mode and config.
	maxPoints  int
	lodEnabled bool
	lodNear    float64
	mode       PerformanceMode

	// Adaptive quality knobs, adjusted between frames by the quality
	// manager. Never touched mid-frame.
	lodScale    float64
	pointBudget int

	gradients *cache.LRU[gradientKey, []uint8]
	sprites   *cache.LRU[spriteKey, *image.RGBA]

	// projected is the per-frame scratch buffer, reused across frames to
	// avoid reallocating for every render call. Cleared each frame; the
	// Point3D pointers inside never outlive the render call's input slice.
	projected []ProjectedPoint

	stats       RenderStats
	windowStart time.Time
	windowCount int

	now func() time.Time
}

// NewCanvasRenderer creates an uninitialized canvas renderer.
func NewCanvasRenderer() *CanvasRenderer {
	return &CanvasRenderer{
		lodScale: 1,
		now:      time.Now,
	}
}

// Name returns the registry name.
func (r *CanvasRenderer) Name() string { return RendererCanvas }

// Init acquires both drawing surfaces and fixes the performance-mode
// limits. May be called once; returns ErrAlreadyInitialized on a second
// call and ErrNotInitialized after Dispose.
func (r *CanvasRenderer) Init(ctx RendererContext) error {
	switch r.state {
	case stateInitialized:
		return ErrAlreadyInitialized
	case stateDisposed:
		return ErrNotInitialized
	}

	cfg := ctx.Config.withDefaults()
	ctx.Config = cfg

	visible, err := NewSurface(ctx.Viewport)
	if err != nil {
		return fmt.Errorf("mirage: canvas init: %w", err)
	}
	offscreen, err := NewSurface(ctx.Viewport)
	if err != nil {
		visible.Release()
		return fmt.Errorf("mirage: canvas init: %w", err)
	}

	r.ctx = ctx
	r.visible = visible
	r.offscreen = offscreen
	r.maxPoints, r.lodEnabled = ModeLimits(cfg.Performance)
	if cfg.MaxPoints > 0 && cfg.MaxPoints < r.maxPoints {
		r.maxPoints = cfg.MaxPoints
	}
	r.lodNear = cfg.LODThreshold
	r.mode = cfg.Performance
	r.pointBudget = r.maxPoints
	r.gradients = cache.New[gradientKey, []uint8](4)
	r.sprites = cache.New[spriteKey, *image.RGBA](cache.DefaultCapacity)
	r.windowStart = r.now()
	r.state = stateInitialized

	Logger().Info("canvas renderer initialized",
		"viewport", fmt.Sprintf("%dx%d@%gx", ctx.Viewport.Width, ctx.Viewport.Height, ctx.Viewport.DPR),
		"mode", r.mode, "maxPoints", r.maxPoints, "lod", r.lodEnabled)
	return nil
}

// SetQuality applies the adaptive quality manager's current parameters:
// a global LOD multiplier and a point budget. Called between frames only.
func (r *CanvasRenderer) SetQuality(lodScale float64, pointBudget int) {
	if lodScale > 0 {
		r.lodScale = lodScale
	}
	if pointBudget > 0 {
		r.pointBudget = pointBudget
	}
}

// Frame exposes the visible surface's backing image for the host blit.
// Returns nil outside the Initialized state.
func (r *CanvasRenderer) Frame() *image.RGBA {
	if r.state != stateInitialized {
		return nil
	}
	return r.visible.Image()
}

// Render draws one frame: clear, cull, project, LOD, depth-sort, batch,
// draw, blit, count.
func (r *CanvasRenderer) Render(points []Point3D, clusters []Cluster, cam Camera) error {
	if r.state != stateInitialized {
		return ErrNotInitialized
	}
	start := r.now()

	r.clearBackground()

	// Cull + project. The scratch slice is truncated, not reallocated.
	r.projected = r.projected[:0]
	vp := r.offscreen.Viewport()
	cull := !r.ctx.Config.DisableFrustumCulling
	budget := r.pointBudget
	if budget > r.maxPoints {
		budget = r.maxPoints
	}

	culled := 0
	for i := range points {
		if len(r.projected) >= budget {
			culled += len(points) - i
			break
		}
		pp, ok := r.projectOne(&points[i], cam, vp, cull)
		if !ok {
			culled++
			continue
		}
		if r.mode == PerformanceMobile && r.lodEnabled && pp.LODLevel < mobileLODSkipThreshold {
			culled++
			continue
		}
		r.projected = append(r.projected, pp)
	}

	// Compositing order: ascending depth, later draws on top.
	sort.Slice(r.projected, func(i, j int) bool {
		return r.projected[i].Depth < r.projected[j].Depth
	})

	r.drawPoints()

	if r.ctx.Config.hasFeature(FeatureConnections) {
		r.drawConnections(clusters)
	}
	if r.ctx.Config.hasFeature(FeatureStats) {
		r.drawStatsOverlay()
	}

	r.visible.Blit(r.offscreen)

	r.updateStats(start, len(points), len(r.projected), culled)
	return nil
}

// projectOne runs the per-point pipeline honoring the culling toggle.
func (r *CanvasRenderer) projectOne(p *Point3D, cam Camera, vp ViewportDimensions, cull bool) (ProjectedPoint, bool) {
	if cull {
		return ProjectPoint(p, cam, vp.Width, vp.Height, r.lodEnabled, r.lodScale, r.lodNear)
	}

	x, y, perspective, depth := Project(p.Position, cam, vp.Width, vp.Height)
	lod := 1.0
	if r.lodEnabled {
		lod = lodLevelAt(p.Position.Distance(cam.Position), r.lodNear) * r.lodScale
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

// clearBackground fills the offscreen surface with the memoized radial
// wash for the current backing size.
func (r *CanvasRenderer) clearBackground() {
	bw, bh := r.offscreen.BackingSize()
	pix := r.gradients.GetOrCreate(gradientKey{bw, bh}, func() []uint8 {
		buf := raster.Buffer{
			Pix:    make([]uint8, bw*bh*4),
			Width:  bw,
			Height: bh,
			Stride: bw * 4,
		}
		cx, cy := float64(bw)/2, float64(bh)/2
		raster.BackgroundRadial(&buf, cx, cy, math.Hypot(cx, cy),
			rasterColor(backgroundInner), rasterColor(backgroundOuter))
		return buf.Pix
	})

	img := r.offscreen.Image()
	if img.Stride == bw*4 {
		copy(img.Pix, pix)
		return
	}
	for y := 0; y < bh; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+bw*4], pix[y*bw*4:(y+1)*bw*4])
	}
}

// drawPoints renders the depth-sorted points. Anomaly glows go down first so
// halos never cover neighbouring point bodies, then each point's batched
// sprite (fill, highlight toward the light, outline) stamps on top.
func (r *CanvasRenderer) drawPoints() {
	anomaliesOn := r.ctx.Config.hasFeature(FeatureAnomalies)

	if anomaliesOn {
		for i := range r.projected {
			pp := &r.projected[i]
			if pp.Point.IsAnomaly {
				r.offscreen.Glow(pp.X, pp.Y, pp.ScreenSize*2.5, Hex(pp.Point.Color).WithAlpha(0.35))
			}
		}
	}

	for i := range r.projected {
		pp := &r.projected[i]
		key := spriteKey{
			color:   pp.Point.Color,
			size:    int(pp.ScreenSize*2 + 0.5),
			anomaly: anomaliesOn && pp.Point.IsAnomaly,
		}
		stamp := r.sprites.GetOrCreate(key, func() *image.RGBA {
			return r.buildSprite(key)
		})
		r.offscreen.DrawImage(stamp, pp.X, pp.Y)
	}
}

// buildSprite pre-renders the stamp for one batch key at backing
// resolution: base fill, a highlight offset toward the light direction,
// and an outline stroke (white for anomalies, darkened fill otherwise).
func (r *CanvasRenderer) buildSprite(key spriteKey) *image.RGBA {
	size := float64(key.size) / 2 // CSS px radius
	d := r.offscreen.dpr()
	radius := size * d
	pad := int(math.Ceil(radius)) + 2
	side := pad*2 + 1

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	buf := raster.Buffer{Pix: img.Pix, Width: side, Height: side, Stride: img.Stride}
	c := Hex(key.color)
	aa := r.ctx.Config.Antialiasing
	cx, cy := float64(pad), float64(pad)

	raster.FillCircle(&buf, cx, cy, radius, rasterColor(c), aa)

	// Highlight offset up-left toward the light.
	raster.FillCircle(&buf, cx-radius*0.3, cy-radius*0.3, radius*0.35,
		rasterColor(c.Lighten(0.6).WithAlpha(0.8)), aa)

	outline := c.Darken(0.4)
	width := 1.0
	if key.anomaly {
		outline = White
		width = 1.5
	}
	raster.StrokeCircle(&buf, cx, cy, radius, width*d, rasterColor(outline), aa)

	return img
}

// drawConnections draws line segments between a point and its nearest
// same-cluster neighbors, bounded per cluster so the edge count stays
// linear in the number of visible points.
func (r *CanvasRenderer) drawConnections(clusters []Cluster) {
	maxPerCluster := maxConnectionsDesktop
	if r.mode == PerformanceMobile {
		maxPerCluster = maxConnectionsMobile
	}

	// Group surviving points by cluster id.
	byCluster := make(map[string][]*ProjectedPoint)
	for i := range r.projected {
		pp := &r.projected[i]
		if pp.Point.Cluster == "" {
			continue
		}
		byCluster[pp.Point.Cluster] = append(byCluster[pp.Point.Cluster], pp)
	}

	for _, members := range byCluster {
		drawn := 0
		for i, pp := range members {
			if drawn >= maxPerCluster {
				break
			}
			n1, n2 := nearestTwo(members, i)
			for _, n := range [2]int{n1, n2} {
				if n < 0 || drawn >= maxPerCluster {
					continue
				}
				q := members[n]
				color := Hex(pp.Point.Color).WithAlpha(0.15)
				r.offscreen.DrawLine(pp.X, pp.Y, q.X, q.Y, color)
				drawn++
			}
		}
	}
}

// nearestTwo returns the indices of the two nearest neighbors of members[i]
// within maxConnectionDistance screen pixels, or -1 when absent.
func nearestTwo(members []*ProjectedPoint, i int) (int, int) {
	best1, best2 := -1, -1
	dist1, dist2 := math.Inf(1), math.Inf(1)
	p := members[i]
	for j, q := range members {
		if j == i {
			continue
		}
		d := math.Hypot(q.X-p.X, q.Y-p.Y)
		if d > maxConnectionDistance {
			continue
		}
		switch {
		case d < dist1:
			best2, dist2 = best1, dist1
			best1, dist1 = j, d
		case d < dist2:
			best2, dist2 = j, d
		}
	}
	return best1, best2
}

// drawStatsOverlay prints the rolling counters in the top-left corner.
func (r *CanvasRenderer) drawStatsOverlay() {
	line1 := fmt.Sprintf("fps %.0f  frame %.1fms", r.stats.FPS, r.stats.FrameTime.Seconds()*1000)
	line2 := fmt.Sprintf("drawn %d  culled %d", r.stats.PointsRendered, r.stats.PointsCulled)
	c := White.WithAlpha(0.7)
	r.offscreen.DrawText(8, 16, line1, c)
	r.offscreen.DrawText(8, 30, line2, c)
}

// updateStats refreshes the rolling counters after a frame.
func (r *CanvasRenderer) updateStats(start time.Time, total, rendered, culled int) {
	nowT := r.now()
	r.stats.FrameTime = nowT.Sub(start)
	r.stats.PointsRendered = rendered
	r.stats.PointsCulled = culled
	r.stats.TotalPoints = total

	// FPS over a one-second rolling window.
	r.windowCount++
	if elapsed := nowT.Sub(r.windowStart); elapsed >= time.Second {
		r.stats.FPS = float64(r.windowCount) / elapsed.Seconds()
		r.windowStart = nowT
		r.windowCount = 0
	}
}

// Resize re-sizes both surfaces to the new viewport and invalidates every
// size-keyed cache wholesale.
func (r *CanvasRenderer) Resize(viewport ViewportDimensions) error {
	if r.state != stateInitialized {
		return ErrNotInitialized
	}
	if err := r.visible.Resize(viewport); err != nil {
		return err
	}
	if err := r.offscreen.Resize(viewport); err != nil {
		return err
	}
	r.ctx.Viewport = viewport
	r.gradients.Clear()
	r.sprites.Clear()
	return nil
}

// Stats returns the rolling render statistics.
func (r *CanvasRenderer) Stats() (RenderStats, error) {
	if r.state != stateInitialized {
		return RenderStats{}, ErrNotInitialized
	}
	return r.stats, nil
}

// SupportsFeature reports support against the canvas renderer's fixed
// capability set. Minimap and legend are host chrome, not renderer work.
func (r *CanvasRenderer) SupportsFeature(f Feature) bool {
	switch f {
	case FeatureMinimap, FeatureLegend:
		return false
	default:
		return knownFeatures[f]
	}
}

// Dispose clears all caches and releases both surfaces, zeroing the
// offscreen backing dimensions before dropping the reference. Idempotent:
// a second call is a no-op.
func (r *CanvasRenderer) Dispose() {
	if r.state != stateInitialized {
		if r.state == stateUninitialized {
			r.state = stateDisposed
		}
		return
	}
	r.gradients.Clear()
	r.sprites.Clear()
	r.projected = nil
	r.offscreen.Release()
	r.visible.Release()
	r.state = stateDisposed
	Logger().Info("canvas renderer disposed")
}
