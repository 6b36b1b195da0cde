package mirage

import "math"

// Hit-test base radii in CSS pixels. Touch gets a larger target because
// fingers are less precise than pointers.
const (
	selectRadiusDesktop = 10
	selectRadiusTouch   = 15
)

// SelectionState is the controller-owned selection snapshot. IDs are weak
// references resolved against the current point list by value equality; the
// list may be replaced wholesale between renders without invalidating them.
type SelectionState struct {
	SelectedPointID   string
	HoveredPointID    string
	SelectedClusterID string

	// MultiSelected holds the accumulated set in multi-select mode.
	MultiSelected map[string]bool
}

// SelectionController resolves pointer positions to points. Each hit test
// projects every current point with the current camera; nothing is cached
// across frames, so a replaced point list is picked up immediately.
type SelectionController struct {
	state       SelectionState
	multiSelect bool
	enabled     bool

	onPoint   func(point *Point3D, selected bool)
	onCluster func(cluster *Cluster, pointIDs []string)
	onHover   func(pointID string)
}

// NewSelectionController creates a controller in single-select mode.
func NewSelectionController(enabled bool) *SelectionController {
	return &SelectionController{
		enabled: enabled,
		state:   SelectionState{MultiSelected: map[string]bool{}},
	}
}

// State returns the current selection snapshot.
func (s *SelectionController) State() SelectionState { return s.state }

// SetMultiSelect switches between single and multi-select modes. Leaving
// multi-select clears the accumulated set.
func (s *SelectionController) SetMultiSelect(on bool) {
	s.multiSelect = on
	if !on {
		s.state.MultiSelected = map[string]bool{}
	}
}

// OnPointSelected registers the selection callback, fired once per logical
// change: selection, toggle-off, and clear each fire exactly once.
func (s *SelectionController) OnPointSelected(fn func(point *Point3D, selected bool)) {
	s.onPoint = fn
}

// OnClusterSelected registers the cluster selection callback.
func (s *SelectionController) OnClusterSelected(fn func(cluster *Cluster, pointIDs []string)) {
	s.onCluster = fn
}

// OnHover registers the hover callback, fired only when the hovered id
// changes, never per frame.
func (s *SelectionController) OnHover(fn func(pointID string)) {
	s.onHover = fn
}

// HitTest projects every point and returns the one nearest the pointer
// within its effective radius (base radius plus the point's own projected
// radius), or nil. Ties prefer the smallest projected depth, matching the
// point the user sees on top. An empty list always yields nil.
func HitTest(points []Point3D, cam Camera, width, height int, x, y float64, touch bool) *Point3D {
	base := float64(selectRadiusDesktop)
	if touch {
		base = selectRadiusTouch
	}

	var best *Point3D
	bestDist := math.Inf(1)
	bestDepth := math.Inf(1)

	for i := range points {
		p := &points[i]
		px, py, perspective, depth := Project(p.Position, cam, width, height)
		radius := base + ProjectedSize(p.Size, perspective, cam.Zoom)
		d := math.Hypot(px-x, py-y)
		if d > radius {
			continue
		}
		if d < bestDist-1e-9 || (math.Abs(d-bestDist) <= 1e-9 && depth < bestDepth) {
			best = p
			bestDist = d
			bestDepth = depth
		}
	}
	return best
}

// Click resolves a click/tap at (x, y). A hit selects (or toggles) the
// point; empty space clears the current selection.
func (s *SelectionController) Click(points []Point3D, cam Camera, width, height int, x, y float64, touch bool) {
	if !s.enabled {
		return
	}

	hit := HitTest(points, cam, width, height, x, y, touch)
	if hit == nil {
		s.Clear()
		return
	}

	if s.multiSelect {
		if s.state.MultiSelected[hit.ID] {
			delete(s.state.MultiSelected, hit.ID)
			s.notifyPoint(hit, false)
		} else {
			s.state.MultiSelected[hit.ID] = true
			s.notifyPoint(hit, true)
		}
		return
	}

	if s.state.SelectedPointID == hit.ID {
		// Clicking the selected point toggles it off.
		s.state.SelectedPointID = ""
		s.notifyPoint(hit, false)
		return
	}
	s.state.SelectedPointID = hit.ID
	s.notifyPoint(hit, true)
}

// Hover updates the hovered point id. Only an id change notifies, keeping
// redundant per-frame callbacks out of the host.
func (s *SelectionController) Hover(points []Point3D, cam Camera, width, height int, x, y float64, touch bool) {
	if !s.enabled {
		return
	}
	id := ""
	if hit := HitTest(points, cam, width, height, x, y, touch); hit != nil {
		id = hit.ID
	}
	if id == s.state.HoveredPointID {
		return
	}
	s.state.HoveredPointID = id
	if s.onHover != nil {
		s.onHover(id)
	}
}

// SelectCluster selects a cluster. In multi-select mode every member point
// joins the selected set; in single mode only the cluster id is recorded.
func (s *SelectionController) SelectCluster(cluster *Cluster) {
	if !s.enabled || cluster == nil {
		return
	}
	s.state.SelectedClusterID = cluster.ID
	if s.multiSelect {
		for _, id := range cluster.PointIDs {
			s.state.MultiSelected[id] = true
		}
	}
	if s.onCluster != nil {
		s.onCluster(cluster, cluster.PointIDs)
	}
}

// Clear drops the current selection, notifying once if anything was
// selected.
func (s *SelectionController) Clear() {
	had := s.state.SelectedPointID != "" ||
		s.state.SelectedClusterID != "" ||
		len(s.state.MultiSelected) > 0
	s.state.SelectedPointID = ""
	s.state.SelectedClusterID = ""
	s.state.MultiSelected = map[string]bool{}
	if had {
		s.notifyPoint(nil, false)
	}
}

// notifyPoint fires the point-selected callback if registered.
func (s *SelectionController) notifyPoint(p *Point3D, selected bool) {
	if s.onPoint != nil {
		s.onPoint(p, selected)
	}
}
