package mirage

import "testing"

func TestHitTest_EmptyList(t *testing.T) {
	if hit := HitTest(nil, DefaultCamera(), 800, 600, 400, 300, false); hit != nil {
		t.Errorf("HitTest on empty list = %v, want nil", hit)
	}
}

func TestHitTest_NearestWithinRadius(t *testing.T) {
	cam := DefaultCamera()
	// With the default camera at (0,0,200) and zoom 1, a point at the origin
	// projects to the viewport center with perspective 400/600.
	points := []Point3D{
		{ID: "center", Position: V3(0, 0, 0), Size: 4},
		{ID: "offset", Position: V3(30, 0, 0), Size: 4},
	}

	t.Run("direct hit", func(t *testing.T) {
		hit := HitTest(points, cam, 800, 600, 400, 300, false)
		if hit == nil || hit.ID != "center" {
			t.Errorf("hit = %v, want center", hit)
		}
	})

	t.Run("miss outside radius", func(t *testing.T) {
		if hit := HitTest(points, cam, 800, 600, 600, 300, false); hit != nil {
			t.Errorf("hit = %v, want nil 200px away", hit.ID)
		}
	})

	t.Run("touch radius is wider", func(t *testing.T) {
		// Perspective 2 gives the point an 8px projected radius, so the
		// effective radius is 18px for mouse and 23px for touch. A click
		// 20px off center is hit only by touch.
		mouse := HitTest(points, cam, 800, 600, 400, 280, false)
		touch := HitTest(points, cam, 800, 600, 400, 280, true)
		if mouse != nil {
			t.Errorf("mouse hit at 20px = %v, want nil", mouse.ID)
		}
		if touch == nil || touch.ID != "center" {
			t.Errorf("touch hit at 20px = %v, want center", touch)
		}
	})
}

func TestHitTest_TiePrefersSmallerDepth(t *testing.T) {
	cam := DefaultCamera()
	// Both points sit on the view axis and project to the exact center; the
	// nearer one (smaller forward depth) must win.
	points := []Point3D{
		{ID: "far", Position: V3(0, 0, -100), Size: 4},
		{ID: "near", Position: V3(0, 0, 100), Size: 4},
	}
	hit := HitTest(points, cam, 800, 600, 400, 300, false)
	if hit == nil || hit.ID != "near" {
		t.Errorf("hit = %v, want near", hit)
	}
}

func TestSelectionController_ClickSelectToggleClear(t *testing.T) {
	cam := DefaultCamera()
	points := []Point3D{{ID: "p1", Position: V3(0, 0, 0), Size: 4}}

	s := NewSelectionController(true)
	type event struct {
		id       string
		selected bool
	}
	var events []event
	s.OnPointSelected(func(p *Point3D, selected bool) {
		id := ""
		if p != nil {
			id = p.ID
		}
		events = append(events, event{id, selected})
	})

	// Select.
	s.Click(points, cam, 800, 600, 400, 300, false)
	if s.State().SelectedPointID != "p1" {
		t.Fatalf("selected = %q, want p1", s.State().SelectedPointID)
	}

	// Clicking the same point toggles it off.
	s.Click(points, cam, 800, 600, 400, 300, false)
	if s.State().SelectedPointID != "" {
		t.Fatalf("selected = %q after toggle, want empty", s.State().SelectedPointID)
	}

	// Select again, then click empty space to clear.
	s.Click(points, cam, 800, 600, 400, 300, false)
	s.Click(points, cam, 800, 600, 700, 100, false)
	if s.State().SelectedPointID != "" {
		t.Fatalf("selected = %q after empty click, want empty", s.State().SelectedPointID)
	}

	want := []event{{"p1", true}, {"p1", false}, {"p1", true}, {"", false}}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestSelectionController_ClearOnEmptyIsSilent(t *testing.T) {
	s := NewSelectionController(true)
	calls := 0
	s.OnPointSelected(func(*Point3D, bool) { calls++ })
	s.Clear()
	if calls != 0 {
		t.Errorf("Clear with no selection fired %d callbacks, want 0", calls)
	}
}

func TestSelectionController_MultiSelect(t *testing.T) {
	cam := DefaultCamera()
	points := []Point3D{
		{ID: "a", Position: V3(0, 0, 0), Size: 4},
		{ID: "b", Position: V3(90, 0, 0), Size: 4},
	}
	s := NewSelectionController(true)
	s.SetMultiSelect(true)

	// Project b to find its screen position for the second click.
	bx, by, _, _ := Project(points[1].Position, cam, 800, 600)

	s.Click(points, cam, 800, 600, 400, 300, false)
	s.Click(points, cam, 800, 600, bx, by, false)
	st := s.State()
	if !st.MultiSelected["a"] || !st.MultiSelected["b"] {
		t.Fatalf("multi set = %v, want a and b", st.MultiSelected)
	}

	// Clicking a selected member removes it.
	s.Click(points, cam, 800, 600, 400, 300, false)
	if s.State().MultiSelected["a"] {
		t.Error("a still selected after toggle")
	}

	// Leaving multi-select clears the set.
	s.SetMultiSelect(false)
	if len(s.State().MultiSelected) != 0 {
		t.Errorf("multi set = %v after leaving multi-select", s.State().MultiSelected)
	}
}

func TestSelectionController_Hover(t *testing.T) {
	cam := DefaultCamera()
	points := []Point3D{{ID: "p1", Position: V3(0, 0, 0), Size: 4}}
	s := NewSelectionController(true)

	var notified []string
	s.OnHover(func(id string) { notified = append(notified, id) })

	s.Hover(points, cam, 800, 600, 400, 300, false)
	s.Hover(points, cam, 800, 600, 401, 300, false) // still the same point
	s.Hover(points, cam, 800, 600, 700, 100, false) // off the point
	s.Hover(points, cam, 800, 600, 710, 100, false) // still off

	want := []string{"p1", ""}
	if len(notified) != len(want) {
		t.Fatalf("hover notifications = %v, want %v", notified, want)
	}
	for i := range want {
		if notified[i] != want[i] {
			t.Errorf("notification %d = %q, want %q", i, notified[i], want[i])
		}
	}
}

func TestSelectionController_SelectCluster(t *testing.T) {
	s := NewSelectionController(true)
	s.SetMultiSelect(true)
	cluster := &Cluster{ID: "c1", PointIDs: []string{"a", "b", "c"}}

	var gotIDs []string
	s.OnClusterSelected(func(c *Cluster, ids []string) { gotIDs = ids })

	s.SelectCluster(cluster)
	st := s.State()
	if st.SelectedClusterID != "c1" {
		t.Errorf("SelectedClusterID = %q, want c1", st.SelectedClusterID)
	}
	for _, id := range cluster.PointIDs {
		if !st.MultiSelected[id] {
			t.Errorf("member %q missing from multi set", id)
		}
	}
	if len(gotIDs) != 3 {
		t.Errorf("callback ids = %v, want 3 members", gotIDs)
	}
}

func TestSelectionController_Disabled(t *testing.T) {
	cam := DefaultCamera()
	points := []Point3D{{ID: "p1", Position: V3(0, 0, 0), Size: 4}}
	s := NewSelectionController(false)
	s.Click(points, cam, 800, 600, 400, 300, false)
	s.Hover(points, cam, 800, 600, 400, 300, false)
	s.SelectCluster(&Cluster{ID: "c1"})
	st := s.State()
	if st.SelectedPointID != "" || st.HoveredPointID != "" || st.SelectedClusterID != "" {
		t.Errorf("disabled controller mutated state: %+v", st)
	}
}
