package mirage

import (
	"testing"
	"time"
)

func newTestManager(t *testing.T, budget int) (*AdaptiveQualityManager, *PerformanceMonitor, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	monitor := NewPerformanceMonitor(60)
	mgr := NewAdaptiveQualityManager(DefaultAdaptiveConfig(), monitor, budget)
	mgr.now = clock.Now
	return mgr, monitor, clock
}

func feedFrames(m *PerformanceMonitor, n int, frameMs float64) {
	for i := 0; i < n; i++ {
		m.Sample(frameMs, 1000, 1000)
	}
}

func TestAdaptive_NoSamplesNoDecision(t *testing.T) {
	mgr, _, _ := newTestManager(t, 50000)
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Errorf("Evaluate on empty monitor = %v, want AdaptNone", got)
	}
	if mgr.Adaptations() != 0 {
		t.Errorf("Adaptations = %d, want 0", mgr.Adaptations())
	}
}

func TestAdaptive_ReduceOnOverBudget(t *testing.T) {
	mgr, monitor, _ := newTestManager(t, 50000)
	feedFrames(monitor, 60, 30) // well over the 16.67ms budget

	if got := mgr.Evaluate(); got != AdaptReduce {
		t.Fatalf("Evaluate = %v, want AdaptReduce", got)
	}
	p := mgr.Params()
	if !approxEq(p.LODScale, 0.8, 1e-12) {
		t.Errorf("LODScale = %v, want 0.8", p.LODScale)
	}
	if p.PointBudget != 35000 {
		t.Errorf("PointBudget = %d, want 35000", p.PointBudget)
	}
	if mgr.Adaptations() != 1 {
		t.Errorf("Adaptations = %d, want 1", mgr.Adaptations())
	}
}

func TestAdaptive_ReduceOnRecentDrops(t *testing.T) {
	mgr, monitor, _ := newTestManager(t, 50000)
	// Average stays under budget but three of the last ten frames dropped.
	feedFrames(monitor, 30, 5)
	monitor.Sample(40, 1000, 1000)
	monitor.Sample(40, 1000, 1000)
	monitor.Sample(40, 1000, 1000)
	feedFrames(monitor, 5, 5)

	if avg := monitor.AvgFrameTimeMs(); avg > monitor.FrameBudgetMs() {
		t.Fatalf("setup: average %v must stay under budget", avg)
	}
	if got := mgr.Evaluate(); got != AdaptReduce {
		t.Errorf("Evaluate = %v, want AdaptReduce on drop burst", got)
	}
}

func TestAdaptive_CooldownBlocksBothDirections(t *testing.T) {
	mgr, monitor, clock := newTestManager(t, 50000)
	feedFrames(monitor, 60, 30)
	if got := mgr.Evaluate(); got != AdaptReduce {
		t.Fatalf("Evaluate = %v, want AdaptReduce", got)
	}

	// Replace the window with fast, drop-free history: the conditions for an
	// increase now hold, but the reduce cooldown still blocks everything.
	monitor.Reset()
	feedFrames(monitor, 60, 5)

	clock.Advance(1900 * time.Millisecond)
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Errorf("Evaluate during cooldown = %v, want AdaptNone", got)
	}
	if mgr.Adaptations() != 1 {
		t.Errorf("Adaptations = %d during cooldown, want 1", mgr.Adaptations())
	}

	// After the 2s cooldown expires the increase path can fire.
	clock.Advance(200 * time.Millisecond)
	if got := mgr.Evaluate(); got != AdaptIncrease {
		t.Errorf("Evaluate after cooldown = %v, want AdaptIncrease", got)
	}
}

func TestAdaptive_IncreaseRestoresQuality(t *testing.T) {
	mgr, monitor, clock := newTestManager(t, 50000)

	// Drive quality down twice.
	feedFrames(monitor, 60, 30)
	mgr.Evaluate()
	clock.Advance(3 * time.Second)
	mgr.Evaluate()
	p := mgr.Params()
	if !approxEq(p.LODScale, 0.64, 1e-12) || p.PointBudget != 24500 {
		t.Fatalf("after two reductions: %+v", p)
	}

	// Fast, drop-free frames recover quality one notch per increase.
	monitor.Reset()
	feedFrames(monitor, 60, 5)
	clock.Advance(3 * time.Second)
	if got := mgr.Evaluate(); got != AdaptIncrease {
		t.Fatalf("Evaluate = %v, want AdaptIncrease", got)
	}
	p = mgr.Params()
	if !approxEq(p.LODScale, 0.704, 1e-12) {
		t.Errorf("LODScale = %v, want 0.704", p.LODScale)
	}
	if p.PointBudget != 29400 {
		t.Errorf("PointBudget = %d, want 29400", p.PointBudget)
	}

	// The increase cooldown is longer: 5s.
	clock.Advance(4 * time.Second)
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Errorf("Evaluate at 4s into increase cooldown = %v, want AdaptNone", got)
	}
	clock.Advance(2 * time.Second)
	if got := mgr.Evaluate(); got != AdaptIncrease {
		t.Errorf("Evaluate after increase cooldown = %v, want AdaptIncrease", got)
	}
}

func TestAdaptive_Floors(t *testing.T) {
	mgr, monitor, clock := newTestManager(t, 6000)
	feedFrames(monitor, 60, 50)

	// Repeated reductions must never go below the floors.
	for i := 0; i < 20; i++ {
		mgr.Evaluate()
		clock.Advance(3 * time.Second)
	}
	p := mgr.Params()
	if p.LODScale != 0.25 {
		t.Errorf("LODScale = %v, want floor 0.25", p.LODScale)
	}
	if p.PointBudget != 5000 {
		t.Errorf("PointBudget = %d, want floor 5000", p.PointBudget)
	}
}

func TestAdaptive_CeilingsWithoutCooldownBurn(t *testing.T) {
	mgr, monitor, clock := newTestManager(t, 100000)
	feedFrames(monitor, 60, 5)

	// Already at full quality: the increase path is a no-op and must not arm
	// a cooldown or count as an adaptation.
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Fatalf("Evaluate at ceiling = %v, want AdaptNone", got)
	}
	if mgr.Adaptations() != 0 {
		t.Errorf("Adaptations = %d at ceiling, want 0", mgr.Adaptations())
	}

	// A reduction right after must not be blocked by any phantom cooldown.
	monitor.Reset()
	feedFrames(monitor, 60, 50)
	clock.Advance(time.Millisecond)
	if got := mgr.Evaluate(); got != AdaptReduce {
		t.Errorf("Evaluate = %v, want AdaptReduce immediately after ceiling no-op", got)
	}
}

func TestAdaptive_IncreaseClampsAtCeilings(t *testing.T) {
	cfg := DefaultAdaptiveConfig()
	clock := newFakeClock()
	monitor := NewPerformanceMonitor(60)
	mgr := NewAdaptiveQualityManager(cfg, monitor, 95000)
	mgr.now = clock.Now
	mgr.params.LODScale = 0.95

	feedFrames(monitor, 60, 5)
	if got := mgr.Evaluate(); got != AdaptIncrease {
		t.Fatalf("Evaluate = %v, want AdaptIncrease", got)
	}
	p := mgr.Params()
	if p.LODScale != 1.0 {
		t.Errorf("LODScale = %v, want ceiling 1.0", p.LODScale)
	}
	if p.PointBudget != 100000 {
		t.Errorf("PointBudget = %d, want ceiling 100000", p.PointBudget)
	}
}

func TestAdaptive_ExactBudgetFramesKeepQuality(t *testing.T) {
	mgr, monitor, _ := newTestManager(t, 50000)
	// A rock-steady 60fps stream lands exactly on the 16.67ms budget. That
	// must read as zero drops and no quality reduction.
	feedFrames(monitor, 60, 16.67)
	if drops := monitor.FrameDrops(); drops != 0 {
		t.Fatalf("FrameDrops = %d at exact budget, want 0", drops)
	}
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Errorf("Evaluate = %v at exact budget, want AdaptNone", got)
	}
	p := mgr.Params()
	if p.LODScale != 1.0 || p.PointBudget != 50000 {
		t.Errorf("params drifted at exact budget: %+v", p)
	}
}

func TestAdaptive_SteadyStateUntouched(t *testing.T) {
	mgr, monitor, _ := newTestManager(t, 50000)
	// Frame time between the 70% headroom line (11.67ms) and the budget
	// (16.67ms): neither path triggers.
	feedFrames(monitor, 60, 14)
	if got := mgr.Evaluate(); got != AdaptNone {
		t.Errorf("Evaluate = %v, want AdaptNone in the dead band", got)
	}
	p := mgr.Params()
	if p.LODScale != 1.0 || p.PointBudget != 50000 {
		t.Errorf("params drifted in steady state: %+v", p)
	}
}
