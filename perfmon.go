package mirage

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ringSize is the number of frame-time samples retained for the rolling
// statistics. At 60fps this is one second of history.
const ringSize = 60

// DefaultTargetFPS is the frame-rate budget the monitor scores against.
const DefaultTargetFPS = 60.0

// PerformanceMetrics is the published snapshot of the monitor's rolling
// state, recomputed on demand from the sample ring.
type PerformanceMetrics struct {
	AvgFPS          float64
	AvgFrameTimeMs  float64
	FrameDrops      int
	FrameDropRate   float64
	VisiblePoints   int
	TotalPoints     int
	Score           float64
	LODScale        float64
	PointBudget     int
	AdaptationCount int
}

// PerformanceMonitor samples frame time and render counts every frame into
// a fixed-size ring buffer. A sample exceeding the per-frame budget
// (1000/targetFPS ms, rounded to hundredths) counts as a dropped frame.
//
// The monitor is owned by the engine and written only from the frame loop;
// the adaptive-quality and metrics-publish ticks only read it.
type PerformanceMonitor struct {
	targetFPS float64

	samples [ringSize]float64 // frame times, ms
	next    int               // ring write position
	filled  int               // number of valid samples, up to ringSize

	totalSamples int
	drops        int // cumulative dropped frames

	visible int
	total   int
}

// NewPerformanceMonitor creates a monitor for the given FPS target.
// Non-positive targets fall back to DefaultTargetFPS.
func NewPerformanceMonitor(targetFPS float64) *PerformanceMonitor {
	if targetFPS <= 0 {
		targetFPS = DefaultTargetFPS
	}
	return &PerformanceMonitor{targetFPS: targetFPS}
}

// TargetFPS returns the configured frame-rate target.
func (m *PerformanceMonitor) TargetFPS() float64 { return m.targetFPS }

// FrameBudgetMs returns the per-frame time budget in milliseconds, rounded
// to hundredths so a frame measured at the nominal budget (16.67ms at 60fps)
// does not register as a drop.
func (m *PerformanceMonitor) FrameBudgetMs() float64 {
	return math.Round(100000/m.targetFPS) / 100
}

// Sample records one frame: its duration in milliseconds and the visible /
// total point counts from the renderer stats.
func (m *PerformanceMonitor) Sample(frameTimeMs float64, visible, total int) {
	if frameTimeMs < 0 {
		frameTimeMs = 0
	}
	m.samples[m.next] = frameTimeMs
	m.next = (m.next + 1) % ringSize
	if m.filled < ringSize {
		m.filled++
	}
	m.totalSamples++
	if frameTimeMs > m.FrameBudgetMs() {
		m.drops++
	}
	m.visible = visible
	m.total = total
}

// AvgFrameTimeMs returns the mean of the retained samples, 0 when empty.
func (m *PerformanceMonitor) AvgFrameTimeMs() float64 {
	if m.filled == 0 {
		return 0
	}
	return stat.Mean(m.window(), nil)
}

// AvgFPS derives the average frame rate from the mean frame time.
func (m *PerformanceMonitor) AvgFPS() float64 {
	avg := m.AvgFrameTimeMs()
	if avg <= 0 {
		return 0
	}
	return 1000 / avg
}

// FrameDrops returns the cumulative dropped-frame count.
func (m *PerformanceMonitor) FrameDrops() int { return m.drops }

// RecentDrops counts how many of the last n samples exceeded the budget.
// n is capped at the number of retained samples.
func (m *PerformanceMonitor) RecentDrops(n int) int {
	if n > m.filled {
		n = m.filled
	}
	budget := m.FrameBudgetMs()
	drops := 0
	for i := 1; i <= n; i++ {
		idx := (m.next - i + ringSize) % ringSize
		if m.samples[idx] > budget {
			drops++
		}
	}
	return drops
}

// SampleCount returns how many samples have ever been recorded.
func (m *PerformanceMonitor) SampleCount() int { return m.totalSamples }

// Score computes the composite performance score in [0, 100]:
// half from frame rate against target, 30% from the drop rate, 20% from the
// visible/total point ratio.
func (m *PerformanceMonitor) Score() float64 {
	if m.filled == 0 {
		return 100
	}

	fpsPart := m.AvgFPS() / m.targetFPS * 100
	if fpsPart > 100 {
		fpsPart = 100
	}

	dropRate := 0.0
	if m.totalSamples > 0 {
		dropRate = float64(m.drops) / float64(m.totalSamples)
	}
	dropPart := 100 - dropRate*1000
	if dropPart < 0 {
		dropPart = 0
	}

	ratioPart := 100.0
	if m.total > 0 {
		ratioPart = float64(m.visible) / float64(m.total) * 100
	}

	score := 0.5*fpsPart + 0.3*dropPart + 0.2*ratioPart
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Metrics builds the published snapshot.
func (m *PerformanceMonitor) Metrics() PerformanceMetrics {
	dropRate := 0.0
	if m.totalSamples > 0 {
		dropRate = float64(m.drops) / float64(m.totalSamples)
	}
	return PerformanceMetrics{
		AvgFPS:         m.AvgFPS(),
		AvgFrameTimeMs: m.AvgFrameTimeMs(),
		FrameDrops:     m.drops,
		FrameDropRate:  dropRate,
		VisiblePoints:  m.visible,
		TotalPoints:    m.total,
		Score:          m.Score(),
	}
}

// Reset clears all samples and counters. The only way the counters reset;
// nothing resets implicitly.
func (m *PerformanceMonitor) Reset() {
	*m = PerformanceMonitor{targetFPS: m.targetFPS}
}

// window returns the retained samples as a flat slice for gonum.
func (m *PerformanceMonitor) window() []float64 {
	out := make([]float64, m.filled)
	for i := 0; i < m.filled; i++ {
		idx := (m.next - m.filled + i + ringSize) % ringSize
		out[i] = m.samples[idx]
	}
	return out
}
