package mirage

import "time"

// AdaptiveConfig holds the hysteretic control loop's tuning. The multipliers
// and cooldowns are hand-tuned values carried over from production use, kept
// configurable rather than re-derived.
type AdaptiveConfig struct {
	// Interval between control-loop evaluations.
	Interval time.Duration

	// Reduce path: triggered when the average frame time exceeds the
	// budget or ReduceDropCount of the last ReduceDropWindow samples
	// dropped.
	ReduceDropWindow  int
	ReduceDropCount   int
	ReduceLODFactor   float64
	ReduceBudgetRatio float64
	LODFloor          float64
	BudgetFloor       int
	ReduceCooldown    time.Duration

	// Increase path: triggered when the average frame time is below
	// IncreaseHeadroom of budget with zero drops in the last
	// IncreaseDropWindow samples.
	IncreaseHeadroom    float64
	IncreaseDropWindow  int
	IncreaseLODFactor   float64
	IncreaseBudgetRatio float64
	LODCeil             float64
	BudgetCeil          int
	IncreaseCooldown    time.Duration
}

// DefaultAdaptiveConfig returns the production tuning.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		Interval:            time.Second,
		ReduceDropWindow:    10,
		ReduceDropCount:     3,
		ReduceLODFactor:     0.8,
		ReduceBudgetRatio:   0.7,
		LODFloor:            0.25,
		BudgetFloor:         5000,
		ReduceCooldown:      2 * time.Second,
		IncreaseHeadroom:    0.7,
		IncreaseDropWindow:  30,
		IncreaseLODFactor:   1.1,
		IncreaseBudgetRatio: 1.2,
		LODCeil:             1.0,
		BudgetCeil:          100000,
		IncreaseCooldown:    5 * time.Second,
	}
}

// QualityParams are the renderer knobs the control loop drives.
type QualityParams struct {
	LODScale    float64
	PointBudget int
}

// Adaptation describes a control-loop decision.
type Adaptation int

const (
	AdaptNone Adaptation = iota
	AdaptReduce
	AdaptIncrease
)

// AdaptiveQualityManager trades visual fidelity for frame-time budget with
// a hysteretic control loop: after any adaptation a cooldown blocks further
// adaptations in either direction, preventing oscillation between quality
// levels under noisy frame timing.
//
// The manager is evaluated on a fixed tick (AdaptiveConfig.Interval),
// independent of the render loop; it reads the monitor and writes only the
// quality params.
type AdaptiveQualityManager struct {
	cfg     AdaptiveConfig
	monitor *PerformanceMonitor
	params  QualityParams

	cooldownUntil time.Time
	adaptations   int

	now func() time.Time
}

// NewAdaptiveQualityManager creates a manager starting at full quality for
// the given point budget.
func NewAdaptiveQualityManager(cfg AdaptiveConfig, monitor *PerformanceMonitor, initialBudget int) *AdaptiveQualityManager {
	if cfg.Interval <= 0 {
		cfg = DefaultAdaptiveConfig()
	}
	if initialBudget <= 0 {
		initialBudget = cfg.BudgetCeil
	}
	return &AdaptiveQualityManager{
		cfg:     cfg,
		monitor: monitor,
		params: QualityParams{
			LODScale:    cfg.LODCeil,
			PointBudget: initialBudget,
		},
		now: time.Now,
	}
}

// Params returns the current quality parameters.
func (a *AdaptiveQualityManager) Params() QualityParams { return a.params }

// Adaptations returns how many adaptations have fired so far.
func (a *AdaptiveQualityManager) Adaptations() int { return a.adaptations }

// Evaluate runs one control-loop step and returns the decision. During a
// cooldown from a prior adaptation it always returns AdaptNone, even if the
// conditions for the opposite adaptation are met.
func (a *AdaptiveQualityManager) Evaluate() Adaptation {
	if a.monitor.SampleCount() == 0 {
		return AdaptNone
	}
	nowT := a.now()
	if nowT.Before(a.cooldownUntil) {
		return AdaptNone
	}

	budget := a.monitor.FrameBudgetMs()
	avg := a.monitor.AvgFrameTimeMs()

	if avg > budget || a.monitor.RecentDrops(a.cfg.ReduceDropWindow) >= a.cfg.ReduceDropCount {
		a.reduce(nowT, avg, budget)
		return AdaptReduce
	}

	if avg < budget*a.cfg.IncreaseHeadroom && a.monitor.RecentDrops(a.cfg.IncreaseDropWindow) == 0 {
		if a.params.LODScale >= a.cfg.LODCeil && a.params.PointBudget >= a.cfg.BudgetCeil {
			return AdaptNone // already at full quality, no cooldown burned
		}
		a.increase(nowT)
		return AdaptIncrease
	}

	return AdaptNone
}

// reduce lowers quality one notch and arms the reduce cooldown.
func (a *AdaptiveQualityManager) reduce(nowT time.Time, avg, budget float64) {
	a.params.LODScale *= a.cfg.ReduceLODFactor
	if a.params.LODScale < a.cfg.LODFloor {
		a.params.LODScale = a.cfg.LODFloor
	}
	a.params.PointBudget = int(float64(a.params.PointBudget) * a.cfg.ReduceBudgetRatio)
	if a.params.PointBudget < a.cfg.BudgetFloor {
		a.params.PointBudget = a.cfg.BudgetFloor
	}
	a.cooldownUntil = nowT.Add(a.cfg.ReduceCooldown)
	a.adaptations++
	Logger().Warn("quality reduced",
		"avgFrameMs", avg, "budgetMs", budget,
		"lodScale", a.params.LODScale, "pointBudget", a.params.PointBudget)
}

// increase raises quality one notch and arms the increase cooldown.
func (a *AdaptiveQualityManager) increase(nowT time.Time) {
	a.params.LODScale *= a.cfg.IncreaseLODFactor
	if a.params.LODScale > a.cfg.LODCeil {
		a.params.LODScale = a.cfg.LODCeil
	}
	a.params.PointBudget = int(float64(a.params.PointBudget) * a.cfg.IncreaseBudgetRatio)
	if a.params.PointBudget > a.cfg.BudgetCeil {
		a.params.PointBudget = a.cfg.BudgetCeil
	}
	a.cooldownUntil = nowT.Add(a.cfg.IncreaseCooldown)
	a.adaptations++
	Logger().Info("quality increased",
		"lodScale", a.params.LODScale, "pointBudget", a.params.PointBudget)
}
