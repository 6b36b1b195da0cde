package mirage

// PerformanceMode selects the renderer's fidelity/throughput trade-off.
type PerformanceMode string

const (
	// PerformanceHigh renders every point with no LOD reduction.
	PerformanceHigh PerformanceMode = "high"

	// PerformanceBalanced is the default: generous point budget with LOD.
	PerformanceBalanced PerformanceMode = "balanced"

	// PerformanceMobile targets low-power devices: tight point budget,
	// aggressive LOD, far points skipped entirely.
	PerformanceMobile PerformanceMode = "mobile"
)

// modeLimits is the per-mode point budget / LOD table.
var modeLimits = map[PerformanceMode]struct {
	maxPoints  int
	lodEnabled bool
}{
	PerformanceHigh:     {maxPoints: 100000, lodEnabled: false},
	PerformanceBalanced: {maxPoints: 50000, lodEnabled: true},
	PerformanceMobile:   {maxPoints: 10000, lodEnabled: true},
}

// ModeLimits returns the point budget and LOD flag for a performance mode.
// Unknown modes resolve to balanced.
func ModeLimits(mode PerformanceMode) (maxPoints int, lodEnabled bool) {
	l, ok := modeLimits[mode]
	if !ok {
		l = modeLimits[PerformanceBalanced]
	}
	return l.maxPoints, l.lodEnabled
}

// Feature is an optional engine capability toggled through Config.Features.
type Feature string

const (
	FeatureClustering  Feature = "clustering"
	FeatureAnomalies   Feature = "anomalies"
	FeatureSelection   Feature = "selection"
	FeatureAnimation   Feature = "animation"
	FeatureConnections Feature = "connections"
	FeatureMinimap     Feature = "minimap"
	FeatureLegend      Feature = "legend"
	FeatureStats       Feature = "stats"
)

// knownFeatures is the fixed capability set queried by SupportsFeature.
var knownFeatures = map[Feature]bool{
	FeatureClustering:  true,
	FeatureAnomalies:   true,
	FeatureSelection:   true,
	FeatureAnimation:   true,
	FeatureConnections: true,
	FeatureMinimap:     true,
	FeatureLegend:      true,
	FeatureStats:       true,
}

// Config is the engine/renderer configuration supplied by the host.
// The zero value is usable: withDefaults fills every unset field.
type Config struct {
	// Renderer names the registered renderer to use: RendererGPU or
	// RendererCanvas. Requesting RendererGPU when no GPU capability is
	// available is not an error; the engine logs and falls back to canvas.
	Renderer string

	// Performance selects the fidelity mode (see PerformanceMode).
	Performance PerformanceMode

	// Features enables optional capabilities. Nil means the default set
	// (clustering, anomalies, selection, animation).
	Features []Feature

	// MaxPoints overrides the mode's point budget when > 0.
	MaxPoints int

	// LODThreshold overrides the near-LOD distance when > 0; the mid
	// threshold scales with it, keeping the default 3x ratio. Zero keeps
	// the default thresholds.
	LODThreshold float64

	// FrustumCulling toggles distance/screen culling. Defaults to on;
	// set DisableFrustumCulling to turn it off.
	DisableFrustumCulling bool

	// Antialiasing requests smoothed point edges where the renderer
	// supports it.
	Antialiasing bool
}

// InteractionConfig toggles the input behaviors of the camera and selection
// controllers.
type InteractionConfig struct {
	EnableRotation    bool
	EnableZoom        bool
	EnablePan         bool
	EnableSelection   bool
	AutoRotate        bool
	TouchGestures     bool
	KeyboardShortcuts bool
}

// DefaultInteraction returns the interaction config used when the host
// passes the zero value: everything on.
func DefaultInteraction() InteractionConfig {
	return InteractionConfig{
		EnableRotation:    true,
		EnableZoom:        true,
		EnablePan:         true,
		EnableSelection:   true,
		AutoRotate:        true,
		TouchGestures:     true,
		KeyboardShortcuts: true,
	}
}

// withDefaults returns the config with unset fields resolved.
func (c Config) withDefaults() Config {
	if c.Renderer == "" {
		c.Renderer = RendererCanvas
	}
	if c.Performance == "" {
		c.Performance = PerformanceBalanced
	}
	if c.Features == nil {
		c.Features = []Feature{
			FeatureClustering, FeatureAnomalies,
			FeatureSelection, FeatureAnimation,
		}
	}
	if c.MaxPoints <= 0 {
		c.MaxPoints, _ = ModeLimits(c.Performance)
	}
	return c
}

// hasFeature reports whether a feature is enabled in the config.
func (c Config) hasFeature(f Feature) bool {
	for _, have := range c.Features {
		if have == f {
			return true
		}
	}
	return false
}
