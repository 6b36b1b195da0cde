package mirage

import (
	"fmt"
	"image"
	"time"
)

// metricsPublishInterval is how often the engine publishes a metrics
// snapshot to the host.
const metricsPublishInterval = 2 * time.Second

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithRendererInstance injects a pre-built renderer, bypassing the
// registry. Used by tests and by hosts composing their own backend.
func WithRendererInstance(r Renderer) EngineOption {
	return func(e *Engine) { e.renderer = r }
}

// WithAdaptiveConfig overrides the adaptive quality tuning.
func WithAdaptiveConfig(cfg AdaptiveConfig) EngineOption {
	return func(e *Engine) { e.adaptiveCfg = cfg }
}

// WithTargetFPS overrides the frame-rate target scored by the performance
// monitor.
func WithTargetFPS(fps float64) EngineOption {
	return func(e *Engine) { e.targetFPS = fps }
}

// WithClock injects a time source for deterministic tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// qualityAdjuster is implemented by renderers whose fidelity the adaptive
// manager can drive.
type qualityAdjuster interface {
	SetQuality(lodScale float64, pointBudget int)
}

// frameSource is implemented by renderers that expose their visible surface
// for host blits.
type frameSource interface {
	Frame() *image.RGBA
}

// Engine wires the renderer, camera controller, selection controller and
// performance machinery into one cooperative per-frame loop. The host calls
// Step once per displayed frame; everything inside a step runs
// synchronously, so no two operations ever mutate shared state
// concurrently. The adaptive-quality tick (1s) and the metrics-publish tick
// (2s) are timestamp checks inside Step, not timers, which keeps teardown
// trivial and the loop single-threaded.
type Engine struct {
	cfg         Config
	interaction InteractionConfig
	viewport    ViewportDimensions

	renderer  Renderer
	camera    *CameraController
	selection *SelectionController
	monitor   *PerformanceMonitor
	adaptive  *AdaptiveQualityManager

	adaptiveCfg AdaptiveConfig
	targetFPS   float64

	data PointCloud

	lastAdaptTick   time.Time
	lastMetricsTick time.Time

	// err is the latched render error. Once set, Step refuses to run until
	// ClearError: a broken surface must not spam one failure per frame.
	err      error
	disposed bool

	onMetrics func(PerformanceMetrics)
	onError   func(error)

	now func() time.Time
}

// NewEngine builds and initializes an engine for the given configuration
// and viewport. The requested renderer is resolved through the registry;
// requesting the GPU renderer without GPU capability is a logged fallback
// to canvas, not an error.
func NewEngine(cfg Config, interaction InteractionConfig, viewport ViewportDimensions, opts ...EngineOption) (*Engine, error) {
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:         cfg,
		interaction: interaction,
		viewport:    viewport,
		adaptiveCfg: DefaultAdaptiveConfig(),
		targetFPS:   DefaultTargetFPS,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.renderer == nil {
		requested := cfg.Renderer
		if requested == RendererGPU && !DefaultProbe().GPUAvailable() {
			Logger().Warn("gpu renderer requested without gpu capability, using canvas")
			requested = RendererCanvas
		}
		r, err := NewRenderer(requested)
		if err != nil {
			return nil, err
		}
		e.renderer = r
	}

	if err := e.renderer.Init(RendererContext{Viewport: viewport, Config: cfg}); err != nil {
		return nil, fmt.Errorf("mirage: engine init: %w", err)
	}

	e.camera = NewCameraController(interaction)
	e.camera.now = e.now
	e.selection = NewSelectionController(interaction.EnableSelection && cfg.hasFeature(FeatureSelection))
	e.monitor = NewPerformanceMonitor(e.targetFPS)
	initialBudget, _ := ModeLimits(cfg.Performance)
	if cfg.MaxPoints > 0 && cfg.MaxPoints < initialBudget {
		initialBudget = cfg.MaxPoints
	}
	e.adaptive = NewAdaptiveQualityManager(e.adaptiveCfg, e.monitor, initialBudget)
	e.adaptive.now = e.now

	start := e.now()
	e.lastAdaptTick = start
	e.lastMetricsTick = start

	Logger().Info("engine ready", "renderer", e.renderer.Name(), "mode", cfg.Performance)
	return e, nil
}

// SetData replaces the point cloud wholesale. Nothing derived from the
// previous list survives: per-point screen data is recomputed from the new
// list on the next frame. An explicit anomaly id list sets the flags on
// matching points when the anomalies feature is enabled.
func (e *Engine) SetData(cloud PointCloud) {
	if len(cloud.Anomalies) > 0 && e.cfg.hasFeature(FeatureAnomalies) {
		flagged := make(map[string]bool, len(cloud.Anomalies))
		for _, id := range cloud.Anomalies {
			flagged[id] = true
		}
		for i := range cloud.Points {
			if flagged[cloud.Points[i].ID] {
				cloud.Points[i].IsAnomaly = true
			}
		}
	}
	e.data = cloud
}

// Data returns the current point cloud.
func (e *Engine) Data() PointCloud { return e.data }

// Camera returns the current camera snapshot.
func (e *Engine) Camera() Camera { return e.camera.Camera() }

// CameraController exposes the camera controller for hosts that map their
// own input events.
func (e *Engine) CameraController() *CameraController { return e.camera }

// Selection returns the current selection snapshot.
func (e *Engine) Selection() SelectionState { return e.selection.State() }

// SelectionController exposes the selection controller.
func (e *Engine) SelectionController() *SelectionController { return e.selection }

// OnCameraChanged registers the camera-changed callback, fired at most once
// per frame when the pose moved.
func (e *Engine) OnCameraChanged(fn func(Camera)) { e.camera.OnChange(fn) }

// OnPointSelected registers the point selection callback.
func (e *Engine) OnPointSelected(fn func(point *Point3D, selected bool)) {
	e.selection.OnPointSelected(fn)
}

// OnClusterSelected registers the cluster selection callback.
func (e *Engine) OnClusterSelected(fn func(cluster *Cluster, pointIDs []string)) {
	e.selection.OnClusterSelected(fn)
}

// OnMetrics registers the metrics callback, fired every 2 seconds from
// inside Step.
func (e *Engine) OnMetrics(fn func(PerformanceMetrics)) { e.onMetrics = fn }

// OnError registers the error callback, fired once when a render error
// latches the engine into its terminal error state.
func (e *Engine) OnError(fn func(error)) { e.onError = fn }

// Err returns the latched render error, nil while healthy.
func (e *Engine) Err() error { return e.err }

// ClearError clears the latched error state so stepping can resume: the
// retry affordance for hosts after e.g. re-creating their surface.
func (e *Engine) ClearError() { e.err = nil }

// Step runs one cooperative frame: advance the camera, render, sample
// stats, and service the adaptive-quality and metrics ticks. Returns the
// latched error when the engine is in its error state.
func (e *Engine) Step() error {
	if e.disposed {
		return ErrNotInitialized
	}
	if e.err != nil {
		return e.err
	}

	e.camera.Step()
	cam := e.camera.Camera()

	if err := e.renderer.Render(e.data.Points, e.data.Clusters, cam); err != nil {
		e.err = fmt.Errorf("mirage: render failed: %w", err)
		Logger().Warn("render loop stopped", "err", err)
		if e.onError != nil {
			e.onError(e.err)
		}
		return e.err
	}

	stats, err := e.renderer.Stats()
	if err != nil {
		e.err = err
		return e.err
	}
	e.monitor.Sample(stats.FrameTime.Seconds()*1000, stats.PointsRendered, stats.TotalPoints)

	nowT := e.now()
	if nowT.Sub(e.lastAdaptTick) >= e.adaptiveCfg.Interval {
		e.lastAdaptTick = nowT
		if e.adaptive.Evaluate() != AdaptNone {
			if qa, ok := e.renderer.(qualityAdjuster); ok {
				params := e.adaptive.Params()
				qa.SetQuality(params.LODScale, params.PointBudget)
			}
		}
	}

	if nowT.Sub(e.lastMetricsTick) >= metricsPublishInterval {
		e.lastMetricsTick = nowT
		if e.onMetrics != nil {
			e.onMetrics(e.Metrics())
		}
	}

	return nil
}

// Metrics returns the current performance snapshot, including the adaptive
// quality parameters in effect.
func (e *Engine) Metrics() PerformanceMetrics {
	m := e.monitor.Metrics()
	params := e.adaptive.Params()
	m.LODScale = params.LODScale
	m.PointBudget = params.PointBudget
	m.AdaptationCount = e.adaptive.Adaptations()
	return m
}

// Stats returns the renderer's rolling statistics.
func (e *Engine) Stats() (RenderStats, error) { return e.renderer.Stats() }

// Frame returns the rendered frame image when the active renderer exposes
// one, nil otherwise.
func (e *Engine) Frame() *image.RGBA {
	if fs, ok := e.renderer.(frameSource); ok {
		return fs.Frame()
	}
	return nil
}

// Resize notifies the engine of new viewport dimensions. The engine never
// polls for size changes; hosts must call this.
func (e *Engine) Resize(viewport ViewportDimensions) error {
	if e.disposed {
		return ErrNotInitialized
	}
	if err := e.renderer.Resize(viewport); err != nil {
		return err
	}
	e.viewport = viewport
	return nil
}

// Viewport returns the current viewport dimensions.
func (e *Engine) Viewport() ViewportDimensions { return e.viewport }

// PointerDown forwards a pointer press to the camera controller.
func (e *Engine) PointerDown(x, y float64, touch bool) { e.camera.PointerDown(x, y, touch) }

// PointerMove forwards pointer movement: drags rotate the camera, idle
// movement updates the hover state.
func (e *Engine) PointerMove(x, y float64, touch bool) {
	if e.camera.dragging {
		e.camera.PointerMove(x, y)
		return
	}
	e.selection.Hover(e.data.Points, e.camera.Camera(), e.viewport.Width, e.viewport.Height, x, y, touch)
}

// PointerUp forwards a pointer release.
func (e *Engine) PointerUp() { e.camera.PointerUp() }

// Click resolves a click/tap against the current points.
func (e *Engine) Click(x, y float64, touch bool) {
	e.selection.Click(e.data.Points, e.camera.Camera(), e.viewport.Width, e.viewport.Height, x, y, touch)
}

// Wheel forwards a zoom delta.
func (e *Engine) Wheel(delta float64) { e.camera.Zoom(delta) }

// Press forwards a keyboard shortcut.
func (e *Engine) Press(key Key) { e.camera.Press(key) }

// Dispose tears the engine down: the renderer releases its surfaces and
// further Step/Resize calls return ErrNotInitialized. Idempotent.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.renderer.Dispose()
	e.disposed = true
}
