package mirage

import (
	"errors"
	"sync"
	"time"
)

// Registered renderer names.
const (
	// RendererCanvas is the software canvas renderer. Always available.
	RendererCanvas = "canvas"

	// RendererGPU is the hardware-accelerated renderer. Registered by a
	// future GPU backend package; requesting it while unregistered (or when
	// the device probe found no GPU) silently falls back to canvas.
	RendererGPU = "gpu"
)

// Common renderer errors.
var (
	// ErrNotInitialized is returned by operations invoked before Init or
	// after Dispose. Always fatal to that call, never silently ignored.
	ErrNotInitialized = errors.New("mirage: renderer not initialized")

	// ErrAlreadyInitialized is returned when Init is called twice on the
	// same instance. Renderers are single-lifecycle: create a new one.
	ErrAlreadyInitialized = errors.New("mirage: renderer already initialized")

	// ErrInvalidDimensions is returned when a viewport has a non-positive
	// width or height.
	ErrInvalidDimensions = errors.New("mirage: invalid viewport dimensions")

	// ErrRendererUnavailable is returned when no renderer can be created
	// at all (registry empty). Distinct from the gpu→canvas fallback,
	// which is a degradation, not an error.
	ErrRendererUnavailable = errors.New("mirage: no renderer available")
)

// RendererContext aggregates everything a renderer needs at Init: the
// viewport and the immutable render configuration. It is created once per
// renderer lifecycle and mutated only through Resize/Render calls; it is
// never shared across renderer instances.
type RendererContext struct {
	Viewport ViewportDimensions
	Config   Config
}

// RenderStats are the renderer-owned rolling counters, updated every frame
// and reset only via the performance monitor's explicit Reset.
type RenderStats struct {
	// FPS over a one-second rolling window.
	FPS float64

	// FrameTime is the duration of the last render call.
	FrameTime time.Duration

	// PointsRendered and PointsCulled count the last frame's points.
	PointsRendered int
	PointsCulled   int

	// TotalPoints is the size of the last input list.
	TotalPoints int
}

// Renderer is the lifecycle contract shared by all rendering backends.
//
// Lifecycle: Uninitialized → Initialized → Disposed (terminal). Init may be
// called once per instance; Render, Resize and Stats return
// ErrNotInitialized outside the Initialized state; Dispose is idempotent.
//
// The camera argument to Render is a value snapshot: renderers never see
// camera mutations mid-frame. The points slice is borrowed for the duration
// of the call and must not be retained.
//
// Renderers are not safe for concurrent use; the engine drives them from a
// single cooperative frame loop.
type Renderer interface {
	// Name returns the registry name of this renderer.
	Name() string

	// Init acquires drawing surfaces and applies the performance-mode
	// limits from the context's config. Returns ErrAlreadyInitialized on a
	// second call and ErrNotInitialized after Dispose.
	Init(ctx RendererContext) error

	// Render draws one frame of the point cloud under the given camera.
	Render(points []Point3D, clusters []Cluster, cam Camera) error

	// Resize re-sizes the backing surfaces for new viewport dimensions and
	// invalidates every size-keyed cache.
	Resize(viewport ViewportDimensions) error

	// Stats returns the rolling render statistics.
	Stats() (RenderStats, error)

	// SupportsFeature is a pure query against the renderer's fixed
	// capability set. Valid in any lifecycle state.
	SupportsFeature(f Feature) bool

	// Dispose releases all retained surfaces and caches. Safe to call
	// twice; the second call is a no-op, never an error.
	Dispose()
}

// RendererFactory creates a renderer instance.
type RendererFactory func() Renderer

var (
	rendererMu sync.RWMutex
	renderers  = map[string]RendererFactory{}

	// Fallback order for renderer selection: GPU first when registered,
	// canvas as the universal fallback.
	rendererPriority = []string{RendererGPU, RendererCanvas}
)

func init() {
	RegisterRenderer(RendererCanvas, func() Renderer { return NewCanvasRenderer() })
}

// RegisterRenderer registers a renderer factory under a name. A future GPU
// backend package registers itself from its init function; registering an
// existing name replaces the previous factory.
func RegisterRenderer(name string, factory RendererFactory) {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	renderers[name] = factory
}

// RegisteredRenderers returns the names of all registered renderers.
func RegisteredRenderers() []string {
	rendererMu.RLock()
	defer rendererMu.RUnlock()
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	return names
}

// NewRenderer returns a renderer for the requested name, falling back down
// the priority order when the name is unknown or unregistered. The fallback
// is a logged degradation, not an error; ErrRendererUnavailable is returned
// only when the registry is empty.
func NewRenderer(name string) (Renderer, error) {
	rendererMu.RLock()
	defer rendererMu.RUnlock()

	if factory, ok := renderers[name]; ok {
		return factory(), nil
	}

	for _, candidate := range rendererPriority {
		factory, ok := renderers[candidate]
		if !ok {
			continue
		}
		Logger().Warn("requested renderer unavailable, falling back",
			"requested", name, "using", candidate)
		return factory(), nil
	}

	return nil, ErrRendererUnavailable
}
