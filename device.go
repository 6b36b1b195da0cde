package mirage

import (
	"runtime"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
// The engine never creates a GPU device of its own; hosts that have one
// (e.g. an ebiten or gogpu window) pass their provider in, and the probe
// only inspects it. DeviceHandle is an alias for gpucontext.DeviceProvider
// so any provider from that ecosystem plugs in directly.
type DeviceHandle = gpucontext.DeviceProvider

// DeviceCapabilities describes what a probed GPU device supports. Reported
// by providers implementing CapabilityReporter; absent fields stay zero.
type DeviceCapabilities struct {
	MaxTextureSize          uint32
	MaxBindGroups           uint32
	SupportsCompute         bool
	SupportsStorageTextures bool
	VendorName              string
	DeviceName              string
}

// CapabilityReporter is an optional interface for device handles that can
// enumerate their capabilities.
type CapabilityReporter interface {
	Capabilities() DeviceCapabilities
}

// DeviceClass is the coarse hardware classification used to pick defaults.
type DeviceClass string

const (
	DeviceHighEnd  DeviceClass = "high-end"
	DeviceMidRange DeviceClass = "mid-range"
	DeviceLowEnd   DeviceClass = "low-end"
)

// DeviceInfo is the cached result of a device probe.
type DeviceInfo struct {
	Class        DeviceClass
	CPUCores     int
	MemoryGB     float64
	GPUAvailable bool
	Extensions   int
	Score        float64
}

// ProbeOptions configures a device probe. The zero value probes the local
// machine with no GPU handle.
type ProbeOptions struct {
	// Handle is the host's GPU provider, nil when the host has none.
	Handle DeviceHandle

	// CPUCores overrides runtime.NumCPU when > 0 (tests, containers with
	// misleading core counts).
	CPUCores int

	// MemoryGB is the reported device memory. Zero means unknown, scored
	// as a conservative 4 GB.
	MemoryGB float64
}

// Classification score weights and thresholds.
const (
	probeScoreHighEnd  = 70
	probeScoreMidRange = 40

	probeReleaseDelay = 100 * time.Millisecond
)

// probeContext is the drawing context created to exercise surface
// acquisition during a probe. It must never outlive the probe: Release
// zeroes the backing dimensions so the memory goes immediately, and it runs
// both on the deferred schedule after classification and on Dispose.
type probeContext struct {
	surface *Surface
}

func newProbeContext() *probeContext {
	s, err := NewSurface(ViewportDimensions{Width: 1, Height: 1, DPR: 1})
	if err != nil {
		return nil
	}
	return &probeContext{surface: s}
}

// Release tears the probing context down. Safe to call twice.
func (p *probeContext) Release() {
	if p.surface != nil {
		p.surface.Release()
		p.surface = nil
	}
}

// DeviceProbe classifies the hardware once and caches the result. It is an
// explicit singleton: the first Detect call performs detection, Dispose
// releases probing resources and clears the cache, and nothing re-detects
// without an explicit Reset.
type DeviceProbe struct {
	mu       sync.Mutex
	detected bool
	info     DeviceInfo

	probe   *probeContext
	release *time.Timer
}

var defaultProbe DeviceProbe

// DefaultProbe returns the process-wide probe singleton.
func DefaultProbe() *DeviceProbe { return &defaultProbe }

// Detect classifies the device, caching the result: subsequent calls return
// the cached info regardless of options. The probing context created during
// detection is released on a short deferred schedule once classification
// completes, and again (idempotently) by Dispose.
func (d *DeviceProbe) Detect(opts ProbeOptions) DeviceInfo {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.detected {
		return d.info
	}

	cores := opts.CPUCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	memory := opts.MemoryGB
	if memory <= 0 {
		memory = 4
	}

	gpuAvailable, extensions := probeGPU(opts.Handle)

	d.probe = newProbeContext()
	d.release = time.AfterFunc(probeReleaseDelay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.probe != nil {
			d.probe.Release()
			d.probe = nil
		}
	})

	score := classifyScore(cores, memory, extensions)
	info := DeviceInfo{
		CPUCores:     cores,
		MemoryGB:     memory,
		GPUAvailable: gpuAvailable,
		Extensions:   extensions,
		Score:        score,
	}
	switch {
	case score >= probeScoreHighEnd:
		info.Class = DeviceHighEnd
	case score >= probeScoreMidRange:
		info.Class = DeviceMidRange
	default:
		info.Class = DeviceLowEnd
	}

	d.info = info
	d.detected = true
	Logger().Info("device classified",
		"class", info.Class, "cores", cores, "memoryGB", memory,
		"gpu", gpuAvailable, "extensions", extensions, "score", score)
	return info
}

// GPUAvailable reports the cached GPU availability; false before Detect.
func (d *DeviceProbe) GPUAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detected && d.info.GPUAvailable
}

// Dispose releases any probing resources still held and clears the cached
// classification. Idempotent.
func (d *DeviceProbe) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.release != nil {
		d.release.Stop()
		d.release = nil
	}
	if d.probe != nil {
		d.probe.Release()
		d.probe = nil
	}
	d.detected = false
	d.info = DeviceInfo{}
}

// Reset clears the cached classification so the next Detect re-probes.
// Unlike Dispose it leaves nothing to release; it exists so hosts can
// re-classify after docking/undocking style hardware changes.
func (d *DeviceProbe) Reset() {
	d.Dispose()
}

// probeGPU inspects the host's device handle: whether a device exists and
// an extension count proxy derived from its reported capabilities.
func probeGPU(handle DeviceHandle) (available bool, extensions int) {
	if handle == nil {
		return false, 0
	}
	if handle.Device() == nil {
		return false, 0
	}
	available = true
	extensions = 8 // baseline for any working device

	if handle.SurfaceFormat() != gputypes.TextureFormatUndefined {
		extensions += 2
	}
	if reporter, ok := handle.(CapabilityReporter); ok {
		caps := reporter.Capabilities()
		if caps.SupportsCompute {
			extensions += 4
		}
		if caps.SupportsStorageTextures {
			extensions += 4
		}
		if caps.MaxBindGroups > 4 {
			extensions += 2
		}
		if caps.MaxTextureSize >= 8192 {
			extensions += 2
		}
	}
	return available, extensions
}

// classifyScore computes the weighted capability score in [0, 100]:
// 40% CPU cores (saturating at 16), 30% memory (saturating at 16 GB),
// 30% graphics extensions (saturating at 20).
func classifyScore(cores int, memoryGB float64, extensions int) float64 {
	coresPart := float64(cores) / 16
	if coresPart > 1 {
		coresPart = 1
	}
	memPart := memoryGB / 16
	if memPart > 1 {
		memPart = 1
	}
	extPart := float64(extensions) / 20
	if extPart > 1 {
		extPart = 1
	}
	return coresPart*40 + memPart*30 + extPart*30
}

// RecommendedSettings maps a device class and form factor to renderer
// defaults. Pure function of its inputs.
func RecommendedSettings(info DeviceInfo, mobile bool) Config {
	if mobile {
		cfg := Config{
			Performance:  PerformanceMobile,
			Antialiasing: false,
		}
		if info.Class == DeviceHighEnd {
			cfg.Performance = PerformanceBalanced
			cfg.Antialiasing = true
		}
		cfg.MaxPoints, _ = ModeLimits(cfg.Performance)
		return cfg
	}

	var cfg Config
	switch info.Class {
	case DeviceHighEnd:
		cfg.Performance = PerformanceHigh
		cfg.Antialiasing = true
	case DeviceMidRange:
		cfg.Performance = PerformanceBalanced
		cfg.Antialiasing = true
	default:
		cfg.Performance = PerformanceMobile
		cfg.Antialiasing = false
	}
	cfg.MaxPoints, _ = ModeLimits(cfg.Performance)
	return cfg
}
