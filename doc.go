// Package mirage renders interactive 3D point clouds to a 2D canvas.
//
// # Overview
//
// mirage is the real-time visualization engine of the data-mirage platform.
// It takes the output of the dimensionality-reduction and clustering
// pipeline (points, clusters, anomaly flags) and renders it with a
// simplified perspective projection, camera interaction, screen-space
// selection and a closed-loop adaptive quality controller that trades
// fidelity for frame-time budget on slower hardware.
//
// # Quick Start
//
//	engine, err := mirage.NewEngine(mirage.Config{}, mirage.DefaultInteraction(),
//	    mirage.ViewportDimensions{Width: 960, Height: 640, DPR: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Dispose()
//
//	engine.SetData(mirage.PointCloud{Points: points, Clusters: clusters})
//
//	// Host frame loop: one Step per displayed frame.
//	for running {
//	    if err := engine.Step(); err != nil {
//	        break
//	    }
//	    blit(engine.Frame())
//	}
//
// See integration/ebitenhost for a ready-made windowed host.
//
// # Architecture
//
// The engine wires independent components into one cooperative frame loop:
//   - Renderer contract with a software canvas implementation
//     (double-buffered surfaces, culling, LOD, depth sort, batching)
//   - CameraController (drag/wheel/touch/keyboard input, inertia,
//     auto-rotation)
//   - SelectionController (nearest-point hit-testing, hover, multi-select)
//   - PerformanceMonitor + AdaptiveQualityManager (frame-time ring buffer,
//     hysteretic quality control)
//   - DeviceProbe (one-shot hardware classification with explicit teardown)
//
// A second Renderer implementation (GPU-backed) can register itself under
// the RendererGPU name without touching callers.
//
// # Coordinate System
//
// Screen space uses CSS pixels with the origin at the top-left, X right,
// Y down; world-space Y points up and is flipped during projection.
// Rotation angles are radians, applied in Y, X, Z order.
package mirage

// Version information
const (
	// Version is the current version of the library
	Version = "0.4.0"
)
