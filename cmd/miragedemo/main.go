// Command miragedemo renders a synthetic clustered point cloud with the
// mirage engine, either in a window (default) or headless to PNG frames.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	mirage "github.com/valak74200/data-mirage-sub000"
	"github.com/valak74200/data-mirage-sub000/integration/ebitenhost"
)

func main() {
	var (
		width       = flag.Int("width", 960, "viewport width")
		height      = flag.Int("height", 640, "viewport height")
		points      = flag.Int("points", 5000, "number of points")
		clusters    = flag.Int("clusters", 6, "number of clusters")
		anomalyRate = flag.Float64("anomaly-rate", 0.02, "fraction of anomaly points")
		mode        = flag.String("performance", "balanced", "performance mode: high, balanced, mobile")
		renderer    = flag.String("renderer", "canvas", "renderer: canvas or gpu")
		connections = flag.Bool("connections", false, "draw cluster connection lines")
		headless    = flag.Bool("headless", false, "render frames to PNG instead of a window")
		frames      = flag.Int("frames", 120, "frames to render in headless mode")
		output      = flag.String("output", "frame.png", "headless output file (last frame)")
		seed        = flag.Uint64("seed", 42, "random seed for the synthetic cloud")
		verbose     = flag.Bool("v", false, "enable logging")
	)
	flag.Parse()

	if *verbose {
		mirage.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	features := []mirage.Feature{
		mirage.FeatureClustering, mirage.FeatureAnomalies,
		mirage.FeatureSelection, mirage.FeatureAnimation,
		mirage.FeatureStats,
	}
	if *connections {
		features = append(features, mirage.FeatureConnections)
	}

	cfg := mirage.Config{
		Renderer:     *renderer,
		Performance:  mirage.PerformanceMode(*mode),
		Features:     features,
		Antialiasing: true,
	}

	engine, err := mirage.NewEngine(cfg, mirage.DefaultInteraction(), mirage.ViewportDimensions{
		Width:  *width,
		Height: *height,
		DPR:    1,
	})
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	defer engine.Dispose()

	engine.SetData(synthesize(*points, *clusters, *anomalyRate, *seed))

	engine.OnPointSelected(func(p *mirage.Point3D, selected bool) {
		if p != nil && selected {
			log.Printf("selected %s (cluster %s, anomaly %v)", p.ID, p.Cluster, p.IsAnomaly)
		}
	})
	engine.OnMetrics(func(m mirage.PerformanceMetrics) {
		log.Printf("fps %.1f  score %.0f  visible %d/%d  lod %.2f  budget %d",
			m.AvgFPS, m.Score, m.VisiblePoints, m.TotalPoints, m.LODScale, m.PointBudget)
	})

	if *headless {
		runHeadless(engine, *frames, *output)
		return
	}

	if err := ebitenhost.Run(engine, "data mirage", *width, *height); err != nil {
		log.Fatalf("run: %v", err)
	}
}

// runHeadless steps the engine without a host window and saves the final
// frame as a PNG.
func runHeadless(engine *mirage.Engine, frames int, output string) {
	for i := 0; i < frames; i++ {
		if err := engine.Step(); err != nil {
			log.Fatalf("step %d: %v", i, err)
		}
	}

	img := engine.Frame()
	if img == nil {
		log.Fatal("no frame available")
	}
	if err := savePNG(img, output); err != nil {
		log.Fatalf("save: %v", err)
	}
	stats, _ := engine.Stats()
	log.Printf("rendered %d frames, last drew %d points (%d culled), saved %s",
		frames, stats.PointsRendered, stats.PointsCulled, output)
}

// synthesize builds a clustered Gaussian point cloud with uniformly
// scattered anomalies, mirroring the shape of the reduction pipeline's
// output: compact Gaussian blobs per cluster plus outliers flagged by the
// anomaly scorer.
func synthesize(n, clusterCount int, anomalyRate float64, seed uint64) mirage.PointCloud {
	src := rand.NewSource(seed)
	centerDist := distuv.Uniform{Min: -120, Max: 120, Src: src}
	spread := distuv.Normal{Mu: 0, Sigma: 18, Src: src}
	scatter := distuv.Uniform{Min: -250, Max: 250, Src: src}
	uniform := distuv.Uniform{Min: 0, Max: 1, Src: src}

	clusters := make([]mirage.Cluster, clusterCount)
	for c := range clusters {
		hue := float64(c) / float64(clusterCount) * 360
		clusters[c] = mirage.Cluster{
			ID:    fmt.Sprintf("cluster-%d", c),
			Color: hexOf(mirage.HSL(hue, 0.65, 0.55)),
			Center: mirage.V3(
				centerDist.Rand(), centerDist.Rand(), centerDist.Rand(),
			),
		}
	}

	cloud := mirage.PointCloud{Points: make([]mirage.Point3D, 0, n)}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p-%d", i)
		if uniform.Rand() < anomalyRate {
			cloud.Points = append(cloud.Points, mirage.Point3D{
				ID:        id,
				Position:  mirage.V3(scatter.Rand(), scatter.Rand(), scatter.Rand()),
				Color:     "#ff5a5a",
				Size:      5,
				IsAnomaly: true,
			})
			cloud.Anomalies = append(cloud.Anomalies, id)
			continue
		}

		c := i % clusterCount
		cluster := &clusters[c]
		cloud.Points = append(cloud.Points, mirage.Point3D{
			ID: id,
			Position: cluster.Center.Add(mirage.V3(
				spread.Rand(), spread.Rand(), spread.Rand(),
			)),
			Color:   cluster.Color,
			Size:    4,
			Cluster: cluster.ID,
		})
		cluster.PointIDs = append(cluster.PointIDs, id)
	}
	cloud.Clusters = clusters
	return cloud
}

// savePNG writes an image to disk.
func savePNG(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, img)
}

// hexOf formats a mirage color as "#rrggbb".
func hexOf(c mirage.RGBA) string {
	r, g, b, _ := c.Color().RGBA()
	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
