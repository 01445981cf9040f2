package monitor

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/prash-dwivedi/crater.report/internal/crater"
	"github.com/prash-dwivedi/crater.report/internal/db"
	"github.com/prash-dwivedi/crater.report/internal/security"
)

// Line colors for the PNG plots.
var (
	depthColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	pileupColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	surfaceColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// RunPlotter renders PNG summaries of analysis results into an output
// directory. Output paths are generated internally; caller-provided
// identifiers are sanitized before they reach a file name.
type RunPlotter struct {
	outputDir string
}

// NewRunPlotter creates a plotter writing into outputDir, creating it if
// needed.
func NewRunPlotter(outputDir string) (*RunPlotter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &RunPlotter{outputDir: outputDir}, nil
}

// OutputDir returns the directory plots are written to.
func (rp *RunPlotter) OutputDir() string {
	return rp.outputDir
}

// DepthProfile plots depth and pileup against frame index for one run and
// returns the written file path. Frames that failed analysis are skipped.
func (rp *RunPlotter) DepthProfile(runID string, results []*db.FrameResult) (string, error) {
	depthPts := make(plotter.XYs, 0, len(results))
	pileupPts := make(plotter.XYs, 0, len(results))
	for _, fr := range results {
		if fr.Error != "" {
			continue
		}
		depthPts = append(depthPts, plotter.XY{X: float64(fr.FrameIndex), Y: fr.Depth})
		pileupPts = append(pileupPts, plotter.XY{X: float64(fr.FrameIndex), Y: fr.Pileup})
	}
	if len(depthPts) == 0 {
		return "", fmt.Errorf("no analyzed frames to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Crater Depth Profile (run %s)", runID)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Length (angstrom)"

	depthLine, err := plotter.NewLine(depthPts)
	if err != nil {
		return "", err
	}
	depthLine.Color = depthColor
	depthLine.Width = vg.Points(1)
	p.Add(depthLine)
	p.Legend.Add("depth", depthLine)

	pileupLine, err := plotter.NewLine(pileupPts)
	if err != nil {
		return "", err
	}
	pileupLine.Color = pileupColor
	pileupLine.Width = vg.Points(1)
	p.Add(pileupLine)
	p.Legend.Add("pileup", pileupLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	outFile := filepath.Join(rp.outputDir, fmt.Sprintf("depth_profile_%s.png", security.SanitizeFilename(runID)))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return "", fmt.Errorf("save depth profile: %w", err)
	}
	return outFile, nil
}

// ZHistogram plots the vertical particle distribution of one frame with the
// estimated surface level marked, and returns the written file path.
func (rp *RunPlotter) ZHistogram(frameIndex int, points []crater.Point, surface crater.SurfaceMetrics) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("no particles to plot")
	}
	if surface.Degenerate || surface.BinWidth <= 0 {
		return "", fmt.Errorf("degenerate z distribution")
	}

	zs := make([]float64, len(points))
	for i, pt := range points {
		zs[i] = pt.Z
	}
	sort.Float64s(zs)

	bins := int(math.Round((surface.MaxZ - surface.MinZ) / surface.BinWidth))
	if bins < 1 {
		bins = 1
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Z Distribution (frame %d)", frameIndex)
	p.X.Label.Text = "Z (angstrom)"
	p.Y.Label.Text = "Particles"

	hist, err := plotter.NewHist(plotter.Values(zs), bins)
	if err != nil {
		return "", err
	}
	hist.FillColor = depthColor
	p.Add(hist)

	// Vertical marker at the estimated surface, sized to the modal bin so
	// it spans the full height of the histogram. The dividers are built the
	// same way the surface stage builds them, including the nudge that
	// keeps the maximum inside the final bin.
	dividers := make([]float64, bins+1)
	floats.Span(dividers, surface.MinZ, surface.MaxZ)
	dividers[len(dividers)-1] = math.Nextafter(surface.MaxZ, math.Inf(1))
	counts := stat.Histogram(nil, dividers, zs, nil)
	peak := floats.Max(counts)

	marker, err := plotter.NewLine(plotter.XYs{
		{X: surface.SurfaceZ, Y: 0},
		{X: surface.SurfaceZ, Y: peak},
	})
	if err != nil {
		return "", err
	}
	marker.Color = surfaceColor
	marker.Width = vg.Points(2)
	p.Add(marker)
	p.Legend.Add(fmt.Sprintf("surface z=%.2f", surface.SurfaceZ), marker)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	outFile := filepath.Join(rp.outputDir, fmt.Sprintf("z_histogram_frame_%04d.png", frameIndex))
	if err := p.Save(14*vg.Inch, 6*vg.Inch, outFile); err != nil {
		return "", fmt.Errorf("save z histogram: %w", err)
	}
	return outFile, nil
}

// MakePlotOutputDir builds a per-source output directory for plots:
// <baseDir>/<source basename without extension>. Sources are sanitized
// since they may come from remote callers.
func MakePlotOutputDir(baseDir, sourceFile string) string {
	if sourceFile == "" {
		return filepath.Join(baseDir, "adhoc")
	}
	base := filepath.Base(sourceFile)
	ext := filepath.Ext(base)
	name := security.SanitizeFilename(base[: len(base)-len(ext)])
	return filepath.Join(baseDir, name)
}
