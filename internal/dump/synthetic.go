package dump

import (
	"math"
	"math/rand"

	"github.com/prash-dwivedi/crater.report/internal/crater"
)

// SyntheticGenerator produces frames shaped like a post-impact
// configuration: a dense surface skin over bulk fill, a depressed crater
// floor, and a raised rim ring. Useful for tests, demos and exercising the
// pipeline without a real simulation run.
type SyntheticGenerator struct {
	// Population of each structural region, per frame.
	SkinCount  int
	BulkCount  int
	FloorCount int
	RimCount   int

	// Geometry, in the same length unit the analysis treats as source
	// units (angstroms by default).
	AreaSize     float64 // side of the square simulation area
	SurfaceZ     float64 // undisturbed surface level
	FillDepth    float64 // thickness of the bulk fill below the surface
	CraterDepth  float64 // floor depression below the surface
	CraterRadius float64 // rim ring radius
	RimHeight    float64 // rim elevation above the surface

	// TimestepStride is the simulated gap between consecutive frames.
	TimestepStride int64

	frame int
	rng   *rand.Rand
}

// NewSyntheticGenerator returns a generator with a morphology whose
// analysis lands at a depth near CraterDepth and a major axis near twice
// CraterRadius. The same seed reproduces the same trajectory.
func NewSyntheticGenerator(seed int64) *SyntheticGenerator {
	return &SyntheticGenerator{
		SkinCount:      400,
		BulkCount:      530,
		FloorCount:     50,
		RimCount:       20,
		AreaSize:       100.0,
		SurfaceZ:       80.0,
		FillDepth:      15.0,
		CraterDepth:    20.0,
		CraterRadius:   20.0,
		RimHeight:      5.0,
		TimestepStride: 100,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// NextFrame generates the next frame. The morphology is fixed; each frame
// redraws the thermal jitter.
func (g *SyntheticGenerator) NextFrame() *Frame {
	cx, cy := g.AreaSize/2, g.AreaSize/2
	points := make([]crater.Point, 0, g.SkinCount+g.BulkCount+g.FloorCount+g.RimCount)

	// Surface skin, excavated where the crater is.
	for i := 0; i < g.SkinCount; i++ {
		x, y := g.rng.Float64()*g.AreaSize, g.rng.Float64()*g.AreaSize
		for math.Hypot(x-cx, y-cy) < g.CraterRadius {
			x, y = g.rng.Float64()*g.AreaSize, g.rng.Float64()*g.AreaSize
		}
		points = append(points, crater.Point{
			X: x,
			Y: y,
			Z: g.SurfaceZ + g.rng.Float64()*0.2,
		})
	}

	// Bulk fill below the surface.
	for i := 0; i < g.BulkCount; i++ {
		points = append(points, crater.Point{
			X: g.rng.Float64() * g.AreaSize,
			Y: g.rng.Float64() * g.AreaSize,
			Z: g.SurfaceZ - 0.5 - g.rng.Float64()*(g.FillDepth-0.5),
		})
	}

	// Crater floor, clustered around the centre.
	for i := 0; i < g.FloorCount; i++ {
		angle := g.rng.Float64() * 2 * math.Pi
		r := math.Sqrt(g.rng.Float64()) * g.CraterRadius / 2
		points = append(points, crater.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
			Z: g.SurfaceZ - g.CraterDepth + g.rng.Float64()*0.4,
		})
	}

	// Rim ring above the surface. The ring tops the frame, so the
	// near-peak band the axis stage works from is exactly these particles.
	for i := 0; i < g.RimCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(g.RimCount)
		r := g.CraterRadius + (g.rng.Float64()-0.5)*2
		points = append(points, crater.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
			Z: g.SurfaceZ + g.RimHeight,
		})
	}

	f := &Frame{
		Index:    g.frame,
		Timestep: int64(g.frame) * g.TimestepStride,
		Bounds: Box{
			XLo: 0, XHi: g.AreaSize,
			YLo: 0, YHi: g.AreaSize,
			ZLo: g.SurfaceZ - g.CraterDepth,
			ZHi: g.SurfaceZ + g.RimHeight,
		},
		Points: points,
	}
	g.frame++
	return f
}
