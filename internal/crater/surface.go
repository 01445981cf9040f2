package crater

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EstimateSurface locates the undisturbed surface level from the vertical
// particle distribution and derives the crater depth and rim pileup height.
//
// Algorithm:
//  1. Histogram the z coordinates into p.SurfaceBins equal-width bins
//     spanning [min(z), max(z)].
//  2. Surface z = left edge of the bin with the highest count. Most
//     particles sit in bulk layers the impact never touched, so the modal
//     bin tracks the original surface rather than the crater or the ejecta.
//     When several bins tie, the lowest wins.
//  3. Depth = surface z - min(z); the lowest particle marks the crater
//     floor.
//  4. Pileup = mean of the p.PileupCount highest z values - surface z.
//
// A frame where every particle shares one z value has no meaningful mode;
// the result then carries the common plane as the surface with zero depth
// and pileup, and Degenerate set for the caller to surface as a warning.
func EstimateSurface(points []Point, p Params) (SurfaceMetrics, error) {
	if len(points) == 0 {
		return SurfaceMetrics{}, ErrMissingData
	}
	if len(points) < p.PileupCount {
		return SurfaceMetrics{}, &InsufficientSampleError{Stage: StagePileup, Need: p.PileupCount, Got: len(points)}
	}

	zs := make([]float64, len(points))
	for i, pt := range points {
		zs[i] = pt.Z
	}
	sort.Float64s(zs)

	minZ := zs[0]
	maxZ := zs[len(zs)-1]

	if minZ == maxZ {
		return SurfaceMetrics{
			SurfaceZ:   minZ,
			MinZ:       minZ,
			MaxZ:       maxZ,
			Degenerate: true,
		}, nil
	}

	dividers := make([]float64, p.SurfaceBins+1)
	floats.Span(dividers, minZ, maxZ)
	// stat.Histogram requires every observation to fall strictly below the
	// last divider; nudge it up so the maximum lands in the final bin
	// instead of panicking.
	dividers[len(dividers)-1] = math.Nextafter(maxZ, math.Inf(1))

	counts := stat.Histogram(nil, dividers, zs, nil)

	modeBin := 0
	for i, c := range counts {
		if c > counts[modeBin] {
			modeBin = i
		}
	}
	surfaceZ := dividers[modeBin]

	topK := zs[len(zs)-p.PileupCount:]

	return SurfaceMetrics{
		SurfaceZ: surfaceZ,
		Depth:    surfaceZ - minZ,
		Pileup:   stat.Mean(topK, nil) - surfaceZ,
		MinZ:     minZ,
		MaxZ:     maxZ,
		BinWidth: (maxZ - minZ) / float64(p.SurfaceBins),
	}, nil
}
