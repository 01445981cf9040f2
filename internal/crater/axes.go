package crater

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FilterRim returns the particles in the near-peak band, z > maxZ - tolerance.
// The input slice is caller-owned and treated as read-only, so the band is
// collected into a fresh slice rather than compacted in place.
func FilterRim(points []Point, maxZ, tolerance float64) []Point {
	cutoff := maxZ - tolerance
	var rim []Point
	for _, pt := range points {
		if pt.Z > cutoff {
			rim = append(rim, pt)
		}
	}
	return rim
}

// PairwiseDistances computes the Euclidean distance for every unordered pair
// of points. O(n²) pairs; callers keep n tractable by filtering to the rim
// band first.
func PairwiseDistances(points []Point) []float64 {
	n := len(points)
	if n < 2 {
		return nil
	}
	dists := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			dists = append(dists, points[i].Distance(points[j]))
		}
	}
	return dists
}

// ExtractAxes estimates the crater's characteristic horizontal extents from
// pairwise distances among near-peak particles.
//
// Algorithm:
//  1. Filter to the rim band: z > maxZ - p.RimTolerance.
//  2. Enumerate all unordered pair distances within the band.
//  3. Sort descending. The major axis is the largest span, which connects
//     diametrically opposed rim points. The minor axis is the mean of the
//     spans ranked 2 through p.MinorAxisWindow, a neighborhood of
//     near-maximal chords standing in for the perpendicular extent.
//
// A convex hull or ellipse fit would be more rigorous; the sorted-distance
// window keeps the stage at O(|rim|²) with no fit machinery, which holds up
// because the filtered rim set stays small. When several pairs share the
// maximal distance any of them may supply it; only the value is used.
func ExtractAxes(points []Point, maxZ float64, p Params) (AxisMetrics, error) {
	rim := FilterRim(points, maxZ, p.RimTolerance)
	dists := PairwiseDistances(rim)
	if len(dists) < p.MinorAxisWindow {
		return AxisMetrics{}, &InsufficientSampleError{Stage: StageAxes, Need: p.MinorAxisWindow, Got: len(dists)}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(dists)))

	return AxisMetrics{
		MajorAxis: dists[0],
		MinorAxis: stat.Mean(dists[1:p.MinorAxisWindow], nil),
		RimCount:  len(rim),
		PairCount: len(dists),
	}, nil
}
