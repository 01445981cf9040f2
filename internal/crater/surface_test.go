package crater

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// gridPoint spreads x,y deterministically so test frames are not degenerate
// in the horizontal plane.
func gridPoint(i int, z float64) Point {
	return Point{X: float64(i % 10), Y: float64(i / 10), Z: z}
}

func TestEstimateSurface_BulkMode(t *testing.T) {
	// 50 particles in one bulk layer, one at the crater floor, one high in
	// the ejecta. Range [0,100] over 100 bins gives integer bin edges.
	var points []Point
	for i := 0; i < 50; i++ {
		points = append(points, gridPoint(i, 60.5))
	}
	points = append(points, gridPoint(50, 0.0))
	points = append(points, gridPoint(51, 100.0))

	m, err := EstimateSurface(points, DefaultParams())
	if err != nil {
		t.Fatalf("EstimateSurface failed: %v", err)
	}

	if m.SurfaceZ != 60.0 {
		t.Errorf("Expected SurfaceZ=60.0 (left edge of modal bin), got %f", m.SurfaceZ)
	}
	if m.Depth != 60.0 {
		t.Errorf("Expected Depth=60.0, got %f", m.Depth)
	}

	// Top 7 z values are the single 100.0 plus six bulk 60.5 particles.
	wantPileup := (100.0+6*60.5)/7 - 60.0
	if math.Abs(m.Pileup-wantPileup) > 1e-9 {
		t.Errorf("Expected Pileup=%f, got %f", wantPileup, m.Pileup)
	}

	if m.MinZ != 0.0 || m.MaxZ != 100.0 {
		t.Errorf("Expected MinZ=0 MaxZ=100, got %f %f", m.MinZ, m.MaxZ)
	}
	if m.BinWidth != 1.0 {
		t.Errorf("Expected BinWidth=1.0, got %f", m.BinWidth)
	}
	if m.Degenerate {
		t.Error("Expected Degenerate=false")
	}
}

func TestEstimateSurface_ModeTieLowestBinWins(t *testing.T) {
	// Bins 20 and 70 both hold 30 particles; the tie resolves to the lower
	// bin so repeated runs report one stable surface.
	var points []Point
	i := 0
	for ; i < 30; i++ {
		points = append(points, gridPoint(i, 20.5))
	}
	for ; i < 60; i++ {
		points = append(points, gridPoint(i, 70.5))
	}
	points = append(points, gridPoint(i, 0.0))
	points = append(points, gridPoint(i+1, 100.0))

	m, err := EstimateSurface(points, DefaultParams())
	if err != nil {
		t.Fatalf("EstimateSurface failed: %v", err)
	}

	if m.SurfaceZ != 20.0 {
		t.Errorf("Expected tie to resolve to SurfaceZ=20.0, got %f", m.SurfaceZ)
	}
}

func TestEstimateSurface_NegativePileup(t *testing.T) {
	// Six particles high, one at the floor. The modal bin is the top bin,
	// whose left edge sits above the mean of the top seven, so the pileup
	// goes negative.
	points := []Point{
		gridPoint(0, 0.0),
		gridPoint(1, 70.0),
		gridPoint(2, 70.0),
		gridPoint(3, 70.0),
		gridPoint(4, 70.0),
		gridPoint(5, 70.0),
		gridPoint(6, 70.0),
	}

	m, err := EstimateSurface(points, DefaultParams())
	if err != nil {
		t.Fatalf("EstimateSurface failed: %v", err)
	}

	if m.Pileup >= 0 {
		t.Errorf("Expected negative pileup, got %f", m.Pileup)
	}
	if m.Depth < 0 {
		t.Errorf("Depth must stay non-negative, got %f", m.Depth)
	}
}

func TestEstimateSurface_ExactlySevenPoints(t *testing.T) {
	// The pileup boundary: exactly PileupCount particles must analyze
	// without indexing past the slice.
	var points []Point
	for i := 1; i <= 7; i++ {
		points = append(points, gridPoint(i, float64(i)))
	}

	m, err := EstimateSurface(points, DefaultParams())
	if err != nil {
		t.Fatalf("EstimateSurface failed at the 7 point boundary: %v", err)
	}

	// All bins hold one particle, so the mode falls back to the lowest bin.
	if m.SurfaceZ != 1.0 {
		t.Errorf("Expected SurfaceZ=1.0, got %f", m.SurfaceZ)
	}
	if m.Depth != 0.0 {
		t.Errorf("Expected Depth=0.0, got %f", m.Depth)
	}
	wantPileup := 3.0 // mean(1..7) - 1
	if math.Abs(m.Pileup-wantPileup) > 1e-12 {
		t.Errorf("Expected Pileup=%f, got %f", wantPileup, m.Pileup)
	}
}

func TestEstimateSurface_TooFewPoints(t *testing.T) {
	var points []Point
	for i := 0; i < 5; i++ {
		points = append(points, gridPoint(i, float64(i)))
	}

	_, err := EstimateSurface(points, DefaultParams())

	var insufficient *InsufficientSampleError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientSampleError, got %v", err)
	}
	if insufficient.Stage != StagePileup {
		t.Errorf("Expected stage %q, got %q", StagePileup, insufficient.Stage)
	}
	if insufficient.Need != 7 || insufficient.Got != 5 {
		t.Errorf("Expected need=7 got=5, got need=%d got=%d", insufficient.Need, insufficient.Got)
	}
}

func TestEstimateSurface_MissingData(t *testing.T) {
	if _, err := EstimateSurface(nil, DefaultParams()); !errors.Is(err, ErrMissingData) {
		t.Errorf("Expected ErrMissingData for nil input, got %v", err)
	}
	if _, err := EstimateSurface([]Point{}, DefaultParams()); !errors.Is(err, ErrMissingData) {
		t.Errorf("Expected ErrMissingData for empty input, got %v", err)
	}
}

func TestEstimateSurface_Degenerate(t *testing.T) {
	var points []Point
	for i := 0; i < 10; i++ {
		points = append(points, gridPoint(i, 5.0))
	}

	m, err := EstimateSurface(points, DefaultParams())
	if err != nil {
		t.Fatalf("Coplanar input must not fail: %v", err)
	}

	if !m.Degenerate {
		t.Error("Expected Degenerate=true for zero z variance")
	}
	if m.SurfaceZ != 5.0 {
		t.Errorf("Expected SurfaceZ=5.0 (the common plane), got %f", m.SurfaceZ)
	}
	if m.Depth != 0 || m.Pileup != 0 {
		t.Errorf("Expected zero depth and pileup, got %f %f", m.Depth, m.Pileup)
	}
}

func TestEstimateSurface_DepthNeverNegative(t *testing.T) {
	// The mode cannot sit below the minimum, so depth stays non-negative
	// for any z distribution.
	for seed := int64(1); seed <= 5; seed++ {
		rng := rand.New(rand.NewSource(seed))
		var points []Point
		for i := 0; i < 200; i++ {
			points = append(points, Point{
				X: rng.Float64() * 100,
				Y: rng.Float64() * 100,
				Z: rng.NormFloat64() * 25,
			})
		}

		m, err := EstimateSurface(points, DefaultParams())
		if err != nil {
			t.Fatalf("seed %d: EstimateSurface failed: %v", seed, err)
		}
		if m.Depth < 0 {
			t.Errorf("seed %d: Depth=%f, must be >= 0", seed, m.Depth)
		}
	}
}
