package crater

import (
	"fmt"

	"github.com/prash-dwivedi/crater.report/internal/units"
)

// Params holds the tunable constants of the analysis. Zero values are not
// usable; start from DefaultParams and override as needed.
type Params struct {
	// SurfaceBins is the number of equal-width histogram bins spanning
	// [min(z), max(z)] for surface estimation. More bins localise the
	// surface more precisely but need more particles per bin to keep the
	// mode stable. Default: 100.
	SurfaceBins int

	// PileupCount is how many of the highest particles are averaged for the
	// pileup height. Default: 7.
	PileupCount int

	// RimTolerance is the depth of the near-peak band, in source units.
	// Particles with z > max(z) - RimTolerance count as rim candidates for
	// axis extraction. Default: 3.0.
	RimTolerance float64

	// MinorAxisWindow bounds the descending-sorted distance window used for
	// the axes. The major axis is the largest distance; the minor axis is
	// the mean of distances 2 through MinorAxisWindow. At least this many
	// pairwise distances must exist or the frame is rejected. Default: 10.
	MinorAxisWindow int

	// ProjectileDiameter is the reference impactor diameter in source
	// units. Default: 100.
	ProjectileDiameter float64

	// LengthScale converts source lengths to report lengths. Volumes scale
	// by its cube. Default: 0.1 (angstroms to nanometers).
	LengthScale float64
}

// DefaultParams returns the documented default parameter set.
func DefaultParams() Params {
	return Params{
		SurfaceBins:        100,
		PileupCount:        7,
		RimTolerance:       3.0,
		MinorAxisWindow:    10,
		ProjectileDiameter: 100.0,
		LengthScale:        1 / units.AngstromsPerNanometer,
	}
}

// Validate checks that the parameter values are usable.
func (p Params) Validate() error {
	if p.SurfaceBins < 2 {
		return fmt.Errorf("SurfaceBins must be at least 2, got %d", p.SurfaceBins)
	}
	if p.PileupCount < 1 {
		return fmt.Errorf("PileupCount must be at least 1, got %d", p.PileupCount)
	}
	if p.RimTolerance <= 0 {
		return fmt.Errorf("RimTolerance must be positive, got %g", p.RimTolerance)
	}
	if p.MinorAxisWindow < 2 {
		return fmt.Errorf("MinorAxisWindow must be at least 2, got %d", p.MinorAxisWindow)
	}
	if p.ProjectileDiameter <= 0 {
		return fmt.Errorf("ProjectileDiameter must be positive, got %g", p.ProjectileDiameter)
	}
	if p.LengthScale <= 0 {
		return fmt.Errorf("LengthScale must be positive, got %g", p.LengthScale)
	}
	return nil
}
