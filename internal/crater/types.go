// Package crater computes geometric and volumetric descriptors of an impact
// crater from a single frame of particle positions.
//
// The analysis runs as three dependent stages: surface estimation from the
// vertical particle distribution, crater axis extraction from pairwise
// distances among near-peak particles, and derived volumetric ratios against
// a reference spherical projectile. It is stateless: one frame in, one set
// of scalar results out, no cross-frame memory.
package crater

import "math"

// Point is a single particle position in the simulation frame.
// Coordinates are in the source length unit of the dump (angstroms).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Attributes is a caller-owned flat mapping of named scalar results. It is
// the only mutation the analysis performs that is visible to the host, and
// it is written only when a frame analyzes successfully.
type Attributes map[string]float64

// Raw intermediate attribute keys, written at full precision in source units.
const (
	AttrSurfaceZ  = "Surface_Atom_Position_Z"
	AttrDepth     = "Depth_of_Crater"
	AttrPileup    = "Crater_Pileup_Height"
	AttrMajorAxis = "Major_Axis"
	AttrMinorAxis = "Minor_Axis"
)

// Final report attribute keys, written rounded to two decimals in report
// units. Downstream tooling matches on these strings exactly.
const (
	KeyProjectileDiameter = "Projectile Diameter (D_p)"
	KeyCraterDiameter1    = "Crater Diameter (D_c1)"
	KeyCraterDiameter2    = "Crater Diameter (D_c2)"
	KeyFinalDiameter      = "Final Diameter (D_c)"
	KeyDiameterRatio      = "Ratio (D_c/D_p)"
	KeyCraterDepth        = "Depth of Crater (H_c)"
	KeyDepthRatio         = "Ratio (H_c/D_p)"
	KeyProjectileVolume   = "Volume of Spherical Projectile (V_p)"
	KeyCraterVolume       = "Volume of Crater (V_c)"
	KeyVolumeRatio        = "Ratio (V_c/V_p)"
)

// SurfaceMetrics is the output of the surface and depth stage. All values
// are in source units.
type SurfaceMetrics struct {
	// SurfaceZ is the estimated undisturbed surface level: the left edge of
	// the most populated histogram bin of the z distribution.
	SurfaceZ float64 `json:"surface_z"`

	// Depth is SurfaceZ minus the lowest particle z. Non-negative by
	// construction since the mode cannot sit below the minimum.
	Depth float64 `json:"depth"`

	// Pileup is the mean of the highest particle z values minus SurfaceZ.
	// Negative when even the highest particles sit below the estimated
	// surface.
	Pileup float64 `json:"pileup"`

	MinZ     float64 `json:"min_z"`
	MaxZ     float64 `json:"max_z"`
	BinWidth float64 `json:"bin_width"`

	// Degenerate is set when every particle shares one z value, leaving the
	// histogram mode undefined. SurfaceZ is then the common plane and Depth
	// and Pileup are zero.
	Degenerate bool `json:"degenerate,omitempty"`
}

// AxisMetrics is the output of the axis extraction stage. Axes are in
// source units.
type AxisMetrics struct {
	// MajorAxis is the largest pairwise distance among rim particles,
	// spanning diametrically opposed rim points.
	MajorAxis float64 `json:"major_axis"`

	// MinorAxis is the mean of the next-largest pairwise distances, a cheap
	// approximation of the perpendicular extent that avoids a geometric fit.
	MinorAxis float64 `json:"minor_axis"`

	// RimCount is the number of particles in the near-peak band.
	RimCount int `json:"rim_count"`

	// PairCount is the number of pairwise distances enumerated.
	PairCount int `json:"pair_count"`
}

// RatioMetrics is the output of the ratio and volume stage at full
// precision. Lengths are in report units (nanometers with default params)
// and volumes in cubic report units; ratios are dimensionless.
type RatioMetrics struct {
	ProjectileDiameter float64 `json:"projectile_diameter"`
	MajorDiameter      float64 `json:"major_diameter"`
	MinorDiameter      float64 `json:"minor_diameter"`
	FinalDiameter      float64 `json:"final_diameter"`
	DiameterRatio      float64 `json:"diameter_ratio"`
	Depth              float64 `json:"depth"`
	DepthRatio         float64 `json:"depth_ratio"`
	ProjectileVolume   float64 `json:"projectile_volume"`
	CraterVolume       float64 `json:"crater_volume"`
	VolumeRatio        float64 `json:"volume_ratio"`
}

// Report is the rounded presentation form of RatioMetrics. The JSON keys
// are the exact strings downstream consumers key on.
type Report struct {
	ProjectileDiameter float64 `json:"Projectile Diameter (D_p)"`
	MajorDiameter      float64 `json:"Crater Diameter (D_c1)"`
	MinorDiameter      float64 `json:"Crater Diameter (D_c2)"`
	FinalDiameter      float64 `json:"Final Diameter (D_c)"`
	DiameterRatio      float64 `json:"Ratio (D_c/D_p)"`
	Depth              float64 `json:"Depth of Crater (H_c)"`
	DepthRatio         float64 `json:"Ratio (H_c/D_p)"`
	ProjectileVolume   float64 `json:"Volume of Spherical Projectile (V_p)"`
	CraterVolume       float64 `json:"Volume of Crater (V_c)"`
	VolumeRatio        float64 `json:"Ratio (V_c/V_p)"`
}

// Analysis is the full typed result of one frame.
type Analysis struct {
	Frame    int            `json:"frame"`
	Points   int            `json:"points"`
	Surface  SurfaceMetrics `json:"surface"`
	Axes     AxisMetrics    `json:"axes"`
	Ratios   RatioMetrics   `json:"ratios"`
	Report   Report         `json:"report"`
	Warnings []string       `json:"warnings,omitempty"`
}

// WriteAttributes merges the raw intermediate scalars and the rounded report
// into attrs. Callers invoke this only on a fully successful analysis so
// consumers never observe partial results.
func (a *Analysis) WriteAttributes(attrs Attributes) {
	attrs[AttrSurfaceZ] = a.Surface.SurfaceZ
	attrs[AttrDepth] = a.Surface.Depth
	attrs[AttrPileup] = a.Surface.Pileup
	attrs[AttrMajorAxis] = a.Axes.MajorAxis
	attrs[AttrMinorAxis] = a.Axes.MinorAxis

	attrs[KeyProjectileDiameter] = a.Report.ProjectileDiameter
	attrs[KeyCraterDiameter1] = a.Report.MajorDiameter
	attrs[KeyCraterDiameter2] = a.Report.MinorDiameter
	attrs[KeyFinalDiameter] = a.Report.FinalDiameter
	attrs[KeyDiameterRatio] = a.Report.DiameterRatio
	attrs[KeyCraterDepth] = a.Report.Depth
	attrs[KeyDepthRatio] = a.Report.DepthRatio
	attrs[KeyProjectileVolume] = a.Report.ProjectileVolume
	attrs[KeyCraterVolume] = a.Report.CraterVolume
	attrs[KeyVolumeRatio] = a.Report.VolumeRatio
}
