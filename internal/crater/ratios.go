package crater

import "math"

// ComputeRatios derives the crater-to-projectile comparison from the
// measured depth and axes. Lengths are converted to report units up front,
// so the volumes come out in cubic report units directly. The dimensionless
// ratios are built from converted values in matched units and are therefore
// unaffected by the conversion.
//
// The crater volume uses the spherical-cap approximation
// V = π·(h/6)·(3·(d/2)² + h²), which assumes the depth is small relative to
// the diameter. The regime is not enforced here; Analyze attaches a warning
// when a frame leaves it.
func ComputeRatios(surface SurfaceMetrics, axes AxisMetrics, p Params) RatioMetrics {
	s := p.LengthScale
	dp := p.ProjectileDiameter * s
	dc1 := axes.MajorAxis * s
	dc2 := axes.MinorAxis * s
	dc := (dc1 + dc2) / 2
	hc := surface.Depth * s

	vp := (4.0 / 3.0) * math.Pi * math.Pow(dp/2, 3)
	vc := math.Pi * (hc / 6) * (3*(dc/2)*(dc/2) + hc*hc)

	return RatioMetrics{
		ProjectileDiameter: dp,
		MajorDiameter:      dc1,
		MinorDiameter:      dc2,
		FinalDiameter:      dc,
		DiameterRatio:      dc / dp,
		Depth:              hc,
		DepthRatio:         hc / dp,
		ProjectileVolume:   vp,
		CraterVolume:       vc,
		VolumeRatio:        vc / vp,
	}
}

// Round2 rounds to two decimal places, half away from zero. Report values
// are rounded at this presentation boundary only; internal computation
// keeps full precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Report returns the rounded presentation form of the metrics.
func (r RatioMetrics) Report() Report {
	return Report{
		ProjectileDiameter: Round2(r.ProjectileDiameter),
		MajorDiameter:      Round2(r.MajorDiameter),
		MinorDiameter:      Round2(r.MinorDiameter),
		FinalDiameter:      Round2(r.FinalDiameter),
		DiameterRatio:      Round2(r.DiameterRatio),
		Depth:              Round2(r.Depth),
		DepthRatio:         Round2(r.DepthRatio),
		ProjectileVolume:   Round2(r.ProjectileVolume),
		CraterVolume:       Round2(r.CraterVolume),
		VolumeRatio:        Round2(r.VolumeRatio),
	}
}
