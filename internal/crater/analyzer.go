package crater

import "fmt"

// Analyzer runs the three-stage analysis with a fixed parameter set. It
// holds no per-frame state, so a single Analyzer may serve many frames in
// sequence; concurrent callers must give each call its own input slice.
type Analyzer struct {
	params Params
}

// NewAnalyzer validates params and returns an Analyzer using them.
func NewAnalyzer(params Params) (*Analyzer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis params: %w", err)
	}
	return &Analyzer{params: params}, nil
}

// Params returns the parameter set the analyzer was built with.
func (a *Analyzer) Params() Params {
	return a.params
}

// Analyze runs the full analysis over one frame of particle positions and
// returns the typed result. The frame index is informational only; it tags
// errors and the result but never influences the computation.
func (a *Analyzer) Analyze(frame int, points []Point) (*Analysis, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("frame %d: %w", frame, ErrMissingData)
	}

	surface, err := EstimateSurface(points, a.params)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}

	axes, err := ExtractAxes(points, surface.MaxZ, a.params)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}

	ratios := ComputeRatios(surface, axes, a.params)

	analysis := &Analysis{
		Frame:   frame,
		Points:  len(points),
		Surface: surface,
		Axes:    axes,
		Ratios:  ratios,
		Report:  ratios.Report(),
	}

	if surface.Degenerate {
		analysis.Warnings = append(analysis.Warnings,
			"degenerate geometry: zero z variance, surface set to the common plane")
	}
	if ratios.Depth > ratios.FinalDiameter/2 {
		analysis.Warnings = append(analysis.Warnings, fmt.Sprintf(
			"degenerate geometry: depth %.2f exceeds half the final diameter %.2f, spherical-cap volume is unreliable",
			ratios.Depth, ratios.FinalDiameter))
	}

	return analysis, nil
}

// AnalyzeFrame is the per-frame entry point for host pipelines: it analyzes
// the frame and merges all result attributes into attrs. It fails closed;
// on any error attrs is left untouched so the host never reads a partial
// result set.
func (a *Analyzer) AnalyzeFrame(frame int, points []Point, attrs Attributes) error {
	analysis, err := a.Analyze(frame, points)
	if err != nil {
		return err
	}
	analysis.WriteAttributes(attrs)
	return nil
}
