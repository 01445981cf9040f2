package crater

import (
	"errors"
	"fmt"
)

// ErrMissingData reports a frame with no particle positions. The analysis
// aborts without writing any attributes so downstream consumers cannot read
// stale or zero defaults.
var ErrMissingData = errors.New("no particle position data")

// Stage names used in InsufficientSampleError.
const (
	StagePileup = "pileup"
	StageAxes   = "axis extraction"
)

// InsufficientSampleError reports a frame with too few particles or pairwise
// distances for a stage to produce its defined statistic. Frames are
// rejected rather than degraded: averaging a shorter slice would silently
// change what the pileup and minor axis numbers mean between frames.
type InsufficientSampleError struct {
	Stage string
	Need  int
	Got   int
}

func (e *InsufficientSampleError) Error() string {
	return fmt.Sprintf("%s: insufficient sample: need %d, got %d", e.Stage, e.Need, e.Got)
}
