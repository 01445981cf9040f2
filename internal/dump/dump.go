// Package dump reads and writes molecular dynamics trajectory files and
// generates synthetic post-impact frames for testing and demos.
//
// Two trajectory formats are supported: the LAMMPS text dump format and
// plain XYZ. Readers stream one frame at a time; ReadFile slurps a whole
// trajectory, picking the format from the file extension.
package dump

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prash-dwivedi/crater.report/internal/crater"
)

// ErrNoFrames reports a trajectory file that parsed cleanly but contained
// no frames at all.
var ErrNoFrames = errors.New("trajectory contains no frames")

// Box is an axis-aligned simulation box.
type Box struct {
	XLo, XHi float64
	YLo, YHi float64
	ZLo, ZHi float64
}

// Frame is one snapshot of particle positions.
type Frame struct {
	// Index is the 0-based ordinal of the frame within its trajectory.
	Index int

	// Timestep is the simulation timestep the snapshot was taken at, as
	// recorded in the file. Distinct from Index: dumps are usually written
	// every N steps.
	Timestep int64

	Bounds Box
	Points []crater.Point
}

// FrameReader streams frames from a trajectory. Next returns io.EOF after
// the final frame.
type FrameReader interface {
	Next() (*Frame, error)
}

// ReadAll drains a FrameReader into a slice.
func ReadAll(r FrameReader) ([]*Frame, error) {
	var frames []*Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// ReadFile reads a whole trajectory file, picking the reader from the file
// extension: .xyz parses as XYZ, everything else as a LAMMPS text dump.
func ReadFile(path string) ([]*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r FrameReader
	if strings.ToLower(filepath.Ext(path)) == ".xyz" {
		r = NewXYZReader(f)
	} else {
		r = NewReader(f)
	}

	frames, err := ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}
	return frames, nil
}

// BoundsOf returns the axis-aligned bounding box of the points, or a zero
// Box for an empty slice.
func BoundsOf(points []crater.Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{
		XLo: points[0].X, XHi: points[0].X,
		YLo: points[0].Y, YHi: points[0].Y,
		ZLo: points[0].Z, ZHi: points[0].Z,
	}
	for _, p := range points[1:] {
		if p.X < b.XLo {
			b.XLo = p.X
		}
		if p.X > b.XHi {
			b.XHi = p.X
		}
		if p.Y < b.YLo {
			b.YLo = p.Y
		}
		if p.Y > b.YHi {
			b.YHi = p.Y
		}
		if p.Z < b.ZLo {
			b.ZLo = p.Z
		}
		if p.Z > b.ZHi {
			b.ZHi = p.Z
		}
	}
	return b
}
