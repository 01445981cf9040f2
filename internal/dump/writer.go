package dump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Writer emits frames in the LAMMPS text dump format. Coordinates are
// written with the shortest representation that parses back to the exact
// same float64, so a write and read round-trip is lossless.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer emitting dump text to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame appends one frame. A zero Bounds is replaced by the bounding
// box of the points.
func (w *Writer) WriteFrame(f *Frame) error {
	b := f.Bounds
	if b == (Box{}) {
		b = BoundsOf(f.Points)
	}

	fmt.Fprintf(w.w, "ITEM: TIMESTEP\n%d\n", f.Timestep)
	fmt.Fprintf(w.w, "ITEM: NUMBER OF ATOMS\n%d\n", len(f.Points))
	fmt.Fprintf(w.w, "ITEM: BOX BOUNDS pp pp pp\n")
	fmt.Fprintf(w.w, "%s %s\n", ftoa(b.XLo), ftoa(b.XHi))
	fmt.Fprintf(w.w, "%s %s\n", ftoa(b.YLo), ftoa(b.YHi))
	fmt.Fprintf(w.w, "%s %s\n", ftoa(b.ZLo), ftoa(b.ZHi))
	fmt.Fprintf(w.w, "ITEM: ATOMS id type x y z\n")
	for i, p := range f.Points {
		fmt.Fprintf(w.w, "%d 1 %s %s %s\n", i+1, ftoa(p.X), ftoa(p.Y), ftoa(p.Z))
	}
	return w.w.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteFile writes a whole trajectory to path in LAMMPS dump format.
func WriteFile(path string, frames []*Frame) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := NewWriter(f)
	for _, frame := range frames {
		if err := w.WriteFrame(frame); err != nil {
			return err
		}
	}
	return nil
}
