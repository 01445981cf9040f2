package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prash-dwivedi/crater.report/internal/crater"
)

// maxAtomCount bounds the declared atom count of a frame so a corrupt
// header cannot drive a huge allocation.
const maxAtomCount = 100_000_000

// Reader streams frames from a LAMMPS text dump. Each frame is a sequence
// of ITEM: sections:
//
//	ITEM: TIMESTEP
//	100
//	ITEM: NUMBER OF ATOMS
//	4
//	ITEM: BOX BOUNDS pp pp pp
//	0 100
//	0 100
//	0 100
//	ITEM: ATOMS id type x y z
//	1 1 10.0 10.0 50.0
//	...
//
// Position columns are located from the ITEM: ATOMS header, so column order
// and extra columns do not matter. Unscaled (x y z), unwrapped (xu yu zu)
// and scaled (xs ys zs) coordinates are accepted; scaled values are mapped
// back to box coordinates on read.
type Reader struct {
	s     *bufio.Scanner
	line  int
	frame int
}

// NewReader returns a Reader consuming LAMMPS dump text from r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{s: s}
}

// scan advances one line, tracking the line number for error reporting.
func (r *Reader) scan() (string, bool) {
	if !r.s.Scan() {
		return "", false
	}
	r.line++
	return r.s.Text(), true
}

// Next parses and returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (*Frame, error) {
	header, ok := r.scan()
	for ok && strings.TrimSpace(header) == "" {
		header, ok = r.scan()
	}
	if !ok {
		if err := r.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	if !strings.HasPrefix(header, "ITEM: TIMESTEP") {
		return nil, fmt.Errorf("line %d: expected ITEM: TIMESTEP, got %q", r.line, header)
	}

	raw, ok := r.scan()
	if !ok {
		return nil, r.truncated()
	}
	timestep, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid timestep %q", r.line, raw)
	}

	if err := r.expect("ITEM: NUMBER OF ATOMS"); err != nil {
		return nil, err
	}
	raw, ok = r.scan()
	if !ok {
		return nil, r.truncated()
	}
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid atom count %q", r.line, raw)
	}
	if count < 0 || count > maxAtomCount {
		return nil, fmt.Errorf("line %d: implausible atom count %d", r.line, count)
	}

	if err := r.expect("ITEM: BOX BOUNDS"); err != nil {
		return nil, err
	}
	var bounds Box
	edges := [][2]*float64{
		{&bounds.XLo, &bounds.XHi},
		{&bounds.YLo, &bounds.YHi},
		{&bounds.ZLo, &bounds.ZHi},
	}
	for _, edge := range edges {
		raw, ok = r.scan()
		if !ok {
			return nil, r.truncated()
		}
		fields := strings.Fields(raw)
		// Triclinic boxes carry a third tilt value; only lo and hi matter
		// here.
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: invalid box bounds %q", r.line, raw)
		}
		for i, dst := range edge {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid box bound %q", r.line, fields[i])
			}
			*dst = v
		}
	}

	raw, ok = r.scan()
	if !ok {
		return nil, r.truncated()
	}
	if !strings.HasPrefix(raw, "ITEM: ATOMS") {
		return nil, fmt.Errorf("line %d: expected ITEM: ATOMS, got %q", r.line, raw)
	}
	cols := strings.Fields(raw)[2:]
	xi, yi, zi, scaled, err := positionColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line, err)
	}

	points := make([]crater.Point, 0, count)
	for i := 0; i < count; i++ {
		raw, ok = r.scan()
		if !ok {
			return nil, fmt.Errorf("line %d: unexpected end of file: frame has %d of %d atom lines", r.line, i, count)
		}
		fields := strings.Fields(raw)
		if len(fields) != len(cols) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", r.line, len(cols), len(fields))
		}
		var p crater.Point
		for _, c := range []struct {
			idx  int
			name string
			dst  *float64
		}{
			{xi, cols[xi], &p.X},
			{yi, cols[yi], &p.Y},
			{zi, cols[zi], &p.Z},
		} {
			v, err := strconv.ParseFloat(fields[c.idx], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s coordinate %q", r.line, c.name, fields[c.idx])
			}
			*c.dst = v
		}
		if scaled {
			p.X = bounds.XLo + p.X*(bounds.XHi-bounds.XLo)
			p.Y = bounds.YLo + p.Y*(bounds.YHi-bounds.YLo)
			p.Z = bounds.ZLo + p.Z*(bounds.ZHi-bounds.ZLo)
		}
		points = append(points, p)
	}

	f := &Frame{
		Index:    r.frame,
		Timestep: timestep,
		Bounds:   bounds,
		Points:   points,
	}
	r.frame++
	return f, nil
}

// expect consumes one line and checks it starts with the given section
// marker.
func (r *Reader) expect(prefix string) error {
	raw, ok := r.scan()
	if !ok {
		return r.truncated()
	}
	if !strings.HasPrefix(raw, prefix) {
		return fmt.Errorf("line %d: expected %s, got %q", r.line, prefix, raw)
	}
	return nil
}

func (r *Reader) truncated() error {
	return fmt.Errorf("line %d: unexpected end of file inside frame %d", r.line, r.frame)
}

// positionColumns locates the per-axis position columns in an ITEM: ATOMS
// header. Each naming convention must supply a complete triple.
func positionColumns(cols []string) (xi, yi, zi int, scaled bool, err error) {
	find := func(name string) int {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
		return -1
	}
	candidates := []struct {
		x, y, z string
		scaled  bool
	}{
		{"x", "y", "z", false},
		{"xu", "yu", "zu", false},
		{"xs", "ys", "zs", true},
	}
	for _, c := range candidates {
		xi, yi, zi = find(c.x), find(c.y), find(c.z)
		if xi >= 0 && yi >= 0 && zi >= 0 {
			return xi, yi, zi, c.scaled, nil
		}
	}
	return 0, 0, 0, false, fmt.Errorf("no position columns in %v", cols)
}
