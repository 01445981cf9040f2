package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prash-dwivedi/crater.report/internal/crater"
)

// XYZReader streams frames from a plain XYZ trajectory: an atom count line,
// a comment line, then one "species x y z" line per atom, repeated per
// frame. Several XYZ writers record the originating timestep in the comment
// ("Atoms. Timestep: 100"); when present it is carried onto the frame,
// otherwise the frame ordinal stands in.
type XYZReader struct {
	s     *bufio.Scanner
	line  int
	frame int
}

// NewXYZReader returns an XYZReader consuming XYZ text from r.
func NewXYZReader(r io.Reader) *XYZReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &XYZReader{s: s}
}

func (r *XYZReader) scan() (string, bool) {
	if !r.s.Scan() {
		return "", false
	}
	r.line++
	return r.s.Text(), true
}

// Next parses and returns the next frame, or io.EOF after the last one.
func (r *XYZReader) Next() (*Frame, error) {
	raw, ok := r.scan()
	for ok && strings.TrimSpace(raw) == "" {
		raw, ok = r.scan()
	}
	if !ok {
		if err := r.s.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid atom count %q", r.line, raw)
	}
	if count < 0 || count > maxAtomCount {
		return nil, fmt.Errorf("line %d: implausible atom count %d", r.line, count)
	}

	comment, ok := r.scan()
	if !ok {
		return nil, fmt.Errorf("line %d: unexpected end of file inside frame %d", r.line, r.frame)
	}
	timestep, hasTimestep := parseTimestepComment(comment)
	if !hasTimestep {
		timestep = int64(r.frame)
	}

	points := make([]crater.Point, 0, count)
	for i := 0; i < count; i++ {
		raw, ok = r.scan()
		if !ok {
			return nil, fmt.Errorf("line %d: unexpected end of file: frame has %d of %d atom lines", r.line, i, count)
		}
		fields := strings.Fields(raw)
		// "species x y z" is the common form; a bare "x y z" also appears.
		if len(fields) > 3 {
			fields = fields[1:4]
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected species and 3 coordinates, got %q", r.line, raw)
		}
		var p crater.Point
		for j, dst := range []*float64{&p.X, &p.Y, &p.Z} {
			v, err := strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid coordinate %q", r.line, fields[j])
			}
			*dst = v
		}
		points = append(points, p)
	}

	f := &Frame{
		Index:    r.frame,
		Timestep: timestep,
		Bounds:   BoundsOf(points),
		Points:   points,
	}
	r.frame++
	return f, nil
}

// parseTimestepComment extracts the integer following "Timestep:" from an
// XYZ comment line.
func parseTimestepComment(comment string) (int64, bool) {
	idx := strings.Index(comment, "Timestep:")
	if idx < 0 {
		return 0, false
	}
	rest := strings.Fields(comment[idx+len("Timestep:"):])
	if len(rest) == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
