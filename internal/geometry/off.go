package geometry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidOFF is wrapped by every OFF parse failure.
var ErrInvalidOFF = errors.New("invalid OFF data")

// ReadOFF parses an ASCII Object File Format mesh.
func ReadOFF(data []byte) (*Geometry, error) {
	var fields []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields = append(fields, strings.Fields(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOFF, err)
	}
	if len(fields) == 0 || fields[0] != "OFF" {
		return nil, fmt.Errorf("%w: missing OFF header", ErrInvalidOFF)
	}
	r := &fieldReader{fields: fields[1:]}

	nv, err := r.count("vertex count")
	if err != nil {
		return nil, err
	}
	nf, err := r.count("face count")
	if err != nil {
		return nil, err
	}
	if _, err := r.count("edge count"); err != nil {
		return nil, err
	}

	points := make([]r3.Vec, nv)
	for i := range points {
		var c [3]float64
		for k := range c {
			if c[k], err = r.float(); err != nil {
				return nil, err
			}
		}
		points[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	}

	out := &Geometry{Dim: 3}
	for f := 0; f < nf; f++ {
		n, err := r.count("face size")
		if err != nil {
			return nil, err
		}
		idx := make([]int, n)
		for k := range idx {
			if idx[k], err = r.count("vertex index"); err != nil {
				return nil, err
			}
		}
		loop, err := gather(points, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: face %d: %v", ErrInvalidOFF, f, err)
		}
		if len(loop) >= 3 {
			out.Polygons = append(out.Polygons, loop)
		}
	}
	if len(out.Polygons) == 0 {
		return Empty(), nil
	}
	return out, nil
}

type fieldReader struct {
	fields []string
	pos    int
}

func (r *fieldReader) next(what string) (string, error) {
	if r.pos >= len(r.fields) {
		return "", fmt.Errorf("%w: unexpected end of data reading %s", ErrInvalidOFF, what)
	}
	s := r.fields[r.pos]
	r.pos++
	return s, nil
}

func (r *fieldReader) count(what string) (int, error) {
	s, err := r.next(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s %q", ErrInvalidOFF, what, s)
	}
	return n, nil
}

func (r *fieldReader) float() (float64, error) {
	s, err := r.next("coordinate")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad coordinate %q", ErrInvalidOFF, s)
	}
	return v, nil
}
