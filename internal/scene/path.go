package scene

import (
	"math"
	"strconv"
	"strings"
)

// curveSteps is the number of segments a Bézier curve is flattened into.
const curveSteps = 16

// subpath is one flattened run of path data. Fills close every subpath;
// strokes close only those ended by Z.
type subpath struct {
	pts    [][2]float64
	closed bool
}

type pathToken struct {
	cmd byte // 0 for a number
	v   float64
}

func pathTokens(d string) []pathToken {
	var toks []pathToken
	for i := 0; i < len(d); {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0:
			toks = append(toks, pathToken{cmd: c})
			i++
		default:
			j := scanNumber(d, i)
			if j == i {
				i++
				continue
			}
			if v, err := strconv.ParseFloat(d[i:j], 64); err == nil {
				toks = append(toks, pathToken{v: v})
			}
			i = j
		}
	}
	return toks
}

// scanNumber returns the end of the number starting at i. A sign or a
// second decimal point starts the next number, as in "10-5" or "1.5.5".
func scanNumber(d string, i int) int {
	j := i
	if j < len(d) && (d[j] == '+' || d[j] == '-') {
		j++
	}
	dot := false
	for j < len(d) {
		c := d[j]
		if c >= '0' && c <= '9' {
			j++
			continue
		}
		if c == '.' && !dot {
			dot = true
			j++
			continue
		}
		break
	}
	if j < len(d) && (d[j] == 'e' || d[j] == 'E') {
		k := j + 1
		if k < len(d) && (d[k] == '+' || d[k] == '-') {
			k++
		}
		if k < len(d) && d[k] >= '0' && d[k] <= '9' {
			for k < len(d) && d[k] >= '0' && d[k] <= '9' {
				k++
			}
			j = k
		}
	}
	return j
}

type flattener struct {
	out    []subpath
	x, y   float64
	sx, sy float64
	// Last control point, for the reflected S and T forms.
	cx, cy float64
}

func (f *flattener) moveTo(x, y float64) {
	f.x, f.y, f.sx, f.sy = x, y, x, y
	f.out = append(f.out, subpath{pts: [][2]float64{{x, y}}})
}

func (f *flattener) lineTo(x, y float64) {
	if len(f.out) == 0 || f.out[len(f.out)-1].closed {
		f.out = append(f.out, subpath{pts: [][2]float64{{f.x, f.y}}})
	}
	last := &f.out[len(f.out)-1]
	last.pts = append(last.pts, [2]float64{x, y})
	f.x, f.y = x, y
}

func (f *flattener) close() {
	if len(f.out) > 0 {
		f.out[len(f.out)-1].closed = true
	}
	f.x, f.y = f.sx, f.sy
}

func (f *flattener) cubic(x1, y1, x2, y2, x3, y3 float64) {
	x0, y0 := f.x, f.y
	for k := 1; k <= curveSteps; k++ {
		t := float64(k) / curveSteps
		mt := 1 - t
		a, b, c, e := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		f.lineTo(a*x0+b*x1+c*x2+e*x3, a*y0+b*y1+c*y2+e*y3)
	}
	f.cx, f.cy = x2, y2
}

func (f *flattener) quad(x1, y1, x2, y2 float64) {
	x0, y0 := f.x, f.y
	for k := 1; k <= curveSteps; k++ {
		t := float64(k) / curveSteps
		mt := 1 - t
		a, b, c := mt*mt, 2*mt*t, t*t
		f.lineTo(a*x0+b*x1+c*x2, a*y0+b*y1+c*y2)
	}
	f.cx, f.cy = x1, y1
}

// flattenPath turns SVG path data into polylines. Curves are sampled at
// curveSteps points; arcs are approximated by a line to their end point.
// Parsing stops at the first command with missing arguments.
func flattenPath(d string) []subpath {
	toks := pathTokens(d)
	var f flattener
	var cmd, prev byte
	i := 0
	args := func(n int) ([]float64, bool) {
		if i+n > len(toks) {
			return nil, false
		}
		a := make([]float64, n)
		for k := range a {
			if toks[i+k].cmd != 0 {
				return nil, false
			}
			a[k] = toks[i+k].v
		}
		i += n
		return a, true
	}
	arity := map[byte]int{'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7}

	for i < len(toks) {
		if toks[i].cmd != 0 {
			cmd = toks[i].cmd
			i++
			if cmd == 'Z' || cmd == 'z' {
				f.close()
				prev = 'Z'
				continue
			}
		} else if cmd == 0 || cmd == 'Z' || cmd == 'z' {
			i++
			continue
		}

		upper := cmd &^ 0x20
		a, ok := args(arity[upper])
		if !ok {
			break
		}
		ox, oy := 0.0, 0.0
		if cmd != upper {
			ox, oy = f.x, f.y
		}
		// Without a preceding curve of the same family, the reflected
		// control point is the current point.
		rx, ry := f.x, f.y
		if (upper == 'S' && (prev == 'C' || prev == 'S')) || (upper == 'T' && (prev == 'Q' || prev == 'T')) {
			rx, ry = 2*f.x-f.cx, 2*f.y-f.cy
		}

		switch upper {
		case 'M':
			f.moveTo(ox+a[0], oy+a[1])
			// Further pairs after a move are line segments.
			cmd = 'L' | (cmd & 0x20)
		case 'L':
			f.lineTo(ox+a[0], oy+a[1])
		case 'H':
			f.lineTo(ox+a[0], f.y)
		case 'V':
			f.lineTo(f.x, oy+a[0])
		case 'C':
			f.cubic(ox+a[0], oy+a[1], ox+a[2], oy+a[3], ox+a[4], oy+a[5])
		case 'S':
			f.cubic(rx, ry, ox+a[0], oy+a[1], ox+a[2], oy+a[3])
		case 'Q':
			f.quad(ox+a[0], oy+a[1], ox+a[2], oy+a[3])
		case 'T':
			f.quad(rx, ry, ox+a[0], oy+a[1])
		case 'A':
			f.lineTo(ox+a[5], oy+a[6])
		}
		prev = upper
	}
	return f.out
}

// evenOdd reports whether (px, py) is inside the filled path under the
// even-odd rule.
func evenOdd(subs []subpath, px, py float64) bool {
	in := false
	for _, sp := range subs {
		n := len(sp.pts)
		if n < 3 {
			continue
		}
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			xi, yi := sp.pts[i][0], sp.pts[i][1]
			xj, yj := sp.pts[j][0], sp.pts[j][1]
			if (yi > py) != (yj > py) && px < (xj-xi)*(py-yi)/(yj-yi)+xi {
				in = !in
			}
		}
	}
	return in
}

// strokeDistance is the distance from (px, py) to the nearest stroked
// segment, or +Inf for a path with no segments.
func strokeDistance(subs []subpath, px, py float64) float64 {
	best := math.Inf(1)
	for _, sp := range subs {
		pts := sp.pts
		for i := 1; i < len(pts); i++ {
			best = math.Min(best, segmentDistance(px, py, pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1]))
		}
		if sp.closed && len(pts) > 2 {
			last := pts[len(pts)-1]
			best = math.Min(best, segmentDistance(px, py, last[0], last[1], pts[0][0], pts[0][1]))
		}
	}
	return best
}
