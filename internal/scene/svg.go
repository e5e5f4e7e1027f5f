package scene

import (
	"fmt"
	"html"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo/float"
)

// Layout constants for the chrome around the plot area.
const (
	titleSize    = 16.0
	labelSize    = 11.0
	tickLength   = 5.0
	legendSwatch = 10.0
	legendGap    = 6.0
)

const markCSS = `.mark { cursor: pointer; }
.mark.hover > * { stroke: #222; stroke-width: 1.5; }
.axis line, .axis path { stroke: #555; }
.axis text { fill: #333; font-size: 11px; }
.empty { fill: #666; font-size: 14px; }`

// errWriter records the first write error so svgo's unchecked writes can be
// reported once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func (st Style) css() string {
	var parts []string
	if st.Fill != "" {
		parts = append(parts, "fill:"+st.Fill)
	}
	if st.Stroke != "" {
		parts = append(parts, "stroke:"+st.Stroke)
	}
	if st.StrokeWidth > 0 {
		parts = append(parts, "stroke-width:"+Fixed(st.StrokeWidth, 1))
	}
	if st.Opacity > 0 && st.Opacity < 1 {
		parts = append(parts, "opacity:"+Fixed(st.Opacity, 2))
	}
	if st.FontSize > 0 {
		parts = append(parts, "font-size:"+Fixed(st.FontSize, 0)+"px")
	}
	if st.Anchor != "" {
		parts = append(parts, "text-anchor:"+st.Anchor)
	}
	return strings.Join(parts, ";")
}

func (st Style) attrs() []string {
	var out []string
	if css := st.css(); css != "" {
		out = append(out, css)
	}
	if st.Class != "" {
		out = append(out, attr("class", st.Class))
	}
	return out
}

// WriteSVG renders the scene as a standalone SVG document. Interactive
// shapes are wrapped in a group carrying data-key, data-hover-fill and
// data-hover-scale plus a <title> tooltip.
func (s *Scene) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Decimals = 2

	canvas.Start(s.Width, s.Height,
		fmt.Sprintf(`viewBox="0 0 %s %s"`, Fixed(s.Width, 2), Fixed(s.Height, 2)),
		attr("class", "lifeviz"),
		attr("data-shapes", fmt.Sprint(len(s.shapes))))
	if s.Title != "" {
		canvas.Title(s.Title)
	}
	canvas.Style("text/css", markCSS)

	if s.Gradient != nil && len(s.Gradient.Colors) > 1 {
		canvas.Def()
		stops := make([]svg.Offcolor, len(s.Gradient.Colors))
		for i, c := range s.Gradient.Colors {
			stops[i] = svg.Offcolor{Offset: uint8(100 * i / (len(s.Gradient.Colors) - 1)), Color: c, Opacity: 1}
		}
		canvas.LinearGradient("legend-gradient", 0, 0, 100, 0, stops)
		canvas.DefEnd()
	}

	if s.Title != "" {
		canvas.Text(s.Width/2, titleSize+4, s.Title, "text-anchor:middle;font-size:16px;font-weight:bold", attr("class", "title"))
	}
	if s.Subtitle != "" {
		canvas.Text(s.Width/2, titleSize+20, s.Subtitle, "text-anchor:middle;font-size:12px;fill:#555", attr("class", "subtitle"))
	}

	for _, ax := range s.Axes {
		writeAxis(canvas, ax)
	}

	canvas.Group(attr("class", "marks"))
	for _, sh := range s.shapes {
		writeShape(canvas, sh)
	}
	canvas.Gend()

	s.writeLegend(canvas)

	if s.Message != "" {
		canvas.Text(s.Width/2, s.Height/2, s.Message, "text-anchor:middle", attr("class", "empty"))
	}
	canvas.End()
	return ew.err
}

func writeShape(canvas *svg.SVG, sh Shape) {
	attrs := sh.Style.attrs()
	if !sh.Interactive() {
		attrs = append(attrs, attr("data-key", sh.Key))
		drawShape(canvas, sh, attrs)
		return
	}

	group := []string{attr("class", "mark"), attr("data-key", sh.Key)}
	if sh.HoverFill != "" {
		group = append(group, attr("data-hover-fill", sh.HoverFill))
	}
	if sh.HoverScale > 0 {
		group = append(group, attr("data-hover-scale", Fixed(sh.HoverScale, 2)))
	}
	canvas.Group(group...)
	canvas.Title(sh.Tooltip)
	drawShape(canvas, sh, attrs)
	canvas.Gend()
}

func drawShape(canvas *svg.SVG, sh Shape, attrs []string) {
	switch sh.Kind {
	case KindRect:
		x0, y0, x1, y1 := sh.X, sh.Y, sh.X+sh.W, sh.Y+sh.H
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		canvas.Rect(x0, y0, x1-x0, y1-y0, attrs...)
	case KindCircle:
		canvas.Circle(sh.X, sh.Y, sh.R, attrs...)
	case KindLine:
		canvas.Line(sh.X, sh.Y, sh.X2, sh.Y2, attrs...)
	case KindPath:
		canvas.Path(html.EscapeString(sh.D), attrs...)
	case KindText:
		canvas.Text(sh.X, sh.Y, sh.Text, attrs...)
	}
}

func writeAxis(canvas *svg.SVG, ax Axis) {
	canvas.Group(attr("class", "axis axis-"+string(ax.Orient)))
	switch ax.Orient {
	case Bottom:
		canvas.Line(ax.Start, ax.Offset, ax.End, ax.Offset)
		for _, t := range ax.Ticks {
			canvas.Line(t.Pos, ax.Offset, t.Pos, ax.Offset+tickLength)
			canvas.Text(t.Pos, ax.Offset+tickLength+labelSize+1, t.Label, "text-anchor:middle")
		}
		if ax.Label != "" {
			canvas.Text((ax.Start+ax.End)/2, ax.Offset+tickLength+2*labelSize+8, ax.Label, "text-anchor:middle", attr("class", "axis-label"))
		}
	case Left:
		canvas.Line(ax.Offset, ax.Start, ax.Offset, ax.End)
		for _, t := range ax.Ticks {
			canvas.Line(ax.Offset-tickLength, t.Pos, ax.Offset, t.Pos)
			canvas.Text(ax.Offset-tickLength-3, t.Pos+labelSize/3, t.Label, "text-anchor:end")
		}
		if ax.Label != "" {
			mid := (ax.Start + ax.End) / 2
			x := ax.Offset - tickLength - maxLabelWidth(ax.Ticks) - 12
			canvas.Text(x, mid, ax.Label, "text-anchor:middle",
				fmt.Sprintf(`transform="rotate(-90 %s %s)"`, Fixed(x, 2), Fixed(mid, 2)), attr("class", "axis-label"))
		}
	}
	canvas.Gend()
}

func maxLabelWidth(ticks []Tick) float64 {
	var m float64
	for _, t := range ticks {
		m = max(m, TextWidth(t.Label, labelSize))
	}
	return m
}

// writeLegend stacks swatches in the top-right corner, and a gradient bar
// below them when the scene has one.
func (s *Scene) writeLegend(canvas *svg.SVG) {
	if len(s.Legend) == 0 && s.Gradient == nil {
		return
	}
	var width float64
	for _, it := range s.Legend {
		width = max(width, TextWidth(it.Label, labelSize))
	}
	width += legendSwatch + legendGap
	x := s.Width - width - 10
	y := titleSize + 30.0

	canvas.Group(attr("class", "legend"))
	for _, it := range s.Legend {
		canvas.Rect(x, y, legendSwatch, legendSwatch, "fill:"+it.Color, attr("data-legend", it.Label))
		canvas.Text(x+legendSwatch+legendGap, y+legendSwatch-1, it.Label, "font-size:11px")
		y += legendSwatch + legendGap
	}
	if g := s.Gradient; g != nil {
		const barWidth = 120.0
		gx := s.Width - barWidth - 10
		canvas.Rect(gx, y, barWidth, legendSwatch, "fill:url(#legend-gradient)")
		canvas.Text(gx, y+legendSwatch+labelSize+2, g.MinLabel, "font-size:11px")
		canvas.Text(gx+barWidth, y+legendSwatch+labelSize+2, g.MaxLabel, "font-size:11px;text-anchor:end")
		if g.NoData != "" {
			ny := y + legendSwatch + 2*labelSize + 6
			canvas.Rect(gx, ny, legendSwatch, legendSwatch, "fill:"+g.NoData)
			canvas.Text(gx+legendSwatch+legendGap, ny+legendSwatch-1, "No data", "font-size:11px")
		}
	}
	canvas.Gend()
}
