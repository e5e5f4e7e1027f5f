package scene

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestAddReplacesSameKey(t *testing.T) {
	s := New(200, 100)
	s.Add(Shape{Key: "France", Kind: KindCircle, X: 10, Y: 10, R: 5})
	s.Add(Shape{Key: "Kenya", Kind: KindCircle, X: 20, Y: 10, R: 5})
	s.Add(Shape{Key: "France", Kind: KindCircle, X: 30, Y: 10, R: 8})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	got, ok := s.Get("France")
	if !ok || got.X != 30 || got.R != 8 {
		t.Errorf("Get(France) = %+v, want the replacement", got)
	}
	if s.Shapes()[0].Key != "France" {
		t.Errorf("replacement moved the shape: order = %v", s.Keys())
	}

	if !s.Remove("France") || s.Len() != 1 {
		t.Errorf("Remove(France) failed")
	}
	if got, ok := s.Get("Kenya"); !ok || got.X != 20 {
		t.Errorf("Get(Kenya) after Remove = %+v, %v", got, ok)
	}
}

func TestDiff(t *testing.T) {
	prev := New(100, 100)
	prev.Add(Shape{Key: "a", Kind: KindRect, W: 1, H: 1})
	prev.Add(Shape{Key: "b", Kind: KindRect, W: 1, H: 1})
	prev.Add(Shape{Key: "c", Kind: KindRect, W: 1, H: 1})

	next := New(100, 100)
	next.Add(Shape{Key: "a", Kind: KindRect, W: 1, H: 1})
	next.Add(Shape{Key: "b", Kind: KindRect, W: 2, H: 1})
	next.Add(Shape{Key: "d", Kind: KindRect, W: 1, H: 1})

	d := Diff(prev, next)
	if strings.Join(d.Entered, ",") != "d" || strings.Join(d.Updated, ",") != "b" || strings.Join(d.Exited, ",") != "c" {
		t.Errorf("Diff() = %+v", d)
	}

	d = Diff(nil, next)
	if len(d.Entered) != 3 || len(d.Exited) != 0 {
		t.Errorf("Diff(nil, next) = %+v", d)
	}
}

func TestHitTest(t *testing.T) {
	s := New(200, 200)
	s.Add(Shape{Key: "bg", Kind: KindRect, X: 0, Y: 0, W: 200, H: 200})
	s.Add(Shape{Key: "bar", Kind: KindRect, X: 10, Y: 50, W: 20, H: 100, Tooltip: "bar"})
	s.Add(Shape{Key: "dot", Kind: KindCircle, X: 20, Y: 60, R: 5, Tooltip: "dot"})
	s.Add(Shape{Key: "link", Kind: KindPath, D: "M100,100C120,100 120,150 140,150", Style: Style{Fill: "none", StrokeWidth: 10}, Tooltip: "link"})

	tests := []struct {
		x, y float64
		want string
	}{
		{20, 60, "dot"},  // top-most wins
		{20, 120, "bar"}, // only the bar
		{130, 140, "link"},
		{100, 150, ""}, // inside the link's box, away from its band
		{180, 20, ""}, // background is not interactive
	}
	for _, tt := range tests {
		got, ok := s.HitTest(tt.x, tt.y)
		if tt.want == "" {
			if ok {
				t.Errorf("HitTest(%v, %v) = %q, want none", tt.x, tt.y, got.Key)
			}
			continue
		}
		if !ok || got.Key != tt.want {
			t.Errorf("HitTest(%v, %v) = %q, want %q", tt.x, tt.y, got.Key, tt.want)
		}
	}
}

func TestHitTest_OverlappingPaths(t *testing.T) {
	s := New(200, 200)
	s.Add(Shape{Key: "B", Kind: KindPath, D: "M80,80L90,80L90,90L80,90Z", Tooltip: "B"})
	s.Add(Shape{Key: "A", Kind: KindPath, D: "M0,0L100,0L0,100Z", Tooltip: "A"})

	if got, ok := s.HitTest(85, 85); !ok || got.Key != "B" {
		t.Errorf("HitTest(85, 85) = %q, %v; want B", got.Key, ok)
	}
	if got, ok := s.HitTest(20, 20); !ok || got.Key != "A" {
		t.Errorf("HitTest(20, 20) = %q, %v; want A", got.Key, ok)
	}
	if got, ok := s.HitTest(95, 60); ok {
		t.Errorf("HitTest(95, 60) = %q, want none", got.Key)
	}
}

func TestContains_Paths(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		x, y  float64
		want  bool
	}{
		{"hole is outside", Shape{Kind: KindPath, D: "M0,0L50,0L50,50L0,50Z M10,10L40,10L40,40L10,40Z"}, 25, 25, false},
		{"ring is inside", Shape{Kind: KindPath, D: "M0,0L50,0L50,50L0,50Z M10,10L40,10L40,40L10,40Z"}, 5, 5, true},
		{"relative square", Shape{Kind: KindPath, D: "m10,10 l20,0 0,20 -20,0z"}, 20, 20, true},
		{"relative square outside", Shape{Kind: KindPath, D: "m10,10 l20,0 0,20 -20,0z"}, 35, 20, false},
		{"h and v", Shape{Kind: KindPath, D: "M0,0H10V10H0Z"}, 5, 5, true},
		{"band centre", Shape{Kind: KindPath, D: "M0,50C50,50 50,50 100,50", Style: Style{Fill: "none", StrokeWidth: 8}}, 50, 53, true},
		{"past band edge", Shape{Kind: KindPath, D: "M0,50C50,50 50,50 100,50", Style: Style{Fill: "none", StrokeWidth: 8}}, 50, 55, false},
		{"unfilled without stroke", Shape{Kind: KindPath, D: "M0,0L50,0L50,50L0,50Z", Style: Style{Fill: "none"}}, 25, 25, false},
		{"empty path", Shape{Kind: KindPath}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestPathBounds_Curve(t *testing.T) {
	s := Shape{Kind: KindPath, D: "M0,0C0,100 100,100 100,0"}
	x0, y0, x1, y1 := s.Bounds()
	// The curve peaks at y=75, short of its control points.
	if x0 != 0 || y0 != 0 || x1 != 100 || y1 < 74 || y1 > 76 {
		t.Errorf("Bounds() = %v, %v, %v, %v; want 0, 0, 100, ~75", x0, y0, x1, y1)
	}
}

func TestWriteSVG(t *testing.T) {
	s := New(300, 200)
	s.Title = "Life expectancy & health"
	s.Add(Shape{
		Key: "France", Kind: KindCircle, X: 50, Y: 50, R: 6,
		Style:   Style{Fill: "#BB8C94"},
		Tooltip: "France: 82.3 years", HoverFill: "orange", HoverScale: 1.5,
	})
	s.Add(Shape{Key: "label", Kind: KindText, X: 10, Y: 190, Text: "<note>"})
	s.Axes = []Axis{{Orient: Bottom, Offset: 180, Start: 20, End: 280, Ticks: []Tick{{Pos: 20, Label: "60"}, {Pos: 280, Label: "90"}}}}
	s.Legend = []LegendItem{{Label: "Europe", Color: "#BB8C94"}}
	s.Gradient = &Gradient{Colors: []string{"#fff", "#000"}, MinLabel: "0.5", MaxLabel: "1.5", NoData: "#ccc"}

	var buf bytes.Buffer
	if err := s.WriteSVG(&buf); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`data-key="France"`,
		`data-hover-fill="orange"`,
		`data-hover-scale="1.50"`,
		`<title>France: 82.3 years</title>`,
		`&lt;note&gt;`,
		`Life expectancy &amp; health`,
		`linearGradient id="legend-gradient"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("WriteSVG() output missing %q", want)
		}
	}

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("output is not well-formed XML: %v\n%s", err, out)
			}
			break
		}
	}
}

func TestWriteSVG_EmptyMessage(t *testing.T) {
	s := Empty(300, 200, "Violin", "no data for selection")
	var buf bytes.Buffer
	if err := s.WriteSVG(&buf); err != nil {
		t.Fatalf("WriteSVG() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if !strings.Contains(buf.String(), "no data for selection") {
		t.Errorf("empty scene missing its message")
	}
}

func TestFixedAndThousands(t *testing.T) {
	if got := Fixed(82.345, 1); got != "82.3" {
		t.Errorf("Fixed(82.345, 1) = %q", got)
	}
	if got := Thousands(1234567); got != "1,234,567" {
		t.Errorf("Thousands(1234567) = %q", got)
	}
	if got := Thousands(-950); got != "-950" {
		t.Errorf("Thousands(-950) = %q", got)
	}
}

func TestTextWidth(t *testing.T) {
	if got := TextWidth("abcd", 13); got != 28 {
		t.Errorf("TextWidth(abcd, 13) = %v, want 28", got)
	}
	if got := TextWidth("abcd", 26); got != 56 {
		t.Errorf("TextWidth(abcd, 26) = %v, want 56", got)
	}
}
