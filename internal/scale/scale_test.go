package scale

import (
	"fmt"
	"math"
	"testing"
)

func TestLinearMap(t *testing.T) {
	s := NewLinear(0, 100, 400, 0) // inverted y axis
	tests := []struct {
		x    float64
		want float64
	}{
		{0, 400},
		{50, 200},
		{100, 0},
	}
	for _, tt := range tests {
		if got := s.Map(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Map(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := s.Invert(100); math.Abs(got-75) > 1e-9 {
		t.Errorf("Invert(100) = %v, want 75", got)
	}
}

func TestLinearTicksAndNice(t *testing.T) {
	s := NewLinear(41.3, 87.9, 0, 500)
	n := s.Nice(10)
	if n.Domain[0] > 41.3 || n.Domain[1] < 87.9 {
		t.Errorf("Nice() domain = %v, want to contain [41.3, 87.9]", n.Domain)
	}
	ticks := n.Ticks(10)
	if len(ticks) == 0 || len(ticks) > 10 {
		t.Fatalf("Ticks(10) = %v", ticks)
	}
	for _, tk := range ticks {
		if tk < n.Domain[0] || tk > n.Domain[1] {
			t.Errorf("tick %v outside %v", tk, n.Domain)
		}
	}
}

func TestExtentAndPadded(t *testing.T) {
	lo, hi, ok := Extent([]float64{3, math.NaN(), -2, 7})
	if !ok || lo != -2 || hi != 7 {
		t.Errorf("Extent() = %v, %v, %v", lo, hi, ok)
	}
	if _, _, ok := Extent([]float64{math.NaN()}); ok {
		t.Errorf("Extent(NaN) ok = true")
	}
	if a, b := Padded(50, 50, 0); a != 49 || b != 51 {
		t.Errorf("Padded(50, 50, 0) = %v, %v, want 49, 51", a, b)
	}
	if a, b := Padded(40, 80, 5); a != 35 || b != 85 {
		t.Errorf("Padded(40, 80, 5) = %v, %v", a, b)
	}
}

func TestBand(t *testing.T) {
	b := NewBand([]string{"a", "b", "c", "d"}, 0, 400, 0.2)
	if got := b.Bandwidth(); math.Abs(got-80) > 1e-9 {
		t.Errorf("Bandwidth() = %v, want 80", got)
	}
	x, ok := b.Map("c")
	if !ok || math.Abs(x-210) > 1e-9 {
		t.Errorf("Map(c) = %v, %v, want 210", x, ok)
	}
	if _, ok := b.Map("z"); ok {
		t.Errorf("Map(z) ok = true")
	}
}

func TestSqrt(t *testing.T) {
	s := Sqrt{Domain: [2]float64{0, 100}, Range: [2]float64{3, 20}}
	if got := s.Map(0); got != 3 {
		t.Errorf("Map(0) = %v, want 3", got)
	}
	if got := s.Map(100); got != 20 {
		t.Errorf("Map(100) = %v, want 20", got)
	}
	if got := s.Map(25); math.Abs(got-11.5) > 1e-9 {
		t.Errorf("Map(25) = %v, want 11.5", got)
	}
}

func TestSequential(t *testing.T) {
	s := Sequential{Min: 0.5, Max: 1.5, Palette: Purples}
	if got := s.Color(0, false); got != NoDataColor {
		t.Errorf("Color(absent) = %q, want %q", got, NoDataColor)
	}
	if got := s.Color(2, true); got != "#3f007d" {
		t.Errorf("Color(above max) = %q, want darkest purple", got)
	}
	if got := s.Color(0.1, true); got != "#fcfbfd" {
		t.Errorf("Color(below min) = %q, want lightest purple", got)
	}
}

func TestHex(t *testing.T) {
	for _, in := range []string{"#143642", "#aabbcc"} {
		if got := Hex(ParseHex(in)); got != in {
			t.Errorf("Hex(ParseHex(%q)) = %q", in, got)
		}
	}
	if got := Hex(ParseHex("#ccc")); got != "#cccccc" {
		t.Errorf("Hex(ParseHex(#ccc)) = %q", got)
	}
}

func TestOrdinal(t *testing.T) {
	o := NewOrdinal(RegionColors, []string{"Europe", "Atlantis", "Mu"})
	if got := o.Color("Africa"); got != "#143642" {
		t.Errorf("Color(Africa) = %q", got)
	}
	if got := o.Color("Atlantis"); got != Category10[0] {
		t.Errorf("Color(Atlantis) = %q, want first fallback", got)
	}
	if got := o.Color("Mu"); got != Category10[1] {
		t.Errorf("Color(Mu) = %q, want second fallback", got)
	}
}

func TestOrdinal_UnlistedCategories(t *testing.T) {
	o := NewOrdinal(nil, []string{"Asia"})
	first := o.Color("Oceania")
	for i := 0; i < 3; i++ {
		o.Color(fmt.Sprintf("extra %d", i))
	}
	if got := o.Color("Oceania"); got != first {
		t.Errorf("Color(Oceania) = %q after other lookups, want %q", got, first)
	}
	if got := o.Color("Asia"); got != Category10[0] {
		t.Errorf("Color(Asia) = %q, want first fallback", got)
	}

	var zero Ordinal
	if got := zero.Color("Asia"); got != NoDataColor {
		t.Errorf("zero Ordinal Color(Asia) = %q, want %q", got, NoDataColor)
	}
}
