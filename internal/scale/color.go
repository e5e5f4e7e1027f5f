package scale

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/palette"
)

// NoDataColor fills shapes whose value is absent.
const NoDataColor = "#ccc"

// Hex formats c as #rrggbb.
func Hex(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// ParseHex parses #rgb or #rrggbb. Invalid input yields black.
func ParseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
}

func gradient(hexes ...string) palette.RGBGradient {
	cs := make([]color.RGBA, len(hexes))
	for i, h := range hexes {
		cs[i] = ParseHex(h)
	}
	return palette.RGBGradient{Colors: cs}
}

// ColorBrewer sequential schemes, 9 classes.
var (
	Purples = gradient("#fcfbfd", "#efedf5", "#dadaeb", "#bcbddc", "#9e9ac8", "#807dba", "#6a51a3", "#54278f", "#3f007d")
	YlGnBu  = gradient("#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4", "#1d91c0", "#225ea8", "#253494", "#081d58")
	Reds    = gradient("#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d")
	Blues   = gradient("#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b")
)

// Sequential maps a continuous domain through a gradient.
type Sequential struct {
	Min, Max float64
	Palette  palette.Continuous
}

// Color returns the fill for v, or NoDataColor when ok is false or v is not
// finite.
func (s Sequential) Color(v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return NoDataColor
	}
	u := 0.5
	if s.Max != s.Min {
		u = (v - s.Min) / (s.Max - s.Min)
	}
	u = math.Max(0, math.Min(1, u))
	return Hex(s.Palette.Map(u))
}

// Ordinal maps categories to colors. Categories in Colors keep their color;
// the categories given to NewOrdinal take Fallback colors in order; any
// other category hashes into Fallback. Lookups never change the mapping.
type Ordinal struct {
	Colors   map[string]string
	Fallback []string

	assigned map[string]string
}

// RegionColors are the WHO region colors.
var RegionColors = map[string]string{
	"Africa":                "#143642",
	"Eastern Mediterranean": "#741C28",
	"Western Pacific":       "#877765",
	"Americas":              "#E7DECD",
	"South-East Asia":       "#A1A8BE",
	"Europe":                "#BB8C94",
}

// Category10 is the fallback categorical palette.
var Category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// NewOrdinal returns an ordinal scale over the Category10 fallback.
func NewOrdinal(colors map[string]string, order []string) *Ordinal {
	o := &Ordinal{Colors: colors, Fallback: Category10, assigned: make(map[string]string)}
	for _, k := range order {
		if _, ok := colors[k]; ok {
			continue
		}
		if _, ok := o.assigned[k]; ok {
			continue
		}
		o.assigned[k] = o.Fallback[len(o.assigned)%len(o.Fallback)]
	}
	return o
}

// Color returns the color for key. A scale without fallback colors returns
// NoDataColor for categories it does not know.
func (o *Ordinal) Color(key string) string {
	if c, ok := o.Colors[key]; ok {
		return c
	}
	if c, ok := o.assigned[key]; ok {
		return c
	}
	if len(o.Fallback) == 0 {
		return NoDataColor
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return o.Fallback[h.Sum32()%uint32(len(o.Fallback))]
}
