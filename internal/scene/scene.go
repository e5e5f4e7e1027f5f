package scene

import (
	"sort"
)

// Tick is one axis tick.
type Tick struct {
	Pos   float64
	Label string
}

// Orient is the side an axis is drawn on.
type Orient string

const (
	Bottom Orient = "bottom"
	Left   Orient = "left"
)

// Axis is a straight axis with ticks. For a bottom axis Offset is the y
// position and Start/End span x; for a left axis Offset is x.
type Axis struct {
	Orient Orient
	Offset float64
	Start  float64
	End    float64
	Ticks  []Tick
	Label  string
}

// LegendItem is one swatch of a categorical legend.
type LegendItem struct {
	Label string
	Color string
}

// Gradient is a continuous color legend.
type Gradient struct {
	Colors   []string
	MinLabel string
	MaxLabel string
	NoData   string // swatch color for missing values, if shown
}

// Scene is the retained drawing of one chart. Shapes are keyed: adding a
// shape whose key exists replaces it in place.
type Scene struct {
	Width, Height float64
	Title         string
	Subtitle      string
	// Message is shown centered when the scene has no data or failed.
	Message  string
	Axes     []Axis
	Legend   []LegendItem
	Gradient *Gradient

	shapes []Shape
	index  map[string]int
}

// New returns an empty scene of the given size.
func New(width, height float64) *Scene {
	return &Scene{Width: width, Height: height, index: make(map[string]int)}
}

// Empty returns a scene with no shapes and a visible message.
func Empty(width, height float64, title, message string) *Scene {
	s := New(width, height)
	s.Title = title
	s.Message = message
	return s
}

// Add inserts sh, or replaces the shape with the same key.
func (s *Scene) Add(sh Shape) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[sh.Key]; ok {
		s.shapes[i] = sh
		return
	}
	s.index[sh.Key] = len(s.shapes)
	s.shapes = append(s.shapes, sh)
}

// Remove deletes the shape with key, reporting whether it existed.
func (s *Scene) Remove(key string) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.shapes); j++ {
		s.index[s.shapes[j].Key] = j
	}
	return true
}

// Get returns the shape with key.
func (s *Scene) Get(key string) (Shape, bool) {
	i, ok := s.index[key]
	if !ok {
		return Shape{}, false
	}
	return s.shapes[i], true
}

// Shapes returns the shapes in drawing order.
func (s *Scene) Shapes() []Shape {
	return s.shapes
}

// Len returns the number of shapes.
func (s *Scene) Len() int {
	return len(s.shapes)
}

// Keys returns the shape keys, sorted.
func (s *Scene) Keys() []string {
	keys := make([]string, 0, len(s.shapes))
	for _, sh := range s.shapes {
		keys = append(keys, sh.Key)
	}
	sort.Strings(keys)
	return keys
}

// HitTest returns the top-most interactive shape containing (x, y).
func (s *Scene) HitTest(x, y float64) (Shape, bool) {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		sh := s.shapes[i]
		if sh.Interactive() && sh.Contains(x, y) {
			return sh, true
		}
	}
	return Shape{}, false
}

// Delta lists how the keys of two scenes differ.
type Delta struct {
	Entered []string `json:"entered"`
	Updated []string `json:"updated"`
	Exited  []string `json:"exited"`
}

// Diff compares prev with next. Updated lists keys whose shape changed.
// Either scene may be nil.
func Diff(prev, next *Scene) Delta {
	var d Delta
	if next != nil {
		for _, sh := range next.shapes {
			var old Shape
			var ok bool
			if prev != nil {
				old, ok = prev.Get(sh.Key)
			}
			switch {
			case !ok:
				d.Entered = append(d.Entered, sh.Key)
			case old != sh:
				d.Updated = append(d.Updated, sh.Key)
			}
		}
	}
	if prev != nil {
		for _, sh := range prev.shapes {
			if next == nil {
				d.Exited = append(d.Exited, sh.Key)
				continue
			}
			if _, ok := next.Get(sh.Key); !ok {
				d.Exited = append(d.Exited, sh.Key)
			}
		}
	}
	sort.Strings(d.Entered)
	sort.Strings(d.Updated)
	sort.Strings(d.Exited)
	return d
}
