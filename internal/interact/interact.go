// Package interact implements the hover state machine shared by every chart.
//
// The machine is either Idle or Hovering one shape key. Pointer events drive
// the transitions, and the tooltip and highlight are derived from the state
// alone.
package interact

import (
	"github.com/vizwizards/lifeviz/internal/scene"
)

// State is the machine state.
type State int

const (
	Idle State = iota
	Hovering
)

func (s State) String() string {
	if s == Hovering {
		return "hovering"
	}
	return "idle"
}

// DefaultOffset places the tooltip to the lower right of the pointer.
var DefaultOffset = [2]float64{10, -28}

// DefaultHoverScale applies to hovered shapes that do not set their own
// scale: they keep their size and only change fill.
const DefaultHoverScale = 1.0

// Highlight is the style applied to the hovered shape.
type Highlight struct {
	Key   string  `json:"key"`
	Fill  string  `json:"fill,omitempty"`
	Scale float64 `json:"scale"`
}

// View is what the page should show for the current state.
type View struct {
	State     string     `json:"state"`
	Visible   bool       `json:"visible"`
	Text      string     `json:"text,omitempty"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	Highlight *Highlight `json:"highlight,omitempty"`
}

// Machine tracks hover over one scene. It is not safe for concurrent use.
type Machine struct {
	scene  *scene.Scene
	state  State
	key    string
	px, py float64
	Offset [2]float64
}

// New returns an idle machine over s.
func New(s *scene.Scene) *Machine {
	return &Machine{scene: s, Offset: DefaultOffset}
}

// State returns the current state and hovered key.
func (m *Machine) State() (State, string) {
	return m.state, m.key
}

// PointerEnter moves to Hovering(key) if the scene has an interactive shape
// with that key.
func (m *Machine) PointerEnter(key string, x, y float64) View {
	m.px, m.py = x, y
	if sh, ok := m.scene.Get(key); ok && sh.Interactive() {
		m.state, m.key = Hovering, key
	} else {
		m.state, m.key = Idle, ""
	}
	return m.View()
}

// PointerMove hit-tests the scene at (x, y). Entering a shape, switching
// between shapes and leaving all shapes are handled here.
func (m *Machine) PointerMove(x, y float64) View {
	m.px, m.py = x, y
	if sh, ok := m.scene.HitTest(x, y); ok {
		m.state, m.key = Hovering, sh.Key
	} else {
		m.state, m.key = Idle, ""
	}
	return m.View()
}

// PointerLeave returns to Idle.
func (m *Machine) PointerLeave() View {
	m.state, m.key = Idle, ""
	return m.View()
}

// SetScene swaps the scene after an update. A hovered key that no longer
// exists drops the machine back to Idle.
func (m *Machine) SetScene(s *scene.Scene) {
	m.scene = s
	if m.state == Hovering {
		if sh, ok := s.Get(m.key); !ok || !sh.Interactive() {
			m.state, m.key = Idle, ""
		}
	}
}

// View derives the tooltip and highlight from the state.
func (m *Machine) View() View {
	v := View{State: m.state.String()}
	if m.state != Hovering {
		return v
	}
	sh, ok := m.scene.Get(m.key)
	if !ok {
		return v
	}
	scale := sh.HoverScale
	if scale <= 0 {
		scale = DefaultHoverScale
	}
	v.Visible = true
	v.Text = sh.Tooltip
	v.X = m.px + m.Offset[0]
	v.Y = m.py + m.Offset[1]
	v.Highlight = &Highlight{Key: sh.Key, Fill: sh.HoverFill, Scale: scale}
	return v
}
