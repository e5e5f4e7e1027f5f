package interact

import (
	"testing"

	"github.com/vizwizards/lifeviz/internal/scene"
)

func testScene() *scene.Scene {
	s := scene.New(200, 200)
	s.Add(scene.Shape{Key: "France", Kind: scene.KindCircle, X: 50, Y: 50, R: 10, Tooltip: "France: 82.3", HoverFill: "orange", HoverScale: 1.5})
	s.Add(scene.Shape{Key: "Kenya", Kind: scene.KindCircle, X: 150, Y: 50, R: 10, Tooltip: "Kenya: 62.1"})
	s.Add(scene.Shape{Key: "axis", Kind: scene.KindLine, X: 0, Y: 190, X2: 200, Y2: 190})
	return s
}

func TestMachineTransitions(t *testing.T) {
	m := New(testScene())

	tests := []struct {
		name      string
		event     func() View
		wantState State
		wantKey   string
	}{
		{"move over empty space", func() View { return m.PointerMove(100, 150) }, Idle, ""},
		{"move onto France", func() View { return m.PointerMove(52, 48) }, Hovering, "France"},
		{"move within France", func() View { return m.PointerMove(55, 50) }, Hovering, "France"},
		{"move onto Kenya", func() View { return m.PointerMove(150, 50) }, Hovering, "Kenya"},
		{"leave", func() View { return m.PointerLeave() }, Idle, ""},
		{"enter France by key", func() View { return m.PointerEnter("France", 50, 50) }, Hovering, "France"},
		{"enter non-interactive", func() View { return m.PointerEnter("axis", 10, 190) }, Idle, ""},
		{"move onto axis", func() View { return m.PointerMove(10, 190) }, Idle, ""},
	}
	for _, tt := range tests {
		v := tt.event()
		state, key := m.State()
		if state != tt.wantState || key != tt.wantKey {
			t.Errorf("%s: state = %v %q, want %v %q", tt.name, state, key, tt.wantState, tt.wantKey)
		}
		if v.Visible != (tt.wantState == Hovering) {
			t.Errorf("%s: Visible = %v", tt.name, v.Visible)
		}
	}
}

func TestMachineView(t *testing.T) {
	m := New(testScene())
	v := m.PointerMove(50, 50)
	if v.Text != "France: 82.3" {
		t.Errorf("Text = %q", v.Text)
	}
	if v.X != 60 || v.Y != 22 {
		t.Errorf("position = %v, %v, want pointer + offset (60, 22)", v.X, v.Y)
	}
	if v.Highlight == nil || v.Highlight.Fill != "orange" || v.Highlight.Scale != 1.5 {
		t.Errorf("Highlight = %+v", v.Highlight)
	}

	v = m.PointerMove(150, 50)
	if v.Highlight.Scale != DefaultHoverScale {
		t.Errorf("Scale = %v, want default", v.Highlight.Scale)
	}

	if v := m.PointerLeave(); v.Visible || v.Highlight != nil {
		t.Errorf("idle view = %+v, want hidden", v)
	}
}

func TestMachineSetScene(t *testing.T) {
	m := New(testScene())
	m.PointerMove(150, 50)

	next := scene.New(200, 200)
	next.Add(scene.Shape{Key: "France", Kind: scene.KindCircle, X: 50, Y: 50, R: 10, Tooltip: "France"})
	m.SetScene(next)
	if state, _ := m.State(); state != Idle {
		t.Errorf("state after removing hovered shape = %v, want idle", state)
	}
}
