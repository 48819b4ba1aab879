package input

import "FilamentLabeller/internal/state"

// Mode is the drawing mode shown to the user.
type Mode uint8

const (
	Freehand Mode = iota
	Line
)

func (m Mode) String() string {
	if m == Line {
		return "Line"
	}
	return "Freehand"
}

type ActionKind uint8

const (
	// Begin starts a path and draws a dot.
	Begin ActionKind = iota
	// Extend appends a point and draws a segment from the previous one.
	Extend
	// End finalizes the open path.
	End
)

type Action struct {
	Kind ActionKind
	Pos  state.Point
}

// Tracker holds button/contact state. Primary drags draw freehand, middle
// clicks place the vertices of a straight-line path and a right click ends it.
type Tracker struct {
	engaged bool
	mode    Mode
	open    bool
}

func (t *Tracker) Engaged() bool { return t.engaged }

func (t *Tracker) Mode() Mode { return t.mode }

// Reset drops all state, e.g. when the paths are cleared underneath.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

func (t *Tracker) Handle(ev Event) []Action {
	switch ev.Kind {
	case Press:
		return t.press(ev)
	case Move:
		if t.engaged {
			return []Action{{Kind: Extend, Pos: ev.Pos}}
		}
		if ev.Source == Touch && t.mode == Freehand {
			t.engaged = true
			t.open = true
			return []Action{{Kind: Begin, Pos: ev.Pos}}
		}
	case Release:
		if t.engaged && t.mode == Freehand {
			t.engaged = false
			t.open = false
			return []Action{{Kind: End}}
		}
	}
	return nil
}

func (t *Tracker) press(ev Event) []Action {
	var actions []Action
	switch ev.Button {
	case Primary:
		if t.mode == Line && t.open {
			actions = append(actions, Action{Kind: End})
		}
		t.mode = Freehand
		t.engaged = true
		t.open = true
		actions = append(actions, Action{Kind: Begin, Pos: ev.Pos})
	case Tertiary:
		if t.engaged {
			actions = append(actions, Action{Kind: End})
			t.engaged = false
			t.open = false
		}
		t.mode = Line
		if t.open {
			actions = append(actions, Action{Kind: Extend, Pos: ev.Pos})
		} else {
			t.open = true
			actions = append(actions, Action{Kind: Begin, Pos: ev.Pos})
		}
	case Secondary:
		if t.open {
			actions = append(actions, Action{Kind: End})
		}
		t.mode = Freehand
		t.engaged = false
		t.open = false
	}
	return actions
}
