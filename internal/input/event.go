// Package input normalizes pointer and touch input into a single event type
// and turns it into path recording actions.
package input

import (
	"fmt"

	"FilamentLabeller/internal/state"
)

type Kind uint8

const (
	Press Kind = iota
	Move
	Release
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "Press"
	case Move:
		return "Move"
	case Release:
		return "Release"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type Source uint8

const (
	Mouse Source = iota
	Touch
)

func (s Source) String() string {
	if s == Touch {
		return "Touch"
	}
	return "Mouse"
}

type Button uint8

const (
	Primary Button = iota
	Secondary
	Tertiary
)

// Event is a pointer event in image pixel coordinates.
type Event struct {
	Kind   Kind
	Source Source
	Button Button
	Pos    state.Point
}

// Viewport maps widget-local positions onto the image shown in the widget,
// which is stretched to fill it.
type Viewport struct {
	Width, Height           float64
	ImageWidth, ImageHeight int
}

func (v Viewport) ToImage(x, y float64) state.Point {
	if v.Width <= 0 || v.Height <= 0 || v.ImageWidth <= 0 || v.ImageHeight <= 0 {
		return state.Point{X: x, Y: y}
	}
	return state.Point{
		X: x * float64(v.ImageWidth) / v.Width,
		Y: y * float64(v.ImageHeight) / v.Height,
	}
}
