// Package render rasterises recorded paths into the drawing layer and
// composites the layers shown to the user.
package render

import (
	"image"
	"image/draw"
	"io"

	"github.com/fogleman/gg"

	"FilamentLabeller/internal/state"
)

// DefaultColor is the stroke colour paths are drawn in.
const DefaultColor = "#ff0000"

// Layer is the transparent surface paths are drawn onto.
type Layer struct {
	dc    *gg.Context
	color string
}

func NewLayer(width, height int, color string) *Layer {
	if color == "" {
		color = DefaultColor
	}
	return &Layer{dc: gg.NewContext(width, height), color: color}
}

func (l *Layer) Size() (int, int) {
	return l.dc.Width(), l.dc.Height()
}

// Resize replaces the surface with an empty one of the given size.
func (l *Layer) Resize(width, height int) {
	if w, h := l.Size(); w == width && h == height {
		l.Clear()
		return
	}
	l.dc = gg.NewContext(width, height)
}

func (l *Layer) Clear() {
	l.dc.SetRGBA(0, 0, 0, 0)
	l.dc.Clear()
}

// Dot marks the start of a path.
func (l *Layer) Dot(p state.Point, width float64) {
	l.dc.SetHexColor(l.color)
	l.dc.DrawCircle(p.X, p.Y, width/2)
	l.dc.Fill()
}

// Segment draws a round-capped line from one point to the next.
func (l *Layer) Segment(from, to state.Point, width float64) {
	if from == to {
		l.Dot(to, width)
		return
	}
	l.dc.SetHexColor(l.color)
	l.dc.SetLineCap(gg.LineCapRound)
	l.dc.SetLineWidth(width)
	l.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	l.dc.Stroke()
}

// Redraw clears the layer and draws every path in order at the given width.
// The previous-point cursor starts empty for each path so that consecutive
// paths are never joined.
func (l *Layer) Redraw(paths []state.Path, width float64) {
	l.Clear()
	for _, p := range paths {
		var prev *state.Point
		for i := range p.Points {
			pt := p.Points[i]
			if prev == nil {
				l.Dot(pt, width)
			} else {
				l.Segment(*prev, pt, width)
			}
			prev = &pt
		}
	}
}

// Image returns the live surface. It changes as the layer is drawn on.
func (l *Layer) Image() image.Image {
	return l.dc.Image()
}

// Snapshot returns a copy of the current pixels.
func (l *Layer) Snapshot() *image.RGBA {
	src := l.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func (l *Layer) EncodePNG(w io.Writer) error {
	return l.dc.EncodePNG(w)
}
