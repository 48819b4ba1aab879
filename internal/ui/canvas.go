package ui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"FilamentLabeller/internal/input"
)

// LabelCanvas stacks the micrograph, the average overlay and the drawing
// layer, and reports pointer input in image pixel coordinates.
type LabelCanvas struct {
	widget.BaseWidget

	backdrop   *canvas.Rectangle
	background *canvas.Image
	overlay    *canvas.Image
	drawing    *canvas.Image

	imageSize image.Point
	last      fyne.Position
	moved     bool

	OnEvent func(input.Event)
}

var _ fyne.Widget = (*LabelCanvas)(nil)
var _ fyne.Draggable = (*LabelCanvas)(nil)
var _ desktop.Mouseable = (*LabelCanvas)(nil)
var _ desktop.Hoverable = (*LabelCanvas)(nil)
var _ mobile.Touchable = (*LabelCanvas)(nil)

func NewLabelCanvas(width, height int) *LabelCanvas {
	c := &LabelCanvas{
		backdrop:  canvas.NewRectangle(color.NRGBA{R: 40, G: 40, B: 40, A: 255}),
		imageSize: image.Pt(width, height),
	}
	c.background = newLayerImage()
	c.overlay = newLayerImage()
	c.drawing = newLayerImage()
	c.overlay.Hide()
	c.backdrop.SetMinSize(fyne.NewSize(256, 256))
	c.ExtendBaseWidget(c)
	return c
}

func newLayerImage() *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScaleFastest
	return img
}

func (c *LabelCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(c.backdrop, c.background, c.overlay, c.drawing))
}

// SetBackground shows a new micrograph. Its size defines the image
// coordinate space input is reported in.
func (c *LabelCanvas) SetBackground(img image.Image) {
	if img != nil {
		c.imageSize = img.Bounds().Size()
	}
	c.background.Image = img
	c.background.Refresh()
}

// SetOverlay shows img above the micrograph; nil hides the overlay.
func (c *LabelCanvas) SetOverlay(img image.Image) {
	c.overlay.Image = img
	if img == nil {
		c.overlay.Hide()
		return
	}
	c.overlay.Show()
	c.overlay.Refresh()
}

// SetDrawing shows the drawing layer. The image is drawn on in place, so
// this is called after every change to re-upload it.
func (c *LabelCanvas) SetDrawing(img image.Image) {
	c.drawing.Image = img
	c.drawing.Refresh()
}

func (c *LabelCanvas) viewport() input.Viewport {
	size := c.Size()
	return input.Viewport{
		Width:       float64(size.Width),
		Height:      float64(size.Height),
		ImageWidth:  c.imageSize.X,
		ImageHeight: c.imageSize.Y,
	}
}

func (c *LabelCanvas) emit(kind input.Kind, src input.Source, button input.Button, pos fyne.Position) {
	if c.OnEvent == nil {
		return
	}
	c.OnEvent(input.Event{
		Kind:   kind,
		Source: src,
		Button: button,
		Pos:    c.viewport().ToImage(float64(pos.X), float64(pos.Y)),
	})
}

// move drops repeats: drivers may report the same position as both a hover
// and a drag.
func (c *LabelCanvas) move(src input.Source, pos fyne.Position) {
	if c.moved && pos == c.last {
		return
	}
	c.last, c.moved = pos, true
	c.emit(input.Move, src, input.Primary, pos)
}

func buttonOf(b desktop.MouseButton) (input.Button, bool) {
	switch b {
	case desktop.MouseButtonPrimary:
		return input.Primary, true
	case desktop.MouseButtonSecondary:
		return input.Secondary, true
	case desktop.MouseButtonTertiary:
		return input.Tertiary, true
	}
	return 0, false
}

func (c *LabelCanvas) MouseDown(e *desktop.MouseEvent) {
	if button, ok := buttonOf(e.Button); ok {
		c.last, c.moved = e.Position, true
		c.emit(input.Press, input.Mouse, button, e.Position)
	}
}

func (c *LabelCanvas) MouseUp(e *desktop.MouseEvent) {
	if button, ok := buttonOf(e.Button); ok {
		c.emit(input.Release, input.Mouse, button, e.Position)
	}
}

func (c *LabelCanvas) MouseMoved(e *desktop.MouseEvent) {
	c.move(input.Mouse, e.Position)
}

func (c *LabelCanvas) MouseIn(*desktop.MouseEvent) {}
func (c *LabelCanvas) MouseOut()                   {}

// TouchDown starts a path at the contact point, so a tap leaves a dot.
func (c *LabelCanvas) TouchDown(e *mobile.TouchEvent) {
	c.last, c.moved = e.Position, true
	c.emit(input.Press, input.Touch, input.Primary, e.Position)
}

func (c *LabelCanvas) TouchUp(e *mobile.TouchEvent) {
	c.emit(input.Release, input.Touch, input.Primary, e.Position)
}

func (c *LabelCanvas) TouchCancel(e *mobile.TouchEvent) {
	c.emit(input.Release, input.Touch, input.Primary, c.last)
}

// Dragged carries touch input on mobile and button-held movement on desktop.
func (c *LabelCanvas) Dragged(e *fyne.DragEvent) {
	c.move(pointerSource(), e.Position)
}

func (c *LabelCanvas) DragEnd() {
	c.emit(input.Release, pointerSource(), input.Primary, c.last)
}

func pointerSource() input.Source {
	if d := fyne.CurrentDevice(); d != nil && d.IsMobile() {
		return input.Touch
	}
	return input.Mouse
}
