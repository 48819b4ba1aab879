package ui

import (
	"fmt"
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"FilamentLabeller/internal/config"
	"FilamentLabeller/internal/input"
	"FilamentLabeller/internal/labeller"
)

// Workbench is the labelling window's content: toolbar, canvas and status
// bar, wired to a labeller.Session.
type Workbench struct {
	window  fyne.Window
	session *labeller.Session

	canvas     *LabelCanvas
	slider     *widget.Slider
	widthLabel *widget.Label
	modeLabel  *widget.Label
	statusBar  *widget.Label

	content fyne.CanvasObject
}

var _ labeller.View = (*Workbench)(nil)

// NewWorkbench builds the window content. opts supplies Dispatch and Go; the
// layer size and stroke settings come from conf.
func NewWorkbench(win fyne.Window, conf config.Config, client labeller.Client, opts labeller.Options) *Workbench {
	wb := &Workbench{
		window:     win,
		canvas:     NewLabelCanvas(conf.CanvasWidth, conf.CanvasHeight),
		widthLabel: widget.NewLabel(""),
		modeLabel:  widget.NewLabel(""),
		statusBar:  widget.NewLabel("Ready"),
	}

	opts.Width, opts.Height = conf.CanvasWidth, conf.CanvasHeight
	opts.StrokeWidth = conf.StrokeWidth
	opts.MinStrokeWidth, opts.MaxStrokeWidth = conf.MinStrokeWidth, conf.MaxStrokeWidth
	opts.Color = conf.Color
	wb.session = labeller.New(client, wb, opts)
	wb.canvas.OnEvent = wb.session.Handle

	wb.slider = widget.NewSlider(conf.MinStrokeWidth, conf.MaxStrokeWidth)
	wb.slider.Step = 1
	wb.slider.SetValue(wb.session.StrokeWidth())
	wb.slider.OnChanged = func(v float64) {
		wb.setWidthLabel(wb.session.SetStrokeWidth(v))
	}
	wb.setWidthLabel(wb.session.StrokeWidth())
	wb.SetMode(input.Freehand)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), wb.session.NewMicrograph),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), func() { wb.session.Undo() }),
		widget.NewToolbarAction(theme.ContentClearIcon(), wb.session.Clear),
		widget.NewToolbarAction(theme.VisibilityIcon(), wb.session.ToggleOverlay),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.UploadIcon(), wb.session.Upload),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), wb.showExport),
	)

	sliderBox := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), wb.slider)
	top := container.NewHBox(
		toolbar,
		widget.NewSeparator(),
		widget.NewLabel("Width:"),
		sliderBox,
		wb.widthLabel,
		widget.NewSeparator(),
		wb.modeLabel,
		layout.NewSpacer(),
	)
	wb.content = container.NewBorder(top, wb.statusBar, nil, nil, wb.canvas)
	return wb
}

func (wb *Workbench) Content() fyne.CanvasObject { return wb.content }

func (wb *Workbench) Session() *labeller.Session { return wb.session }

func (wb *Workbench) setWidthLabel(w float64) {
	wb.widthLabel.SetText(fmt.Sprintf("%.0f", w))
}

func (wb *Workbench) ShowBackground(img image.Image) { wb.canvas.SetBackground(img) }

func (wb *Workbench) ShowOverlay(img image.Image) { wb.canvas.SetOverlay(img) }

func (wb *Workbench) ShowDrawing(img image.Image) { wb.canvas.SetDrawing(img) }

func (wb *Workbench) SetMode(mode input.Mode) {
	wb.modeLabel.SetText("Mode: " + mode.String())
}

func (wb *Workbench) SetStatus(text string) {
	wb.statusBar.SetText(text)
}
