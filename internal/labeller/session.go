// Package labeller holds the labelling session: the paths drawn over the
// current micrograph, the layers they are shown on and the requests that
// fetch micrographs, fetch overlays and upload results.
//
// A Session is not safe for concurrent use. Every method, and every function
// handed to Options.Dispatch, must run on the same event queue; network
// replies are delivered back onto that queue through Dispatch.
package labeller

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log"

	"FilamentLabeller/internal/export"
	"FilamentLabeller/internal/input"
	"FilamentLabeller/internal/net"
	"FilamentLabeller/internal/render"
	"FilamentLabeller/internal/state"
)

type Client interface {
	Micrograph(ctx context.Context) (state.Micrograph, image.Image, error)
	Average(ctx context.Context, index int, previous string) (net.Average, error)
	Upload(ctx context.Context, index int, pngData []byte) error
}

// View is what the session draws into and reports to.
type View interface {
	ShowBackground(img image.Image)
	// ShowOverlay shows the average labels; nil clears the layer.
	ShowOverlay(img image.Image)
	ShowDrawing(img image.Image)
	SetMode(mode input.Mode)
	SetStatus(text string)
}

type Options struct {
	// Drawing layer size until a micrograph is loaded.
	Width, Height int

	StrokeWidth    float64
	MinStrokeWidth float64
	MaxStrokeWidth float64
	Color          string

	// Dispatch runs f on the event queue. Defaults to calling f directly.
	Dispatch func(f func())
	// Go runs f off the event queue. Defaults to a new goroutine.
	Go func(f func())
}

type Session struct {
	client Client
	view   View
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	recorder *state.Recorder
	tracker  input.Tracker
	layer    *render.Layer
	width    float64

	micrograph state.Micrograph
	loaded     bool
	background image.Image

	overlay        image.Image
	overlayRef     string
	overlayPending bool

	fetches   state.Sequence
	overlays  state.Sequence
	uploading bool
}

func New(client Client, view View, opts Options) *Session {
	if opts.Dispatch == nil {
		opts.Dispatch = func(f func()) { f() }
	}
	if opts.Go == nil {
		opts.Go = func(f func()) { go f() }
	}
	if opts.MinStrokeWidth <= 0 {
		opts.MinStrokeWidth = 1
	}
	if opts.MaxStrokeWidth < opts.MinStrokeWidth {
		opts.MaxStrokeWidth = opts.MinStrokeWidth
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1024, 1024
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		client:   client,
		view:     view,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		recorder: state.NewRecorder(),
		layer:    render.NewLayer(opts.Width, opts.Height, opts.Color),
	}
	s.width = s.clamp(opts.StrokeWidth)
	return s
}

// Close abandons outstanding requests. Their replies are never applied.
func (s *Session) Close() {
	s.cancel()
	s.fetches.Next()
	s.overlays.Next()
}

// Handle feeds one input event through the tracker and draws the result.
func (s *Session) Handle(ev input.Event) {
	actions := s.tracker.Handle(ev)
	if len(actions) == 0 {
		return
	}
	for _, a := range actions {
		switch a.Kind {
		case input.Begin:
			s.recorder.Begin(a.Pos)
			s.layer.Dot(a.Pos, s.width)
		case input.Extend:
			if prev, ok := s.recorder.Extend(a.Pos); ok {
				s.layer.Segment(prev, a.Pos, s.width)
			} else {
				s.layer.Dot(a.Pos, s.width)
			}
		case input.End:
			if p, ok := s.recorder.End(); ok {
				log.Printf("[labeller] path %s finished with %d points", p.ID, len(p.Points))
			}
		}
	}
	s.view.SetMode(s.tracker.Mode())
	s.view.ShowDrawing(s.layer.Image())
}

// Undo removes the most recent path and redraws the rest.
func (s *Session) Undo() bool {
	if _, ok := s.recorder.Undo(); !ok {
		return false
	}
	s.redraw()
	return true
}

// Clear removes every path from the drawing layer.
func (s *Session) Clear() {
	s.recorder.Clear()
	s.tracker.Reset()
	s.layer.Clear()
	s.view.SetMode(s.tracker.Mode())
	s.view.ShowDrawing(s.layer.Image())
}

// SetStrokeWidth changes the width used for all paths and redraws them.
// The width is clamped to the configured range; the applied value is
// returned.
func (s *Session) SetStrokeWidth(w float64) float64 {
	w = s.clamp(w)
	if w != s.width {
		s.width = w
		s.redraw()
	}
	return s.width
}

func (s *Session) StrokeWidth() float64 { return s.width }

func (s *Session) Paths() []state.Path { return s.recorder.Paths() }

func (s *Session) Mode() input.Mode { return s.tracker.Mode() }

// Micrograph returns the micrograph being labelled, if one has loaded.
func (s *Session) Micrograph() (state.Micrograph, bool) {
	return s.micrograph, s.loaded
}

func (s *Session) OverlayActive() bool { return s.overlay != nil || s.overlayPending }

func (s *Session) Uploading() bool { return s.uploading }

// Drawing returns the live drawing layer.
func (s *Session) Drawing() image.Image { return s.layer.Image() }

func (s *Session) clamp(w float64) float64 {
	return min(max(w, s.opts.MinStrokeWidth), s.opts.MaxStrokeWidth)
}

// redraw repaints the completed paths and then the path still being drawn.
func (s *Session) redraw() {
	paths := s.recorder.Paths()
	if cur, ok := s.recorder.Current(); ok {
		paths = append(paths, cur)
	}
	s.layer.Redraw(paths, s.width)
	s.view.ShowDrawing(s.layer.Image())
}

// NewMicrograph drops the current paths and overlay and asks the server for
// another micrograph. Only the reply to the latest request is applied.
func (s *Session) NewMicrograph() {
	s.Clear()
	s.hideOverlay()
	seq := s.fetches.Next()
	s.view.SetStatus("Loading micrograph...")

	s.opts.Go(func() {
		m, img, err := s.client.Micrograph(s.ctx)
		s.opts.Dispatch(func() {
			if !s.fetches.Current(seq) {
				log.Printf("[labeller] dropping stale micrograph reply %d", seq)
				return
			}
			if err != nil {
				log.Printf("[labeller] load micrograph: %v", err)
				s.view.SetStatus(describe("Loading micrograph failed", err))
				return
			}
			s.showMicrograph(m, img)
		})
	})
}

func (s *Session) showMicrograph(m state.Micrograph, img image.Image) {
	s.micrograph = m
	s.loaded = true
	s.background = img

	b := img.Bounds()
	s.layer.Resize(b.Dx(), b.Dy())
	s.recorder.Clear()
	s.tracker.Reset()

	s.view.ShowBackground(img)
	s.view.SetMode(s.tracker.Mode())
	s.view.ShowDrawing(s.layer.Image())
	if m.Complete() {
		s.view.SetStatus("Every micrograph has been labelled. Thank you!")
		return
	}
	if m.Addr != "" {
		log.Printf("[labeller] micrograph %d assigned to %s", m.Index, m.Addr)
		s.view.SetStatus(fmt.Sprintf("Micrograph %d (labelling as %s)", m.Index, m.Addr))
		return
	}
	s.view.SetStatus(fmt.Sprintf("Micrograph %d", m.Index))
}

// ToggleOverlay shows the average labels for the current micrograph, or
// hides them if they are shown. Hiding never refetches.
func (s *Session) ToggleOverlay() {
	if s.OverlayActive() {
		s.hideOverlay()
		return
	}
	if !s.loaded || s.micrograph.Complete() {
		s.view.SetStatus("No micrograph loaded")
		return
	}

	seq := s.overlays.Next()
	s.overlayPending = true
	index, previous := s.micrograph.Index, s.overlayRef
	s.opts.Go(func() {
		avg, err := s.client.Average(s.ctx, index, previous)
		s.opts.Dispatch(func() {
			if !s.overlays.Current(seq) {
				log.Printf("[labeller] dropping stale average reply %d", seq)
				return
			}
			s.overlayPending = false
			if err != nil {
				log.Printf("[labeller] load average: %v", err)
				s.view.SetStatus(describe("Loading average failed", err))
				return
			}
			if !avg.Available {
				s.view.SetStatus("No labels have been uploaded for this micrograph yet")
				return
			}
			s.overlayRef = avg.Ref
			s.overlay = avg.Image
			s.view.ShowOverlay(avg.Image)
		})
	})
}

func (s *Session) hideOverlay() {
	s.overlays.Next()
	s.overlayPending = false
	s.overlay = nil
	s.view.ShowOverlay(nil)
}

// Upload sends the drawing layer for the current micrograph. On success the
// session moves on to a new micrograph; on failure the paths are kept so the
// upload can be retried. Uploads do not overlap. A reply arriving after the
// user has requested another micrograph is only logged.
func (s *Session) Upload() {
	if s.uploading {
		return
	}
	if !s.loaded || s.micrograph.Complete() {
		s.view.SetStatus("No micrograph loaded")
		return
	}
	var buf bytes.Buffer
	if err := s.layer.EncodePNG(&buf); err != nil {
		s.view.SetStatus(describe("Encoding labels failed", err))
		return
	}

	s.uploading = true
	index := s.micrograph.Index
	seq := s.fetches.Last()
	s.view.SetStatus("Uploading...")
	s.opts.Go(func() {
		err := s.client.Upload(s.ctx, index, buf.Bytes())
		s.opts.Dispatch(func() {
			s.uploading = false
			if !s.fetches.Current(seq) {
				// Another micrograph was requested meanwhile.
				log.Printf("[labeller] upload of micrograph %d finished after moving on: %v", index, err)
				return
			}
			if err != nil {
				log.Printf("[labeller] upload micrograph %d: %v", index, err)
				s.view.SetStatus(describe("Upload failed", err))
				return
			}
			s.NewMicrograph()
		})
	})
}

// Export writes the micrograph, the overlay if shown and the paths to w as
// a PDF.
func (s *Session) Export(w io.Writer) error {
	width, height := s.layer.Size()
	page := render.Flatten(width, height, s.background, s.overlay)
	paths := s.recorder.Paths()
	if err := export.PDF(w, page, image.Pt(width, height), paths, s.width, s.color()); err != nil {
		return err
	}
	log.Printf("[labeller] exported %d paths", len(paths))
	return nil
}

func (s *Session) color() string {
	if s.opts.Color == "" {
		return render.DefaultColor
	}
	return s.opts.Color
}

func describe(what string, err error) string {
	if net.IsNetworkError(err) {
		return fmt.Sprintf("%s: network error: %v", what, err)
	}
	return fmt.Sprintf("%s: %v", what, err)
}
