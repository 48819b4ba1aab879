package net

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"FilamentLabeller/internal/state"
)

// NoAverage is what the server answers with when nobody has labelled the
// micrograph yet.
const NoAverage = "NULL"

// SessionHeader carries the per-process session id on every request.
const SessionHeader = "X-Session-ID"

var (
	// ErrStatus is wrapped by a NetworkError when the server answers with a
	// non-2xx status.
	ErrStatus = errors.New("unexpected status")
	// ErrNoMicrograph is returned for operations that need a loaded micrograph.
	ErrNoMicrograph = errors.New("no micrograph loaded")
)

// NetworkError is any failure talking to the labelling server: transport
// errors, bad status codes, malformed replies and undecodable images.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Average is the overlay of all labels uploaded so far for a micrograph.
type Average struct {
	Available bool
	Ref       string
	Image     image.Image
}

// Client talks to the labelling server's three endpoints.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	session string
}

func NewClient(base string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", base)
	}
	return &Client{
		base:    u,
		http:    &http.Client{},
		timeout: timeout,
		session: uuid.NewString(),
	}, nil
}

func (c *Client) Session() string { return c.session }

func (c *Client) BaseURL() string { return c.base.String() }

// Micrograph asks the server for a micrograph to label and loads its image.
func (c *Client) Micrograph(ctx context.Context) (state.Micrograph, image.Image, error) {
	var m state.Micrograph
	if err := c.getJSON(ctx, "micrograph", c.base.JoinPath("label", "micrograph"), &m); err != nil {
		return state.Micrograph{}, nil, err
	}
	img, err := c.getImage(ctx, "micrograph", m.Ref)
	if err != nil {
		return state.Micrograph{}, nil, err
	}
	log.Printf("[net] micrograph %d (%s) %dx%d", m.Index, m.Ref, img.Bounds().Dx(), img.Bounds().Dy())
	return m, img, nil
}

// Average fetches the averaged labels for a micrograph. previous is the
// reference of the overlay already shown, so the server can replace it.
// A micrograph without labels is reported as Available == false.
func (c *Client) Average(ctx context.Context, index int, previous string) (Average, error) {
	if index == state.CompleteIndex {
		return Average{}, ErrNoMicrograph
	}
	u := c.base.JoinPath("label", "average")
	q := url.Values{}
	q.Set("index", strconv.Itoa(index))
	q.Set("average", previous)
	u.RawQuery = q.Encode()

	var reply struct {
		Average string `json:"average"`
	}
	if err := c.getJSON(ctx, "average", u, &reply); err != nil {
		return Average{}, err
	}
	if reply.Average == NoAverage || reply.Average == "" {
		return Average{}, nil
	}
	img, err := c.getImage(ctx, "average", reply.Average)
	if err != nil {
		return Average{}, err
	}
	return Average{Available: true, Ref: reply.Average, Image: img}, nil
}

// Upload sends a PNG of the drawing layer as a data URL.
func (c *Client) Upload(ctx context.Context, index int, pngData []byte) error {
	if index == state.CompleteIndex {
		return ErrNoMicrograph
	}
	u := c.base.JoinPath("label", "upload")
	q := url.Values{}
	q.Set("index", strconv.Itoa(index))
	q.Set("dataUrl", DataURL("image/png", pngData))
	u.RawQuery = q.Encode()

	body, err := c.get(ctx, "upload", u)
	if err != nil {
		return err
	}
	log.Printf("[net] uploaded %d bytes for micrograph %d", len(pngData), index)
	return body.Close()
}

// DataURL encodes data the way a browser canvas does for toDataURL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (c *Client) getJSON(ctx context.Context, op string, u *url.URL, v any) error {
	body, err := c.get(ctx, op, u)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return &NetworkError{Op: op, URL: redact(u), Err: fmt.Errorf("decode reply: %w", err)}
	}
	return nil
}

func (c *Client) getImage(ctx context.Context, op, ref string) (image.Image, error) {
	u := c.base.JoinPath(ref)
	body, err := c.get(ctx, op, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	// Read fully so a slow body is bounded by the request timeout.
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: redact(u), Err: err}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: redact(u), Err: fmt.Errorf("decode image: %w", err)}
	}
	log.Printf("[net] %s image %s (%s)", op, ref, format)
	return img, nil
}

// get issues a GET and returns the body of a 2xx reply. The request context
// carries the client timeout and is released when the body is closed.
func (c *Client) get(ctx context.Context, op string, u *url.URL) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, &NetworkError{Op: op, URL: redact(u), Err: err}
	}
	req.Header.Set(SessionHeader, c.session)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, &NetworkError{Op: op, URL: redact(u), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, &NetworkError{Op: op, URL: redact(u), Err: fmt.Errorf("%w: %s", ErrStatus, resp.Status)}
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// redact drops the query, which for uploads holds the whole image.
func redact(u *url.URL) string {
	r := *u
	r.RawQuery = ""
	return r.String()
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
