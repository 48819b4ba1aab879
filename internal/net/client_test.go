package net

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	stdnet "net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// labelServer imitates the labelling server's endpoints.
type labelServer struct {
	*httptest.Server
	average  string
	uploads  []string
	sessions []string
	index    string
}

func newLabelServer(t *testing.T) *labelServer {
	t.Helper()
	s := &labelServer{average: NoAverage}
	micrograph := pngBytes(t, 8, 6)

	mux := http.NewServeMux()
	mux.HandleFunc("/label/micrograph", func(w http.ResponseWriter, r *http.Request) {
		s.sessions = append(s.sessions, r.Header.Get(SessionHeader))
		w.Write([]byte(`{"micrograph": "static/micrographs/m1.png", "index": 3, "ip": "10.0.0.7"}`))
	})
	mux.HandleFunc("/label/average", func(w http.ResponseWriter, r *http.Request) {
		s.index = r.URL.Query().Get("index")
		w.Write([]byte(`{"average": "` + s.average + `"}`))
	})
	mux.HandleFunc("/label/upload", func(w http.ResponseWriter, r *http.Request) {
		s.index = r.URL.Query().Get("index")
		s.uploads = append(s.uploads, r.URL.Query().Get("dataUrl"))
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/static/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".txt") {
			w.Write([]byte("not an image"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(micrograph)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestClient(t *testing.T, base string) *Client {
	t.Helper()
	c, err := NewClient(base, 2*time.Second)
	require.NoError(t, err)
	return c
}

func TestMicrograph(t *testing.T) {
	srv := newLabelServer(t)
	c := newTestClient(t, srv.URL)

	m, img, err := c.Micrograph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, m.Index)
	assert.Equal(t, "static/micrographs/m1.png", m.Ref)
	assert.Equal(t, "10.0.0.7", m.Addr)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	assert.Equal(t, []string{c.Session()}, srv.sessions)
}

func TestAverageNotAvailable(t *testing.T) {
	srv := newLabelServer(t)
	c := newTestClient(t, srv.URL)

	avg, err := c.Average(context.Background(), 3, "")
	require.NoError(t, err)
	assert.False(t, avg.Available)
	assert.Nil(t, avg.Image)
	assert.Equal(t, "3", srv.index)
}

func TestAverageAvailable(t *testing.T) {
	srv := newLabelServer(t)
	srv.average = "static/1234.png"
	c := newTestClient(t, srv.URL)

	avg, err := c.Average(context.Background(), 3, "static/old.png")
	require.NoError(t, err)
	assert.True(t, avg.Available)
	assert.Equal(t, "static/1234.png", avg.Ref)
	require.NotNil(t, avg.Image)
}

func TestAverageUndecodableImage(t *testing.T) {
	srv := newLabelServer(t)
	srv.average = "static/broken.txt"
	c := newTestClient(t, srv.URL)

	_, err := c.Average(context.Background(), 3, "")
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestUploadSendsDataURL(t *testing.T) {
	srv := newLabelServer(t)
	c := newTestClient(t, srv.URL)
	data := pngBytes(t, 4, 4)

	require.NoError(t, c.Upload(context.Background(), 3, data))
	require.Len(t, srv.uploads, 1)
	assert.Equal(t, "3", srv.index)

	prefix := "data:image/png;base64,"
	require.True(t, strings.HasPrefix(srv.uploads[0], prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(srv.uploads[0], prefix))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestCompleteIndexIsRejectedLocally(t *testing.T) {
	srv := newLabelServer(t)
	c := newTestClient(t, srv.URL)

	assert.ErrorIs(t, c.Upload(context.Background(), -1, nil), ErrNoMicrograph)
	_, err := c.Average(context.Background(), -1, "")
	assert.ErrorIs(t, err, ErrNoMicrograph)
	assert.Empty(t, srv.uploads)
}

func TestStatusErrorIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	err := c.Upload(context.Background(), 1, []byte("secret-pixels"))
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.ErrorIs(t, err, ErrStatus)
	assert.NotContains(t, err.Error(), "dataUrl", "query is left out of the error")
}

func TestMalformedReplyIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, _, err := c.Micrograph(context.Background())
	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "micrograph", ne.Op)
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c := newTestClient(t, base)

	_, _, err := c.Micrograph(context.Background())
	assert.True(t, IsNetworkError(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(srv.URL, 50*time.Millisecond)
	require.NoError(t, err)
	_, err = c.Average(context.Background(), 1, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.org", time.Second)
	assert.Error(t, err)
	_, err = NewClient("://", time.Second)
	assert.Error(t, err)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQI=", DataURL("image/png", []byte{1, 2}))
}

func TestEntryURL(t *testing.T) {
	_, ok := entryURL(nil)
	assert.False(t, ok)
	_, ok = entryURL(&mdns.ServiceEntry{Port: 8000})
	assert.False(t, ok)

	u, ok := entryURL(&mdns.ServiceEntry{AddrV4: stdnet.IPv4(192, 168, 1, 5), Port: 8000})
	require.True(t, ok)
	assert.Equal(t, "http://192.168.1.5:8000", u)
}
