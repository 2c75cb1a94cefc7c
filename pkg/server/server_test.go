package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/thumbextractor/pkg/adapters/logger"
	"github.com/user/thumbextractor/pkg/mocks"
	"github.com/user/thumbextractor/pkg/orchestrator"
	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
	"github.com/user/thumbextractor/pkg/stages/composite"
	"github.com/user/thumbextractor/pkg/stages/decode"
	"github.com/user/thumbextractor/pkg/stages/encode"
	"github.com/user/thumbextractor/pkg/stages/layout"
	"github.com/user/thumbextractor/pkg/stages/seek"
	"github.com/user/thumbextractor/pkg/workerpool"
)

type fakeRenderer struct {
	mu      sync.Mutex
	calls   []pipeline.RenderRequest
	outcome pipeline.RenderOutcome
	err     error
	block   chan struct{}
}

func (f *fakeRenderer) Render(ctx context.Context, src ports.ByteSource, req pipeline.RenderRequest) (pipeline.RenderOutcome, error) {
	defer src.Close()
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return pipeline.RenderOutcome{}, ctx.Err()
		}
	}
	return f.outcome, f.err
}

func (f *fakeRenderer) lastCall(t *testing.T) pipeline.RenderRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newOpener() *mocks.SourceOpener {
	return &mocks.SourceOpener{Sources: map[string]*mocks.Source{
		"/videos/clip.mp4": mocks.NewSource([]byte("0123456789abcdef")),
	}}
}

func newTestServer(r Renderer, opts Options) *Server {
	return New(newOpener(), r, opts, logger.NewNoop())
}

func do(s http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Success(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	r := &fakeRenderer{outcome: pipeline.Success(jpeg, pipeline.RenderInfo{ID: "abc"})}
	tmpl := pipeline.RenderRequest{KeyframeOnly: true, PreferNext: true, JPEG: pipeline.DefaultJPEGOptions()}
	s := newTestServer(r, Options{Enabled: true, Template: tmpl})

	rec := do(s, http.MethodGet, "/videos/clip.mp4?second=12.5&width=320")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Equal(t, "abc", rec.Header().Get(RenderIDHeader))
	assert.Equal(t, jpeg, rec.Body.Bytes())

	req := r.lastCall(t)
	assert.Equal(t, 12500*time.Millisecond, req.Second)
	assert.Equal(t, 320, req.Width)
	assert.Equal(t, 0, req.Height)
	assert.True(t, req.KeyframeOnly)
	assert.True(t, req.PreferNext)
	assert.Equal(t, 75, req.JPEG.Quality)
}

func TestServer_Head(t *testing.T) {
	r := &fakeRenderer{outcome: pipeline.Success([]byte{1, 2, 3}, pipeline.RenderInfo{})}
	s := newTestServer(r, Options{Enabled: true})

	rec := do(s, http.MethodHead, "/videos/clip.mp4?second=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.Bytes())
}

func TestServer_BadParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing second", ""},
		{"empty second", "?second="},
		{"non-numeric second", "?second=abc"},
		{"negative second", "?second=-1"},
		{"nan second", "?second=NaN"},
		{"huge second", "?second=1e12"},
		{"non-numeric width", "?second=1&width=wide"},
		{"fractional height", "?second=1&height=1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{}
			s := newTestServer(r, Options{Enabled: true})

			rec := do(s, http.MethodGet, "/videos/clip.mp4"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, r.calls, "renderer must not be called")
		})
	}
}

func TestServer_NegativeDimensionsMeanNativeSize(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative width", "?second=2&width=-15"},
		{"negative height", "?second=2&height=-15"},
		{"both negative", "?second=2&width=-5&height=-5"},
		{"zero width", "?second=2&width=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRenderer{outcome: pipeline.Success([]byte{1}, pipeline.RenderInfo{})}
			s := newTestServer(r, Options{Enabled: true})

			rec := do(s, http.MethodGet, "/videos/clip.mp4"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			req := r.lastCall(t)
			assert.Equal(t, 2*time.Second, req.Second)
			assert.Equal(t, 0, req.Width)
			assert.Equal(t, 0, req.Height)
		})
	}
}

func TestServer_CustomParamNames(t *testing.T) {
	r := &fakeRenderer{outcome: pipeline.Success([]byte{1}, pipeline.RenderInfo{})}
	s := newTestServer(r, Options{
		Enabled: true,
		Params:  ParamNames{Second: "t", Width: "w", Height: "h"},
	})

	rec := do(s, http.MethodGet, "/videos/clip.mp4?t=3&w=100&h=50")
	require.Equal(t, http.StatusOK, rec.Code)

	req := r.lastCall(t)
	assert.Equal(t, 3*time.Second, req.Second)
	assert.Equal(t, 100, req.Width)
	assert.Equal(t, 50, req.Height)

	rec = do(s, http.MethodGet, "/videos/clip.mp4?second=3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_OutcomeStatus(t *testing.T) {
	tests := []struct {
		kind pipeline.OutcomeKind
		want int
	}{
		{pipeline.OutcomeNotFound, http.StatusNotFound},
		{pipeline.OutcomeInvalidRequest, http.StatusBadRequest},
		{pipeline.OutcomeDecodeFailure, http.StatusInternalServerError},
		{pipeline.OutcomeEncodeFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			r := &fakeRenderer{outcome: pipeline.RenderOutcome{Kind: tt.kind, Reason: "boom"}}
			s := newTestServer(r, Options{Enabled: true})

			rec := do(s, http.MethodGet, "/videos/clip.mp4?second=1")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEqual(t, "image/jpeg", rec.Header().Get("Content-Type"))
		})
	}
}

func TestServer_MissingSource(t *testing.T) {
	r := &fakeRenderer{}
	s := newTestServer(r, Options{Enabled: true})

	rec := do(s, http.MethodGet, "/videos/missing.mp4?second=1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, r.calls)
}

func TestServer_OpenerFailure(t *testing.T) {
	opener := &mocks.SourceOpener{Err: errors.New("upstream unreachable")}
	s := New(opener, &fakeRenderer{}, Options{Enabled: true}, logger.NewNoop())

	rec := do(s, http.MethodGet, "/videos/clip.mp4?second=1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServer_RequestTimeout(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{})}
	s := newTestServer(r, Options{Enabled: true, RequestTimeout: 20 * time.Millisecond})

	rec := do(s, http.MethodGet, "/videos/clip.mp4?second=1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_ClientGone(t *testing.T) {
	r := &fakeRenderer{block: make(chan struct{})}
	s := newTestServer(r, Options{Enabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/videos/clip.mp4?second=1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, req)
		close(done)
	}()
	cancel()
	<-done

	assert.Empty(t, rec.Body.Bytes())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestServer_Disabled(t *testing.T) {
	r := &fakeRenderer{}
	s := newTestServer(r, Options{Enabled: false})

	rec := do(s, http.MethodGet, "/videos/clip.mp4?second=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "0123456789abcdef", rec.Body.String())
	assert.Empty(t, r.calls)

	req := httptest.NewRequest(http.MethodGet, "/videos/clip.mp4", nil)
	req.Header.Set("Range", "bytes=4-7")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "4567", rec.Body.String())

	rec = do(s, http.MethodGet, "/videos/missing.mp4")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(&fakeRenderer{}, Options{Enabled: true})

	rec := do(s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_EndToEnd(t *testing.T) {
	geo := ports.StreamGeometry{CodedWidth: 640, CodedHeight: 360, Duration: 30 * time.Second}
	prober := &mocks.Prober{Container: mocks.NewContainer(geo, 40*time.Millisecond, 125)}
	renderer := &mocks.Renderer{}
	log := logger.NewNoop()
	orch := orchestrator.New(
		prober,
		seek.NewStage(),
		decode.NewStage(renderer, log),
		layout.NewStage(),
		composite.NewStage(renderer, log, 2),
		encode.NewStage(&mocks.ImageEncoder{}, log),
		renderer,
		mocks.NewDebugSink(false),
		log,
	)
	pool := workerpool.New(2, 4)
	defer pool.Close()

	tmpl := pipeline.RenderRequest{Tile: pipeline.DefaultTileSpec(), JPEG: pipeline.DefaultJPEGOptions()}
	s := New(newOpener(), orchestrator.NewDispatcher(orch, pool, log), Options{Enabled: true, Template: tmpl}, log)

	srv := httptest.NewServer(s)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/videos/clip.mp4?second=12&height=270")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xD9}, body)

	resp, err = http.Get(srv.URL + "/videos/clip.mp4?second=45")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/videos/clip.mp4?second=1&width=4")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
