// Package server exposes the render engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
)

// RenderIDHeader carries the render ID, which names the debug dump directory.
const RenderIDHeader = "X-Render-Id"

// maxSecond keeps the requested timestamp inside time.Duration range.
const maxSecond = 1e9

// errBadParam marks query parameters that cannot be parsed.
var errBadParam = errors.New("bad parameter")

// Renderer runs a render request. orchestrator.Dispatcher implements it.
type Renderer interface {
	Render(ctx context.Context, src ports.ByteSource, req pipeline.RenderRequest) (pipeline.RenderOutcome, error)
}

// ParamNames are the query parameter names read from each request.
type ParamNames struct {
	Second string
	Width  string
	Height string
}

// Options configures a Server.
type Options struct {
	// Enabled routes requests to the engine. When false the source is served as video/mp4.
	Enabled bool
	// Params names the per-request query parameters.
	Params ParamNames
	// Template holds the deployment-wide request fields (seek policy, tile, jpeg).
	Template pipeline.RenderRequest
	// RequestTimeout bounds the wait for a render. Zero means no limit.
	RequestTimeout time.Duration
}

// DefaultParams returns the parameter names used when none are configured.
func DefaultParams() ParamNames {
	return ParamNames{Second: "second", Width: "width", Height: "height"}
}

// Server is the HTTP host of the render engine.
type Server struct {
	opener   ports.SourceOpener
	renderer Renderer
	opts     Options
	logger   ports.Logger
	router   chi.Router
}

// New creates a Server and its routes.
func New(opener ports.SourceOpener, renderer Renderer, opts Options, logger ports.Logger) *Server {
	if opts.Params == (ParamNames{}) {
		opts.Params = DefaultParams()
	}

	s := &Server{
		opener:   opener,
		renderer: renderer,
		opts:     opts,
		logger:   logger.WithComponent("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Get("/*", s.handle)
	r.Head("/*", s.handle)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs the server on addr until ctx is done, then shuts down
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path

	if !s.opts.Enabled {
		s.serveOriginal(w, r, name)
		return
	}

	req, err := s.parseRequest(r.URL.Query())
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	src, err := s.opener.OpenSource(ctx, name)
	if err != nil {
		outcome := pipeline.Classify(err)
		s.fail(w, r, outcome.Kind.HTTPStatus(), err)
		return
	}

	outcome, err := s.renderer.Render(ctx, src, req)
	if err != nil {
		if r.Context().Err() != nil {
			s.logger.Debug("Client went away: %s %s", r.Method, name)
			return
		}
		s.fail(w, r, http.StatusServiceUnavailable, err)
		return
	}

	if outcome.Info.ID != "" {
		w.Header().Set(RenderIDHeader, outcome.Info.ID)
	}
	if outcome.Kind != pipeline.OutcomeSuccess {
		s.fail(w, r, outcome.Kind.HTTPStatus(), errors.New(outcome.Reason))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(outcome.JPEG)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(outcome.JPEG)
	}
}

// serveOriginal streams the source bytes without rendering.
func (s *Server) serveOriginal(w http.ResponseWriter, r *http.Request, name string) {
	src, err := s.opener.OpenSource(r.Context(), name)
	if err != nil {
		outcome := pipeline.Classify(err)
		s.fail(w, r, outcome.Kind.HTTPStatus(), err)
		return
	}
	defer src.Close()

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, name, time.Time{}, io.NewSectionReader(src, 0, src.Size()))
}

// parseRequest builds the render request from the query parameters.
func (s *Server) parseRequest(q url.Values) (pipeline.RenderRequest, error) {
	req := s.opts.Template

	raw := strings.TrimSpace(q.Get(s.opts.Params.Second))
	if raw == "" {
		return req, fmt.Errorf("%w: %s is required", errBadParam, s.opts.Params.Second)
	}
	sec, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(sec) || sec < 0 || sec > maxSecond {
		return req, fmt.Errorf("%w: %s=%q", errBadParam, s.opts.Params.Second, raw)
	}
	req.Second = time.Duration(math.Round(sec * float64(time.Second)))

	if req.Width, err = parseDimension(q, s.opts.Params.Width); err != nil {
		return req, err
	}
	if req.Height, err = parseDimension(q, s.opts.Params.Height); err != nil {
		return req, err
	}
	return req, nil
}

// parseDimension returns 0 when the parameter is absent or not positive,
// which renders at native size.
func parseDimension(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", errBadParam, name, raw)
	}
	if v < 0 {
		return 0, nil
	}
	return v, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %s", r.Method, r.URL.Path, err)
	} else {
		s.logger.Warn("%s %s: %s", r.Method, r.URL.Path, err)
	}
	http.Error(w, http.StatusText(status), status)
}

// requestLogger logs one line per request through ports.Logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("%s %s %d %d bytes in %s [%s]",
			r.Method, r.URL.RequestURI(), ww.Status(), ww.BytesWritten(),
			time.Since(start).Round(time.Microsecond), middleware.GetReqID(r.Context()))
	})
}
