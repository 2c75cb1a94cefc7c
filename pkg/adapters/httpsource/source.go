// Package httpsource opens videos on an upstream HTTP origin as random-access
// byte sources backed by Range requests.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/user/thumbextractor/pkg/ports"
)

// ErrRangeNotSupported is returned when the origin ignores Range requests.
var ErrRangeNotSupported = errors.New("httpsource: origin does not support range requests")

// DefaultBlockSize is the minimum number of bytes fetched per request.
const DefaultBlockSize = 256 << 10

// Opener implements ports.SourceOpener over an origin base URL.
type Opener struct {
	base      *url.URL
	client    *http.Client
	blockSize int64
}

// New creates an opener for the given base URL.
func New(baseURL string, timeout time.Duration) (*Opener, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q: scheme must be http or https", baseURL)
	}
	return &Opener{
		base:      u,
		client:    &http.Client{Timeout: timeout},
		blockSize: DefaultBlockSize,
	}, nil
}

// WithBlockSize sets the minimum read size of each request.
func (o *Opener) WithBlockSize(n int64) *Opener {
	if n > 0 {
		o.blockSize = n
	}
	return o
}

// URL maps a request path to the upstream URL.
func (o *Opener) URL(name string) string {
	u := *o.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path.Clean("/"+name)
	return u.String()
}

// OpenSource implements ports.SourceOpener. The size comes from a HEAD request.
// Reads made through the returned source are not cancelled with ctx.
func (o *Opener) OpenSource(ctx context.Context, name string) (ports.ByteSource, error) {
	target := o.URL(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", target, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%s: %w", target, ports.ErrSourceNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("head %s: unexpected status %s", target, resp.Status)
	case resp.ContentLength < 0:
		return nil, fmt.Errorf("head %s: unknown content length", target)
	}

	return &Resource{
		ctx:       context.WithoutCancel(ctx),
		client:    o.client,
		url:       target,
		size:      resp.ContentLength,
		blockSize: o.blockSize,
	}, nil
}

// Resource is an upstream file opened for ranged reads. It keeps the last fetched block.
type Resource struct {
	ctx       context.Context
	client    *http.Client
	url       string
	size      int64
	blockSize int64

	mu       sync.Mutex
	blockOff int64
	block    []byte
}

// Size implements ports.ByteSource.
func (r *Resource) Size() int64 {
	return r.size
}

// URL returns the upstream URL.
func (r *Resource) URL() string {
	return r.url
}

// ReadAt implements io.ReaderAt.
func (r *Resource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("httpsource: negative offset %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) && off+int64(n) < r.size {
		pos := off + int64(n)
		if pos < r.blockOff || pos >= r.blockOff+int64(len(r.block)) {
			if err := r.fetch(pos, max(int64(len(p)-n), r.blockSize)); err != nil {
				return n, err
			}
		}
		n += copy(p[n:], r.block[pos-r.blockOff:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r *Resource) fetch(off, length int64) error {
	end := min(off+length, r.size) - 1

	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("get range %d-%d: %w", off, end, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		return ErrRangeNotSupported
	default:
		return fmt.Errorf("get range %d-%d: unexpected status %s", off, end, resp.Status)
	}

	buf := make([]byte, end-off+1)
	if _, err := io.ReadFull(resp.Body, buf); err != nil {
		return fmt.Errorf("read range %d-%d: %w", off, end, err)
	}
	r.blockOff, r.block = off, buf
	return nil
}

// Close drops the cached block.
func (r *Resource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = nil
	return nil
}

var (
	_ ports.SourceOpener = (*Opener)(nil)
	_ ports.ByteSource   = (*Resource)(nil)
)
