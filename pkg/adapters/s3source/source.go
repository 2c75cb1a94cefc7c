// Package s3source opens video objects in an S3 bucket as random-access
// byte sources backed by ranged GET requests.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/user/thumbextractor/pkg/ports"
)

// Config holds the configuration for the S3 source.
type Config struct {
	Bucket          string
	Region          string
	Prefix          string // Optional: key prefix prepended to request paths
	Endpoint        string // Optional: for custom S3-compatible endpoints
	AccessKeyID     string // Optional: AWS access key ID
	SecretAccessKey string // Optional: AWS secret access key
}

// API is the subset of the S3 client used by the source.
type API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

const (
	// DefaultBlockSize is the minimum number of bytes fetched per GET.
	DefaultBlockSize = 256 << 10

	defaultRequestTimeout = 30 * time.Second
)

// Opener implements ports.SourceOpener over a bucket.
type Opener struct {
	client    API
	bucket    string
	prefix    string
	blockSize int64
	timeout   time.Duration
}

// New creates an Opener with a client built from cfg.
func New(ctx context.Context, cfg Config) (*Opener, error) {
	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, clientOpts...), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an Opener using an existing client.
func NewWithClient(client API, bucket, prefix string) *Opener {
	return &Opener{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		blockSize: DefaultBlockSize,
		timeout:   defaultRequestTimeout,
	}
}

// WithBlockSize sets the minimum read size of each GET request.
func (o *Opener) WithBlockSize(n int64) *Opener {
	if n > 0 {
		o.blockSize = n
	}
	return o
}

// Key maps a request path to an object key.
func (o *Opener) Key(name string) string {
	return o.prefix + strings.TrimPrefix(path.Clean("/"+name), "/")
}

// OpenSource implements ports.SourceOpener.
// Reads made through the returned source are not cancelled with ctx.
func (o *Opener) OpenSource(ctx context.Context, name string) (ports.ByteSource, error) {
	key := o.Key(name)

	headCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	out, err := o.client.HeadObject(headCtx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3://%s/%s: %w", o.bucket, key, ports.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("head object: %w", err)
	}

	return &Object{
		ctx:       context.WithoutCancel(ctx),
		client:    o.client,
		bucket:    o.bucket,
		key:       key,
		size:      aws.ToInt64(out.ContentLength),
		blockSize: o.blockSize,
		timeout:   o.timeout,
	}, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == 404
}

// Object is an S3 object opened for ranged reads. It keeps the last fetched block.
type Object struct {
	ctx       context.Context
	client    API
	bucket    string
	key       string
	size      int64
	blockSize int64
	timeout   time.Duration

	mu       sync.Mutex
	blockOff int64
	block    []byte
}

// Size implements ports.ByteSource.
func (o *Object) Size() int64 {
	return o.size
}

// Key returns the object key.
func (o *Object) Key() string {
	return o.key
}

// ReadAt implements io.ReaderAt.
func (o *Object) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("s3source: negative offset %d", off)
	}
	if off >= o.size {
		return 0, io.EOF
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	n := 0
	for n < len(p) && off+int64(n) < o.size {
		pos := off + int64(n)
		if pos < o.blockOff || pos >= o.blockOff+int64(len(o.block)) {
			want := max(int64(len(p)-n), o.blockSize)
			if err := o.fetch(pos, want); err != nil {
				return n, err
			}
		}
		n += copy(p[n:], o.block[pos-o.blockOff:])
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (o *Object) fetch(off, length int64) error {
	end := min(off+length, o.size) - 1

	ctx, cancel := context.WithTimeout(o.ctx, o.timeout)
	defer cancel()
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return fmt.Errorf("get object range %d-%d: %w", off, end, err)
	}
	defer out.Body.Close()

	buf := make([]byte, end-off+1)
	if _, err := io.ReadFull(out.Body, buf); err != nil {
		return fmt.Errorf("read object range %d-%d: %w", off, end, err)
	}
	o.blockOff, o.block = off, buf
	return nil
}

// Close drops the cached block.
func (o *Object) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.block = nil
	return nil
}

var (
	_ ports.SourceOpener = (*Opener)(nil)
	_ ports.ByteSource   = (*Object)(nil)
)
