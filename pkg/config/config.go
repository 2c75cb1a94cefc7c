// Package config provides configuration loading and management.
package config

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/ports"
	"github.com/user/thumbextractor/pkg/stages/layout"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "THUMB_"

// Source backends.
const (
	SourceFile = "file"
	SourceS3   = "s3"
	SourceHTTP = "http"
)

// ErrInvalidColor is returned by ParseColor for malformed hex colors.
var ErrInvalidColor = errors.New("config: invalid hex color")

// Config represents the full configuration for thumbextractor.
type Config struct {
	Server   ServerConfig   `yaml:"server" env:", prefix=SERVER_"`
	Render   RenderConfig   `yaml:"render" env:", prefix=RENDER_"`
	Tile     TileConfig     `yaml:"tile" env:", prefix=TILE_"`
	JPEG     JPEGConfig     `yaml:"jpeg" env:", prefix=JPEG_"`
	S3       S3Config       `yaml:"s3" env:", prefix=S3_"`
	Upstream UpstreamConfig `yaml:"upstream" env:", prefix=UPSTREAM_"`
	Log      LogConfig      `yaml:"log" env:", prefix=LOG_"`
	Debug    DebugConfig    `yaml:"debug" env:", prefix=DEBUG_"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Listen          string        `yaml:"listen" env:"LISTEN" validate:"required"`
	Enabled         bool          `yaml:"enabled" env:"ENABLED"`
	Source          string        `yaml:"source" env:"SOURCE" validate:"oneof=file s3 http"`
	Root            string        `yaml:"root" env:"ROOT" validate:"required_if=Source file"`
	Params          ParamNames    `yaml:"params" env:", prefix=PARAM_"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"min=0"`
}

// ParamNames are the query parameter names read from each request.
type ParamNames struct {
	Second string `yaml:"second" env:"SECOND" validate:"required"`
	Width  string `yaml:"width" env:"WIDTH" validate:"required"`
	Height string `yaml:"height" env:"HEIGHT" validate:"required"`
}

// RenderConfig configures seeking and the render workers.
type RenderConfig struct {
	OnlyKeyframe bool          `yaml:"only_keyframe" env:"ONLY_KEYFRAME"`
	NextTime     bool          `yaml:"next_time" env:"NEXT_TIME"`
	Workers      int           `yaml:"workers" env:"WORKERS" validate:"min=0"`
	QueueSize    int           `yaml:"queue_size" env:"QUEUE_SIZE" validate:"min=0"`
	FFmpegPath   string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	FFprobePath  string        `yaml:"ffprobe_path" env:"FFPROBE_PATH"`
	TempDir      string        `yaml:"temp_dir" env:"TEMP_DIR"`
	ProbeTimeout time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT" validate:"min=0"`
}

// TileConfig configures contact sheets. Zero counts mean "not given".
type TileConfig struct {
	Cols           int           `yaml:"cols" env:"COLS" validate:"min=0"`
	Rows           int           `yaml:"rows" env:"ROWS" validate:"min=0"`
	MaxCols        int           `yaml:"max_cols" env:"MAX_COLS" validate:"min=0"`
	MaxRows        int           `yaml:"max_rows" env:"MAX_ROWS" validate:"min=0"`
	SampleInterval time.Duration `yaml:"sample_interval" env:"SAMPLE_INTERVAL" validate:"gt=0"`
	Margin         int           `yaml:"margin" env:"MARGIN" validate:"min=0"`
	Padding        int           `yaml:"padding" env:"PADDING" validate:"min=0"`
	Color          string        `yaml:"color" env:"COLOR" validate:"hexcolor"`
	Truncation     string        `yaml:"truncation" env:"TRUNCATION" validate:"oneof=earliest latest"`
}

// JPEGConfig configures the encoder.
type JPEGConfig struct {
	Baseline    bool `yaml:"baseline" env:"BASELINE"`
	Progressive bool `yaml:"progressive_mode" env:"PROGRESSIVE_MODE"`
	Optimize    bool `yaml:"optimize" env:"OPTIMIZE"`
	Smooth      int  `yaml:"smooth" env:"SMOOTH" validate:"min=0,max=100"`
	Quality     int  `yaml:"quality" env:"QUALITY" validate:"min=0,max=100"`
	DPI         int  `yaml:"dpi" env:"DPI" validate:"min=0"`
}

// S3Config configures the S3 source backend.
type S3Config struct {
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Region          string `yaml:"region" env:"REGION"`
	Prefix          string `yaml:"prefix" env:"PREFIX"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

// UpstreamConfig configures the HTTP source backend.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"min=0"`
}

// LogConfig configures console logging.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error quiet"`
}

// DebugConfig configures per-render debug dumps.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Dir     string `yaml:"dir" env:"DIR" validate:"required_if=Enabled true"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	jpeg := pipeline.DefaultJPEGOptions()
	return Config{
		Server: ServerConfig{
			Listen:  ":8080",
			Enabled: true,
			Source:  SourceFile,
			Root:    ".",
			Params: ParamNames{
				Second: "second",
				Width:  "width",
				Height: "height",
			},
			ShutdownTimeout: 10 * time.Second,
		},
		Render: RenderConfig{
			OnlyKeyframe: true,
			NextTime:     true,
			ProbeTimeout: 30 * time.Second,
		},
		Tile: TileConfig{
			SampleInterval: pipeline.DefaultSampleInterval,
			Color:          "#000000",
			Truncation:     "earliest",
		},
		JPEG: JPEGConfig{
			Baseline:    jpeg.Baseline,
			Progressive: jpeg.Progressive,
			Optimize:    jpeg.OptimizeHuffman,
			Smooth:      jpeg.Smoothing,
			Quality:     jpeg.Quality,
			DPI:         jpeg.DPI,
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
		Debug: DebugConfig{
			Dir: "./debug",
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load builds the effective configuration: defaults, then the YAML file
// (when path is not empty), then THUMB_* environment variables, then validation.
// A nil lookuper reads the process environment.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.ApplyEnv(ctx, lookuper); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overwrites fields with values from the environment.
// Unset variables leave the current values untouched.
func (c *Config) ApplyEnv(ctx context.Context, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           c,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks field ranges and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Server.Source {
	case SourceS3:
		if c.S3.Bucket == "" {
			return errors.New("config: s3.bucket is required for the s3 source")
		}
	case SourceHTTP:
		if c.Upstream.BaseURL == "" {
			return errors.New("config: upstream.base_url is required for the http source")
		}
	}
	return nil
}

// LogLevel returns the configured log level.
func (c Config) LogLevel() ports.LogLevel {
	return ports.ParseLogLevel(c.Log.Level)
}

// Truncation returns the configured tile truncation policy.
func (c Config) Truncation() layout.TruncationPolicy {
	if c.Tile.Truncation == "latest" {
		return layout.TruncateKeepLatest
	}
	return layout.TruncateKeepEarliest
}

// JPEGOptions converts the jpeg section to encoder options.
func (c Config) JPEGOptions() ports.JPEGOptions {
	return ports.JPEGOptions{
		Baseline:        c.JPEG.Baseline,
		Progressive:     c.JPEG.Progressive,
		OptimizeHuffman: c.JPEG.Optimize,
		Smoothing:       c.JPEG.Smooth,
		Quality:         c.JPEG.Quality,
		DPI:             c.JPEG.DPI,
	}
}

// TileSpec converts the tile section to a pipeline.TileSpec.
func (c Config) TileSpec() (pipeline.TileSpec, error) {
	bg, err := ParseColor(c.Tile.Color)
	if err != nil {
		return pipeline.TileSpec{}, err
	}
	return pipeline.TileSpec{
		Cols:           c.Tile.Cols,
		Rows:           c.Tile.Rows,
		MaxCols:        c.Tile.MaxCols,
		MaxRows:        c.Tile.MaxRows,
		SampleInterval: c.Tile.SampleInterval,
		Margin:         c.Tile.Margin,
		Padding:        c.Tile.Padding,
		Background:     bg,
	}, nil
}

// RequestTemplate returns the deployment-wide part of a render request.
// Second, Width and Height are filled in per request.
func (c Config) RequestTemplate() (pipeline.RenderRequest, error) {
	tile, err := c.TileSpec()
	if err != nil {
		return pipeline.RenderRequest{}, err
	}
	return pipeline.RenderRequest{
		KeyframeOnly: c.Render.OnlyKeyframe,
		PreferNext:   c.Render.NextTime,
		Tile:         tile,
		JPEG:         c.JPEGOptions(),
	}, nil
}

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA" into an opaque-by-default color.
func ParseColor(hex string) (color.RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
