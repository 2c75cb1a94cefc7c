package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/user/thumbextractor/pkg/adapters/filesink"
	"github.com/user/thumbextractor/pkg/adapters/ggrenderer"
	"github.com/user/thumbextractor/pkg/adapters/httpsource"
	"github.com/user/thumbextractor/pkg/adapters/jpegencoder"
	"github.com/user/thumbextractor/pkg/adapters/nullsink"
	"github.com/user/thumbextractor/pkg/adapters/osfilesystem"
	"github.com/user/thumbextractor/pkg/adapters/s3source"
	"github.com/user/thumbextractor/pkg/adapters/smartprober"
	"github.com/user/thumbextractor/pkg/config"
	"github.com/user/thumbextractor/pkg/orchestrator"
	"github.com/user/thumbextractor/pkg/ports"
	"github.com/user/thumbextractor/pkg/stages/composite"
	"github.com/user/thumbextractor/pkg/stages/decode"
	"github.com/user/thumbextractor/pkg/stages/encode"
	"github.com/user/thumbextractor/pkg/stages/layout"
	"github.com/user/thumbextractor/pkg/stages/seek"
)

// engine bundles the adapters and the orchestrator built from one configuration.
type engine struct {
	fs     *osfilesystem.FileSystem
	prober *smartprober.Prober
	orch   *orchestrator.Orchestrator
}

func newEngine(cfg config.Config, log ports.Logger) (*engine, error) {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	prober, err := smartprober.New(smartprober.Options{
		FFmpegPath:   cfg.Render.FFmpegPath,
		FFprobePath:  cfg.Render.FFprobePath,
		TempDir:      cfg.Render.TempDir,
		ProbeTimeout: cfg.Render.ProbeTimeout,
	}, log)
	if err != nil {
		return nil, err
	}

	var sink ports.DebugSink
	if cfg.Debug.Enabled {
		if err := fs.MkdirAll(cfg.Debug.Dir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.Debug.Dir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	orch := orchestrator.New(
		prober,
		seek.NewStage(),
		decode.NewStage(renderer, log),
		layout.NewStage(),
		composite.NewStage(renderer, log, runtime.NumCPU()),
		encode.NewStage(jpegencoder.New(jpegencoder.WithLogger(log)), log),
		renderer,
		sink,
		log,
		orchestrator.WithTruncation(cfg.Truncation()),
	)

	return &engine{fs: fs, prober: prober, orch: orch}, nil
}

// newOpener builds the source opener selected by server.source.
func newOpener(ctx context.Context, cfg config.Config, fs ports.FileSystem) (ports.SourceOpener, error) {
	switch cfg.Server.Source {
	case config.SourceS3:
		return s3source.New(ctx, s3source.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	case config.SourceHTTP:
		return httpsource.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	default:
		return osfilesystem.NewOpener(cfg.Server.Root, fs), nil
	}
}
