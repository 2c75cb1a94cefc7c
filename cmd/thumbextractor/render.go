package main

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/thumbextractor/pkg/config"
	"github.com/user/thumbextractor/pkg/pipeline"
	"github.com/user/thumbextractor/pkg/summarizer"
)

func renderCommand() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    l10n.T("Output JPEG file path (required)"),
			Required: true,
			Category: categoryInput,
		},
		&cli.StringFlag{
			Name:     "report",
			Usage:    l10n.T("Output render report to file (Markdown format)"),
			Category: categoryInput,
		},
		&cli.Float64Flag{
			Name:     "second",
			Aliases:  []string{"s"},
			Usage:    l10n.T("Timestamp to render in seconds (required)"),
			Required: true,
			Category: categorySeek,
		},
		&cli.BoolFlag{
			Name:     "only-keyframe",
			Usage:    l10n.T("Only render keyframes"),
			Category: categorySeek,
		},
		&cli.BoolFlag{
			Name:     "next-time",
			Usage:    l10n.T("With --only-keyframe, use the next keyframe instead of the previous one"),
			Category: categorySeek,
		},
		&cli.IntFlag{
			Name:     "width",
			Aliases:  []string{"W"},
			Usage:    l10n.T("Output width in pixels (0 = follow the aspect ratio)"),
			Category: categorySize,
		},
		&cli.IntFlag{
			Name:     "height",
			Aliases:  []string{"H"},
			Usage:    l10n.T("Output height in pixels (0 = follow the aspect ratio)"),
			Category: categorySize,
		},
		&cli.IntFlag{Name: "tile-cols", Usage: l10n.T("Number of tile columns"), Category: categoryTile},
		&cli.IntFlag{Name: "tile-rows", Usage: l10n.T("Number of tile rows"), Category: categoryTile},
		&cli.IntFlag{Name: "tile-max-cols", Usage: l10n.T("Maximum number of tile columns"), Category: categoryTile},
		&cli.IntFlag{Name: "tile-max-rows", Usage: l10n.T("Maximum number of tile rows"), Category: categoryTile},
		&cli.DurationFlag{Name: "tile-sample-interval", Usage: l10n.T("Interval between tile samples (e.g., 5s)"), Category: categoryTile},
		&cli.IntFlag{Name: "tile-margin", Usage: l10n.T("Margin around the tile grid in pixels"), Category: categoryTile},
		&cli.IntFlag{Name: "tile-padding", Usage: l10n.T("Padding between tiles in pixels"), Category: categoryTile},
		&cli.StringFlag{Name: "tile-color", Usage: l10n.T("Tile background color (hex, e.g., #EEAA33)"), Category: categoryTile},
		&cli.BoolFlag{Name: "jpeg-baseline", Usage: l10n.T("Force baseline-compatible quantization tables"), Category: categoryJPEG},
		&cli.BoolFlag{Name: "jpeg-progressive", Usage: l10n.T("Write a progressive JPEG"), Category: categoryJPEG},
		&cli.BoolFlag{Name: "jpeg-optimize", Usage: l10n.T("Optimize Huffman tables"), Category: categoryJPEG},
		&cli.IntFlag{Name: "jpeg-smooth", Usage: l10n.T("Smoothing factor (0-100)"), Category: categoryJPEG},
		&cli.IntFlag{Name: "jpeg-quality", Aliases: []string{"q"}, Usage: l10n.T("JPEG quality (0-100)"), Category: categoryJPEG},
		&cli.IntFlag{Name: "jpeg-dpi", Usage: l10n.T("Pixel density written to the JFIF header"), Category: categoryJPEG},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: categoryDebug},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: categoryDebug},
	)

	return &cli.Command{
		Name:        "render",
		Usage:       l10n.T("Render a thumbnail or contact sheet from a video file"),
		Description: l10n.T("Render a single frame, or a tile grid of frames, from a local video file and save it as JPEG."),
		ArgsUsage:   "<video>",
		Flags:       flags,
		Action:      runRender,
	}
}

func runRender(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Video argument is required"), 2)
	}
	input := c.Args().First()
	output := c.String("output")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyRenderFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	req, err := buildRequest(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	log := newLogger(cfg)
	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	src, err := eng.fs.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	_, backend := eng.prober.Select(src)

	log.Info("Rendering %s at %.3fs...", input, req.Second.Seconds())
	start := time.Now()
	outcome := eng.orch.Render(c.Context, src, req)
	elapsed := time.Since(start)

	if path := c.String("report"); path != "" {
		summary := summarizer.NewBuilder().
			WithSource(filepath.Base(input), src.Size(), string(backend)).
			WithRequest(req).
			WithOutcome(outcome, elapsed).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		), eng.fs)
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write report: %s", err)
		} else {
			log.Info("Report saved to %s", path)
		}
	}

	if outcome.Kind != pipeline.OutcomeSuccess {
		return cli.Exit(l10n.F("Render failed (%s): %s", outcome.Kind, outcome.Reason), 1)
	}

	if err := eng.fs.WriteFile(output, outcome.JPEG); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("Output saved to %s (%dx%d, %d bytes)", output, outcome.Info.Output.Width, outcome.Info.Output.Height, len(outcome.JPEG))
	return nil
}

// applyRenderFlags overrides configuration values with the flags that were given.
func applyRenderFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("only-keyframe") {
		cfg.Render.OnlyKeyframe = c.Bool("only-keyframe")
	}
	if c.IsSet("next-time") {
		cfg.Render.NextTime = c.Bool("next-time")
	}

	ints := map[string]*int{
		"tile-cols":     &cfg.Tile.Cols,
		"tile-rows":     &cfg.Tile.Rows,
		"tile-max-cols": &cfg.Tile.MaxCols,
		"tile-max-rows": &cfg.Tile.MaxRows,
		"tile-margin":   &cfg.Tile.Margin,
		"tile-padding":  &cfg.Tile.Padding,
		"jpeg-smooth":   &cfg.JPEG.Smooth,
		"jpeg-quality":  &cfg.JPEG.Quality,
		"jpeg-dpi":      &cfg.JPEG.DPI,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	bools := map[string]*bool{
		"jpeg-baseline":    &cfg.JPEG.Baseline,
		"jpeg-progressive": &cfg.JPEG.Progressive,
		"jpeg-optimize":    &cfg.JPEG.Optimize,
		"debug":            &cfg.Debug.Enabled,
	}
	for name, dst := range bools {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}

	if c.IsSet("tile-sample-interval") {
		cfg.Tile.SampleInterval = c.Duration("tile-sample-interval")
	}
	if c.IsSet("tile-color") {
		cfg.Tile.Color = c.String("tile-color")
	}
	if c.IsSet("debug-dir") {
		cfg.Debug.Dir = c.String("debug-dir")
	}
}

// buildRequest combines the configuration with the per-render flags.
func buildRequest(c *cli.Context, cfg config.Config) (pipeline.RenderRequest, error) {
	req, err := cfg.RequestTemplate()
	if err != nil {
		return req, err
	}

	sec := c.Float64("second")
	if math.IsNaN(sec) || sec < 0 {
		return req, fmt.Errorf("invalid second %v", sec)
	}
	req.Second = time.Duration(math.Round(sec * float64(time.Second)))
	req.Width = c.Int("width")
	req.Height = c.Int("height")
	return req, nil
}
