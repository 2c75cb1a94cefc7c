package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"
)

// probeReport is the JSON printed by the probe command.
type probeReport struct {
	File          string    `json:"file"`
	Container     string    `json:"container"`
	Codec         string    `json:"codec"`
	Fragmented    bool      `json:"fragmented"`
	Backend       string    `json:"backend"`
	CodedWidth    int       `json:"coded_width"`
	CodedHeight   int       `json:"coded_height"`
	DisplayWidth  int       `json:"display_width"`
	DisplayHeight int       `json:"display_height"`
	SAR           string    `json:"sample_aspect_ratio"`
	Rotation      int       `json:"rotation"`
	Duration      float64   `json:"duration"`
	Frames        int       `json:"frames"`
	Keyframes     []float64 `json:"keyframes"`
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:        "probe",
		Usage:       l10n.T("Print stream geometry and keyframes as JSON"),
		Description: l10n.T("Inspect a video file with the same backends used for rendering."),
		ArgsUsage:   "<video>",
		Flags:       commonFlags(),
		Action:      runProbe,
	}
}

func runProbe(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("Video argument is required"), 2)
	}
	input := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	eng, err := newEngine(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	src, err := eng.fs.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	detected, backend := eng.prober.Select(src)
	container, err := eng.prober.Open(c.Context, src)
	if err != nil {
		return err
	}
	defer container.Close()

	geo := container.Geometry()
	dw, dh := geo.DisplaySize()
	report := probeReport{
		File:          input,
		Container:     string(detected.Container),
		Codec:         string(detected.Codec),
		Fragmented:    detected.Fragmented,
		Backend:       string(backend),
		CodedWidth:    geo.CodedWidth,
		CodedHeight:   geo.CodedHeight,
		DisplayWidth:  dw,
		DisplayHeight: dh,
		Rotation:      geo.RotationDegrees,
		Duration:      geo.Duration.Seconds(),
		Keyframes:     []float64{},
	}
	if geo.SampleAspectRatio.Num > 0 {
		report.SAR = fmt.Sprintf("%d:%d", geo.SampleAspectRatio.Num, geo.SampleAspectRatio.Den)
	}
	for _, f := range container.Frames() {
		report.Frames++
		if f.Keyframe {
			report.Keyframes = append(report.Keyframes, f.PTS.Seconds())
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
