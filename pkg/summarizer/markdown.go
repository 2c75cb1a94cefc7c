package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown report.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the report footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a formatter. Labels are untranslated by default.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Render Summary"))

	// Source
	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.header(&b)
	f.row(&b, "File", s.Source.Name)
	f.row(&b, "Size", formatBytes(s.Source.Size))
	if s.Source.Backend != "" {
		f.row(&b, "Backend", s.Source.Backend)
	}
	b.WriteString("\n")

	// Stream
	geo := s.Stream.Geometry
	if geo.CodedWidth > 0 {
		dw, dh := geo.DisplaySize()
		fmt.Fprintf(&b, "## %s\n\n", t("Stream"))
		f.header(&b)
		f.row(&b, "Coded Size", fmt.Sprintf("%dx%d", geo.CodedWidth, geo.CodedHeight))
		f.row(&b, "Display Size", fmt.Sprintf("%dx%d", dw, dh))
		if geo.SampleAspectRatio.Num > 0 && !geo.SampleAspectRatio.IsSquare() {
			f.row(&b, "Sample Aspect Ratio", fmt.Sprintf("%d:%d", geo.SampleAspectRatio.Num, geo.SampleAspectRatio.Den))
		}
		if geo.RotationDegrees != 0 {
			f.row(&b, "Rotation", fmt.Sprintf("%d°", geo.RotationDegrees))
		}
		if geo.Duration > 0 {
			f.row(&b, "Duration", formatSeconds(geo.Duration))
		} else {
			f.row(&b, "Duration", t("Unknown"))
		}
		if s.Stream.Frames > 0 {
			f.row(&b, "Frames", fmt.Sprintf("%d (%d %s)", s.Stream.Frames, s.Stream.Keyframes, t("keyframes")))
		}
		b.WriteString("\n")
	}

	// Request
	req := s.Request
	fmt.Fprintf(&b, "## %s\n\n", t("Request"))
	f.header(&b)
	f.row(&b, "Second", formatSeconds(req.Second))
	f.row(&b, "Width", f.dimension(req.Width))
	f.row(&b, "Height", f.dimension(req.Height))
	f.row(&b, "Seek Mode", f.seekMode(req.KeyframeOnly, req.PreferNext))
	if req.Tile.Enabled() {
		f.row(&b, "Tile", f.tileSpec(req))
	}
	f.row(&b, "JPEG", fmt.Sprintf("q%d, %s, %s %d, dpi %d",
		req.JPEG.Quality, f.scanMode(req.JPEG.Progressive, req.JPEG.Baseline),
		t("smoothing"), req.JPEG.Smoothing, req.JPEG.DPI))
	b.WriteString("\n")

	// Result
	res := s.Result
	fmt.Fprintf(&b, "## %s\n\n", t("Result"))
	f.header(&b)
	f.row(&b, "Outcome", res.Outcome)
	if res.Reason != "" {
		f.row(&b, "Reason", res.Reason)
	}
	if res.RenderID != "" {
		f.row(&b, "Render ID", res.RenderID)
	}
	if res.Output.Width > 0 {
		f.row(&b, "Output Size", fmt.Sprintf("%dx%d", res.Output.Width, res.Output.Height))
	}
	if res.Bytes > 0 {
		f.row(&b, "JPEG Size", formatBytes(int64(res.Bytes)))
	}
	if res.Layout != nil {
		f.row(&b, "Grid", fmt.Sprintf("%dx%d (%s %d, %s %d)",
			res.Layout.Cols, res.Layout.Rows, t("used"), res.Layout.Used, t("dropped"), res.Layout.Dropped))
		f.row(&b, "Canvas", fmt.Sprintf("%dx%d", res.Layout.Canvas.Width, res.Layout.Canvas.Height))
	}
	if res.Elapsed > 0 {
		f.row(&b, "Elapsed", fmt.Sprintf("%d ms", res.Elapsed.Milliseconds()))
	}
	b.WriteString("\n")

	// Frames
	if len(res.Positions) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Frames"))
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s |\n", t("Target"), t("Frame"), t("Index"), t("Keyframe"))
		b.WriteString("|---|---|---|---|---|\n")
		for i, p := range res.Positions {
			key := ""
			if p.Keyframe {
				key = "✓"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %d | %s |\n", i+1, formatSeconds(p.Target), formatSeconds(p.PTS), p.Index, key)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" · thumbextractor %s", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func (f *MarkdownFormatter) header(b *strings.Builder) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", f.translate("Item"), f.translate("Value"))
}

func (f *MarkdownFormatter) row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", f.translate(label), value)
}

func (f *MarkdownFormatter) dimension(v int) string {
	if v <= 0 {
		return f.translate("auto")
	}
	return fmt.Sprintf("%d px", v)
}

func (f *MarkdownFormatter) seekMode(keyframeOnly, preferNext bool) string {
	switch {
	case keyframeOnly && preferNext:
		return f.translate("next keyframe")
	case keyframeOnly:
		return f.translate("previous keyframe")
	default:
		return f.translate("nearest frame")
	}
}

func (f *MarkdownFormatter) scanMode(progressive, baseline bool) string {
	switch {
	case progressive:
		return f.translate("progressive")
	case baseline:
		return f.translate("baseline")
	default:
		return f.translate("sequential")
	}
}

func (f *MarkdownFormatter) tileSpec(req RequestInfo) string {
	tile := req.Tile
	grid := fmt.Sprintf("%s×%s", countOrAuto(tile.Cols), countOrAuto(tile.Rows))
	if tile.MaxCols > 0 || tile.MaxRows > 0 {
		grid += fmt.Sprintf(" (%s %s×%s)", f.translate("max"), countOrAuto(tile.MaxCols), countOrAuto(tile.MaxRows))
	}
	return fmt.Sprintf("%s, %s %s, %s %d px, %s %d px, #%02X%02X%02X",
		grid,
		f.translate("every"), formatSeconds(tile.SampleInterval),
		f.translate("margin"), tile.Margin,
		f.translate("padding"), tile.Padding,
		tile.Background.R, tile.Background.G, tile.Background.B)
}

func countOrAuto(n int) string {
	if n <= 0 {
		return "*"
	}
	return fmt.Sprintf("%d", n)
}

// formatSeconds formats a duration as seconds with millisecond precision.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f s", d.Seconds())
}

// formatBytes formats a byte count with binary units.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), []string{"KB", "MB", "GB"}[exp])
}
