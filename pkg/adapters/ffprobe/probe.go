// Package ffprobe implements ports.ContainerProber for any container or codec
// ffmpeg understands. Stream metadata and the frame index come from ffprobe;
// frames are decoded with an accurate ffmpeg seek.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoVideoStream is returned when the input has no decodable video stream.
var ErrNoVideoStream = errors.New("ffprobe: no video stream")

// ProbeResult contains the ffprobe output.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

// ProbeFormat contains container format information.
type ProbeFormat struct {
	Filename   string            `json:"filename"`
	NumStreams int               `json:"nb_streams"`
	FormatName string            `json:"format_name"`
	StartTime  string            `json:"start_time"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	Tags       map[string]string `json:"tags"`
}

// ProbeStream contains stream information.
type ProbeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"` // video, audio, subtitle, data
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	SampleAspect string            `json:"sample_aspect_ratio,omitempty"`
	TimeBase     string            `json:"time_base,omitempty"`
	StartTime    string            `json:"start_time,omitempty"`
	Duration     string            `json:"duration,omitempty"`
	Disposition  ProbeDisposition  `json:"disposition,omitempty"`
	Tags         map[string]string `json:"tags,omitempty"`
	SideData     []ProbeSideData   `json:"side_data_list,omitempty"`
}

// ProbeDisposition contains stream disposition flags.
type ProbeDisposition struct {
	Default     int `json:"default"`
	AttachedPic int `json:"attached_pic"`
}

// ProbeSideData is one entry of a stream's side data list.
type ProbeSideData struct {
	Type     string  `json:"side_data_type"`
	Rotation float64 `json:"rotation"`
}

// ProbePacket is one demuxed packet of the probed stream.
type ProbePacket struct {
	PTSTime string `json:"pts_time"`
	Flags   string `json:"flags"`
}

type packetsResult struct {
	Packets []ProbePacket `json:"packets"`
}

// Runner runs ffprobe and returns its standard output.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ExecRunner returns a Runner that executes the given ffprobe binary.
func ExecRunner(ffprobePath string) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, ffprobePath, args...)
		output, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
				return nil, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
			}
			return nil, fmt.Errorf("ffprobe failed: %w", err)
		}
		return output, nil
	}
}

// Probe returns the format and stream information of a file.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.run(ctx,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("probe timeout after %v", p.timeout)
		}
		return nil, err
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return &result, nil
}

// ProbePackets returns the packets of one stream in decode order.
func (p *Prober) ProbePackets(ctx context.Context, path string, streamIndex int) ([]ProbePacket, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := p.run(ctx,
		"-v", "error",
		"-print_format", "json",
		"-select_streams", strconv.Itoa(streamIndex),
		"-show_entries", "packet=pts_time,flags",
		path,
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("packet probe timeout after %v", p.timeout)
		}
		return nil, err
	}

	var result packetsResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe packets: %w", err)
	}
	return result.Packets, nil
}

// VideoStream returns the video stream with the largest pixel area.
// Attached pictures (cover art) are ignored. Ties go to the lower index.
func (r *ProbeResult) VideoStream() *ProbeStream {
	var best *ProbeStream
	for i := range r.Streams {
		s := &r.Streams[i]
		if s.CodecType != "video" || s.Disposition.AttachedPic == 1 {
			continue
		}
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		if best == nil || s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

// Rotation returns the clockwise display rotation of the stream in degrees.
// The display matrix side data reports counter-clockwise degrees; the legacy
// rotate tag reports clockwise degrees.
func (s *ProbeStream) Rotation() float64 {
	for _, sd := range s.SideData {
		if sd.Type == "Display Matrix" {
			return -sd.Rotation
		}
	}
	if v, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.ParseFloat(v, 64); err == nil {
			return deg
		}
	}
	return 0
}

// parseRatio parses "num:den". Unset values such as "0:1" or "N/A" return ok=false.
func parseRatio(s string) (num, den int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	n, err1 := strconv.Atoi(parts[0])
	d, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 0, 0, false
	}
	return n, d, true
}

// parseSeconds parses an ffprobe decimal seconds value. "N/A" and empty values return ok=false.
func parseSeconds(s string) (time.Duration, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(f * float64(time.Second)), true
}
