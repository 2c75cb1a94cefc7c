// Package codecdetect sniffs the container and video codec of a byte source
// so a prober can pick a backend.
package codecdetect

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Container is a container family.
type Container string

const (
	ContainerMP4      Container = "mp4"
	ContainerMatroska Container = "matroska"
	ContainerMPEGTS   Container = "mpegts"
	ContainerAVI      Container = "avi"
	ContainerFLV      Container = "flv"
	ContainerUnknown  Container = "unknown"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecVP9     Codec = "vp9"
	CodecUnknown Codec = "unknown"
)

var (
	// ErrNoMovie is returned when an MP4 source has no moov box.
	ErrNoMovie = errors.New("codecdetect: no moov box")

	// ErrNoVideoTrack is returned when a movie has no video track.
	ErrNoVideoTrack = errors.New("codecdetect: no video track found")
)

// Result is the outcome of sniffing a source.
type Result struct {
	Container  Container
	Codec      Codec // only known for MP4 sources
	Fragmented bool
}

// ProgressiveAVC reports whether the source is a non-fragmented MP4 with H.264 video.
func (r Result) ProgressiveAVC() bool {
	return r.Container == ContainerMP4 && !r.Fragmented && r.Codec == CodecH264
}

// Detect sniffs the container family and, for MP4, the codec of the largest video track.
func Detect(src io.ReaderAt, size int64) (Result, error) {
	head := make([]byte, 16)
	n, err := src.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Result{Container: ContainerUnknown, Codec: CodecUnknown}, fmt.Errorf("read header: %w", err)
	}
	head = head[:n]

	res := Result{Container: sniff(src, head), Codec: CodecUnknown}
	if res.Container != ContainerMP4 {
		return res, nil
	}

	movie, err := LoadMovie(src, size)
	if err != nil {
		return res, err
	}
	res.Fragmented = movie.Fragmented
	trak := LargestVideoTrack(movie.VideoTracks())
	if trak == nil {
		return res, ErrNoVideoTrack
	}
	res.Codec = TrackCodec(trak)
	return res, nil
}

func sniff(src io.ReaderAt, head []byte) Container {
	switch {
	case len(head) >= 4 && bytes.Equal(head[:4], []byte{0x1a, 0x45, 0xdf, 0xa3}):
		return ContainerMatroska
	case len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "AVI ":
		return ContainerAVI
	case len(head) >= 3 && string(head[:3]) == "FLV":
		return ContainerFLV
	case len(head) >= 8 && isMP4TopLevel(string(head[4:8])):
		return ContainerMP4
	case len(head) >= 1 && head[0] == 0x47 && syncByteAt(src, 188):
		return ContainerMPEGTS
	}
	return ContainerUnknown
}

func isMP4TopLevel(boxType string) bool {
	switch boxType {
	case "ftyp", "moov", "mdat", "free", "skip", "wide", "pdin", "styp":
		return true
	}
	return false
}

func syncByteAt(src io.ReaderAt, off int64) bool {
	b := make([]byte, 1)
	if _, err := src.ReadAt(b, off); err != nil {
		return false
	}
	return b[0] == 0x47
}

// Box is the header of a top-level ISO-BMFF box.
type Box struct {
	Type       string
	Offset     int64
	Size       int64
	HeaderSize int64
}

const maxTopLevelBoxes = 4096

// TopLevelBoxes walks the top-level box headers without reading payloads.
// A truncated trailing box ends the walk.
func TopLevelBoxes(src io.ReaderAt, size int64) ([]Box, error) {
	var boxes []Box
	hdr := make([]byte, 16)
	for off := int64(0); off+8 <= size; {
		if len(boxes) >= maxTopLevelBoxes {
			return boxes, fmt.Errorf("codecdetect: more than %d top-level boxes", maxTopLevelBoxes)
		}
		if _, err := src.ReadAt(hdr[:8], off); err != nil {
			return boxes, fmt.Errorf("read box header at %d: %w", off, err)
		}
		box := Box{
			Type:       string(hdr[4:8]),
			Offset:     off,
			Size:       int64(binary.BigEndian.Uint32(hdr[:4])),
			HeaderSize: 8,
		}
		switch box.Size {
		case 0:
			box.Size = size - off
		case 1:
			if off+16 > size {
				return boxes, nil
			}
			if _, err := src.ReadAt(hdr[8:16], off+8); err != nil {
				return boxes, fmt.Errorf("read large size at %d: %w", off, err)
			}
			box.Size = int64(binary.BigEndian.Uint64(hdr[8:16]))
			box.HeaderSize = 16
		}
		if box.Size < box.HeaderSize {
			return boxes, fmt.Errorf("codecdetect: invalid %q box size %d at %d", box.Type, box.Size, off)
		}
		boxes = append(boxes, box)
		off += box.Size
	}
	return boxes, nil
}

// Movie is the decoded movie header of an MP4 source.
type Movie struct {
	File       *mp4.File
	Moov       *mp4.MoovBox
	Raw        []byte // moov box bytes including the header
	Fragmented bool
}

// maxMoovSize bounds the bytes read for a movie header.
const maxMoovSize = 256 << 20

// LoadMovie reads and decodes the ftyp and moov boxes only. Sample data is
// never read, so chunk offsets in the result still refer to src.
func LoadMovie(src io.ReaderAt, size int64) (*Movie, error) {
	boxes, err := TopLevelBoxes(src, size)
	if err != nil && len(boxes) == 0 {
		return nil, err
	}

	var buf bytes.Buffer
	var moovBox *Box
	movie := &Movie{}
	for i := range boxes {
		b := boxes[i]
		switch b.Type {
		case "ftyp":
			if err := readBox(src, b, &buf); err != nil {
				return nil, err
			}
		case "moov":
			moovBox = &boxes[i]
		case "moof":
			movie.Fragmented = true
		}
	}
	if moovBox == nil {
		return nil, ErrNoMovie
	}
	if moovBox.Size > maxMoovSize {
		return nil, fmt.Errorf("codecdetect: moov box too large (%d bytes)", moovBox.Size)
	}

	start := buf.Len()
	if err := readBox(src, *moovBox, &buf); err != nil {
		return nil, err
	}
	movie.Raw = buf.Bytes()[start:]

	f, err := mp4.DecodeFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	movie.File = f
	movie.Moov = f.Moov
	if movie.Moov == nil && f.Init != nil {
		movie.Moov = f.Init.Moov
	}
	if movie.Moov == nil {
		return nil, ErrNoMovie
	}
	if movie.Moov.Mvex != nil || f.IsFragmented() {
		movie.Fragmented = true
	}
	return movie, nil
}

func readBox(src io.ReaderAt, b Box, w *bytes.Buffer) error {
	data := make([]byte, b.Size)
	if _, err := src.ReadAt(data, b.Offset); err != nil {
		return fmt.Errorf("read %s box: %w", b.Type, err)
	}
	w.Write(data)
	return nil
}

// VideoTracks returns the tracks with a "vide" handler, in file order.
func (m *Movie) VideoTracks() []*mp4.TrakBox {
	var tracks []*mp4.TrakBox
	for _, trak := range m.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		if trak.Mdia.Hdlr.HandlerType == "vide" {
			tracks = append(tracks, trak)
		}
	}
	return tracks
}

// SampleEntry returns the first visual sample entry of a track, or nil.
func SampleEntry(trak *mp4.TrakBox) *mp4.VisualSampleEntryBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			return vse
		}
	}
	return nil
}

// TrackCodec maps the sample entry type of a track to a codec.
func TrackCodec(trak *mp4.TrakBox) Codec {
	vse := SampleEntry(trak)
	if vse == nil {
		return CodecUnknown
	}
	switch vse.Type() {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	}
	return CodecUnknown
}

// LargestVideoTrack picks the track with the largest coded pixel area.
// Ties go to the earlier track.
func LargestVideoTrack(tracks []*mp4.TrakBox) *mp4.TrakBox {
	var best *mp4.TrakBox
	bestArea := -1
	for _, trak := range tracks {
		area := 0
		if vse := SampleEntry(trak); vse != nil {
			area = int(vse.Width) * int(vse.Height)
		}
		if area > bestArea {
			best, bestArea = trak, area
		}
	}
	return best
}
