// Package mp4container implements ports.ContainerProber for progressive MP4
// files with H.264 video. The frame index comes from the sample tables and
// frames are decoded one GOP at a time through ffmpeg.
package mp4container

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sort"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/thumbextractor/pkg/adapters/codecdetect"
	"github.com/user/thumbextractor/pkg/ports"
)

// FrameDecoder decodes one frame from an Annex B elementary stream.
type FrameDecoder interface {
	DecodeAnnexB(ctx context.Context, data []byte, rank int) (image.Image, error)
}

// Prober opens progressive AVC MP4 sources.
type Prober struct {
	decoder FrameDecoder
	logger  ports.Logger
}

// New creates a new Prober.
func New(decoder FrameDecoder, logger ports.Logger) *Prober {
	return &Prober{decoder: decoder, logger: logger}
}

// Open implements ports.ContainerProber.
// Non-MP4, fragmented or non-AVC sources fail with ports.ErrUnsupported.
func (p *Prober) Open(ctx context.Context, src ports.ByteSource) (ports.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	movie, err := codecdetect.LoadMovie(src, src.Size())
	if err != nil {
		if errors.Is(err, codecdetect.ErrNoMovie) {
			return nil, fmt.Errorf("%w: %v", ports.ErrUnsupported, err)
		}
		return nil, err
	}
	if movie.Fragmented {
		return nil, fmt.Errorf("%w: fragmented mp4", ports.ErrUnsupported)
	}

	trak := codecdetect.LargestVideoTrack(movie.VideoTracks())
	if trak == nil {
		return nil, codecdetect.ErrNoVideoTrack
	}
	if codec := codecdetect.TrackCodec(trak); codec != codecdetect.CodecH264 {
		return nil, fmt.Errorf("%w: codec %s", ports.ErrUnsupported, codec)
	}
	vse := codecdetect.SampleEntry(trak)
	if vse.AvcC == nil {
		return nil, fmt.Errorf("%w: avc sample entry without avcC", ports.ErrUnsupported)
	}

	c := &Container{
		src:     src,
		decoder: p.decoder,
		logger:  p.logger,
	}
	if err := c.index(movie, trak); err != nil {
		return nil, err
	}

	p.logger.Debug("Opened mp4 track %d: %dx%d, %d frames, duration %s",
		trak.Tkhd.TrackID, c.geometry.CodedWidth, c.geometry.CodedHeight, len(c.frames), c.geometry.Duration)
	return c, nil
}

// sample is one video sample in decode order.
type sample struct {
	number uint32 // 1-based sample number
	pts    time.Duration
	sync   bool
}

// Container is an opened MP4 video track.
type Container struct {
	src     io.ReaderAt
	decoder FrameDecoder
	logger  ports.Logger

	geometry ports.StreamGeometry
	stbl     *mp4.StblBox
	spsPPS   []byte

	samples []sample // decode order
	order   []int    // presentation index -> decode index
	frames  []ports.FrameInfo
}

func (c *Container) index(movie *codecdetect.Movie, trak *mp4.TrakBox) error {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
		return fmt.Errorf("mp4container: no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz == nil || stbl.Stts == nil {
		return fmt.Errorf("mp4container: missing stsz or stts box")
	}
	c.stbl = stbl

	var timescale uint32 = 1000
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	vse := codecdetect.SampleEntry(trak)
	c.geometry.CodedWidth = int(vse.Width)
	c.geometry.CodedHeight = int(vse.Height)

	for _, sps := range vse.AvcC.SPSnalus {
		c.spsPPS = append(c.spsPPS, 0, 0, 0, 1)
		c.spsPPS = append(c.spsPPS, sps...)
	}
	for _, pps := range vse.AvcC.PPSnalus {
		c.spsPPS = append(c.spsPPS, 0, 0, 0, 1)
		c.spsPPS = append(c.spsPPS, pps...)
	}

	sampleCount := int(stbl.Stsz.SampleNumber)
	var ctts []int64
	if raw, ok := trackBoxes(movie.Raw, trak.Tkhd.TrackID); ok {
		if tkhd, ok := child(raw, "tkhd"); ok {
			if info, ok := parseTkhd(tkhd); ok {
				c.geometry.RotationDegrees = info.rotation
			}
		}
		if stsd, ok := path(raw, "mdia", "minf", "stbl", "stsd"); ok {
			if h, v, ok := parsePasp(stsd); ok {
				c.geometry.SampleAspectRatio = ports.Ratio{Num: h, Den: v}
			}
		}
		if p, ok := path(raw, "mdia", "minf", "stbl", "ctts"); ok {
			ctts = parseCtts(p, sampleCount)
		}
		if mdhd, ok := path(raw, "mdia", "mdhd"); ok {
			if d, ts, ok := parseDuration(mdhd); ok && ts > 0 {
				c.geometry.Duration = ticks(int64(d), ts)
			}
		}
	}
	if c.geometry.Duration <= 0 {
		if mvhd, ok := movieHeader(movie.Raw); ok {
			if d, ts, ok := parseDuration(mvhd); ok && ts > 0 {
				c.geometry.Duration = ticks(int64(d), ts)
			}
		}
	}

	c.buildIndex(stbl, ctts, timescale)
	return nil
}

// buildIndex fills the sample list and the presentation order from the
// sample tables. ctts holds composition offsets in decode order and may be
// shorter than the table. Without stss every sample is a sync sample.
// Presentation times are shifted so the earliest one is 0.
func (c *Container) buildIndex(stbl *mp4.StblBox, ctts []int64, timescale uint32) {
	sampleCount := int(stbl.Stsz.SampleNumber)
	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	c.samples = make([]sample, sampleCount)
	minPTS := int64(0)
	raw := make([]int64, sampleCount)
	for i := 0; i < sampleCount; i++ {
		nr := uint32(i + 1)
		decodeTime, _ := stbl.Stts.GetDecodeTime(nr)
		pts := int64(decodeTime)
		if i < len(ctts) {
			pts += ctts[i]
		}
		raw[i] = pts
		if i == 0 || pts < minPTS {
			minPTS = pts
		}
		c.samples[i] = sample{
			number: nr,
			sync:   len(syncSamples) == 0 || syncSamples[nr],
		}
	}
	for i := range c.samples {
		c.samples[i].pts = ticks(raw[i]-minPTS, timescale)
	}

	c.order = make([]int, sampleCount)
	for i := range c.order {
		c.order[i] = i
	}
	sort.SliceStable(c.order, func(a, b int) bool {
		return c.samples[c.order[a]].pts < c.samples[c.order[b]].pts
	})

	c.frames = make([]ports.FrameInfo, sampleCount)
	for i, di := range c.order {
		c.frames[i] = ports.FrameInfo{PTS: c.samples[di].pts, Keyframe: c.samples[di].sync}
	}
}

// ticks converts a media time to a duration. Whole seconds and the remainder
// are scaled separately so long tracks do not overflow.
func ticks(v int64, timescale uint32) time.Duration {
	ts := int64(timescale)
	sec, rem := v/ts, v%ts
	return time.Duration(sec)*time.Second + time.Duration(rem)*time.Second/time.Duration(ts)
}

// Geometry implements ports.Container.
func (c *Container) Geometry() ports.StreamGeometry {
	return c.geometry
}

// Frames implements ports.Container.
func (c *Container) Frames() []ports.FrameInfo {
	return c.frames
}

// DecodeFrame implements ports.Container.
// The GOP containing the frame is fed to the decoder and the frame is picked
// by its presentation rank within the GOP.
func (c *Container) DecodeFrame(ctx context.Context, index int) (image.Image, error) {
	if index < 0 || index >= len(c.order) {
		return nil, fmt.Errorf("mp4container: frame %d out of range", index)
	}
	target := c.order[index]

	start := target
	for start > 0 && !c.samples[start].sync {
		start--
	}
	end := target + 1
	for end < len(c.samples) && !c.samples[end].sync {
		end++
	}

	stream := append([]byte(nil), c.spsPPS...)
	rank := 0
	for i := start; i < end; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := c.sampleData(c.samples[i].number)
		if err != nil {
			return nil, err
		}
		stream = append(stream, avccToAnnexB(data)...)
		if c.samples[i].pts < c.samples[target].pts {
			rank++
		}
	}

	c.logger.Debug("Decoding frame %d from samples %d-%d (rank %d)", index, start+1, end, rank)
	return c.decoder.DecodeAnnexB(ctx, stream, rank)
}

// Close implements ports.Container. The byte source is owned by the caller.
func (c *Container) Close() error {
	return nil
}

// sampleData reads one sample from the source using the chunk tables.
func (c *Container) sampleData(sampleNr uint32) ([]byte, error) {
	stbl := c.stbl
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("mp4container: missing stsc box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	if stbl.Stco != nil {
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	} else if stbl.Co64 != nil {
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("mp4container: chunk nr %d out of range", chunkNr)
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	} else {
		return nil, fmt.Errorf("mp4container: no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	size := stbl.Stsz.GetSampleSize(int(sampleNr))

	data := make([]byte, size)
	if _, err := c.src.ReadAt(data, int64(offset)); err != nil {
		return nil, fmt.Errorf("read sample %d: %w", sampleNr, err)
	}
	return data, nil
}

// avccToAnnexB converts length-prefixed NAL units to start-code prefixed ones.
func avccToAnnexB(data []byte) []byte {
	var result []byte
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}

var (
	_ ports.ContainerProber = (*Prober)(nil)
	_ ports.Container       = (*Container)(nil)
)
