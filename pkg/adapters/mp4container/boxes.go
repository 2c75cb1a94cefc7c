package mp4container

import (
	"encoding/binary"
	"math"
)

// rawBox is one ISO-BMFF box found in an in-memory byte range.
type rawBox struct {
	typ     string
	payload []byte
}

// children splits a sequence of boxes. Parsing stops at the first malformed header.
func children(data []byte) []rawBox {
	var boxes []rawBox
	for len(data) >= 8 {
		size := uint64(binary.BigEndian.Uint32(data[:4]))
		typ := string(data[4:8])
		hdr := uint64(8)
		switch size {
		case 0:
			size = uint64(len(data))
		case 1:
			if len(data) < 16 {
				return boxes
			}
			size = binary.BigEndian.Uint64(data[8:16])
			hdr = 16
		}
		if size < hdr || size > uint64(len(data)) {
			return boxes
		}
		boxes = append(boxes, rawBox{typ: typ, payload: data[hdr:size]})
		data = data[size:]
	}
	return boxes
}

// child returns the payload of the first child box of the given type.
func child(data []byte, typ string) ([]byte, bool) {
	for _, b := range children(data) {
		if b.typ == typ {
			return b.payload, true
		}
	}
	return nil, false
}

// path follows a chain of child types starting from a box sequence.
func path(data []byte, types ...string) ([]byte, bool) {
	cur := data
	for _, typ := range types {
		next, ok := child(cur, typ)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// tkhdInfo holds the fields read from a raw track header.
type tkhdInfo struct {
	trackID  uint32
	rotation int
}

// parseTkhd reads the track ID and the clockwise rotation encoded in the matrix.
func parseTkhd(p []byte) (tkhdInfo, bool) {
	if len(p) < 4 {
		return tkhdInfo{}, false
	}
	version := p[0]
	idOff, matrixOff := 12, 40
	if version == 1 {
		idOff, matrixOff = 20, 52
	}
	if len(p) < matrixOff+36 {
		return tkhdInfo{}, false
	}

	m := func(i int) float64 {
		return float64(int32(binary.BigEndian.Uint32(p[matrixOff+4*i:]))) / 65536
	}
	a, b := m(0), m(1)
	return tkhdInfo{
		trackID:  binary.BigEndian.Uint32(p[idOff:]),
		rotation: rotationFromMatrix(a, b),
	}, true
}

func rotationFromMatrix(a, b float64) int {
	if a == 0 && b == 0 {
		return 0
	}
	deg := math.Atan2(b, a) * 180 / math.Pi
	r := int(math.Round(deg/90)) * 90 % 360
	if r < 0 {
		r += 360
	}
	return r
}

// parseCtts expands composition offsets to one value per sample (decode order).
func parseCtts(p []byte, sampleCount int) []int64 {
	if len(p) < 8 {
		return nil
	}
	entries := int(binary.BigEndian.Uint32(p[4:8]))
	offsets := make([]int64, 0, sampleCount)
	pos := 8
	for i := 0; i < entries && pos+8 <= len(p) && len(offsets) < sampleCount; i++ {
		count := int(binary.BigEndian.Uint32(p[pos:]))
		off := int64(int32(binary.BigEndian.Uint32(p[pos+4:])))
		for j := 0; j < count && len(offsets) < sampleCount; j++ {
			offsets = append(offsets, off)
		}
		pos += 8
	}
	return offsets
}

// visualSampleEntryFields is the size of the fixed part of a VisualSampleEntry payload.
const visualSampleEntryFields = 78

// parsePasp returns the pixel aspect ratio of the first sample entry in an stsd payload.
func parsePasp(stsd []byte) (num, den int, ok bool) {
	if len(stsd) < 8 {
		return 0, 0, false
	}
	entries := children(stsd[8:])
	if len(entries) == 0 || len(entries[0].payload) < visualSampleEntryFields {
		return 0, 0, false
	}
	pasp, found := child(entries[0].payload[visualSampleEntryFields:], "pasp")
	if !found || len(pasp) < 8 {
		return 0, 0, false
	}
	h := int(binary.BigEndian.Uint32(pasp[:4]))
	v := int(binary.BigEndian.Uint32(pasp[4:8]))
	if h <= 0 || v <= 0 {
		return 0, 0, false
	}
	return h, v, true
}

// parseDuration reads (duration, timescale) from an mvhd or mdhd payload.
func parseDuration(p []byte) (duration uint64, timescale uint32, ok bool) {
	if len(p) < 4 {
		return 0, 0, false
	}
	if p[0] == 1 {
		if len(p) < 32 {
			return 0, 0, false
		}
		return binary.BigEndian.Uint64(p[24:32]), binary.BigEndian.Uint32(p[20:24]), true
	}
	if len(p) < 20 {
		return 0, 0, false
	}
	d := uint64(binary.BigEndian.Uint32(p[16:20]))
	if d == math.MaxUint32 {
		return 0, binary.BigEndian.Uint32(p[12:16]), true
	}
	return d, binary.BigEndian.Uint32(p[12:16]), true
}

// trackBoxes locates the raw trak payload with the given track ID inside a moov box.
func trackBoxes(moov []byte, trackID uint32) ([]byte, bool) {
	top := children(moov)
	if len(top) == 0 || top[0].typ != "moov" {
		return nil, false
	}
	for _, b := range children(top[0].payload) {
		if b.typ != "trak" {
			continue
		}
		tkhd, ok := child(b.payload, "tkhd")
		if !ok {
			continue
		}
		info, ok := parseTkhd(tkhd)
		if ok && info.trackID == trackID {
			return b.payload, true
		}
	}
	return nil, false
}

// movieHeader returns the raw mvhd payload of a moov box.
func movieHeader(moov []byte) ([]byte, bool) {
	top := children(moov)
	if len(top) == 0 || top[0].typ != "moov" {
		return nil, false
	}
	return child(top[0].payload, "mvhd")
}
