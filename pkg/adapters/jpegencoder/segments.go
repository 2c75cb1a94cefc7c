package jpegencoder

import (
	"encoding/binary"
	"errors"
)

// jfifSegment builds a JFIF 1.02 APP0 segment without thumbnail.
func jfifSegment(unit byte, x, y uint16) []byte {
	seg := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x02, unit, 0, 0, 0, 0, 0x00, 0x00}
	binary.BigEndian.PutUint16(seg[12:], x)
	binary.BigEndian.PutUint16(seg[14:], y)
	return seg
}

// adobeSegment builds an Adobe APP14 segment. Transform 1 marks YCbCr data.
func adobeSegment(transform byte) []byte {
	return []byte{0xFF, 0xEE, 0x00, 0x0E, 'A', 'd', 'o', 'b', 'e', 0x00, 0x64, 0x00, 0x00, 0x00, 0x00, transform}
}

// spliceHeaders inserts the JFIF and Adobe segments right after SOI.
// Used by the standard library build, whose encoder writes neither.
func spliceHeaders(data []byte, unit byte, x, y uint16) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, errors.New("jpegencoder: missing SOI marker")
	}
	jfif := jfifSegment(unit, x, y)
	adobe := adobeSegment(1)
	out := make([]byte, 0, len(data)+len(jfif)+len(adobe))
	out = append(out, data[:2]...)
	out = append(out, jfif...)
	out = append(out, adobe...)
	out = append(out, data[2:]...)
	return out, nil
}
