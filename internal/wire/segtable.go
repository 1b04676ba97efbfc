package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeSegmentTable serializes segment byte sizes in segment order as
// little-endian uint32s.
func EncodeSegmentTable(sizes []uint32) []byte {
	buf := make([]byte, 4*len(sizes))
	for i, s := range sizes {
		binary.LittleEndian.PutUint32(buf[i*4:], s)
	}
	return buf
}

// DecodeSegmentTable reads n little-endian uint32 segment sizes from r.
func DecodeSegmentTable(r io.Reader, n uint32) ([]uint32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read segment table: %w", err)
	}
	sizes := make([]uint32, n)
	for i := range sizes {
		sizes[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return sizes, nil
}

// TablePlacement decides where the segment-size table goes, per the
// placement policy: if it fits in the gap between the header and the
// first allowed segment offset (Granule), it is written right after
// the header; otherwise it goes after the last segment.
//
// endOfLastSegment is ignored (and may be 0) when numSegments is 0.
func TablePlacement(numSegments uint32, endOfLastSegment uint64) (tableOffset uint64, firstSegmentOffset uint32) {
	if uint64(numSegments)*4 <= Granule-HeaderSize {
		return HeaderSize, Granule
	}
	return endOfLastSegment, Granule
}
