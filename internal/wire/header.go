// Package wire codecs the fixed-layout bytes at the head of a hairball
// file: the container header and the segment-size table. Every
// multi-byte field is little-endian, matching the fixed binary structs
// the teacher's EWF reader decodes with encoding/binary.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic is the 8-byte signature every hairball file starts with.
var Magic = [8]byte{'h', 'a', 'i', 'r', 'b', 'a', 'l', 'l'}

// Granule is the allocation granule: every segment size and the first
// segment offset is a multiple of this many bytes.
const Granule = 4096

// HeaderSize is the fixed byte size of Header on disk.
const HeaderSize = 8 + 3*4 + 4 + 4 + 4 + 8 + 16

// Header is the container header at offset 0 of a hairball file.
type Header struct {
	Major, Minor, Patch uint32
	Flags               uint32
	FirstSegmentOffset  uint32
	NumSegments         uint32
	SegmentTableOffset  uint64
	UUID                [16]byte
}

// ErrBadMagic is returned when a file's leading bytes are not the
// hairball signature.
var ErrBadMagic = fmt.Errorf("bad magic")

// ErrUnsupportedVersion is returned when a file's major version does
// not match the reader's.
var ErrUnsupportedVersion = fmt.Errorf("unsupported major version")

// Encode writes h in its on-disk layout.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic[:])
	off := len(Magic)
	binary.LittleEndian.PutUint32(buf[off:], h.Major)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.Minor)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.Patch)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.Flags)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.FirstSegmentOffset)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.NumSegments)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], h.SegmentTableOffset)
	off += 8
	copy(buf[off:], h.UUID[:])
	return buf
}

// DecodeHeader parses a Header from r, which must yield at least
// HeaderSize bytes. The magic and the fixed field layout are validated;
// the major-version check is left to the caller since it needs to
// compare against the reader's own version.
func DecodeHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var magic [8]byte
	copy(magic[:], buf[:8])
	if magic != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{}
	off := 8
	h.Major = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.Minor = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.Patch = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.Flags = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.FirstSegmentOffset = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.NumSegments = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.SegmentTableOffset = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	copy(h.UUID[:], buf[off:])
	return h, nil
}

// RoundUpGranule rounds n up to the next multiple of Granule, with a
// floor of one full granule. This is the single place the "always at
// least 4096, always a multiple of 4096" rule lives;
// segstore.Writer.Allocate, through which arena.Flush allocates every
// disk segment, calls it.
func RoundUpGranule(n uint64) uint64 {
	if n == 0 {
		return Granule
	}
	rem := n % Granule
	if rem == 0 {
		return n
	}
	return n + (Granule - rem)
}
