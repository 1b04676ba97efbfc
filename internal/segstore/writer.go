package segstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/laenix/hairball/internal/wire"
)

// writtenSegment tracks both the file-offset bookkeeping needed to
// place the next segment and the finished mmap we must release.
type writtenSegment struct {
	offset uint64
	size   uint32
	bytes  []byte
}

// Writer is the read-write segment store backing a Builder. It owns
// the file exclusively until Finalize runs.
type Writer struct {
	file     *os.File
	uuid     [16]byte
	segments []writtenSegment
	closed   bool
}

// Create truncates or creates path and reserves space for the
// container header. No segments are allocated yet.
func Create(path string, uuid [16]byte) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	w := &Writer{file: f, uuid: uuid}
	if err := f.Truncate(wire.HeaderSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("reserve header: %w", err)
	}
	provisional := wire.Header{UUID: uuid}
	if _, err := f.WriteAt(provisional.Encode(), 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("write provisional header: %w", err)
	}
	return w, nil
}

// Allocate grows the file by one new segment of at least minBytes,
// rounded up to the allocation granule, maps it read-write, and
// returns it. Segments are appended in file order and are never
// relocated.
func (w *Writer) Allocate(minBytes int) (Segment, error) {
	size := wire.RoundUpGranule(uint64(minBytes))

	offset := uint64(wire.Granule)
	if n := len(w.segments); n > 0 {
		last := w.segments[n-1]
		offset = last.offset + uint64(last.size)
	}

	end := offset + size
	if err := w.file.Truncate(int64(end)); err != nil {
		return Segment{}, fmt.Errorf("grow file for segment: %w", err)
	}

	data, err := unix.Mmap(int(w.file.Fd()), int64(offset), int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return Segment{}, fmt.Errorf("mmap segment at %d: %w", offset, err)
	}

	w.segments = append(w.segments, writtenSegment{offset: offset, size: uint32(size), bytes: data})
	return Segment{Bytes: data}, nil
}

// Segments returns the segments allocated so far, in allocation order.
func (w *Writer) Segments() []Segment {
	out := make([]Segment, len(w.segments))
	for i, s := range w.segments {
		out[i] = Segment{Bytes: s.bytes}
	}
	return out
}

// UUID returns the file UUID this writer was created with.
func (w *Writer) UUID() [16]byte { return w.uuid }

// SetUUID overrides the UUID that will be stamped into the header at
// Finalize.
func (w *Writer) SetUUID(id [16]byte) { w.uuid = id }

// Finalize writes the segment-size table and the final header, then
// unmaps every segment and closes the file. Once a call has succeeded,
// later calls return nil without touching the file again; a call after
// a failed one runs the writes again.
func (w *Writer) Finalize(major, minor, patch uint32) error {
	if w.closed {
		return nil
	}

	sizes := make([]uint32, len(w.segments))
	for i, s := range w.segments {
		sizes[i] = s.size
	}

	var endOfLast uint64
	var firstSegmentOffset uint32
	if n := len(w.segments); n > 0 {
		last := w.segments[n-1]
		endOfLast = last.offset + uint64(last.size)
		firstSegmentOffset = uint32(w.segments[0].offset)
	}

	tableOffset, _ := wire.TablePlacement(uint32(len(sizes)), endOfLast)
	if _, err := w.file.WriteAt(wire.EncodeSegmentTable(sizes), int64(tableOffset)); err != nil {
		return fmt.Errorf("write segment table: %w", err)
	}

	h := wire.Header{
		Major:              major,
		Minor:              minor,
		Patch:              patch,
		FirstSegmentOffset: firstSegmentOffset,
		NumSegments:        uint32(len(sizes)),
		SegmentTableOffset: tableOffset,
		UUID:               w.uuid,
	}
	if _, err := w.file.WriteAt(h.Encode(), 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range w.segments {
		if err := unix.Munmap(s.bytes); err != nil {
			return fmt.Errorf("munmap segment at %d: %w", s.offset, err)
		}
	}
	w.segments = nil

	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	w.closed = true
	return w.file.Close()
}
