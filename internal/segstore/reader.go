package segstore

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"

	"github.com/laenix/hairball/internal/wire"
)

// Reader is the read-only segment store backing a Reader-side hairball
// view. Multiple Readers may safely open the same path concurrently.
type Reader struct {
	file     *os.File
	uuid     [16]byte
	segments []Segment
}

// Open validates the header, reads the segment table, and maps every
// segment read-only.
func Open(path string, expectedMajor uint32) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	h, err := wire.DecodeHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if h.Major != expectedMajor {
		f.Close()
		return nil, fmt.Errorf("%w: file is %d, reader is %d", wire.ErrUnsupportedVersion, h.Major, expectedMajor)
	}

	if _, err := f.Seek(int64(h.SegmentTableOffset), io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek segment table: %w", err)
	}
	sizes, err := wire.DecodeSegmentTable(f, h.NumSegments)
	if err != nil {
		f.Close()
		return nil, err
	}

	segments := make([]Segment, 0, len(sizes))
	offset := uint64(h.FirstSegmentOffset)
	for _, size := range sizes {
		data, err := unix.Mmap(int(f.Fd()), int64(offset), int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			for _, s := range segments {
				unix.Munmap(s.Bytes)
			}
			f.Close()
			return nil, fmt.Errorf("mmap segment at %d: %w", offset, err)
		}
		segments = append(segments, Segment{Bytes: data})
		offset += uint64(size)
	}

	return &Reader{file: f, uuid: h.UUID, segments: segments}, nil
}

// UUID returns the file's UUID.
func (r *Reader) UUID() [16]byte { return r.uuid }

// Segments returns the mapped segments in file order.
func (r *Reader) Segments() []Segment { return r.segments }

// Close releases every mapping and closes the file. Borrows into any
// segment must not outlive this call.
func (r *Reader) Close() error {
	for _, s := range r.segments {
		unix.Munmap(s.Bytes)
	}
	r.segments = nil
	return r.file.Close()
}

// ProbeUUID reads only the fixed header and returns the file's UUID,
// without mapping any segment. Mirrors the teacher's IsEWFFile cheap
// signature check: open, read a fixed prefix, close.
func ProbeUUID(path string) ([16]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [16]byte{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := wire.DecodeHeader(f)
	if err != nil {
		return [16]byte{}, err
	}
	return h.UUID, nil
}
