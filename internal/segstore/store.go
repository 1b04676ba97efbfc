// Package segstore owns the backing file handle for a hairball
// container, allocates aligned on-disk regions ("segments"), memory
// maps them, and exposes each as a word-aligned byte slice. It
// provides both a read-write variant (used while building a file) and
// a read-only variant (used while reading one back), mirroring the
// teacher's EWFImage split between a parsing pass and plain
// ReadAt-based section access, generalized here to mmap.
package segstore

import "github.com/laenix/hairball/internal/wire"

// Segment is one mapped region: a byte-aligned view plus its word
// count (byte length / 8).
type Segment struct {
	Bytes []byte
}

// WordLen returns the segment's length in 8-byte words.
func (s Segment) WordLen() int64 { return int64(len(s.Bytes) / 8) }

// roundUpGranule rounds n bytes up to the allocation granule, with a
// Granule-byte floor. It is a thin package-local alias of
// wire.RoundUpGranule; Writer.Allocate calls wire.RoundUpGranule
// directly, and nothing in this package calls roundUpGranule.
func roundUpGranule(n uint64) uint64 { return wire.RoundUpGranule(n) }
