// Package arena bridges the CMF runtime's in-memory segment arena to
// the on-disk, mmap-backed segment layout the container format
// requires (§4.2). A hand-rolled capnp.Arena is not implementable
// here: in the pinned capnp-go v3.1.0-alpha.2, Message.alloc and
// Message.AllocateAsRoot capture the Arena.Allocate call's result
// directly into a return value typed as the package-private `address`
// (capnproto.org/go/capnp/v3's message.go), which means Arena.Allocate
// itself returns that unexported type — sealing the interface to
// implementations living inside package capnp. Every build of a
// message here instead grows against the library's own built-in
// capnp.MultiSegment arena, the same type internal/schema already uses
// on the read path, and which already packs multiple objects into a
// shared segment before growing a new one. This package's job is
// narrower: once a message is fully built, copy its finished segments
// into granule-rounded, mmap'd regions that the container's segment
// table can describe.
package arena

import (
	"fmt"

	"capnproto.org/go/capnp/v3"

	"github.com/laenix/hairball/internal/segstore"
)

// NewWritable returns a fresh, empty arena for building a message. All
// packing of successive small allocations into shared segments is the
// capnp runtime's own responsibility; this package only owns getting
// the finished bytes onto disk.
func NewWritable() capnp.Arena {
	return capnp.MultiSegment(nil)
}

// Flush copies every finished segment of msg into a freshly allocated,
// granule-rounded segstore segment, in segment order, so the disk
// layout mirrors the in-memory one exactly. It must run exactly once,
// after the message is completely built and before store.Finalize.
func Flush(msg *capnp.Message, store *segstore.Writer) error {
	n := msg.NumSegments()
	for i := int64(0); i < n; i++ {
		seg, err := msg.Segment(capnp.SegmentID(i))
		if err != nil {
			return fmt.Errorf("arena: segment %d: %w", i, err)
		}
		data := seg.Data()

		dst, err := store.Allocate(len(data))
		if err != nil {
			return fmt.Errorf("arena: allocate disk segment %d: %w", i, err)
		}
		if n := copy(dst.Bytes, data); n != len(data) {
			return fmt.Errorf("arena: disk segment %d too small: got %d bytes, need %d", i, n, len(data))
		}
	}
	return nil
}
