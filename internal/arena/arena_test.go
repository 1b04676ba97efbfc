package arena

import (
	"bytes"
	"path/filepath"
	"testing"

	"capnproto.org/go/capnp/v3"

	"github.com/laenix/hairball/internal/segstore"
)

func TestFlushCopiesEverySegmentInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.hairball")
	store, err := segstore.Create(path, [16]byte{})
	if err != nil {
		t.Fatalf("segstore.Create: %v", err)
	}
	defer store.Finalize(1, 0, 0)

	msg, seg, err := capnp.NewMessage(NewWritable())
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	root, err := capnp.NewRootStruct(seg, capnp.ObjectSize{DataSize: 8})
	if err != nil {
		t.Fatalf("NewRootStruct: %v", err)
	}
	root.SetUint64(0, 0xdeadbeef)

	if err := Flush(msg, store); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := store.Segments()
	if len(got) != int(msg.NumSegments()) {
		t.Fatalf("got %d disk segments, want %d", len(got), msg.NumSegments())
	}
	for i := range got {
		capnpSeg, err := msg.Segment(capnp.SegmentID(i))
		if err != nil {
			t.Fatalf("Segment(%d): %v", i, err)
		}
		want := capnpSeg.Data()
		if !bytes.Equal(got[i].Bytes[:len(want)], want) {
			t.Errorf("disk segment %d mismatch", i)
		}
	}
}
