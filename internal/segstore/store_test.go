package segstore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/laenix/hairball/internal/wire"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.hairball")
	uuid := [16]byte{9, 9, 9}

	w, err := Create(path, uuid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	seg0, err := w.Allocate(100)
	if err != nil {
		t.Fatalf("Allocate seg0: %v", err)
	}
	copy(seg0.Bytes, []byte("hello segment zero"))

	seg1, err := w.Allocate(wire.Granule + 1)
	if err != nil {
		t.Fatalf("Allocate seg1: %v", err)
	}
	copy(seg1.Bytes, []byte("hello segment one"))

	if len(w.Segments()) != 2 {
		t.Fatalf("Segments() len = %d, want 2", len(w.Segments()))
	}

	if err := w.Finalize(1, 0, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	// Idempotent.
	if err := w.Finalize(1, 0, 0); err != nil {
		t.Fatalf("second Finalize: %v", err)
	}

	r, err := Open(path, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.UUID() != uuid {
		t.Errorf("UUID = %v, want %v", r.UUID(), uuid)
	}
	segs := r.Segments()
	if len(segs) != 2 {
		t.Fatalf("len(Segments()) = %d, want 2", len(segs))
	}
	if !bytes.HasPrefix(segs[0].Bytes, []byte("hello segment zero")) {
		t.Errorf("segment 0 prefix mismatch: %q", segs[0].Bytes[:32])
	}
	if !bytes.HasPrefix(segs[1].Bytes, []byte("hello segment one")) {
		t.Errorf("segment 1 prefix mismatch: %q", segs[1].Bytes[:32])
	}
	// Every segment is granule-sized.
	for i, s := range segs {
		if s.WordLen()*8%wire.Granule != 0 {
			t.Errorf("segment %d length %d not a granule multiple", i, len(s.Bytes))
		}
	}
}

func TestOpenRejectsWrongMajorVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.hairball")
	w, err := Create(path, [16]byte{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Finalize(2, 0, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if _, err := Open(path, 1); err == nil {
		t.Fatal("Open with mismatched major version: want error, got nil")
	}
}

func TestProbeUUIDDoesNotMapSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.hairball")
	uuid := [16]byte{1, 2, 3, 4}
	w, err := Create(path, uuid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Allocate(10); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := w.Finalize(1, 0, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	got, err := ProbeUUID(path)
	if err != nil {
		t.Fatalf("ProbeUUID: %v", err)
	}
	if got != uuid {
		t.Errorf("ProbeUUID = %v, want %v", got, uuid)
	}
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.hairball")
	w, err := Create(path, [16]byte{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Finalize(1, 0, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := Open(path, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	if len(r.Segments()) != 0 {
		t.Errorf("Segments() len = %d, want 0", len(r.Segments()))
	}
}
