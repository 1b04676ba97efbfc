package wire

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := &Header{
		Major: 1, Minor: 2, Patch: 3,
		Flags:              0,
		FirstSegmentOffset: 4096,
		NumSegments:        7,
		SegmentTableOffset: 56,
		UUID:               [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
	}

	enc := h.Encode()
	if len(enc) != HeaderSize {
		t.Fatalf("encoded length = %d, want %d", len(enc), HeaderSize)
	}
	if !bytes.Equal(enc[:8], Magic[:]) {
		t.Fatalf("encoded magic = %v, want %v", enc[:8], Magic)
	}

	got, err := DecodeHeader(bytes.NewReader(enc))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if *got != *h {
		t.Fatalf("DecodeHeader = %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, "notmagic")
	if _, err := DecodeHeader(bytes.NewReader(buf)); err != ErrBadMagic {
		t.Fatalf("DecodeHeader error = %v, want ErrBadMagic", err)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	buf := make([]byte, HeaderSize-1)
	copy(buf, Magic[:])
	if _, err := DecodeHeader(bytes.NewReader(buf)); err == nil {
		t.Fatal("DecodeHeader on truncated input: want error, got nil")
	}
}

func TestRoundUpGranule(t *testing.T) {
	cases := map[uint64]uint64{
		0:              Granule,
		1:              Granule,
		Granule:        Granule,
		Granule + 1:    2 * Granule,
		2 * Granule:    2 * Granule,
		3*Granule - 17: 3 * Granule,
	}
	for in, want := range cases {
		if got := RoundUpGranule(in); got != want {
			t.Errorf("RoundUpGranule(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestEncodeSegmentTableRoundTrip(t *testing.T) {
	sizes := []uint32{4096, 8192, 4096, 16384}
	enc := EncodeSegmentTable(sizes)
	got, err := DecodeSegmentTable(bytes.NewReader(enc), uint32(len(sizes)))
	if err != nil {
		t.Fatalf("DecodeSegmentTable: %v", err)
	}
	if len(got) != len(sizes) {
		t.Fatalf("len = %d, want %d", len(got), len(sizes))
	}
	for i := range sizes {
		if got[i] != sizes[i] {
			t.Errorf("sizes[%d] = %d, want %d", i, got[i], sizes[i])
		}
	}
}

func TestTablePlacementFitsInHeaderGap(t *testing.T) {
	// A handful of segments: the size table easily fits before offset
	// Granule, so it is placed right after the header.
	off, first := TablePlacement(3, 3*Granule)
	if off != HeaderSize {
		t.Errorf("offset = %d, want %d", off, HeaderSize)
	}
	if first != Granule {
		t.Errorf("firstSegmentOffset = %d, want %d", first, Granule)
	}
}

func TestTablePlacementOverflowsHeaderGap(t *testing.T) {
	// Enough segments that 4 bytes apiece no longer fits in the gap
	// before offset Granule; the table moves after the last segment.
	const n = (Granule-HeaderSize)/4 + 1
	endOfLast := uint64(n) * Granule
	off, first := TablePlacement(n, endOfLast)
	if off != endOfLast {
		t.Errorf("offset = %d, want %d", off, endOfLast)
	}
	if first != Granule {
		t.Errorf("firstSegmentOffset = %d, want %d", first, Granule)
	}
}
