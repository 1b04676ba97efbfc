// Package sniff identifies a 3D-asset source format from its leading
// bytes, the same shape as the teacher's disk-image signature check:
// read a small fixed prefix, then branch on what it looks like,
// without committing to a full parse.
package sniff

import (
	"bytes"
	"fmt"
	"os"
)

// Format is a recognized 3D-asset source format.
type Format int

// Recognized formats.
const (
	Unknown Format = iota
	OBJ
	COLLADA
)

func (f Format) String() string {
	switch f {
	case OBJ:
		return "obj"
	case COLLADA:
		return "collada"
	default:
		return "unknown"
	}
}

const prefixLen = 512

// Detect reads the first prefixLen bytes of path and classifies it.
// A prefix containing a <COLLADA element or an XML declaration
// (<?xml, in any case) is COLLADA. Otherwise it is OBJ when its first
// non-comment, non-blank line starts with one of a handful of short
// keyword tokens ("v", "vt", "vn", "f", "o", "g", "mtllib", "usemtl").
// Anything else is Unknown.
func Detect(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, fmt.Errorf("sniff %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, prefixLen)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return Unknown, fmt.Errorf("sniff %s: %w", path, err)
	}
	buf = buf[:n]

	if bytes.Contains(buf, []byte("<COLLADA")) || bytes.Contains(bytes.ToLower(buf), []byte("<?xml")) {
		return COLLADA, nil
	}
	if looksLikeOBJ(buf) {
		return OBJ, nil
	}
	return Unknown, nil
}

var objKeywords = [][]byte{
	[]byte("v "), []byte("vt "), []byte("vn "), []byte("f "),
	[]byte("o "), []byte("g "), []byte("mtllib "), []byte("usemtl "),
}

func looksLikeOBJ(buf []byte) bool {
	for _, line := range bytes.Split(buf, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		for _, kw := range objKeywords {
			if bytes.HasPrefix(line, kw) {
				return true
			}
		}
		return false
	}
	return false
}
