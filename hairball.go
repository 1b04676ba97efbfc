// Package hairball implements a columnar scene-graph container format:
// an entity table, a deduplicated external-file-reference table, and
// an open-ended registry of named columns layered on a Cap'n
// Proto-compatible binary message (CMF) backed by an mmap'd,
// append-only segment store.
//
// Builder writes a file; Reader opens one back up. Neither type
// interprets column payloads itself — that is left to typed client
// packages such as column/mesh and column/material, which agree with
// their writers on what a given column name's any-pointer payload
// means.
package hairball

import (
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/laenix/hairball/internal/segstore"
	"github.com/laenix/hairball/internal/wire"
)

// FileUUID reads just the fixed header of the file at path and
// returns its UUID, without mapping any segment. Use this to identify
// a file cheaply, e.g. to short-circuit External entity resolution
// when the referenced file is the caller's own.
func FileUUID(path string) (uuid.UUID, error) {
	raw, err := segstore.ProbeUUID(path)
	if err != nil {
		return uuid.UUID{}, newErr("hairball.FileUUID", classifyHeaderErr(err), err)
	}
	var id uuid.UUID
	copy(id[:], raw[:])
	return id, nil
}

func classifyHeaderErr(err error) Code {
	if errors.Is(err, wire.ErrBadMagic) || errors.Is(err, wire.ErrUnsupportedVersion) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return CodeInvalidHeader
	}
	return CodeIO
}
