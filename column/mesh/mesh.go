// Package mesh is an illustrative typed column client: it writes and
// reads per-entity triangle-mesh geometry under the "mesh.positions"
// column, storing a flat interleaved-free layout — one Data blob of
// little-endian float32 positions and one of little-endian uint32
// triangle indices — rather than the original format's richer
// multi-attribute vertex-buffer scheme, which needs a schema compiler
// this hand-built runtime does not have.
package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"capnproto.org/go/capnp/v3"

	"github.com/laenix/hairball"
)

// ColumnName is the column every mesh payload is stored under.
const ColumnName = "mesh.positions"

const (
	meshPositionsPtr uint16 = 0
	meshIndicesPtr   uint16 = 1
)

// Mesh is one entity's geometry: a flat xyz position stream and a
// triangle index stream.
type Mesh struct {
	Positions []float32
	Indices   []uint32
}

// Write stores meshes, keyed by entity index, under ColumnName in b.
// Each call replaces the column's whole payload: meshes passed to an
// earlier Write on the same Builder are not kept.
func Write(b *hairball.Builder, meshes map[uint32]Mesh) error {
	col, err := b.Column(ColumnName)
	if err != nil {
		return fmt.Errorf("mesh: open column: %w", err)
	}
	seg := col.Segment()

	list, err := capnp.NewCompositeList(seg, tableRowSize, int32(len(meshes)))
	if err != nil {
		return fmt.Errorf("mesh: new table: %w", err)
	}

	i := 0
	for idx, m := range meshes {
		row := list.Struct(i)
		i++
		row.SetUint32(tableRowIDOffset, idx)

		posBytes := make([]byte, 4*len(m.Positions))
		for j, v := range m.Positions {
			binary.LittleEndian.PutUint32(posBytes[j*4:], math.Float32bits(v))
		}
		posData, err := capnp.NewData(seg, posBytes)
		if err != nil {
			return fmt.Errorf("mesh: positions blob: %w", err)
		}
		if err := row.SetPtr(meshPositionsPtr, posData.ToPtr()); err != nil {
			return fmt.Errorf("mesh: set positions: %w", err)
		}

		idxBytes := make([]byte, 4*len(m.Indices))
		for j, v := range m.Indices {
			binary.LittleEndian.PutUint32(idxBytes[j*4:], v)
		}
		idxData, err := capnp.NewData(seg, idxBytes)
		if err != nil {
			return fmt.Errorf("mesh: indices blob: %w", err)
		}
		if err := row.SetPtr(meshIndicesPtr, idxData.ToPtr()); err != nil {
			return fmt.Errorf("mesh: set indices: %w", err)
		}
	}

	return col.SetPayload(list.ToPtr())
}

const tableRowIDOffset capnp.DataOffset = 0

var tableRowSize = capnp.ObjectSize{DataSize: 8, PointerCount: 2}

// Reader iterates the meshes stored in one Reader's ColumnName column,
// yielding each against a caller-projected key.
type Reader[E any] struct {
	mapping *hairball.ReaderMapping[E]
	list    capnp.List
	index   int
}

// Open returns a Reader over m's ColumnName column, or ok=false if the
// file has no such column.
func Open[E any](m *hairball.ReaderMapping[E]) (*Reader[E], bool) {
	col, ok := m.Column(ColumnName)
	if !ok {
		return nil, false
	}
	return &Reader[E]{mapping: m, list: col.Payload().List()}, true
}

// Next returns the next (key, Mesh) pair, or ok=false once exhausted.
// Rows whose entity index is out of range are skipped.
func (r *Reader[E]) Next() (key E, m Mesh, ok bool) {
	for r.index < r.list.Len() {
		row := r.list.Struct(r.index)
		r.index++

		k, found := r.mapping.Key(int(row.Uint32(tableRowIDOffset)))
		if !found {
			continue
		}

		posPtr, err := row.Ptr(meshPositionsPtr)
		if err != nil {
			continue
		}
		idxPtr, err := row.Ptr(meshIndicesPtr)
		if err != nil {
			continue
		}

		posBytes := []byte(posPtr.DataDefault(nil))
		positions := make([]float32, len(posBytes)/4)
		for j := range positions {
			positions[j] = math.Float32frombits(binary.LittleEndian.Uint32(posBytes[j*4:]))
		}

		idxBytes := []byte(idxPtr.DataDefault(nil))
		indices := make([]uint32, len(idxBytes)/4)
		for j := range indices {
			indices[j] = binary.LittleEndian.Uint32(idxBytes[j*4:])
		}

		return k, Mesh{Positions: positions, Indices: indices}, true
	}
	var zero E
	return zero, Mesh{}, false
}
