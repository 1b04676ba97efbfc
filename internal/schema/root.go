// Package schema lays out the hairball root CMF message by hand,
// directly against the CMF runtime's low-level struct/list/pointer
// API (the same primitives generated code is built from), since the
// hairball schema is small and fixed: one root struct, one Entity
// tagged union, and one Column linked-list node.
//
// Root struct layout (pointer section only, no data section):
//
//	ptr 0: entities  — list<Entity>
//	ptr 1: external  — list<Data>   (each Data is a 16-byte UUID)
//	ptr 2: columns   — Column?      (nil if no columns)
package schema

import (
	"fmt"

	"capnproto.org/go/capnp/v3"
)

const (
	rootEntitiesPtr uint16 = 0
	rootExternalPtr uint16 = 1
	rootColumnsPtr  uint16 = 2
)

var rootSize = capnp.ObjectSize{PointerCount: 3}

// Root wraps the hairball root struct.
type Root struct {
	Struct capnp.Struct
}

// NewRootMessage builds a fresh CMF message over ar with the hairball
// root struct already initialized, mirroring
// capnp::message::Builder::init_root in the reference implementation.
func NewRootMessage(ar capnp.Arena) (*capnp.Message, Root, error) {
	msg, seg, err := capnp.NewMessage(ar)
	if err != nil {
		return nil, Root{}, fmt.Errorf("new message: %w", err)
	}
	st, err := capnp.NewRootStruct(seg, rootSize)
	if err != nil {
		return nil, Root{}, fmt.Errorf("new root struct: %w", err)
	}
	return msg, Root{Struct: st}, nil
}

// ReadRootMessage opens an already-populated CMF message backed by
// segments (one read-only byte slice per mapped segment, in file
// order) and returns its root struct.
func ReadRootMessage(segments [][]byte) (*capnp.Message, Root, error) {
	msg := &capnp.Message{
		Arena:         capnp.MultiSegment(segments),
		TraverseLimit: ^uint64(0),
		DepthLimit:    1 << 20,
	}
	p, err := msg.Root()
	if err != nil {
		return nil, Root{}, fmt.Errorf("read root: %w", err)
	}
	return msg, Root{Struct: p.Struct()}, nil
}

// Entities returns the root's entity list, or a zero-length EntityList
// if none has been written.
func (r Root) Entities() (EntityList, error) {
	p, err := r.Struct.Ptr(rootEntitiesPtr)
	if err != nil {
		return EntityList{}, err
	}
	return EntityList{List: p.List()}, nil
}

// NewEntities allocates a fixed-length entity list and installs it as
// the root's entities pointer.
func (r Root) NewEntities(n int32) (EntityList, error) {
	l, err := capnp.NewCompositeList(r.Struct.Segment(), entitySize, n)
	if err != nil {
		return EntityList{}, fmt.Errorf("new entity list: %w", err)
	}
	if err := r.Struct.SetPtr(rootEntitiesPtr, l.ToPtr()); err != nil {
		return EntityList{}, err
	}
	return EntityList{List: l}, nil
}

// External returns the root's external-UUID list, or a zero-length
// ExternalList if none has been written.
func (r Root) External() (ExternalList, error) {
	p, err := r.Struct.Ptr(rootExternalPtr)
	if err != nil {
		return ExternalList{}, err
	}
	return ExternalList{PointerList: capnp.PointerList(p.List()), seg: r.Struct.Segment()}, nil
}

// NewExternal allocates a fixed-length external-UUID list and installs
// it as the root's external pointer.
func (r Root) NewExternal(n int32) (ExternalList, error) {
	pl, err := capnp.NewPointerList(r.Struct.Segment(), n)
	if err != nil {
		return ExternalList{}, fmt.Errorf("new external list: %w", err)
	}
	if err := r.Struct.SetPtr(rootExternalPtr, capnp.List(pl).ToPtr()); err != nil {
		return ExternalList{}, err
	}
	return ExternalList{PointerList: pl, seg: r.Struct.Segment()}, nil
}

// HasColumns reports whether any column has been written.
func (r Root) HasColumns() bool { return r.Struct.HasPtr(rootColumnsPtr) }

// Columns returns the head of the column chain.
func (r Root) Columns() (Column, error) {
	p, err := r.Struct.Ptr(rootColumnsPtr)
	if err != nil {
		return Column{}, err
	}
	return Column{Struct: p.Struct()}, nil
}

// NewColumns allocates the head column node and installs it as the
// root's columns pointer.
func (r Root) NewColumns() (Column, error) {
	st, err := capnp.NewStruct(r.Struct.Segment(), columnSize)
	if err != nil {
		return Column{}, fmt.Errorf("new column: %w", err)
	}
	if err := r.Struct.SetPtr(rootColumnsPtr, st.ToPtr()); err != nil {
		return Column{}, err
	}
	return Column{Struct: st}, nil
}

// EntityList is a list<Entity>.
type EntityList struct {
	List capnp.List
}

// Len returns the number of entities.
func (l EntityList) Len() int {
	if !l.List.IsValid() {
		return 0
	}
	return l.List.Len()
}

// At returns the entity at index i. Callers must check i < Len().
func (l EntityList) At(i int) Entity {
	return Entity{Struct: l.List.Struct(i)}
}

// ExternalList is a list<Data> of 16-byte UUIDs.
type ExternalList struct {
	PointerList capnp.PointerList
	seg         *capnp.Segment
}

// Len returns the number of external-UUID entries.
func (l ExternalList) Len() int {
	if l.seg == nil {
		return 0
	}
	return l.PointerList.Len()
}

// At returns the UUID at index i.
func (l ExternalList) At(i int) ([16]byte, error) {
	p, err := l.PointerList.At(i)
	if err != nil {
		return [16]byte{}, err
	}
	var out [16]byte
	copy(out[:], []byte(p.DataDefault(nil)))
	return out, nil
}

// Set writes uuid at index i, allocating its Data blob in the list's
// segment.
func (l ExternalList) Set(i int, uuid [16]byte) error {
	d, err := capnp.NewData(l.seg, uuid[:])
	if err != nil {
		return fmt.Errorf("new uuid data: %w", err)
	}
	return l.PointerList.Set(i, d.ToPtr())
}
