package schema

import "capnproto.org/go/capnp/v3"

// Entity struct layout — a tagged union of Local and External, with
// the union's same-width fields sharing storage the way the CMF
// runtime overlaps mutually-exclusive union members:
//
//	data  @0 (uint16): tag        — TagLocal or TagExternal
//	data  @4 (uint32): value      — parent index (Local) or file index (External)
//	ptr   0:           text       — name (Local, optional) or path (External)
const (
	entityTagOffset   capnp.DataOffset = 0
	entityValueOffset capnp.DataOffset = 4
	entityTextPtr     uint16           = 0
)

var entitySize = capnp.ObjectSize{DataSize: 8, PointerCount: 1}

// Entity tag values.
const (
	TagLocal uint16 = iota
	TagExternal
)

// NoParent is the sentinel parent value meaning "no parent".
const NoParent uint32 = 0xFFFFFFFF

// Entity wraps one entry of the entities list.
type Entity struct {
	Struct capnp.Struct
}

// Tag reports which union arm is populated.
func (e Entity) Tag() uint16 { return e.Struct.Uint16(entityTagOffset) }

// SetTag sets the union arm.
func (e Entity) SetTag(t uint16) { e.Struct.SetUint16(entityTagOffset, t) }

// Value returns the shared parent/file-index slot.
func (e Entity) Value() uint32 { return e.Struct.Uint32(entityValueOffset) }

// SetValue sets the shared parent/file-index slot.
func (e Entity) SetValue(v uint32) { e.Struct.SetUint32(entityValueOffset, v) }

// HasText reports whether the shared name/path text pointer is set.
func (e Entity) HasText() bool { return e.Struct.HasPtr(entityTextPtr) }

// Text returns the shared name/path string.
func (e Entity) Text() (string, error) {
	p, err := e.Struct.Ptr(entityTextPtr)
	if err != nil {
		return "", err
	}
	return p.TextDefault(""), nil
}

// SetText sets the shared name/path string, NFC-normalized.
func (e Entity) SetText(v string) error {
	return e.Struct.SetNewText(entityTextPtr, normalizeName(v))
}
