package schema

import (
	"capnproto.org/go/capnp/v3"
)

// Column struct layout — one node of the singly linked column chain:
//
//	ptr 0: name — text
//	ptr 1: data — any-pointer (opaque client payload)
//	ptr 2: next — Column? (nil terminator)
const (
	columnNamePtr uint16 = 0
	columnDataPtr uint16 = 1
	columnNextPtr uint16 = 2
)

var columnSize = capnp.ObjectSize{PointerCount: 3}

// Column wraps one linked-list node.
type Column struct {
	Struct capnp.Struct
}

// Valid reports whether this node exists (false for the chain's nil
// terminator).
func (c Column) Valid() bool { return c.Struct.IsValid() }

// HasName reports whether the node's name has been set.
func (c Column) HasName() bool { return c.Struct.HasPtr(columnNamePtr) }

// Name returns the column's name.
func (c Column) Name() (string, error) {
	p, err := c.Struct.Ptr(columnNamePtr)
	if err != nil {
		return "", err
	}
	return p.TextDefault(""), nil
}

// SetName sets the column's name, NFC-normalized.
func (c Column) SetName(v string) error {
	return c.Struct.SetNewText(columnNamePtr, normalizeName(v))
}

// HasData reports whether a payload has been written.
func (c Column) HasData() bool { return c.Struct.HasPtr(columnDataPtr) }

// Data returns the column's opaque any-pointer payload.
func (c Column) Data() (capnp.Ptr, error) { return c.Struct.Ptr(columnDataPtr) }

// SetData installs p as the column's payload.
func (c Column) SetData(p capnp.Ptr) error { return c.Struct.SetPtr(columnDataPtr, p) }

// Segment returns the segment new payload objects should be allocated
// in, so a typed column client can build its own sub-message before
// calling SetData.
func (c Column) Segment() *capnp.Segment { return c.Struct.Segment() }

// HasNext reports whether this node has a successor.
func (c Column) HasNext() bool { return c.Struct.HasPtr(columnNextPtr) }

// Next returns the following node.
func (c Column) Next() (Column, error) {
	p, err := c.Struct.Ptr(columnNextPtr)
	if err != nil {
		return Column{}, err
	}
	return Column{Struct: p.Struct()}, nil
}

// NewNext allocates the following node and links it in.
func (c Column) NewNext() (Column, error) {
	st, err := capnp.NewStruct(c.Struct.Segment(), columnSize)
	if err != nil {
		return Column{}, err
	}
	if err := c.Struct.SetPtr(columnNextPtr, st.ToPtr()); err != nil {
		return Column{}, err
	}
	return Column{Struct: st}, nil
}

// FindOrCreate walks the chain rooted at root looking for a node named
// name. If found, that node is returned. A node with no name yet is
// named and returned; if the chain is empty or exhausted, a fresh node
// is appended, named and returned. This is the write
// side of the column registry (§4.5): successive calls with the same
// name return the same node.
func FindOrCreate(root Root, name string) (Column, error) {
	var head Column
	var err error
	if root.HasColumns() {
		head, err = root.Columns()
	} else {
		head, err = root.NewColumns()
	}
	if err != nil {
		return Column{}, err
	}

	col := head
	for {
		if col.HasName() {
			n, err := col.Name()
			if err != nil {
				return Column{}, err
			}
			if n == normalizeName(name) {
				return col, nil
			}
		} else {
			if err := col.SetName(name); err != nil {
				return Column{}, err
			}
			return col, nil
		}

		if col.HasNext() {
			col, err = col.Next()
		} else {
			col, err = col.NewNext()
		}
		if err != nil {
			return Column{}, err
		}
	}
}

// Find walks the chain rooted at root looking for a node named name,
// read-only. It returns (Column{}, false) if no matching node exists
// or if traversal hits a missing-name node first.
func Find(root Root, name string) (Column, bool) {
	if !root.HasColumns() {
		return Column{}, false
	}
	col, err := root.Columns()
	if err != nil {
		return Column{}, false
	}

	want := normalizeName(name)
	for {
		if !col.HasName() {
			return Column{}, false
		}
		n, err := col.Name()
		if err != nil {
			return Column{}, false
		}
		if n == want {
			return col, true
		}
		if !col.HasNext() {
			return Column{}, false
		}
		col, err = col.Next()
		if err != nil {
			return Column{}, false
		}
	}
}
