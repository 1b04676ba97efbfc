package hairball

import (
	"fmt"

	"capnproto.org/go/capnp/v3"
	"github.com/google/uuid"

	"github.com/laenix/hairball/internal/arena"
	"github.com/laenix/hairball/internal/schema"
	"github.com/laenix/hairball/internal/segstore"
)

// LocalEntity is a scene-graph node native to the file being built: an
// optional name and an optional parent index.
type LocalEntity struct {
	name      string
	hasName   bool
	parent    uint32
	hasParent bool
}

// Named creates a LocalEntity with the given name.
func Named(name string) LocalEntity { return LocalEntity{name: name, hasName: true} }

// Anonymous creates a LocalEntity with no name.
func Anonymous() LocalEntity { return LocalEntity{} }

// WithParent returns a copy of e with its parent set to idx, the index
// returned by an earlier AddEntity or AddExternalEntity call on the
// same Builder. The index is stored as given: neither AddEntity nor
// Close checks that it names an earlier entity.
func (e LocalEntity) WithParent(idx uint32) LocalEntity {
	e.parent, e.hasParent = idx, true
	return e
}

// ExternalEntity is a node that actually lives in another hairball
// file, identified by that file's UUID, plus a path within it.
type ExternalEntity struct {
	File uuid.UUID
	Path string
}

type entityRecord struct {
	external  bool
	name      string
	hasName   bool
	parent    uint32
	hasParent bool
	fileIdx   uint32
	path      string
}

// ColumnBuilder is a handle to one named column's any-pointer payload
// slot, returned by Builder.Column. Successive Column calls with the
// same name return handles to the same slot, so a typed column client
// can call Column once per name and build directly into it.
type ColumnBuilder struct {
	col schema.Column
}

// Segment returns the segment new payload objects must be allocated
// in before SetPayload.
func (c ColumnBuilder) Segment() *capnp.Segment { return c.col.Segment() }

// SetPayload installs p as the column's payload.
func (c ColumnBuilder) SetPayload(p capnp.Ptr) error { return c.col.SetData(p) }

// Builder constructs a hairball file at a path on disk. The entity
// and external-UUID tables are accumulated in memory and only
// serialized into the CMF message at Close, since both are CMF
// fixed-length lists that must be allocated with a known size up
// front; column payloads are written as they are requested, since a
// column node's own message-building does not need the final entity
// count.
type Builder struct {
	path string
	uuid uuid.UUID

	store *segstore.Writer
	msg   *capnp.Message
	root  schema.Root

	entities       []entityRecord
	external       []uuid.UUID
	externalLookup map[uuid.UUID]uint32

	closed   bool
	closeErr error
}

// New creates path, truncating it if it already exists, stamped with
// a freshly generated UUID.
func New(path string) (*Builder, error) {
	return NewWithUUID(path, uuid.New())
}

// NewWithUUID is like New but with a caller-supplied file UUID — for
// example when rebuilding a file in place and preserving its identity.
func NewWithUUID(path string, id uuid.UUID) (*Builder, error) {
	var raw [16]byte
	copy(raw[:], id[:])

	store, err := segstore.Create(path, raw)
	if err != nil {
		return nil, newErr("hairball.NewWithUUID", CodeIO, err)
	}

	msg, root, err := schema.NewRootMessage(arena.NewWritable())
	if err != nil {
		store.Finalize(FormatVersion.Major, FormatVersion.Minor, FormatVersion.Patch)
		return nil, newErr("hairball.NewWithUUID", CodeCmfDecode, err)
	}

	return &Builder{
		path:           path,
		uuid:           id,
		store:          store,
		msg:            msg,
		root:           root,
		externalLookup: make(map[uuid.UUID]uint32),
	}, nil
}

// UUID returns the file's current UUID.
func (b *Builder) UUID() uuid.UUID { return b.uuid }

// SetUUID overrides the file UUID. It takes effect at Close.
func (b *Builder) SetUUID(id uuid.UUID) {
	b.uuid = id
	var raw [16]byte
	copy(raw[:], id[:])
	b.store.SetUUID(raw)
}

// AddEntity appends a local entity and returns its index.
func (b *Builder) AddEntity(e LocalEntity) uint32 {
	b.entities = append(b.entities, entityRecord{
		name: e.name, hasName: e.hasName,
		parent: e.parent, hasParent: e.hasParent,
	})
	return uint32(len(b.entities) - 1)
}

// AddExternalEntity appends an external entity and returns its index.
// Repeated calls naming the same File share one entry of the
// external-UUID table.
func (b *Builder) AddExternalEntity(e ExternalEntity) uint32 {
	idx, ok := b.externalLookup[e.File]
	if !ok {
		idx = uint32(len(b.external))
		b.external = append(b.external, e.File)
		b.externalLookup[e.File] = idx
	}
	b.entities = append(b.entities, entityRecord{external: true, fileIdx: idx, path: e.Path})
	return uint32(len(b.entities) - 1)
}

// Column finds or creates the named column and returns a handle to
// its payload slot. Column names are NFC-normalized before matching.
func (b *Builder) Column(name string) (ColumnBuilder, error) {
	col, err := schema.FindOrCreate(b.root, name)
	if err != nil {
		return ColumnBuilder{}, newErr("hairball.Builder.Column", CodeCmfDecode, err)
	}
	return ColumnBuilder{col: col}, nil
}

// Close serializes the entity and external-UUID tables into the root
// message, then asks the segment store to write the segment-size
// table and the final header and unmap everything. It is idempotent:
// every call after the first returns the first call's error, so a
// deferred Close after an earlier checked Close is always safe.
func (b *Builder) Close() error {
	if b.closed {
		return b.closeErr
	}
	b.closed = true
	b.closeErr = b.finalize()
	return b.closeErr
}

func (b *Builder) finalize() error {
	if err := b.writeTables(); err != nil {
		return newErr("hairball.Builder.Close", CodeCmfDecode, err)
	}
	if err := arena.Flush(b.msg, b.store); err != nil {
		return newErr("hairball.Builder.Close", CodeIO, err)
	}
	if err := b.store.Finalize(FormatVersion.Major, FormatVersion.Minor, FormatVersion.Patch); err != nil {
		return newErr("hairball.Builder.Close", CodeIO, err)
	}
	return nil
}

func (b *Builder) writeTables() error {
	list, err := b.root.NewEntities(int32(len(b.entities)))
	if err != nil {
		return fmt.Errorf("new entity list: %w", err)
	}
	for i, rec := range b.entities {
		dst := list.At(i)
		if rec.external {
			dst.SetTag(schema.TagExternal)
			dst.SetValue(rec.fileIdx)
			if err := dst.SetText(rec.path); err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
			continue
		}

		dst.SetTag(schema.TagLocal)
		if rec.hasParent {
			dst.SetValue(rec.parent)
		} else {
			dst.SetValue(schema.NoParent)
		}
		if rec.hasName {
			if err := dst.SetText(rec.name); err != nil {
				return fmt.Errorf("entity %d: %w", i, err)
			}
		}
	}

	ext, err := b.root.NewExternal(int32(len(b.external)))
	if err != nil {
		return fmt.Errorf("new external list: %w", err)
	}
	for i, id := range b.external {
		var raw [16]byte
		copy(raw[:], id[:])
		if err := ext.Set(i, raw); err != nil {
			return fmt.Errorf("external %d: %w", i, err)
		}
	}
	return nil
}
