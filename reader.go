package hairball

import (
	"capnproto.org/go/capnp/v3"
	"github.com/google/uuid"

	"github.com/laenix/hairball/internal/schema"
	"github.com/laenix/hairball/internal/segstore"
)

// EntityView is a self-contained snapshot of one entity, resolved
// enough to be used without holding a reference back into the Reader:
// External entities have their file UUID already looked up.
type EntityView struct {
	// Local fields. Valid when External is false.
	Name      string
	HasName   bool
	Parent    uint32
	HasParent bool

	// External fields. Valid when External is true.
	External bool
	File     uuid.UUID
	Path     string
}

// Reader opens a hairball file for read-only access.
type Reader struct {
	store *segstore.Reader
	root  schema.Root
	uuid  uuid.UUID
}

// Open maps every segment of the file at path read-only and validates
// its header. The file's major version must match FormatVersion.Major;
// minor and patch differences are accepted.
func Open(path string) (*Reader, error) {
	store, err := segstore.Open(path, FormatVersion.Major)
	if err != nil {
		return nil, newErr("hairball.Open", classifyHeaderErr(err), err)
	}

	segs := store.Segments()
	data := make([][]byte, len(segs))
	for i, s := range segs {
		data[i] = s.Bytes
	}

	_, root, err := schema.ReadRootMessage(data)
	if err != nil {
		store.Close()
		return nil, newErr("hairball.Open", CodeCmfDecode, err)
	}

	raw := store.UUID()
	var id uuid.UUID
	copy(id[:], raw[:])

	return &Reader{store: store, root: root, uuid: id}, nil
}

// Close releases every mapped segment. EntityView values copy out what
// they need and stay usable afterward. A ColumnReader, and any column
// client reader built on one, reads the mapped segments directly and
// must not be used after Close.
func (r *Reader) Close() error {
	if err := r.store.Close(); err != nil {
		return newErr("hairball.Reader.Close", CodeIO, err)
	}
	return nil
}

// UUID returns the file's UUID.
func (r *Reader) UUID() uuid.UUID { return r.uuid }

// EntitiesLen returns the number of entities in the file.
func (r *Reader) EntitiesLen() int {
	list, err := r.root.Entities()
	if err != nil {
		return 0
	}
	return list.Len()
}

// Entity returns a snapshot of the entity at index i. ok is false if i
// is out of range.
func (r *Reader) Entity(i int) (EntityView, bool) {
	list, err := r.root.Entities()
	if err != nil || i < 0 || i >= list.Len() {
		return EntityView{}, false
	}
	e := list.At(i)

	if e.Tag() == schema.TagExternal {
		path, _ := e.Text()
		file, _ := r.External(int(e.Value()))
		return EntityView{External: true, File: file, Path: path}, true
	}

	view := EntityView{}
	if v := e.Value(); v != schema.NoParent {
		view.Parent, view.HasParent = v, true
	}
	if e.HasText() {
		name, _ := e.Text()
		view.Name, view.HasName = name, true
	}
	return view, true
}

// ExternalLen returns the number of entries in the deduplicated
// external-UUID table.
func (r *Reader) ExternalLen() int {
	list, err := r.root.External()
	if err != nil {
		return 0
	}
	return list.Len()
}

// External returns the UUID at index i of the external-UUID table. ok
// is false if i is out of range.
func (r *Reader) External(i int) (uuid.UUID, bool) {
	list, err := r.root.External()
	if err != nil || i < 0 || i >= list.Len() {
		return uuid.UUID{}, false
	}
	raw, err := list.At(i)
	if err != nil {
		return uuid.UUID{}, false
	}
	var id uuid.UUID
	copy(id[:], raw[:])
	return id, true
}

// ColumnReader is a handle to one named column's any-pointer payload,
// returned by Reader.Column.
type ColumnReader struct {
	ptr capnp.Ptr
}

// Payload returns the column's raw any-pointer payload. Typed column
// clients build their own view on top of this.
func (c ColumnReader) Payload() capnp.Ptr { return c.ptr }

// Column looks up the named column. ok is false if no column with
// that name exists, it has no payload, or the chain could not be
// walked.
func (r *Reader) Column(name string) (ColumnReader, bool) {
	col, ok := schema.Find(r.root, name)
	if !ok || !col.HasData() {
		return ColumnReader{}, false
	}
	p, err := col.Data()
	if err != nil {
		return ColumnReader{}, false
	}
	return ColumnReader{ptr: p}, true
}
