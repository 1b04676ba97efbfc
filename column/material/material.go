// Package material is an illustrative typed column client: it binds
// entities to either a texture reference or a flat RGBA color for a
// named material component, stored under the "material" column.
package material

import (
	"fmt"

	"capnproto.org/go/capnp/v3"

	"github.com/laenix/hairball"
)

// ColumnName is the column every material binding is stored under.
const ColumnName = "material"

// Component names which material slot a binding applies to.
type Component uint16

// Component values.
const (
	Ambient Component = iota
	Diffuse
	Specular
)

// Value is a binding's value: either a texture reference (an index
// into a caller-defined texture table) or a flat color.
type Value struct {
	IsTexture bool
	Texture   uint32
	Color     [4]float32
}

// TextureValue returns a Value referencing texture index t.
func TextureValue(t uint32) Value { return Value{IsTexture: true, Texture: t} }

// ColorValue returns a Value carrying an RGBA color.
func ColorValue(r, g, b, a float32) Value { return Value{Color: [4]float32{r, g, b, a}} }

// Binding associates one entity's Component with a Value.
type Binding struct {
	Entity    uint32
	Component Component
	Value     Value
}

const (
	bindingEntityOffset    capnp.DataOffset = 0
	bindingComponentOffset capnp.DataOffset = 4
	bindingTagOffset       capnp.DataOffset = 6
	bindingTextureOffset   capnp.DataOffset = 8
	bindingRedOffset       capnp.DataOffset = 16
	bindingGreenOffset     capnp.DataOffset = 20
	bindingBlueOffset      capnp.DataOffset = 24
	bindingAlphaOffset     capnp.DataOffset = 28
)

const (
	tagTexture uint16 = iota
	tagColor
)

var bindingSize = capnp.ObjectSize{DataSize: 32}

// Write stores bindings under ColumnName in b, replacing whatever was
// there before.
func Write(b *hairball.Builder, bindings []Binding) error {
	col, err := b.Column(ColumnName)
	if err != nil {
		return fmt.Errorf("material: open column: %w", err)
	}
	seg := col.Segment()

	list, err := capnp.NewCompositeList(seg, bindingSize, int32(len(bindings)))
	if err != nil {
		return fmt.Errorf("material: new bindings: %w", err)
	}

	for i, binding := range bindings {
		row := list.Struct(i)
		row.SetUint32(bindingEntityOffset, binding.Entity)
		row.SetUint16(bindingComponentOffset, uint16(binding.Component))
		if binding.Value.IsTexture {
			row.SetUint16(bindingTagOffset, tagTexture)
			row.SetUint32(bindingTextureOffset, binding.Value.Texture)
			continue
		}
		row.SetUint16(bindingTagOffset, tagColor)
		row.SetFloat32(bindingRedOffset, binding.Value.Color[0])
		row.SetFloat32(bindingGreenOffset, binding.Value.Color[1])
		row.SetFloat32(bindingBlueOffset, binding.Value.Color[2])
		row.SetFloat32(bindingAlphaOffset, binding.Value.Color[3])
	}

	return col.SetPayload(list.ToPtr())
}

// Reader iterates the bindings stored in one Reader's ColumnName
// column, yielding each against a caller-projected key.
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

// Next returns the next (key, Component, Value) triple, or ok=false
// once exhausted. Bindings whose entity index is out of range are
// skipped.
func (r *Reader[E]) Next() (key E, comp Component, value Value, ok bool) {
	for r.index < r.list.Len() {
		row := r.list.Struct(r.index)
		r.index++

		k, found := r.mapping.Key(int(row.Uint32(bindingEntityOffset)))
		if !found {
			continue
		}

		c := Component(row.Uint16(bindingComponentOffset))
		var v Value
		if row.Uint16(bindingTagOffset) == tagTexture {
			v = Value{IsTexture: true, Texture: row.Uint32(bindingTextureOffset)}
		} else {
			v = Value{Color: [4]float32{
				row.Float32(bindingRedOffset),
				row.Float32(bindingGreenOffset),
				row.Float32(bindingBlueOffset),
				row.Float32(bindingAlphaOffset),
			}}
		}
		return k, c, v, true
	}
	var zero E
	return zero, 0, Value{}, false
}
