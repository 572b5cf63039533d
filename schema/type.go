// Copyright 2025 Tabwire, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"fmt"
	"strings"
)

// ByteSize is a wire-level size or offset measured in bytes.
type ByteSize uint32

// Field is a named member of a struct or table type.
type Field struct {
	Name string
	Type *Type
}

// Variant is one arm of a union type. Name is the referenced type's
// name and ID is the variant tag written on the wire.
type Variant struct {
	Name string
	ID   uint32
	Type *Type
}

// Type is an immutable descriptor for one schema type. Types are
// created by a Registry and are only usable after Registry.Resolve
// succeeds. A Type holds direct pointers to the Types it composes,
// so navigating a schema never goes back through the Registry.
type Type struct {
	id   int
	name string
	kind Kind

	// width is the byte width of a primitive.
	width ByteSize

	// elem is the item type of an array, vector or option.
	elem *Type

	// length is the item count of an array.
	length uint32

	// fields are the members of a struct or table, in declared order.
	fields []Field

	// fieldOffsets[i] is the byte offset of struct field |i|.
	// Populated for structs only, where every field has fixed size.
	fieldOffsets []ByteSize

	// variants are the arms of a union, in declared order.
	variants []Variant

	byName map[string]int
	byID   map[uint32]int

	fixedSize ByteSize
	fixed     bool
}

// ID returns the type's position in its registry's descriptor table.
// IDs are dense and stable for the lifetime of the registry.
func (t *Type) ID() int {
	return t.id
}

// Name returns the declared name of the type.
func (t *Type) Name() string {
	return t.name
}

// Kind returns the type's kind.
func (t *Type) Kind() Kind {
	return t.kind
}

// FixedSize returns the encoded size of the type and true when every
// value of the type occupies the same number of bytes. Vectors,
// tables, unions and options are never fixed.
func (t *Type) FixedSize() (ByteSize, bool) {
	return t.fixedSize, t.fixed
}

// Width returns the byte width of a primitive type.
// It panics if the type is not a primitive.
func (t *Type) Width() ByteSize {
	t.expectKind(PrimitiveKind)
	return t.width
}

// Elem returns the item type of an array, vector or option.
// It panics for any other kind.
func (t *Type) Elem() *Type {
	if t.kind != ArrayKind && t.kind != VectorKind && t.kind != OptionKind {
		panic(fmt.Sprintf("%s type %s has no element type", t.kind, t.name))
	}
	return t.elem
}

// Len returns the item count of an array type.
// It panics if the type is not an array.
func (t *Type) Len() uint32 {
	t.expectKind(ArrayKind)
	return t.length
}

// NumFields returns the member count of a struct or table type.
func (t *Type) NumFields() int {
	if t.kind != StructKind && t.kind != TableKind {
		panic(fmt.Sprintf("%s type %s has no fields", t.kind, t.name))
	}
	return len(t.fields)
}

// FieldAt returns the |i|th member of a struct or table type.
func (t *Type) FieldAt(i int) Field {
	if t.kind != StructKind && t.kind != TableKind {
		panic(fmt.Sprintf("%s type %s has no fields", t.kind, t.name))
	}
	return t.fields[i]
}

// FieldIndex returns the position of the named member, or false if no
// member has that name.
func (t *Type) FieldIndex(name string) (int, bool) {
	i, ok := t.byName[name]
	return i, ok
}

// FieldOffset returns the byte offset of struct field |i| within an
// encoded value. It panics if the type is not a struct.
func (t *Type) FieldOffset(i int) ByteSize {
	t.expectKind(StructKind)
	return t.fieldOffsets[i]
}

// NumVariants returns the arm count of a union type.
func (t *Type) NumVariants() int {
	t.expectKind(UnionKind)
	return len(t.variants)
}

// VariantAt returns the |i|th arm of a union type.
func (t *Type) VariantAt(i int) Variant {
	t.expectKind(UnionKind)
	return t.variants[i]
}

// VariantByID returns the union arm tagged with |id|, or false if the
// union has no such arm.
func (t *Type) VariantByID(id uint32) (Variant, bool) {
	t.expectKind(UnionKind)
	i, ok := t.byID[id]
	if !ok {
		return Variant{}, false
	}
	return t.variants[i], true
}

// VariantByName returns the union arm referencing the named type, or
// false if the union has no such arm.
func (t *Type) VariantByName(name string) (Variant, bool) {
	t.expectKind(UnionKind)
	i, ok := t.byName[name]
	if !ok {
		return Variant{}, false
	}
	return t.variants[i], true
}

func (t *Type) expectKind(k Kind) {
	if t.kind != k {
		panic(fmt.Sprintf("expected %s, found %s type %s", k, t.kind, t.name))
	}
}

// Describe returns a one-line rendering of the type's definition,
// eg "Action : table { script_info_hash: Hash, script_hash: Hash, data: Bytes }".
func (t *Type) Describe() string {
	var sb strings.Builder
	sb.WriteString(t.name)
	sb.WriteString(" : ")
	sb.WriteString(t.kind.String())
	switch t.kind {
	case PrimitiveKind:
		fmt.Fprintf(&sb, "<%d>", t.width)
	case ArrayKind:
		fmt.Fprintf(&sb, " [%s; %d]", t.elem.name, t.length)
	case VectorKind, OptionKind:
		fmt.Fprintf(&sb, " <%s>", t.elem.name)
	case StructKind, TableKind:
		sb.WriteString(" { ")
		for i, f := range t.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %s", f.Name, f.Type.name)
		}
		sb.WriteString(" }")
	case UnionKind:
		sb.WriteString(" { ")
		for i, v := range t.variants {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s: %d", v.Name, v.ID)
		}
		sb.WriteString(" }")
	}
	return sb.String()
}

func (t *Type) String() string {
	return t.name
}
