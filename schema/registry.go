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
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrUnresolvedReference is returned by Resolve when a declaration
	// names a type that was never declared.
	ErrUnresolvedReference = errors.New("schema: unresolved type reference")

	// ErrCyclicDefinition is returned by Resolve when declarations
	// reference each other in a cycle.
	ErrCyclicDefinition = errors.New("schema: cyclic type definition")

	// ErrDuplicateDefinition is returned by Resolve when two
	// declarations share a name.
	ErrDuplicateDefinition = errors.New("schema: duplicate type definition")

	// ErrInvalidDefinition is returned by Resolve when a declaration
	// is structurally invalid, eg an array over a variable-size type.
	ErrInvalidDefinition = errors.New("schema: invalid type definition")
)

// ByteTypeName is the name of the predeclared one-byte primitive that
// every registry starts with.
const ByteTypeName = "byte"

// FieldDecl declares one member of a struct or table.
type FieldDecl struct {
	Name string
	Type string
}

// VariantDecl declares one arm of a union with an explicit wire tag.
type VariantDecl struct {
	Type string
	ID   uint32
}

type decl struct {
	name     string
	kind     Kind
	width    uint32
	elem     string
	length   uint32
	fields   []FieldDecl
	variants []VariantDecl
	builtin  bool
}

// Registry collects type declarations and resolves them into an
// immutable table of Types. Declarations may reference each other in
// any order; nothing is linked or validated until Resolve is called.
// Once Resolve succeeds the registry is frozen and safe for
// concurrent use.
type Registry struct {
	name     string
	decls    []decl
	types    []*Type
	byName   map[string]*Type
	resolved bool
}

// NewRegistry returns an empty registry containing only the
// predeclared "byte" primitive.
func NewRegistry() *Registry {
	r := &Registry{}
	r.decls = append(r.decls, decl{
		name:    ByteTypeName,
		kind:    PrimitiveKind,
		width:   1,
		builtin: true,
	})
	return r
}

// SetName assigns a label to the schema as a whole. The name travels
// with manifests and pack files but has no effect on encoding.
func (r *Registry) SetName(name string) {
	r.mustBeOpen()
	r.name = name
}

// Name returns the schema label, which may be empty.
func (r *Registry) Name() string {
	return r.name
}

// DeclarePrimitive declares a fixed-width primitive type of |width| bytes.
func (r *Registry) DeclarePrimitive(name string, width uint32) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: PrimitiveKind, width: width})
}

// DeclareArray declares a fixed-length array of |length| items of the
// named element type. The element type must resolve to a fixed-size type.
func (r *Registry) DeclareArray(name, elem string, length uint32) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: ArrayKind, elem: elem, length: length})
}

// DeclareStruct declares a struct whose members are laid out back to
// back with no header. Every member type must resolve to a fixed-size type.
func (r *Registry) DeclareStruct(name string, fields ...FieldDecl) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: StructKind, fields: fields})
}

// DeclareVector declares a variable-length sequence of the named
// element type.
func (r *Registry) DeclareVector(name, elem string) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: VectorKind, elem: elem})
}

// DeclareTable declares a table. Table members may be of any type and
// trailing members may be absent in encoded values.
func (r *Registry) DeclareTable(name string, fields ...FieldDecl) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: TableKind, fields: fields})
}

// DeclareUnion declares a union over the named types. Wire tags are
// assigned in order starting at zero.
func (r *Registry) DeclareUnion(name string, variants ...string) {
	r.mustBeOpen()
	ds := make([]VariantDecl, len(variants))
	for i, v := range variants {
		ds[i] = VariantDecl{Type: v, ID: uint32(i)}
	}
	r.decls = append(r.decls, decl{name: name, kind: UnionKind, variants: ds})
}

// DeclareUnionWithIDs declares a union whose arms carry explicit wire tags.
func (r *Registry) DeclareUnionWithIDs(name string, variants ...VariantDecl) {
	r.mustBeOpen()
	ds := make([]VariantDecl, len(variants))
	copy(ds, variants)
	r.decls = append(r.decls, decl{name: name, kind: UnionKind, variants: ds})
}

// DeclareOption declares an optional wrapper around the named type.
// An absent value encodes as zero bytes.
func (r *Registry) DeclareOption(name, elem string) {
	r.mustBeOpen()
	r.decls = append(r.decls, decl{name: name, kind: OptionKind, elem: elem})
}

// Resolved reports whether Resolve has completed successfully.
func (r *Registry) Resolved() bool {
	return r.resolved
}

// Resolve links every declaration, validates the schema and freezes
// the registry. All declaration problems surface here: duplicate or
// dangling names, cycles, and shape violations such as an array over
// a variable-size element. After Resolve returns nil the registry and
// every Type it produced are immutable.
func (r *Registry) Resolve() error {
	if r.resolved {
		panic("registry already resolved")
	}

	if err := r.checkDecls(); err != nil {
		return err
	}

	// Allocate the descriptor table. A type's ID is its position.
	r.types = make([]*Type, len(r.decls))
	r.byName = make(map[string]*Type, len(r.decls))
	for i, d := range r.decls {
		t := &Type{id: i, name: d.name, kind: d.kind}
		r.types[i] = t
		r.byName[d.name] = t
	}

	if err := r.link(); err != nil {
		return err
	}
	if err := r.checkAcyclic(); err != nil {
		return err
	}
	if err := r.measure(); err != nil {
		return err
	}

	r.resolved = true
	return nil
}

// Lookup returns the named type, or false if the schema does not
// define it. It panics if the registry is not resolved.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mustBeResolved()
	t, ok := r.byName[name]
	return t, ok
}

// MustLookup returns the named type and panics if the schema does not
// define it.
func (r *Registry) MustLookup(name string) *Type {
	t, ok := r.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("schema %q does not define type %q", r.name, name))
	}
	return t
}

// NumTypes returns the number of types in the resolved registry,
// including the predeclared "byte".
func (r *Registry) NumTypes() int {
	r.mustBeResolved()
	return len(r.types)
}

// TypeAt returns the type with the given ID.
func (r *Registry) TypeAt(id int) *Type {
	r.mustBeResolved()
	return r.types[id]
}

// Types returns all types in declaration order, including the
// predeclared "byte". The returned slice must not be modified.
func (r *Registry) Types() []*Type {
	r.mustBeResolved()
	return r.types
}

func (r *Registry) mustBeOpen() {
	if r.resolved {
		panic("registry already resolved")
	}
}

func (r *Registry) mustBeResolved() {
	if !r.resolved {
		panic("registry not resolved")
	}
}

// checkDecls validates each declaration in isolation: names are
// unique and non-empty, and member lists are well formed.
func (r *Registry) checkDecls() error {
	seen := make(map[string]bool, len(r.decls))
	for _, d := range r.decls {
		if d.name == "" {
			return fmt.Errorf("%w: type with empty name", ErrInvalidDefinition)
		}
		if seen[d.name] {
			return fmt.Errorf("%w: %q declared twice", ErrDuplicateDefinition, d.name)
		}
		seen[d.name] = true

		switch d.kind {
		case PrimitiveKind:
			if d.width == 0 {
				return fmt.Errorf("%w: primitive %q has zero width", ErrInvalidDefinition, d.name)
			}
		case ArrayKind:
			if d.length == 0 {
				return fmt.Errorf("%w: array %q has zero length", ErrInvalidDefinition, d.name)
			}
		case StructKind:
			if len(d.fields) == 0 {
				return fmt.Errorf("%w: struct %q has no fields", ErrInvalidDefinition, d.name)
			}
		case UnionKind:
			if len(d.variants) == 0 {
				return fmt.Errorf("%w: union %q has no variants", ErrInvalidDefinition, d.name)
			}
		}

		if d.kind == StructKind || d.kind == TableKind {
			names := make(map[string]bool, len(d.fields))
			for _, f := range d.fields {
				if f.Name == "" {
					return fmt.Errorf("%w: %s %q has a field with no name", ErrInvalidDefinition, d.kind, d.name)
				}
				if names[f.Name] {
					return fmt.Errorf("%w: %s %q declares field %q twice", ErrInvalidDefinition, d.kind, d.name, f.Name)
				}
				names[f.Name] = true
			}
		}

		if d.kind == UnionKind {
			names := make(map[string]bool, len(d.variants))
			ids := make(map[uint32]bool, len(d.variants))
			for _, v := range d.variants {
				if names[v.Type] {
					return fmt.Errorf("%w: union %q lists variant %q twice", ErrInvalidDefinition, d.name, v.Type)
				}
				if ids[v.ID] {
					return fmt.Errorf("%w: union %q assigns id %d twice", ErrInvalidDefinition, d.name, v.ID)
				}
				names[v.Type] = true
				ids[v.ID] = true
			}
		}
	}
	return nil
}

// link wires every reference in every declaration to its target Type.
func (r *Registry) link() error {
	ref := func(from, to string) (*Type, error) {
		t, ok := r.byName[to]
		if !ok {
			return nil, fmt.Errorf("%w: %q referenced by %q", ErrUnresolvedReference, to, from)
		}
		return t, nil
	}

	for i, d := range r.decls {
		t := r.types[i]
		var err error
		switch d.kind {
		case PrimitiveKind:
			t.width = ByteSize(d.width)
		case ArrayKind:
			t.length = d.length
			if t.elem, err = ref(d.name, d.elem); err != nil {
				return err
			}
		case VectorKind, OptionKind:
			if t.elem, err = ref(d.name, d.elem); err != nil {
				return err
			}
		case StructKind, TableKind:
			t.fields = make([]Field, len(d.fields))
			t.byName = make(map[string]int, len(d.fields))
			for j, f := range d.fields {
				ft, err := ref(d.name, f.Type)
				if err != nil {
					return err
				}
				t.fields[j] = Field{Name: f.Name, Type: ft}
				t.byName[f.Name] = j
			}
		case UnionKind:
			t.variants = make([]Variant, len(d.variants))
			t.byName = make(map[string]int, len(d.variants))
			t.byID = make(map[uint32]int, len(d.variants))
			for j, v := range d.variants {
				vt, err := ref(d.name, v.Type)
				if err != nil {
					return err
				}
				t.variants[j] = Variant{Name: v.Type, ID: v.ID, Type: vt}
				t.byName[v.Type] = j
				t.byID[v.ID] = j
			}
		}
	}
	return nil
}

// refs returns the types directly referenced by |t|.
func refs(t *Type) []*Type {
	switch t.kind {
	case ArrayKind, VectorKind, OptionKind:
		return []*Type{t.elem}
	case StructKind, TableKind:
		out := make([]*Type, len(t.fields))
		for i, f := range t.fields {
			out[i] = f.Type
		}
		return out
	case UnionKind:
		out := make([]*Type, len(t.variants))
		for i, v := range t.variants {
			out[i] = v.Type
		}
		return out
	}
	return nil
}

// checkAcyclic rejects schemas whose reference graph contains a cycle.
// Every type composes its references by value, so a cycle would imply
// an infinitely nested encoding.
func (r *Registry) checkAcyclic() error {
	const (
		white = iota // unvisited
		grey         // on the current path
		black        // fully explored
	)
	color := make([]int, len(r.types))
	var path []string

	var visit func(t *Type) error
	visit = func(t *Type) error {
		switch color[t.id] {
		case black:
			return nil
		case grey:
			return fmt.Errorf("%w: %s -> %s", ErrCyclicDefinition, strings.Join(path, " -> "), t.name)
		}
		color[t.id] = grey
		path = append(path, t.name)
		for _, ref := range refs(t) {
			if err := visit(ref); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[t.id] = black
		return nil
	}

	for _, t := range r.types {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

// measure computes fixed sizes bottom up and rejects shape violations
// that depend on them: arrays and structs must compose fixed-size
// types, and no fixed size may exceed the uint32 wire limit.
func (r *Registry) measure() error {
	done := make([]bool, len(r.types))

	var size func(t *Type) error
	size = func(t *Type) error {
		if done[t.id] {
			return nil
		}
		done[t.id] = true

		for _, ref := range refs(t) {
			if err := size(ref); err != nil {
				return err
			}
		}

		switch t.kind {
		case PrimitiveKind:
			t.fixedSize, t.fixed = t.width, true
		case ArrayKind:
			if !t.elem.fixed {
				return fmt.Errorf("%w: array %q over variable-size type %q", ErrInvalidDefinition, t.name, t.elem.name)
			}
			total := uint64(t.length) * uint64(t.elem.fixedSize)
			if total > math.MaxUint32 {
				return fmt.Errorf("%w: array %q exceeds the uint32 size limit", ErrInvalidDefinition, t.name)
			}
			t.fixedSize, t.fixed = ByteSize(total), true
		case StructKind:
			var total uint64
			t.fieldOffsets = make([]ByteSize, len(t.fields))
			for i, f := range t.fields {
				if !f.Type.fixed {
					return fmt.Errorf("%w: struct %q field %q has variable size", ErrInvalidDefinition, t.name, f.Name)
				}
				t.fieldOffsets[i] = ByteSize(total)
				total += uint64(f.Type.fixedSize)
				if total > math.MaxUint32 {
					return fmt.Errorf("%w: struct %q exceeds the uint32 size limit", ErrInvalidDefinition, t.name)
				}
			}
			t.fixedSize, t.fixed = ByteSize(total), true
		default:
			// Vectors, tables, unions and options always carry
			// headers sized by their contents.
			t.fixed = false
		}
		return nil
	}

	for _, t := range r.types {
		if err := size(t); err != nil {
			return err
		}
	}
	return nil
}
