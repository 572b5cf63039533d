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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredeclaredByte(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Resolve())

	b, ok := r.Lookup(ByteTypeName)
	require.True(t, ok)
	assert.Equal(t, PrimitiveKind, b.Kind())
	assert.Equal(t, ByteSize(1), b.Width())
	assert.Equal(t, 0, b.ID())

	sz, fixed := b.FixedSize()
	assert.True(t, fixed)
	assert.Equal(t, ByteSize(1), sz)
}

func TestResolveBasicSchema(t *testing.T) {
	r := NewRegistry()
	r.DeclarePrimitive("Uint32", 4)
	r.DeclareArray("Hash", "byte", 32)
	r.DeclareVector("Bytes", "byte")
	r.DeclareVector("HashVec", "Hash")
	r.DeclareTable("Action",
		FieldDecl{Name: "script_info_hash", Type: "Hash"},
		FieldDecl{Name: "script_hash", Type: "Hash"},
		FieldDecl{Name: "data", Type: "Bytes"},
	)
	r.DeclareVector("ActionVec", "Action")
	r.DeclareOption("BytesOpt", "Bytes")
	r.DeclareUnion("Payload", "Action", "Bytes")
	require.NoError(t, r.Resolve())
	require.True(t, r.Resolved())

	hash := r.MustLookup("Hash")
	assert.Equal(t, ArrayKind, hash.Kind())
	assert.Equal(t, uint32(32), hash.Len())
	sz, fixed := hash.FixedSize()
	assert.True(t, fixed)
	assert.Equal(t, ByteSize(32), sz)

	action := r.MustLookup("Action")
	assert.Equal(t, TableKind, action.Kind())
	assert.Equal(t, 3, action.NumFields())
	assert.Equal(t, "script_hash", action.FieldAt(1).Name)
	i, ok := action.FieldIndex("data")
	require.True(t, ok)
	assert.Equal(t, 2, i)
	_, fixed = action.FixedSize()
	assert.False(t, fixed)

	payload := r.MustLookup("Payload")
	assert.Equal(t, UnionKind, payload.Kind())
	v, ok := payload.VariantByID(1)
	require.True(t, ok)
	assert.Equal(t, "Bytes", v.Name)
	v, ok = payload.VariantByName("Action")
	require.True(t, ok)
	assert.Equal(t, uint32(0), v.ID)
	_, ok = payload.VariantByID(9)
	assert.False(t, ok)

	// IDs are dense and follow declaration order, byte first.
	assert.Equal(t, 0, r.MustLookup("byte").ID())
	assert.Equal(t, 1, r.MustLookup("Uint32").ID())
	assert.Equal(t, 8, payload.ID())
	assert.Equal(t, 9, r.NumTypes())
	assert.Same(t, payload, r.TypeAt(8))
}

func TestStructLayout(t *testing.T) {
	r := NewRegistry()
	r.DeclarePrimitive("Uint16", 2)
	r.DeclareArray("Hash", "byte", 32)
	r.DeclareStruct("Header",
		FieldDecl{Name: "version", Type: "Uint16"},
		FieldDecl{Name: "parent", Type: "Hash"},
		FieldDecl{Name: "flag", Type: "byte"},
	)
	require.NoError(t, r.Resolve())

	h := r.MustLookup("Header")
	sz, fixed := h.FixedSize()
	require.True(t, fixed)
	assert.Equal(t, ByteSize(35), sz)
	assert.Equal(t, ByteSize(0), h.FieldOffset(0))
	assert.Equal(t, ByteSize(2), h.FieldOffset(1))
	assert.Equal(t, ByteSize(34), h.FieldOffset(2))
}

func TestResolveOutOfOrderReferences(t *testing.T) {
	// Declaration order does not matter, only resolution.
	r := NewRegistry()
	r.DeclareVector("ActionVec", "Action")
	r.DeclareTable("Action", FieldDecl{Name: "data", Type: "Bytes"})
	r.DeclareVector("Bytes", "byte")
	require.NoError(t, r.Resolve())

	av := r.MustLookup("ActionVec")
	assert.Same(t, r.MustLookup("Action"), av.Elem())
}

func TestDuplicateDefinition(t *testing.T) {
	r := NewRegistry()
	r.DeclareVector("Bytes", "byte")
	r.DeclareArray("Bytes", "byte", 4)
	err := r.Resolve()
	assert.ErrorIs(t, err, ErrDuplicateDefinition)

	// The predeclared byte cannot be shadowed.
	r = NewRegistry()
	r.DeclarePrimitive("byte", 2)
	assert.ErrorIs(t, r.Resolve(), ErrDuplicateDefinition)
}

func TestUnresolvedReference(t *testing.T) {
	r := NewRegistry()
	r.DeclareVector("ActionVec", "Action")
	err := r.Resolve()
	assert.ErrorIs(t, err, ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "Action")
	assert.Contains(t, err.Error(), "ActionVec")
}

func TestCyclicDefinition(t *testing.T) {
	r := NewRegistry()
	r.DeclareTable("Node", FieldDecl{Name: "next", Type: "Node"})
	assert.ErrorIs(t, r.Resolve(), ErrCyclicDefinition)

	r = NewRegistry()
	r.DeclareTable("A", FieldDecl{Name: "b", Type: "B"})
	r.DeclareVector("B", "C")
	r.DeclareOption("C", "A")
	assert.ErrorIs(t, r.Resolve(), ErrCyclicDefinition)
}

func TestInvalidDefinitions(t *testing.T) {
	test := func(build func(r *Registry)) {
		r := NewRegistry()
		build(r)
		assert.ErrorIs(t, r.Resolve(), ErrInvalidDefinition)
	}

	test(func(r *Registry) { r.DeclarePrimitive("Zero", 0) })
	test(func(r *Registry) { r.DeclareArray("Empty", "byte", 0) })
	test(func(r *Registry) { r.DeclareStruct("Empty") })
	test(func(r *Registry) { r.DeclareUnion("Empty") })
	test(func(r *Registry) { r.DeclareVector("", "byte") })

	// Arrays and structs must compose fixed-size types.
	test(func(r *Registry) {
		r.DeclareVector("Bytes", "byte")
		r.DeclareArray("FourBytes", "Bytes", 4)
	})
	test(func(r *Registry) {
		r.DeclareVector("Bytes", "byte")
		r.DeclareStruct("Rec", FieldDecl{Name: "data", Type: "Bytes"})
	})

	test(func(r *Registry) {
		r.DeclareTable("Dup",
			FieldDecl{Name: "x", Type: "byte"},
			FieldDecl{Name: "x", Type: "byte"},
		)
	})
	test(func(r *Registry) {
		r.DeclareArray("Hash", "byte", 32)
		r.DeclareUnionWithIDs("U",
			VariantDecl{Type: "Hash", ID: 7},
			VariantDecl{Type: "byte", ID: 7},
		)
	})
	test(func(r *Registry) {
		// Would overflow the uint32 wire limit.
		r.DeclareArray("Big", "byte", 1<<31)
		r.DeclareArray("Huge", "Big", 4)
	})
}

func TestExplicitVariantIDs(t *testing.T) {
	r := NewRegistry()
	r.DeclareArray("Hash", "byte", 32)
	r.DeclareVector("Bytes", "byte")
	r.DeclareUnionWithIDs("WitnessLayout",
		VariantDecl{Type: "Hash", ID: 4278190081},
		VariantDecl{Type: "Bytes", ID: 4278190082},
	)
	require.NoError(t, r.Resolve())

	u := r.MustLookup("WitnessLayout")
	require.Equal(t, 2, u.NumVariants())
	assert.Equal(t, uint32(4278190081), u.VariantAt(0).ID)
	v, ok := u.VariantByID(4278190082)
	require.True(t, ok)
	assert.Equal(t, "Bytes", v.Name)
}

func TestFrozenAfterResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Resolve())
	assert.Panics(t, func() { r.DeclareVector("Bytes", "byte") })
	assert.Panics(t, func() { r.Resolve() })
	assert.Panics(t, func() { r.SetName("late") })
}

func TestLookupBeforeResolvePanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.Lookup("byte") })
	assert.Panics(t, func() { r.Types() })
}

func TestDescribe(t *testing.T) {
	r := NewRegistry()
	r.DeclareArray("Hash", "byte", 32)
	r.DeclareVector("Bytes", "byte")
	r.DeclareTable("Action",
		FieldDecl{Name: "script_info_hash", Type: "Hash"},
		FieldDecl{Name: "data", Type: "Bytes"},
	)
	require.NoError(t, r.Resolve())

	assert.Equal(t, "Hash : array [byte; 32]", r.MustLookup("Hash").Describe())
	assert.Equal(t,
		"Action : table { script_info_hash: Hash, data: Bytes }",
		r.MustLookup("Action").Describe())
}
