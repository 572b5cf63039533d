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

package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabwire/tabwire/schema"
)

func fd(name, typ string) schema.FieldDecl {
	return schema.FieldDecl{Name: name, Type: typ}
}

// testRegistry declares the schema shared by the codec tests.
func testRegistry(t *testing.T) *schema.Registry {
	r := schema.NewRegistry()
	r.DeclarePrimitive("Uint16", 2)
	r.DeclarePrimitive("Uint32", 4)
	r.DeclarePrimitive("Uint64", 8)
	r.DeclareArray("Hash", "byte", 32)
	r.DeclareArray("Pair16", "Uint16", 2)
	r.DeclareVector("Bytes", "byte")
	r.DeclareVector("Uint32Vec", "Uint32")
	r.DeclareVector("BytesVec", "Bytes")
	r.DeclareOption("BytesOpt", "Bytes")
	r.DeclareStruct("Tagged", fd("flag", "byte"), fd("weight", "Uint16"))
	r.DeclareTable("Record", fd("data", "Bytes"), fd("count", "Uint32"))
	r.DeclareTable("Holder", fd("first", "BytesOpt"), fd("second", "BytesOpt"))
	r.DeclareUnion("Payload", "Bytes", "Record")
	r.DeclareUnion("Wrapper", "BytesVec", "Record")
	require.NoError(t, r.Resolve())
	return r
}

func TestEncodeExactBytes(t *testing.T) {
	reg := testRegistry(t)

	test := func(typ string, v Value, exp []byte) {
		buf, err := Encode(reg.MustLookup(typ), v)
		require.NoError(t, err)
		assert.Equal(t, exp, buf, "encoding %s", typ)
		assert.NoError(t, Verify(reg.MustLookup(typ), buf))
	}

	test("byte", Byte(0xab), []byte{0xab})
	test("Uint16", Uint16(0x0102), []byte{0x02, 0x01})
	test("Uint32", Uint32(1), []byte{0x01, 0x00, 0x00, 0x00})
	test("Uint64", Uint64(0x0807060504030201), []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08})

	// A vector of variable-size items with no items is its full size
	// alone.
	test("BytesVec", VectorOf(), []byte{0x04, 0x00, 0x00, 0x00})

	// A union wraps its payload behind a four-byte variant tag.
	test("Payload", UnionOf("Bytes", Bytes(nil)), []byte{
		0x00, 0x00, 0x00, 0x00, // variant id 0
		0x00, 0x00, 0x00, 0x00, // empty byte vector
	})

	// A variable-size payload keeps its own full-size header behind
	// the tag.
	test("Wrapper", UnionOf("BytesVec", VectorOf()), []byte{
		0x00, 0x00, 0x00, 0x00, // variant id 0
		0x04, 0x00, 0x00, 0x00, // empty vector payload
	})

	// A fixed-size array is its raw bytes, no header.
	hash := bytes.Repeat([]byte{0x5a}, 32)
	test("Hash", Raw(hash), hash)

	test("Bytes", Bytes([]byte("abc")), []byte{
		0x03, 0x00, 0x00, 0x00, 'a', 'b', 'c',
	})
	test("Bytes", String(""), []byte{0x00, 0x00, 0x00, 0x00})

	test("Uint32Vec", VectorOf(Uint32(1), Uint32(0x0200)), []byte{
		0x02, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x02, 0x00, 0x00,
	})

	test("Pair16", ArrayOf(Uint16(1), Uint16(2)), []byte{
		0x01, 0x00, 0x02, 0x00,
	})

	test("Tagged", StructOf(Byte(0x07), Uint16(0x0102)), []byte{
		0x07, 0x02, 0x01,
	})

	test("BytesVec", VectorOf(Bytes([]byte("a")), Bytes([]byte("bc"))), []byte{
		0x17, 0x00, 0x00, 0x00, // full size 23
		0x0c, 0x00, 0x00, 0x00, // item 0 at 12
		0x11, 0x00, 0x00, 0x00, // item 1 at 17
		0x01, 0x00, 0x00, 0x00, 'a',
		0x02, 0x00, 0x00, 0x00, 'b', 'c',
	})

	test("Record", TableOf(Bytes([]byte("ab")), Uint32(7)), []byte{
		0x16, 0x00, 0x00, 0x00, // full size 22
		0x0c, 0x00, 0x00, 0x00, // data at 12
		0x12, 0x00, 0x00, 0x00, // count at 18
		0x02, 0x00, 0x00, 0x00, 'a', 'b',
		0x07, 0x00, 0x00, 0x00,
	})

	// Omitted trailing members shrink the header.
	test("Record", TableOf(Bytes([]byte("ab"))), []byte{
		0x0e, 0x00, 0x00, 0x00, // full size 14
		0x08, 0x00, 0x00, 0x00, // data at 8
		0x02, 0x00, 0x00, 0x00, 'a', 'b',
	})
	test("Record", TableOf(), []byte{0x04, 0x00, 0x00, 0x00})

	test("BytesOpt", None, []byte{})
	test("BytesOpt", Some(Bytes([]byte("x"))), []byte{
		0x01, 0x00, 0x00, 0x00, 'x',
	})

	// Absent options make zero-length table members; adjacent offsets
	// are then equal.
	test("Holder", TableOf(None, None), []byte{
		0x0c, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
	})
}

func TestEncodeExplicitVariantIDs(t *testing.T) {
	r := schema.NewRegistry()
	r.DeclareVector("Bytes", "byte")
	r.DeclareUnionWithIDs("WitnessLayout",
		schema.VariantDecl{Type: "Bytes", ID: 0xFF000001},
	)
	require.NoError(t, r.Resolve())

	buf, err := Encode(r.MustLookup("WitnessLayout"), UnionOf("Bytes", Bytes(nil)))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x00, 0x00, 0xff,
		0x00, 0x00, 0x00, 0x00,
	}, buf)
}

func TestEncodeNestedTables(t *testing.T) {
	reg := testRegistry(t)

	r := schema.NewRegistry()
	r.DeclareVector("Bytes", "byte")
	r.DeclarePrimitive("Uint32", 4)
	r.DeclareTable("Record", fd("data", "Bytes"), fd("count", "Uint32"))
	r.DeclareVector("RecordVec", "Record")
	r.DeclareTable("Batch", fd("records", "RecordVec"), fd("tag", "Bytes"))
	require.NoError(t, r.Resolve())

	v := TableOf(
		VectorOf(
			TableOf(Bytes([]byte("one")), Uint32(1)),
			TableOf(Bytes(nil), Uint32(2)),
		),
		Bytes([]byte("batch")),
	)
	buf, err := Encode(r.MustLookup("Batch"), v)
	require.NoError(t, err)
	require.NoError(t, Verify(r.MustLookup("Batch"), buf))

	// The same value encoded against the shared registry's Record
	// type is identical where the schemas agree.
	inner, err := Encode(reg.MustLookup("Record"), TableOf(Bytes([]byte("one")), Uint32(1)))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(buf, inner))
}

func TestEncodeRawFixedValues(t *testing.T) {
	reg := testRegistry(t)

	// Raw bytes stand in for any fixed-size value of the same length.
	buf, err := Encode(reg.MustLookup("Tagged"), Raw([]byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf)

	buf, err = Encode(reg.MustLookup("Uint32"), Raw([]byte{9, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 0, 0, 0}, buf)
}

func TestEncodeSizeMismatch(t *testing.T) {
	reg := testRegistry(t)

	test := func(typ string, v Value) {
		_, err := Encode(reg.MustLookup(typ), v)
		assert.ErrorIs(t, err, ErrSizeMismatch, "encoding %s", typ)
	}

	test("Uint32", Raw([]byte{1, 2, 3}))
	test("Hash", Raw(make([]byte, 31)))
	test("Hash", Raw(make([]byte, 33)))
	test("Pair16", ArrayOf(Uint16(1)))
	test("Tagged", StructOf(Byte(1)))
	test("Tagged", Raw([]byte{1, 2, 3, 4}))
}

func TestEncodeTypeMismatch(t *testing.T) {
	reg := testRegistry(t)

	test := func(typ string, v Value) {
		_, err := Encode(reg.MustLookup(typ), v)
		assert.ErrorIs(t, err, ErrTypeMismatch, "encoding %s", typ)
	}

	test("Uint32", Uint64(1))
	test("Uint64", Uint32(1))
	test("Uint32", Bytes([]byte{1, 2, 3, 4}))
	test("Bytes", Uint32(1))
	test("Uint32Vec", Bytes([]byte{1, 2, 3, 4}))
	test("Record", VectorOf())
	test("Record", TableOf(Bytes(nil), Uint32(1), Uint32(2)))
	test("Payload", Bytes(nil))
	test("BytesOpt", Bytes(nil))
	test("Uint32", nil)

	// Inner mismatches surface from nested values.
	test("Record", TableOf(Uint32(1)))
	test("BytesVec", VectorOf(Uint32(1)))
}

func TestEncodeUnknownVariant(t *testing.T) {
	reg := testRegistry(t)
	_, err := Encode(reg.MustLookup("Payload"), UnionOf("Hash", Raw(make([]byte, 32))))
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
