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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabwire/tabwire/schema"
)

func TestVerifyFixedSizes(t *testing.T) {
	reg := testRegistry(t)

	test := func(typ string, buf []byte, wantErr error) {
		err := Verify(reg.MustLookup(typ), buf)
		if wantErr == nil {
			assert.NoError(t, err, "verifying %s", typ)
		} else {
			assert.ErrorIs(t, err, wantErr, "verifying %s", typ)
		}
	}

	test("byte", []byte{0x00}, nil)
	test("byte", []byte{}, ErrSizeMismatch)
	test("byte", []byte{0, 0}, ErrSizeMismatch)
	test("Uint32", []byte{1, 2, 3, 4}, nil)
	test("Uint32", []byte{1, 2, 3}, ErrSizeMismatch)
	test("Hash", make([]byte, 32), nil)
	test("Hash", make([]byte, 31), ErrSizeMismatch)
	test("Hash", make([]byte, 33), ErrSizeMismatch)
	test("Tagged", make([]byte, 3), nil)
	test("Tagged", make([]byte, 4), ErrSizeMismatch)
	test("Tagged", nil, ErrSizeMismatch)
}

func TestVerifyFixedItemVectors(t *testing.T) {
	reg := testRegistry(t)

	test := func(buf []byte, wantErr error) {
		err := Verify(reg.MustLookup("Uint32Vec"), buf)
		if wantErr == nil {
			assert.NoError(t, err)
		} else {
			assert.ErrorIs(t, err, wantErr)
		}
	}

	test([]byte{0x00, 0x00, 0x00, 0x00}, nil)
	test([]byte{0x01, 0x00, 0x00, 0x00, 9, 9, 9, 9}, nil)

	// No room for the count header.
	test(nil, ErrBufferTooShort)
	test([]byte{0x01, 0x00}, ErrBufferTooShort)
	// The count promises more items than the buffer holds.
	test([]byte{0x02, 0x00, 0x00, 0x00, 9, 9, 9, 9}, ErrBufferTooShort)
	// Bytes past the declared items.
	test([]byte{0x01, 0x00, 0x00, 0x00, 9, 9, 9, 9, 9}, ErrSizeMismatch)
	// A count near the uint32 limit must not wrap the arithmetic.
	test([]byte{0xff, 0xff, 0xff, 0xff, 9, 9, 9, 9}, ErrBufferTooShort)
}

func TestVerifyOffsetTables(t *testing.T) {
	reg := testRegistry(t)

	test := func(typ string, buf []byte, wantErr error) {
		err := Verify(reg.MustLookup(typ), buf)
		if wantErr == nil {
			assert.NoError(t, err, "verifying %s", typ)
		} else {
			assert.ErrorIs(t, err, wantErr, "verifying %s", typ)
		}
	}

	// Empty regions are a bare full size.
	test("BytesVec", []byte{0x04, 0x00, 0x00, 0x00}, nil)
	test("Record", []byte{0x04, 0x00, 0x00, 0x00}, nil)

	// No room for the size header.
	test("BytesVec", nil, ErrBufferTooShort)
	test("BytesVec", []byte{0x04, 0x00}, ErrBufferTooShort)

	// The full size disagrees with the buffer length.
	test("BytesVec", []byte{0x05, 0x00, 0x00, 0x00}, ErrBufferTooShort)
	test("BytesVec", []byte{0x04, 0x00, 0x00, 0x00, 0xaa}, ErrMalformedOffsetTable)

	// A full size that cannot hold a single offset.
	test("BytesVec", []byte{0x06, 0x00, 0x00, 0x00, 0xaa, 0xbb}, ErrMalformedOffsetTable)

	// First offset past the end of the region.
	test("BytesVec", []byte{
		0x08, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
	}, ErrMalformedOffsetTable)

	// First offset inside the size header.
	test("BytesVec", []byte{
		0x08, 0x00, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00,
	}, ErrMalformedOffsetTable)

	// First offset not on a whole slot boundary.
	test("BytesVec", []byte{
		0x0d, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x61,
	}, ErrMalformedOffsetTable)

	// Offsets must not decrease.
	test("Holder", []byte{
		0x10, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
		0x0b, 0x00, 0x00, 0x00,
		0xaa, 0xbb, 0xcc, 0xdd,
	}, ErrMalformedOffsetTable)

	// Equal adjacent offsets carry zero-length items, which options
	// accept.
	test("Holder", []byte{
		0x0c, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
		0x0c, 0x00, 0x00, 0x00,
	}, nil)

	// A single offset equal to the full size carries one empty item;
	// byte vectors reject it, options would not.
	test("BytesVec", []byte{
		0x08, 0x00, 0x00, 0x00,
		0x08, 0x00, 0x00, 0x00,
	}, ErrBufferTooShort)

	// Item contents are verified recursively.
	test("BytesVec", []byte{
		0x0d, 0x00, 0x00, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x00, 0x00, 0x61, // item declares 5 bytes, has 1
	}, ErrBufferTooShort)
	test("Record", []byte{
		0x0c, 0x00, 0x00, 0x00,
		0x08, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03, 0x04, // member count header promises 67 MB
	}, ErrBufferTooShort)
}

func TestVerifyTableEvolution(t *testing.T) {
	reg := testRegistry(t)
	record := reg.MustLookup("Record")

	// One member fewer than declared: an older writer omitted the
	// trailing member.
	short, err := Encode(record, TableOf(Bytes([]byte("ab"))))
	require.NoError(t, err)
	assert.NoError(t, Verify(record, short))

	// More members than declared: a newer writer appended members
	// this schema does not know. The extra segment is not typed, so
	// only its bounds are checked.
	wide := []byte{
		0x1c, 0x00, 0x00, 0x00, // full size 28
		0x10, 0x00, 0x00, 0x00, // data at 16
		0x16, 0x00, 0x00, 0x00, // count at 22
		0x1a, 0x00, 0x00, 0x00, // unknown member at 26
		0x02, 0x00, 0x00, 0x00, 'a', 'b',
		0x07, 0x00, 0x00, 0x00,
		0xde, 0xad,
	}
	assert.NoError(t, Verify(record, wide))
}

func TestVerifyUnions(t *testing.T) {
	reg := testRegistry(t)
	payload := reg.MustLookup("Payload")

	buf, err := Encode(payload, UnionOf("Record", TableOf(Bytes(nil), Uint32(3))))
	require.NoError(t, err)
	assert.NoError(t, Verify(payload, buf))

	// Too short for the variant tag.
	assert.ErrorIs(t, Verify(payload, []byte{0x00, 0x00}), ErrBufferTooShort)

	// A tag the schema does not declare.
	unknown := []byte{
		0x09, 0x00, 0x00, 0x00,
		0xaa, 0xbb,
	}
	assert.ErrorIs(t, Verify(payload, unknown), ErrUnknownVariant)

	// Passthrough keeps the payload opaque and accepts it.
	assert.NoError(t, VerifyOpts(payload, unknown, DecodeOptions{PassthroughUnions: true}))

	// Known variants are verified even in passthrough mode.
	bad := []byte{
		0x00, 0x00, 0x00, 0x00,
		0x05, 0x00, 0x00, 0x00, // byte vector promising 5 bytes
	}
	assert.ErrorIs(t, VerifyOpts(payload, bad, DecodeOptions{PassthroughUnions: true}), ErrBufferTooShort)
}

func TestVerifyOptions(t *testing.T) {
	reg := testRegistry(t)
	opt := reg.MustLookup("BytesOpt")

	assert.NoError(t, Verify(opt, nil))
	assert.NoError(t, Verify(opt, []byte{}))
	assert.NoError(t, Verify(opt, []byte{0x01, 0x00, 0x00, 0x00, 0x61}))
	assert.ErrorIs(t, Verify(opt, []byte{0x01, 0x00}), ErrBufferTooShort)
}

func TestVerifyDeepNesting(t *testing.T) {
	r := schema.NewRegistry()
	r.DeclareVector("Bytes", "byte")
	r.DeclareVector("BytesVec", "Bytes")
	r.DeclareVector("BytesVecVec", "BytesVec")
	r.DeclareTable("Deep", fd("grid", "BytesVecVec"))
	require.NoError(t, r.Resolve())

	deep := r.MustLookup("Deep")
	buf, err := Encode(deep, TableOf(
		VectorOf(
			VectorOf(Bytes([]byte("a")), Bytes(nil)),
			VectorOf(),
		),
	))
	require.NoError(t, err)
	assert.NoError(t, Verify(deep, buf))

	// Corrupting the innermost count header surfaces from three
	// levels down.
	buf[len(buf)-5] = 0xff
	assert.Error(t, Verify(deep, buf))
}
