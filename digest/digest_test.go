// Copyright 2026 Tabwire, Inc.
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

package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/schema"
)

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("tabwire"))
	b := Sum([]byte("tabwire"))
	c := Sum([]byte("tabwirf"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 2*Size)
	assert.True(t, Digest{}.IsZero())
}

func TestVarFraming(t *testing.T) {
	// The variable framing is exactly a little-endian uint64 length
	// followed by the bytes.
	h := New()
	h.WriteVar([]byte("ab"))

	manual := New()
	manual.WriteFixed([]byte{2, 0, 0, 0, 0, 0, 0, 0})
	manual.WriteFixed([]byte("ab"))

	assert.Equal(t, manual.Digest(), h.Digest())

	// So fixed and variable framings of the same bytes differ.
	assert.NotEqual(t, Sum([]byte("ab")), h.Digest())
}

func TestVarFramingResistsShifts(t *testing.T) {
	// Without the length prefix these two write sequences would
	// collide.
	h1 := New()
	h1.WriteVar([]byte("ab"))
	h1.WriteVar([]byte("c"))

	h2 := New()
	h2.WriteVar([]byte("a"))
	h2.WriteVar([]byte("bc"))

	assert.NotEqual(t, h1.Digest(), h2.Digest())
}

func TestHasherExtends(t *testing.T) {
	h := New()
	h.WriteFixed([]byte("a"))
	first := h.Digest()
	h.WriteFixed([]byte("b"))
	second := h.Digest()

	assert.NotEqual(t, first, second)

	flat := New()
	flat.WriteFixed([]byte("ab"))
	assert.Equal(t, flat.Digest(), second)
}

func TestOfView(t *testing.T) {
	r := schema.NewRegistry()
	r.DeclareArray("Hash", "byte", 4)
	r.DeclareVector("Bytes", "byte")
	require.NoError(t, r.Resolve())

	// Fixed-size values hash raw.
	fixed, err := codec.Decode(r.MustLookup("Hash"), []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Sum([]byte{1, 2, 3, 4}), OfView(fixed))

	// Variable-size values hash behind their length.
	buf, err := codec.Encode(r.MustLookup("Bytes"), codec.Bytes([]byte("xy")))
	require.NoError(t, err)
	view, err := codec.Decode(r.MustLookup("Bytes"), buf)
	require.NoError(t, err)

	h := New()
	h.WriteVar(buf)
	assert.Equal(t, h.Digest(), OfView(view))
	assert.NotEqual(t, Sum(buf), OfView(view))
}
