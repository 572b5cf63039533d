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

// Package digest computes blake2b-256 digests of encoded values.
//
// Digests follow one framing rule: fixed-size data is hashed as raw
// bytes, while variable-size data is preceded by its byte length as a
// little-endian uint64. The length prefix keeps concatenated
// variable-size inputs from colliding.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/tabwire/tabwire/codec"
)

// Size is the digest length in bytes.
const Size = 32

// Digest is a blake2b-256 digest.
type Digest [Size]byte

// String returns the digest in hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest is all zero bytes.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Hasher accumulates framed inputs into a digest.
type Hasher struct {
	h hash.Hash
}

// New returns an empty Hasher.
func New() *Hasher {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails with an oversized key
	}
	return &Hasher{h}
}

// WriteFixed hashes |b| as fixed-size data: the raw bytes, nothing else.
func (h *Hasher) WriteFixed(b []byte) {
	h.h.Write(b)
}

// WriteVar hashes |b| as variable-size data: its length as a
// little-endian uint64, then the bytes.
func (h *Hasher) WriteVar(b []byte) {
	var prefix [8]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(b)))
	h.h.Write(prefix[:])
	h.h.Write(b)
}

// Digest returns the digest of everything written so far. The Hasher
// remains usable and further writes extend the same stream.
func (h *Hasher) Digest() Digest {
	var d Digest
	copy(d[:], h.h.Sum(nil))
	return d
}

// Sum returns the digest of |b| hashed as fixed-size data.
func Sum(b []byte) Digest {
	h := New()
	h.WriteFixed(b)
	return h.Digest()
}

// OfView digests a decoded value, framing it by its type: fixed-size
// types hash raw, everything else hashes behind a length prefix.
// Opaque views hash as variable-size data.
func OfView(v codec.View) Digest {
	h := New()
	if t := v.Type(); t != nil {
		if _, fixed := t.FixedSize(); fixed {
			h.WriteFixed(v.Bytes())
			return h.Digest()
		}
	}
	h.WriteVar(v.Bytes())
	return h.Digest()
}
