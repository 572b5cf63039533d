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

// Package codec encodes, verifies and lazily decodes values of the
// offset-table wire format described by a schema.Registry.
//
// Every multi-byte header on the wire is an unsigned 32-bit
// little-endian integer. Fixed-size types are raw bytes with no
// header. Vectors of fixed-size items carry an item count. Vectors of
// variable-size items and tables carry a full size followed by one
// absolute offset per item. Unions carry a variant tag, options carry
// nothing at all when absent.
package codec

import "encoding/binary"

// numberSize is the byte width of every wire header.
const numberSize = 4

const initialBufferSize = 2048

func readUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// uint32At reads the |i|th little-endian uint32 of |buf|.
func uint32At(buf []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(buf[i*numberSize:])
}

type wireWriter struct {
	buff   []byte
	offset uint32
}

func newWireWriter() wireWriter {
	return wireWriter{make([]byte, initialBufferSize), 0}
}

func (w *wireWriter) ensureCapacity(n uint32) {
	length := uint32(len(w.buff))
	if w.offset+n <= length {
		return
	}
	old := w.buff
	for w.offset+n > length {
		length = length * 2
	}
	w.buff = make([]byte, length)
	copy(w.buff, old)
}

func (w *wireWriter) writeUint32(v uint32) {
	w.ensureCapacity(numberSize)
	binary.LittleEndian.PutUint32(w.buff[w.offset:], v)
	w.offset += numberSize
}

func (w *wireWriter) writeRaw(b []byte) {
	size := uint32(len(b))
	w.ensureCapacity(size)
	copy(w.buff[w.offset:], b)
	w.offset += size
}

func (w *wireWriter) data() []byte {
	return w.buff[0:w.offset]
}
