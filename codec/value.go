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

import "encoding/binary"

// Value is a node in the in-memory tree handed to Encode. Values
// carry shape but no type; Encode pairs them with a schema.Type and
// rejects any disagreement.
type Value interface {
	// label names the value's shape in error messages.
	label() string
}

type rawValue []byte

type uintValue struct {
	width uint32
	bits  uint64
}

type bytesValue []byte

type arrayValue []Value

type structValue []Value

type vectorValue []Value

type tableValue []Value

type unionValue struct {
	variant string
	val     Value
}

type optionValue struct {
	val Value
}

func (rawValue) label() string    { return "raw" }
func (v uintValue) label() string { return "uint" }
func (bytesValue) label() string  { return "bytes" }
func (arrayValue) label() string  { return "array" }
func (structValue) label() string { return "struct" }
func (vectorValue) label() string { return "vector" }
func (tableValue) label() string  { return "table" }
func (unionValue) label() string  { return "union" }
func (optionValue) label() string { return "option" }

// Raw wraps bytes that are already in wire form. It encodes against
// any fixed-size type whose size equals len(b).
func Raw(b []byte) Value {
	return rawValue(b)
}

// Byte encodes against a one-byte primitive.
func Byte(b byte) Value {
	return uintValue{1, uint64(b)}
}

// Uint8 encodes against a one-byte primitive.
func Uint8(v uint8) Value {
	return uintValue{1, uint64(v)}
}

// Uint16 encodes little-endian against a two-byte primitive.
func Uint16(v uint16) Value {
	return uintValue{2, uint64(v)}
}

// Uint32 encodes little-endian against a four-byte primitive.
func Uint32(v uint32) Value {
	return uintValue{4, uint64(v)}
}

// Uint64 encodes little-endian against an eight-byte primitive.
func Uint64(v uint64) Value {
	return uintValue{8, v}
}

// Bytes encodes against a vector of one-byte items.
func Bytes(b []byte) Value {
	return bytesValue(b)
}

// String encodes s as a vector of one-byte items.
func String(s string) Value {
	return bytesValue(s)
}

// ArrayOf encodes against an array type with exactly len(items) items.
func ArrayOf(items ...Value) Value {
	return arrayValue(items)
}

// StructOf encodes against a struct type. Members are positional and
// all must be present.
func StructOf(fields ...Value) Value {
	return structValue(fields)
}

// VectorOf encodes against a vector type.
func VectorOf(items ...Value) Value {
	return vectorValue(items)
}

// TableOf encodes against a table type. Members are positional;
// passing fewer values than the table declares omits the trailing
// members from the encoding.
func TableOf(fields ...Value) Value {
	return tableValue(fields)
}

// UnionOf encodes against a union type, selecting the arm that
// references the named type.
func UnionOf(variant string, v Value) Value {
	return unionValue{variant, v}
}

// Some encodes against an option type with the payload present.
func Some(v Value) Value {
	return optionValue{v}
}

// None encodes against an option type as zero bytes.
var None Value = optionValue{}

// encode writes the little-endian bytes of a uintValue.
func (v uintValue) encode(w *wireWriter) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v.bits)
	w.writeRaw(scratch[:v.width])
}
