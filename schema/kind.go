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

// Kind indicates which shape of wire encoding a Type describes.
type Kind uint8

// All supported kinds of types are enumerated here.
const (
	PrimitiveKind Kind = iota
	ArrayKind
	StructKind
	VectorKind
	TableKind
	UnionKind
	OptionKind

	UnknownKind Kind = 255
)

var KindToString = map[Kind]string{
	PrimitiveKind: "primitive",
	ArrayKind:     "array",
	StructKind:    "struct",
	VectorKind:    "vector",
	TableKind:     "table",
	UnionKind:     "union",
	OptionKind:    "option",
	UnknownKind:   "unknown",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if s, ok := KindToString[k]; ok {
		return s
	}
	return KindToString[UnknownKind]
}

// kindFromString is the inverse of KindToString. Used by the manifest loader.
func kindFromString(s string) (Kind, bool) {
	for k, name := range KindToString {
		if name == s && k != UnknownKind {
			return k, true
		}
	}
	return UnknownKind, false
}
