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

// Package marshal converts Go values to and from wire encodings,
// pairing Go types with schema types by reflection.
//
// Schema members are matched to Go struct fields by name: the field's
// `tabwire` tag if it has one, otherwise the snake_case form of the
// field name, so ScriptInfoHash matches a member named
// script_info_hash. A tag of "-" hides a field.
//
// The mapping follows the schema's kinds. Primitives of width 1, 2, 4
// and 8 map to the unsigned integer of that width. Byte vectors map
// to []byte or string, other vectors to slices. Arrays map to Go
// arrays or slices of the element mapping, byte arrays also to
// [N]byte. Structs and tables map to Go structs; absent trailing
// table members are left at their zero values when unmarshaling and
// nil pointer fields are omitted from the tail when marshaling.
// Options map to pointers. Unions map to the Union helper. A type can
// take over its own conversion by implementing Marshaler or
// Unmarshaler.
package marshal

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/schema"
)

// Marshaler lets a Go type take over its own encoding. MarshalTabwire
// answers the value to encode for the schema type the marshaler was
// paired with; it must match that type's shape.
type Marshaler interface {
	MarshalTabwire(t *schema.Type) (codec.Value, error)
}

// Unmarshaler lets a Go type take over its own decoding from a
// verified view.
type Unmarshaler interface {
	UnmarshalTabwire(v codec.View) error
}

// Union is the Go mapping of a union value. When marshaling, Variant
// names the arm and Value holds the Go value for it. When
// unmarshaling, Variant and ID report the decoded arm and Raw holds
// its payload bytes to be unmarshaled against the arm's type; Raw is
// also set for unknown arms accepted in passthrough mode, with
// Variant empty.
type Union struct {
	Variant string
	ID      uint32
	Value   interface{}
	Raw     []byte
}

// UnsupportedTypeError is returned when a Go type cannot represent
// the schema type it was paired with.
type UnsupportedTypeError struct {
	Type    reflect.Type
	Message string
}

func (e *UnsupportedTypeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unsupported type"
	}
	return fmt.Sprintf("marshal: %s: %s", msg, e.Type)
}

// InvalidUnmarshalError is returned when the unmarshal target is not
// a non-nil pointer.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "marshal: unmarshal target is nil"
	}
	if e.Type.Kind() != reflect.Ptr {
		return fmt.Sprintf("marshal: unmarshal target is not a pointer: %s", e.Type)
	}
	return fmt.Sprintf("marshal: unmarshal target is a nil pointer: %s", e.Type)
}

// NoSuchFieldError is returned when a schema member has no
// counterpart in the Go struct.
type NoSuchFieldError struct {
	Type  reflect.Type
	Field string
}

func (e *NoSuchFieldError) Error() string {
	return fmt.Sprintf("marshal: %s has no field for member %q", e.Type, e.Field)
}

// fieldIndex locates the exported field of |t| matching the schema
// member |name|, or -1.
func fieldIndex(t reflect.Type, name string) int {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		tag := f.Tag.Get("tabwire")
		if tag == "-" {
			continue
		}
		if tag != "" {
			if tagName := strings.Split(tag, ",")[0]; tagName != "" {
				if tagName == name {
					return i
				}
				continue
			}
		}
		if snakeCase(f.Name) == name || f.Name == name {
			return i
		}
	}
	return -1
}

// snakeCase converts an exported Go name to its schema spelling:
// ScriptInfoHash becomes script_info_hash, ID becomes id.
func snakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// Start a new word unless this upper rune continues an
			// acronym, as in the H of SighashAll or the D of ID.
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var unionType = reflect.TypeOf(Union{})
var byteSliceType = reflect.TypeOf([]byte(nil))
var marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
var unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
