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

package marshal

import (
	"fmt"
	"reflect"

	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/schema"
)

// Marshal encodes |v| as a value of schema type |t|.
func Marshal(t *schema.Type, v interface{}) ([]byte, error) {
	val, err := valueOf(t, reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return codec.Encode(t, val)
}

func valueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if rv.IsValid() && rv.Type().Implements(marshalerType) &&
		!((rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()) {
		val, err := rv.Interface().(Marshaler).MarshalTabwire(t)
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, &UnsupportedTypeError{rv.Type(),
				"MarshalTabwire answered no value"}
		}
		return val, nil
	}

	if t.Kind() == schema.OptionKind {
		return optionValueOf(t, rv)
	}

	// Pointers and interfaces to non-option members are conveniences;
	// follow them to the value.
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, &UnsupportedTypeError{rv.Type(),
				fmt.Sprintf("nil value for %s %q", t.Kind(), t.Name())}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, &UnsupportedTypeError{nil,
			fmt.Sprintf("nil value for %s %q", t.Kind(), t.Name())}
	}

	switch t.Kind() {
	case schema.PrimitiveKind:
		return primitiveValueOf(t, rv)
	case schema.ArrayKind:
		return arrayValueOf(t, rv)
	case schema.StructKind:
		return structValueOf(t, rv)
	case schema.VectorKind:
		return vectorValueOf(t, rv)
	case schema.TableKind:
		return tableValueOf(t, rv)
	case schema.UnionKind:
		return unionValueOf(t, rv)
	}
	return nil, &UnsupportedTypeError{rv.Type(),
		fmt.Sprintf("cannot encode %s %q", t.Kind(), t.Name())}
}

func primitiveValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	switch rv.Kind() {
	case reflect.Uint8:
		if t.Width() == 1 {
			return codec.Uint8(uint8(rv.Uint())), nil
		}
	case reflect.Uint16:
		if t.Width() == 2 {
			return codec.Uint16(uint16(rv.Uint())), nil
		}
	case reflect.Uint32:
		if t.Width() == 4 {
			return codec.Uint32(uint32(rv.Uint())), nil
		}
	case reflect.Uint64:
		if t.Width() == 8 {
			return codec.Uint64(rv.Uint()), nil
		}
	}
	if b, ok := rawBytes(rv); ok {
		return codec.Raw(b), nil
	}
	return nil, &UnsupportedTypeError{rv.Type(),
		fmt.Sprintf("cannot encode primitive %q of %d bytes", t.Name(), t.Width())}
}

func arrayValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if b, ok := rawBytes(rv); ok {
		return codec.Raw(b), nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot encode array %q", t.Name())}
	}
	items := make([]codec.Value, rv.Len())
	for i := range items {
		item, err := valueOf(t.Elem(), rv.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return codec.ArrayOf(items...), nil
}

func structValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if rv.Kind() != reflect.Struct {
		return nil, &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot encode struct %q", t.Name())}
	}
	fields := make([]codec.Value, t.NumFields())
	for i := range fields {
		member := t.FieldAt(i)
		idx := fieldIndex(rv.Type(), member.Name)
		if idx < 0 {
			return nil, &NoSuchFieldError{rv.Type(), member.Name}
		}
		val, err := valueOf(member.Type, rv.Field(idx))
		if err != nil {
			return nil, err
		}
		fields[i] = val
	}
	return codec.StructOf(fields...), nil
}

func vectorValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if size, fixed := t.Elem().FixedSize(); fixed && size == 1 {
		if rv.Kind() == reflect.String {
			return codec.String(rv.String()), nil
		}
		if b, ok := rawBytes(rv); ok {
			return codec.Bytes(b), nil
		}
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot encode vector %q", t.Name())}
	}
	items := make([]codec.Value, rv.Len())
	for i := range items {
		item, err := valueOf(t.Elem(), rv.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = item
	}
	return codec.VectorOf(items...), nil
}

// tableValueOf builds a table value, omitting the trailing run of nil
// pointer fields. A nil pointer followed by a present member has no
// wire form, since tables only omit from the tail.
func tableValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if rv.Kind() != reflect.Struct {
		return nil, &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot encode table %q", t.Name())}
	}

	n := t.NumFields()
	goFields := make([]reflect.Value, n)
	last := -1 // last present member
	for i := 0; i < n; i++ {
		member := t.FieldAt(i)
		idx := fieldIndex(rv.Type(), member.Name)
		if idx < 0 {
			return nil, &NoSuchFieldError{rv.Type(), member.Name}
		}
		goFields[i] = rv.Field(idx)
		if member.Type.Kind() == schema.OptionKind ||
			goFields[i].Kind() != reflect.Ptr || !goFields[i].IsNil() {
			last = i
		}
	}

	fields := make([]codec.Value, last+1)
	for i := 0; i <= last; i++ {
		member := t.FieldAt(i)
		if member.Type.Kind() != schema.OptionKind &&
			goFields[i].Kind() == reflect.Ptr && goFields[i].IsNil() {
			return nil, &UnsupportedTypeError{rv.Type(),
				fmt.Sprintf("table %q member %q is nil before later members", t.Name(), member.Name)}
		}
		val, err := valueOf(member.Type, goFields[i])
		if err != nil {
			return nil, err
		}
		fields[i] = val
	}
	return codec.TableOf(fields...), nil
}

func unionValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if rv.Type() != unionType {
		return nil, &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("union %q encodes from marshal.Union", t.Name())}
	}
	u := rv.Interface().(Union)
	arm, ok := t.VariantByName(u.Variant)
	if !ok {
		return nil, fmt.Errorf("%w: union %q has no variant %q",
			codec.ErrUnknownVariant, t.Name(), u.Variant)
	}
	val, err := valueOf(arm.Type, reflect.ValueOf(u.Value))
	if err != nil {
		return nil, err
	}
	return codec.UnionOf(u.Variant, val), nil
}

func optionValueOf(t *schema.Type, rv reflect.Value) (codec.Value, error) {
	if !rv.IsValid() {
		return codec.None, nil
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return codec.None, nil
		}
		return optionValueOf(t, rv.Elem())
	}
	val, err := valueOf(t.Elem(), rv)
	if err != nil {
		return nil, err
	}
	return codec.Some(val), nil
}

// rawBytes extracts the contents of a []byte or [N]byte value.
func rawBytes(rv reflect.Value) ([]byte, bool) {
	switch {
	case rv.Type() == byteSliceType:
		return rv.Bytes(), true
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		return rv.Bytes(), true
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		if rv.CanAddr() {
			return rv.Slice(0, rv.Len()).Bytes(), true
		}
		out := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(out), rv)
		return out, true
	}
	return nil, false
}
