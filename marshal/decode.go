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

// Unmarshal verifies |buf| as an encoding of |t| and fills |out|,
// which must be a non-nil pointer. Unlike codec views, unmarshaled
// values copy out of the buffer and do not alias it.
func Unmarshal(t *schema.Type, buf []byte, out interface{}) error {
	return UnmarshalOpts(t, buf, out, codec.DecodeOptions{})
}

// UnmarshalOpts is Unmarshal with non-default decode options.
func UnmarshalOpts(t *schema.Type, buf []byte, out interface{}, opts codec.DecodeOptions) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		var typ reflect.Type
		if out != nil {
			typ = rv.Type()
		}
		return &InvalidUnmarshalError{typ}
	}
	view, err := codec.DecodeOpts(t, buf, opts)
	if err != nil {
		return err
	}
	return assign(view, rv.Elem())
}

func assign(view codec.View, rv reflect.Value) error {
	if rv.CanAddr() && rv.Addr().Type().Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalTabwire(view)
	}

	t := view.Type()
	if t.Kind() == schema.OptionKind {
		return assignOption(view, rv)
	}

	// Allocate through pointers for non-option members.
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	switch t.Kind() {
	case schema.PrimitiveKind:
		return assignPrimitive(view, rv)
	case schema.ArrayKind:
		return assignArray(view, rv)
	case schema.StructKind:
		return assignStruct(view, rv)
	case schema.VectorKind:
		return assignVector(view, rv)
	case schema.TableKind:
		return assignTable(view, rv)
	case schema.UnionKind:
		return assignUnion(view, rv)
	}
	return &UnsupportedTypeError{rv.Type(),
		fmt.Sprintf("cannot decode %s %q", t.Kind(), t.Name())}
}

func assignPrimitive(view codec.View, rv reflect.Value) error {
	t := view.Type()
	switch rv.Kind() {
	case reflect.Uint8:
		if v, err := view.Uint8(); err == nil {
			rv.SetUint(uint64(v))
			return nil
		}
	case reflect.Uint16:
		if v, err := view.Uint16(); err == nil {
			rv.SetUint(uint64(v))
			return nil
		}
	case reflect.Uint32:
		if v, err := view.Uint32(); err == nil {
			rv.SetUint(uint64(v))
			return nil
		}
	case reflect.Uint64:
		if v, err := view.Uint64(); err == nil {
			rv.SetUint(v)
			return nil
		}
	}
	if ok := setRawBytes(rv, view.Bytes()); ok {
		return nil
	}
	return &UnsupportedTypeError{rv.Type(),
		fmt.Sprintf("cannot decode primitive %q of %d bytes", t.Name(), t.Width())}
}

func assignArray(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if ok := setRawBytes(rv, view.Bytes()); ok {
		return nil
	}

	av, err := view.Array()
	if err != nil {
		return err
	}
	n := av.Len()
	switch rv.Kind() {
	case reflect.Slice:
		rv.Set(reflect.MakeSlice(rv.Type(), n, n))
	case reflect.Array:
		if rv.Len() != n {
			return &UnsupportedTypeError{rv.Type(),
				fmt.Sprintf("array %q has %d items", t.Name(), n)}
		}
	default:
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot decode array %q", t.Name())}
	}
	for i := 0; i < n; i++ {
		if err := assign(av.Get(i), rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func assignStruct(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if rv.Kind() != reflect.Struct {
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot decode struct %q", t.Name())}
	}
	sv, err := view.Struct()
	if err != nil {
		return err
	}
	for i := 0; i < sv.Len(); i++ {
		member := t.FieldAt(i)
		idx := fieldIndex(rv.Type(), member.Name)
		if idx < 0 {
			return &NoSuchFieldError{rv.Type(), member.Name}
		}
		if err := assign(sv.Field(i), rv.Field(idx)); err != nil {
			return err
		}
	}
	return nil
}

func assignVector(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if size, fixed := t.Elem().FixedSize(); fixed && size == 1 {
		payload, err := view.ByteString()
		if err == nil {
			if rv.Kind() == reflect.String {
				rv.SetString(string(payload))
				return nil
			}
			if setRawBytes(rv, payload) {
				return nil
			}
		}
	}

	vv, err := view.Vector()
	if err != nil {
		return err
	}
	n := vv.Len()
	if rv.Kind() != reflect.Slice {
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot decode vector %q", t.Name())}
	}
	rv.Set(reflect.MakeSlice(rv.Type(), n, n))
	for i := 0; i < n; i++ {
		if err := assign(vv.Get(i), rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func assignTable(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if rv.Kind() != reflect.Struct {
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("cannot decode table %q", t.Name())}
	}
	tv, err := view.Table()
	if err != nil {
		return err
	}
	for i := 0; i < tv.Len(); i++ {
		member := t.FieldAt(i)
		idx := fieldIndex(rv.Type(), member.Name)
		if idx < 0 {
			return &NoSuchFieldError{rv.Type(), member.Name}
		}
		field, ok := tv.Field(i)
		if !ok {
			// Absent members decode to their zero values.
			rv.Field(idx).Set(reflect.Zero(rv.Field(idx).Type()))
			continue
		}
		if err := assign(field, rv.Field(idx)); err != nil {
			return err
		}
	}
	return nil
}

func assignUnion(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if rv.Type() != unionType {
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("union %q decodes into marshal.Union", t.Name())}
	}
	uv, err := view.Union()
	if err != nil {
		return err
	}
	payload := uv.Value().Bytes()
	u := Union{
		Variant: uv.VariantName(),
		ID:      uv.VariantID(),
		Raw:     make([]byte, len(payload)),
	}
	copy(u.Raw, payload)
	rv.Set(reflect.ValueOf(u))
	return nil
}

func assignOption(view codec.View, rv reflect.Value) error {
	t := view.Type()
	if rv.Kind() != reflect.Ptr {
		return &UnsupportedTypeError{rv.Type(),
			fmt.Sprintf("option %q decodes into a pointer", t.Name())}
	}
	ov, err := view.Option()
	if err != nil {
		return err
	}
	inner, ok := ov.Value()
	if !ok {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	if rv.IsNil() {
		rv.Set(reflect.New(rv.Type().Elem()))
	}
	return assign(inner, rv.Elem())
}

// setRawBytes copies |b| into a []byte or [N]byte target of the same
// length.
func setRawBytes(rv reflect.Value, b []byte) bool {
	switch {
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		out := reflect.MakeSlice(rv.Type(), len(b), len(b))
		reflect.Copy(out, reflect.ValueOf(b))
		rv.Set(out)
		return true
	case rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8:
		if rv.Len() != len(b) {
			return false
		}
		reflect.Copy(rv, reflect.ValueOf(b))
		return true
	}
	return false
}
