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
	"fmt"
	"math"

	"github.com/tabwire/tabwire/schema"
)

// Encode serializes |v| as a value of type |t|. The value's shape
// must agree with the type exactly: sizes for fixed-size types,
// member counts for structs, declared arms for unions. Table values
// may supply fewer members than declared, omitting the tail.
func Encode(t *schema.Type, v Value) ([]byte, error) {
	w := newWireWriter()
	if err := encodeInto(&w, t, v); err != nil {
		return nil, err
	}
	return w.data(), nil
}

func encodeInto(w *wireWriter, t *schema.Type, v Value) error {
	if v == nil {
		return fmt.Errorf("%w: nil value for %s %q", ErrTypeMismatch, t.Kind(), t.Name())
	}
	switch t.Kind() {
	case schema.PrimitiveKind:
		return encodePrimitive(w, t, v)
	case schema.ArrayKind:
		return encodeArray(w, t, v)
	case schema.StructKind:
		return encodeStruct(w, t, v)
	case schema.VectorKind:
		return encodeVector(w, t, v)
	case schema.TableKind:
		return encodeTable(w, t, v)
	case schema.UnionKind:
		return encodeUnion(w, t, v)
	case schema.OptionKind:
		return encodeOption(w, t, v)
	}
	return fmt.Errorf("%w: cannot encode %s type %q", ErrTypeMismatch, t.Kind(), t.Name())
}

func mismatch(t *schema.Type, v Value) error {
	return fmt.Errorf("%w: %s value cannot encode as %s %q", ErrTypeMismatch, v.label(), t.Kind(), t.Name())
}

func encodePrimitive(w *wireWriter, t *schema.Type, v Value) error {
	switch val := v.(type) {
	case rawValue:
		if uint32(len(val)) != uint32(t.Width()) {
			return fmt.Errorf("%w: primitive %q is %d bytes, value has %d",
				ErrSizeMismatch, t.Name(), t.Width(), len(val))
		}
		w.writeRaw(val)
		return nil
	case uintValue:
		if val.width != uint32(t.Width()) {
			return fmt.Errorf("%w: %d-byte uint for primitive %q of width %d",
				ErrTypeMismatch, val.width, t.Name(), t.Width())
		}
		val.encode(w)
		return nil
	}
	return mismatch(t, v)
}

func encodeArray(w *wireWriter, t *schema.Type, v Value) error {
	size, _ := t.FixedSize()
	switch val := v.(type) {
	case rawValue:
		if uint32(len(val)) != uint32(size) {
			return fmt.Errorf("%w: array %q is %d bytes, value has %d",
				ErrSizeMismatch, t.Name(), size, len(val))
		}
		w.writeRaw(val)
		return nil
	case arrayValue:
		if uint32(len(val)) != t.Len() {
			return fmt.Errorf("%w: array %q has %d items, value has %d",
				ErrSizeMismatch, t.Name(), t.Len(), len(val))
		}
		for _, item := range val {
			if err := encodeInto(w, t.Elem(), item); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(t, v)
}

func encodeStruct(w *wireWriter, t *schema.Type, v Value) error {
	size, _ := t.FixedSize()
	switch val := v.(type) {
	case rawValue:
		if uint32(len(val)) != uint32(size) {
			return fmt.Errorf("%w: struct %q is %d bytes, value has %d",
				ErrSizeMismatch, t.Name(), size, len(val))
		}
		w.writeRaw(val)
		return nil
	case structValue:
		if len(val) != t.NumFields() {
			return fmt.Errorf("%w: struct %q declares %d fields, value has %d",
				ErrSizeMismatch, t.Name(), t.NumFields(), len(val))
		}
		for i, field := range val {
			if err := encodeInto(w, t.FieldAt(i).Type, field); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(t, v)
}

func encodeVector(w *wireWriter, t *schema.Type, v Value) error {
	itemSize, itemsFixed := t.Elem().FixedSize()

	switch val := v.(type) {
	case bytesValue:
		if !itemsFixed || itemSize != 1 {
			return fmt.Errorf("%w: bytes value for vector %q of %s items",
				ErrTypeMismatch, t.Name(), t.Elem().Name())
		}
		if err := checkWireLimit(t, numberSize+uint64(len(val))); err != nil {
			return err
		}
		w.writeUint32(uint32(len(val)))
		w.writeRaw(val)
		return nil

	case vectorValue:
		if itemsFixed {
			total := numberSize + uint64(len(val))*uint64(itemSize)
			if err := checkWireLimit(t, total); err != nil {
				return err
			}
			w.writeUint32(uint32(len(val)))
			for _, item := range val {
				if err := encodeInto(w, t.Elem(), item); err != nil {
					return err
				}
			}
			return nil
		}
		return encodeOffsetRegion(w, t, len(val), func(i int) (*schema.Type, Value) {
			return t.Elem(), val[i]
		})
	}
	return mismatch(t, v)
}

func encodeTable(w *wireWriter, t *schema.Type, v Value) error {
	val, ok := v.(tableValue)
	if !ok {
		return mismatch(t, v)
	}
	if len(val) > t.NumFields() {
		return fmt.Errorf("%w: table %q declares %d fields, value has %d",
			ErrTypeMismatch, t.Name(), t.NumFields(), len(val))
	}
	return encodeOffsetRegion(w, t, len(val), func(i int) (*schema.Type, Value) {
		return t.FieldAt(i).Type, val[i]
	})
}

func encodeUnion(w *wireWriter, t *schema.Type, v Value) error {
	val, ok := v.(unionValue)
	if !ok {
		return mismatch(t, v)
	}
	variant, ok := t.VariantByName(val.variant)
	if !ok {
		return fmt.Errorf("%w: union %q has no variant %q", ErrUnknownVariant, t.Name(), val.variant)
	}
	w.writeUint32(variant.ID)
	return encodeInto(w, variant.Type, val.val)
}

func encodeOption(w *wireWriter, t *schema.Type, v Value) error {
	val, ok := v.(optionValue)
	if !ok {
		return mismatch(t, v)
	}
	if val.val == nil {
		// Absent options occupy zero bytes.
		return nil
	}
	return encodeInto(w, t.Elem(), val.val)
}

// encodeOffsetRegion writes the header block of a table or a vector
// of variable-size items: the region's full size, one absolute offset
// per item, then the item encodings back to back. An empty region is
// its full size alone.
func encodeOffsetRegion(w *wireWriter, t *schema.Type, n int, item func(int) (*schema.Type, Value)) error {
	if n == 0 {
		w.writeUint32(numberSize)
		return nil
	}

	scratch := newWireWriter()
	ends := make([]uint32, n)
	for i := 0; i < n; i++ {
		it, iv := item(i)
		if err := encodeInto(&scratch, it, iv); err != nil {
			return err
		}
		ends[i] = scratch.offset
	}

	headerSize := uint64(numberSize) * uint64(1+n)
	if err := checkWireLimit(t, headerSize+uint64(scratch.offset)); err != nil {
		return err
	}

	w.writeUint32(uint32(headerSize) + scratch.offset)
	for i := 0; i < n; i++ {
		start := uint32(0)
		if i > 0 {
			start = ends[i-1]
		}
		w.writeUint32(uint32(headerSize) + start)
	}
	w.writeRaw(scratch.data())
	return nil
}

func checkWireLimit(t *schema.Type, total uint64) error {
	if total > math.MaxUint32 {
		return fmt.Errorf("%w: %s %q encoding exceeds the uint32 size limit",
			ErrSizeMismatch, t.Kind(), t.Name())
	}
	return nil
}
