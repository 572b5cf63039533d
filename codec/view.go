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
	"encoding/binary"
	"fmt"

	"github.com/tabwire/tabwire/schema"
)

// View is a typed window onto verified bytes. Views are produced by
// Decode and by navigating other views; they never copy, so a view is
// only valid while the buffer it was decoded from is unchanged.
//
// A view with a nil Type is opaque: it holds the raw payload of an
// unknown union variant accepted in passthrough mode. Opaque views
// answer Bytes and nothing else.
type View struct {
	t   *schema.Type
	buf []byte
}

// Decode verifies |buf| as an encoding of |t| and returns a view over
// it. The returned view and everything reachable from it borrow
// |buf|; no bytes are copied.
func Decode(t *schema.Type, buf []byte) (View, error) {
	return DecodeOpts(t, buf, DecodeOptions{})
}

// DecodeOpts is Decode with non-default options.
func DecodeOpts(t *schema.Type, buf []byte, opts DecodeOptions) (View, error) {
	if err := verifyValue(t, buf, opts); err != nil {
		return View{}, err
	}
	return View{t, buf}, nil
}

// Type returns the view's type, or nil if the view is opaque.
func (v View) Type() *schema.Type {
	return v.t
}

// Bytes returns the view's backing bytes, borrowed from the decoded
// buffer.
func (v View) Bytes() []byte {
	return v.buf
}

// Opaque reports whether the view holds the payload of an unknown
// union variant.
func (v View) Opaque() bool {
	return v.t == nil
}

func (v View) describe() string {
	if v.t == nil {
		return "opaque bytes"
	}
	return fmt.Sprintf("%s %q", v.t.Kind(), v.t.Name())
}

func (v View) mismatch(want string) error {
	return fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, v.describe(), want)
}

// Uint8 reads the view as a one-byte primitive.
func (v View) Uint8() (uint8, error) {
	if v.t == nil || v.t.Kind() != schema.PrimitiveKind || v.t.Width() != 1 {
		return 0, v.mismatch("1-byte primitive")
	}
	return v.buf[0], nil
}

// Uint16 reads the view as a two-byte little-endian primitive.
func (v View) Uint16() (uint16, error) {
	if v.t == nil || v.t.Kind() != schema.PrimitiveKind || v.t.Width() != 2 {
		return 0, v.mismatch("2-byte primitive")
	}
	return binary.LittleEndian.Uint16(v.buf), nil
}

// Uint32 reads the view as a four-byte little-endian primitive.
func (v View) Uint32() (uint32, error) {
	if v.t == nil || v.t.Kind() != schema.PrimitiveKind || v.t.Width() != 4 {
		return 0, v.mismatch("4-byte primitive")
	}
	return binary.LittleEndian.Uint32(v.buf), nil
}

// Uint64 reads the view as an eight-byte little-endian primitive.
func (v View) Uint64() (uint64, error) {
	if v.t == nil || v.t.Kind() != schema.PrimitiveKind || v.t.Width() != 8 {
		return 0, v.mismatch("8-byte primitive")
	}
	return binary.LittleEndian.Uint64(v.buf), nil
}

// ByteString reads the view as a vector of one-byte items and returns
// the payload after the count header, borrowed.
func (v View) ByteString() ([]byte, error) {
	if v.t == nil || v.t.Kind() != schema.VectorKind {
		return nil, v.mismatch("byte vector")
	}
	if size, fixed := v.t.Elem().FixedSize(); !fixed || size != 1 {
		return nil, v.mismatch("byte vector")
	}
	return v.buf[numberSize:], nil
}

// Array opens the view as a fixed-length array.
func (v View) Array() (ArrayView, error) {
	if v.t == nil || v.t.Kind() != schema.ArrayKind {
		return ArrayView{}, v.mismatch("array")
	}
	return ArrayView{v.t, v.buf}, nil
}

// Struct opens the view as a struct.
func (v View) Struct() (StructView, error) {
	if v.t == nil || v.t.Kind() != schema.StructKind {
		return StructView{}, v.mismatch("struct")
	}
	return StructView{v.t, v.buf}, nil
}

// Vector opens the view as a vector.
func (v View) Vector() (VectorView, error) {
	if v.t == nil || v.t.Kind() != schema.VectorKind {
		return VectorView{}, v.mismatch("vector")
	}
	vv := VectorView{t: v.t, buf: v.buf}
	if size, fixed := v.t.Elem().FixedSize(); fixed {
		vv.itemSize = uint32(size)
		vv.n = int(readUint32(v.buf))
	} else {
		vv.n = regionCount(v.buf)
	}
	return vv, nil
}

// Table opens the view as a table.
func (v View) Table() (TableView, error) {
	if v.t == nil || v.t.Kind() != schema.TableKind {
		return TableView{}, v.mismatch("table")
	}
	return TableView{v.t, v.buf, regionCount(v.buf)}, nil
}

// Union opens the view as a union.
func (v View) Union() (UnionView, error) {
	if v.t == nil || v.t.Kind() != schema.UnionKind {
		return UnionView{}, v.mismatch("union")
	}
	return UnionView{v.t, v.buf}, nil
}

// Option opens the view as an option.
func (v View) Option() (OptionView, error) {
	if v.t == nil || v.t.Kind() != schema.OptionKind {
		return OptionView{}, v.mismatch("option")
	}
	return OptionView{v.t, v.buf}, nil
}

// regionCount derives the item count of a verified offset region from
// its first offset.
func regionCount(buf []byte) int {
	if readUint32(buf) == numberSize {
		return 0
	}
	return int((uint32At(buf, 1) - numberSize) / numberSize)
}

// regionBounds returns the extent of item |i| in a verified offset
// region holding |n| items.
func regionBounds(buf []byte, i, n int) (uint32, uint32) {
	start := uint32At(buf, 1+i)
	if i+1 < n {
		return start, uint32At(buf, 2+i)
	}
	return start, readUint32(buf)
}

// ArrayView is a lazy view over a fixed-length array.
type ArrayView struct {
	t   *schema.Type
	buf []byte
}

// Type returns the array's type.
func (av ArrayView) Type() *schema.Type {
	return av.t
}

// Len returns the array's item count.
func (av ArrayView) Len() int {
	return int(av.t.Len())
}

// Get returns the |i|th item. It panics if |i| is out of range.
func (av ArrayView) Get(i int) View {
	if i < 0 || i >= av.Len() {
		panic(fmt.Sprintf("item %d out of range in array %q of %d", i, av.t.Name(), av.Len()))
	}
	size, _ := av.t.Elem().FixedSize()
	start := uint32(i) * uint32(size)
	return View{av.t.Elem(), av.buf[start : start+uint32(size)]}
}

// StructView is a lazy view over a struct.
type StructView struct {
	t   *schema.Type
	buf []byte
}

// Type returns the struct's type.
func (sv StructView) Type() *schema.Type {
	return sv.t
}

// Len returns the struct's member count.
func (sv StructView) Len() int {
	return sv.t.NumFields()
}

// Field returns the |i|th member. Struct members are always present.
// It panics if |i| is out of range.
func (sv StructView) Field(i int) View {
	if i < 0 || i >= sv.Len() {
		panic(fmt.Sprintf("field %d out of range in struct %q of %d", i, sv.t.Name(), sv.Len()))
	}
	ft := sv.t.FieldAt(i).Type
	size, _ := ft.FixedSize()
	start := uint32(sv.t.FieldOffset(i))
	return View{ft, sv.buf[start : start+uint32(size)]}
}

// FieldByName returns the named member, or false if the struct does
// not declare it.
func (sv StructView) FieldByName(name string) (View, bool) {
	i, ok := sv.t.FieldIndex(name)
	if !ok {
		return View{}, false
	}
	return sv.Field(i), true
}

// VectorView is a lazy view over a vector.
type VectorView struct {
	t        *schema.Type
	buf      []byte
	n        int
	itemSize uint32 // nonzero when items have fixed size
}

// Type returns the vector's type.
func (vv VectorView) Type() *schema.Type {
	return vv.t
}

// Len returns the vector's item count.
func (vv VectorView) Len() int {
	return vv.n
}

// Get returns the |i|th item. It panics if |i| is out of range.
func (vv VectorView) Get(i int) View {
	if i < 0 || i >= vv.n {
		panic(fmt.Sprintf("item %d out of range in vector %q of %d", i, vv.t.Name(), vv.n))
	}
	if vv.itemSize > 0 {
		start := numberSize + uint32(i)*vv.itemSize
		return View{vv.t.Elem(), vv.buf[start : start+vv.itemSize]}
	}
	start, stop := regionBounds(vv.buf, i, vv.n)
	return View{vv.t.Elem(), vv.buf[start:stop]}
}

// TableView is a lazy view over a table. A table encoded by an older
// schema may omit trailing members; Has and Field report those as
// absent. A table encoded by a newer schema may carry members beyond
// the declared count; those are ignored.
type TableView struct {
	t   *schema.Type
	buf []byte
	n   int // encoded member count
}

// Type returns the table's type.
func (tv TableView) Type() *schema.Type {
	return tv.t
}

// Len returns the declared member count.
func (tv TableView) Len() int {
	return tv.t.NumFields()
}

// EncodedLen returns the member count actually present in the bytes,
// which may differ from Len across schema versions.
func (tv TableView) EncodedLen() int {
	return tv.n
}

// Has reports whether member |i| is present in the encoding. It
// panics if |i| is outside the declared members.
func (tv TableView) Has(i int) bool {
	if i < 0 || i >= tv.Len() {
		panic(fmt.Sprintf("field %d out of range in table %q of %d", i, tv.t.Name(), tv.Len()))
	}
	return i < tv.n
}

// Field returns member |i|, or false if the encoding omits it. It
// panics if |i| is outside the declared members.
func (tv TableView) Field(i int) (View, bool) {
	if !tv.Has(i) {
		return View{}, false
	}
	start, stop := regionBounds(tv.buf, i, tv.n)
	return View{tv.t.FieldAt(i).Type, tv.buf[start:stop]}, true
}

// FieldByName returns the named member, or false if the table does
// not declare it or the encoding omits it.
func (tv TableView) FieldByName(name string) (View, bool) {
	i, ok := tv.t.FieldIndex(name)
	if !ok {
		return View{}, false
	}
	return tv.Field(i)
}

// UnionView is a lazy view over a union.
type UnionView struct {
	t   *schema.Type
	buf []byte
}

// Type returns the union's type.
func (uv UnionView) Type() *schema.Type {
	return uv.t
}

// VariantID returns the wire tag of the encoded variant.
func (uv UnionView) VariantID() uint32 {
	return readUint32(uv.buf)
}

// Known reports whether the schema declares the encoded variant.
// Unknown variants only survive verification in passthrough mode.
func (uv UnionView) Known() bool {
	_, ok := uv.t.VariantByID(uv.VariantID())
	return ok
}

// VariantName returns the name of the encoded variant, or "" if the
// schema does not declare it.
func (uv UnionView) VariantName() string {
	if v, ok := uv.t.VariantByID(uv.VariantID()); ok {
		return v.Name
	}
	return ""
}

// Value returns the variant payload. For an unknown variant the
// returned view is opaque.
func (uv UnionView) Value() View {
	payload := uv.buf[numberSize:]
	if v, ok := uv.t.VariantByID(uv.VariantID()); ok {
		return View{v.Type, payload}
	}
	return View{nil, payload}
}

// OptionView is a lazy view over an option.
type OptionView struct {
	t   *schema.Type
	buf []byte
}

// Type returns the option's type.
func (ov OptionView) Type() *schema.Type {
	return ov.t
}

// IsSome reports whether the payload is present.
func (ov OptionView) IsSome() bool {
	return len(ov.buf) > 0
}

// Value returns the payload view, or false if the option is absent.
func (ov OptionView) Value() (View, bool) {
	if !ov.IsSome() {
		return View{}, false
	}
	return View{ov.t.Elem(), ov.buf}, true
}
