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

	"github.com/tabwire/tabwire/schema"
)

// DecodeOptions adjust how buffers are verified and decoded.
type DecodeOptions struct {
	// PassthroughUnions accepts union values whose variant id the
	// schema does not declare. The decoded view exposes the raw tag
	// and payload so unknown variants can be carried through intact.
	PassthroughUnions bool
}

// Verify checks that |buf| is a well-formed encoding of type |t|:
// sizes agree, every offset table obeys the offset rules, and every
// reachable child is well formed in turn. A buffer that passes Verify
// can be navigated by views without further bounds checks.
func Verify(t *schema.Type, buf []byte) error {
	return verifyValue(t, buf, DecodeOptions{})
}

// VerifyOpts is Verify with non-default options.
func VerifyOpts(t *schema.Type, buf []byte, opts DecodeOptions) error {
	return verifyValue(t, buf, opts)
}

func verifyValue(t *schema.Type, buf []byte, opts DecodeOptions) error {
	// Fixed-size values are raw bytes with no headers, so their
	// length is the whole contract.
	if size, fixed := t.FixedSize(); fixed {
		if uint64(len(buf)) != uint64(size) {
			return fmt.Errorf("%w: %s %q is %d bytes, buffer has %d",
				ErrSizeMismatch, t.Kind(), t.Name(), size, len(buf))
		}
		return nil
	}

	switch t.Kind() {
	case schema.VectorKind:
		return verifyVector(t, buf, opts)
	case schema.TableKind:
		return verifyTable(t, buf, opts)
	case schema.UnionKind:
		return verifyUnion(t, buf, opts)
	case schema.OptionKind:
		if len(buf) == 0 {
			return nil
		}
		return verifyValue(t.Elem(), buf, opts)
	}
	return fmt.Errorf("%w: cannot verify %s type %q", ErrTypeMismatch, t.Kind(), t.Name())
}

func verifyVector(t *schema.Type, buf []byte, opts DecodeOptions) error {
	itemSize, itemsFixed := t.Elem().FixedSize()

	if itemsFixed {
		if len(buf) < numberSize {
			return fmt.Errorf("%w: vector %q: %d bytes cannot hold the count header",
				ErrBufferTooShort, t.Name(), len(buf))
		}
		count := readUint32(buf)
		need := numberSize + uint64(count)*uint64(itemSize)
		have := uint64(len(buf))
		if have < need {
			return fmt.Errorf("%w: vector %q declares %d items of %d bytes, buffer has %d bytes",
				ErrBufferTooShort, t.Name(), count, itemSize, have)
		}
		if have > need {
			return fmt.Errorf("%w: vector %q declares %d items of %d bytes, buffer has %d trailing bytes",
				ErrSizeMismatch, t.Name(), count, itemSize, have-need)
		}
		// Fixed-size items are raw bytes; the arithmetic above
		// already verified them.
		return nil
	}

	bounds, err := offsetBounds(t, buf)
	if err != nil {
		return err
	}
	for i := 0; i+1 < len(bounds); i++ {
		if err := verifyValue(t.Elem(), buf[bounds[i]:bounds[i+1]], opts); err != nil {
			return err
		}
	}
	return nil
}

func verifyTable(t *schema.Type, buf []byte, opts DecodeOptions) error {
	bounds, err := offsetBounds(t, buf)
	if err != nil {
		return err
	}
	// Fields beyond the declared count were appended by a newer
	// schema; their bounds are checked but their contents are opaque.
	n := len(bounds) - 1
	for i := 0; i < n && i < t.NumFields(); i++ {
		ft := t.FieldAt(i).Type
		if err := verifyValue(ft, buf[bounds[i]:bounds[i+1]], opts); err != nil {
			return err
		}
	}
	return nil
}

func verifyUnion(t *schema.Type, buf []byte, opts DecodeOptions) error {
	if len(buf) < numberSize {
		return fmt.Errorf("%w: union %q: %d bytes cannot hold the variant tag",
			ErrBufferTooShort, t.Name(), len(buf))
	}
	id := readUint32(buf)
	variant, ok := t.VariantByID(id)
	if !ok {
		if opts.PassthroughUnions {
			return nil
		}
		return fmt.Errorf("%w: union %q has no variant id %d", ErrUnknownVariant, t.Name(), id)
	}
	return verifyValue(variant.Type, buf[numberSize:], opts)
}

// offsetBounds validates the header block of a table or a vector of
// variable-size items and returns the item boundaries: bounds[i] is
// where item i starts and bounds[i+1] is where it ends. The last
// boundary is the region's full size. An empty region yields a single
// boundary and no items.
//
// The offset rules: the full size must equal the buffer length, the
// first offset fixes the item count and must land on a whole number
// of header slots, and offsets may never decrease. Zero-length items
// are legal, so equal adjacent offsets are allowed.
func offsetBounds(t *schema.Type, buf []byte) ([]uint32, error) {
	have := uint64(len(buf))
	if have < numberSize {
		return nil, fmt.Errorf("%w: %s %q: %d bytes cannot hold the size header",
			ErrBufferTooShort, t.Kind(), t.Name(), have)
	}
	full := readUint32(buf)
	if uint64(full) > have {
		return nil, fmt.Errorf("%w: %s %q declares %d bytes, buffer has %d",
			ErrBufferTooShort, t.Kind(), t.Name(), full, have)
	}
	if uint64(full) < have {
		return nil, fmt.Errorf("%w: %s %q declares %d bytes, buffer has %d",
			ErrMalformedOffsetTable, t.Kind(), t.Name(), full, have)
	}

	if full == numberSize {
		return []uint32{numberSize}, nil
	}
	if full < 2*numberSize {
		return nil, fmt.Errorf("%w: %s %q: full size %d cannot hold an offset",
			ErrMalformedOffsetTable, t.Kind(), t.Name(), full)
	}

	first := uint32At(buf, 1)
	if first > full {
		return nil, fmt.Errorf("%w: %s %q: first offset %d is past the end %d",
			ErrMalformedOffsetTable, t.Kind(), t.Name(), first, full)
	}
	if first < 2*numberSize || (first-numberSize)%numberSize != 0 {
		return nil, fmt.Errorf("%w: %s %q: first offset %d does not start a header of whole slots",
			ErrMalformedOffsetTable, t.Kind(), t.Name(), first)
	}

	count := (first - numberSize) / numberSize
	bounds := make([]uint32, count+1)
	for i := uint32(0); i < count; i++ {
		bounds[i] = uint32At(buf, int(1+i))
	}
	bounds[count] = full

	for i := 0; i < int(count); i++ {
		if bounds[i] > bounds[i+1] {
			return nil, fmt.Errorf("%w: %s %q: offsets decrease at item %d (%d then %d)",
				ErrMalformedOffsetTable, t.Kind(), t.Name(), i, bounds[i], bounds[i+1])
		}
	}
	return bounds, nil
}
