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

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"

	"github.com/tabwire/tabwire/cmd/tabwire/util"
	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/schema"
)

func tabwireShow(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, util.KingpinHandler) {
	show := app.Command("show", "decode a file and print its value tree")
	manifest := show.Flag("manifest", "schema manifest to read; defaults to the builtin witness schema").Short('m').String()
	typeName := show.Flag("type", "type the buffer encodes").Short('t').Required().String()
	lax := show.Flag("lax", "keep unknown union variants opaque instead of failing").Bool()
	file := show.Arg("file", "file holding the encoded value").Required().String()

	return show, func(input string) int {
		reg, err := loadRegistry(*manifest)
		if err != nil {
			return fail(err)
		}
		t, ok := reg.Lookup(*typeName)
		if !ok {
			return fail(fmt.Errorf("schema %q declares no type %q", reg.Name(), *typeName))
		}
		buf, err := os.ReadFile(*file)
		if err != nil {
			return fail(err)
		}

		v, err := codec.DecodeOpts(t, buf, codec.DecodeOptions{PassthroughUnions: *lax})
		if err != nil {
			return fail(err)
		}
		renderView(os.Stdout, *file, v, 0)
		return 0
	}
}

// maxShownItems caps vector and array expansion in show output.
const maxShownItems = 16

func renderView(w io.Writer, label string, v codec.View, depth int) {
	ind := strings.Repeat("  ", depth)
	if v.Opaque() {
		fmt.Fprintf(w, "%s%s : opaque %s = %s\n",
			ind, label, humanize.Bytes(uint64(len(v.Bytes()))), hexPreview(v.Bytes()))
		return
	}

	t := v.Type()
	switch t.Kind() {
	case schema.PrimitiveKind:
		fmt.Fprintf(w, "%s%s : %s = %s\n", ind, label, t.Name(), primitiveString(v))

	case schema.ArrayKind:
		if size, fixed := t.Elem().FixedSize(); fixed && size == 1 &&
			t.Elem().Kind() == schema.PrimitiveKind {
			fmt.Fprintf(w, "%s%s : %s = %s\n", ind, label, t.Name(), hexPreview(v.Bytes()))
			return
		}
		av, _ := v.Array()
		fmt.Fprintf(w, "%s%s : %s, %d items\n", ind, label, t.Name(), av.Len())
		for i := 0; i < av.Len() && i < maxShownItems; i++ {
			renderView(w, fmt.Sprintf("[%d]", i), av.Get(i), depth+1)
		}
		if av.Len() > maxShownItems {
			fmt.Fprintf(w, "%s  … %d more items\n", ind, av.Len()-maxShownItems)
		}

	case schema.StructKind:
		sv, _ := v.Struct()
		fmt.Fprintf(w, "%s%s : %s struct, %s\n",
			ind, label, t.Name(), humanize.Bytes(uint64(len(v.Bytes()))))
		for i := 0; i < sv.Len(); i++ {
			f := t.FieldAt(i)
			renderView(w, fmt.Sprintf("%s @%d", f.Name, t.FieldOffset(i)), sv.Field(i), depth+1)
		}

	case schema.VectorKind:
		if size, fixed := t.Elem().FixedSize(); fixed && size == 1 &&
			t.Elem().Kind() == schema.PrimitiveKind {
			payload, _ := v.ByteString()
			fmt.Fprintf(w, "%s%s : %s, %s = %s\n",
				ind, label, t.Name(), humanize.Bytes(uint64(len(payload))), hexPreview(payload))
			return
		}
		vv, _ := v.Vector()
		fmt.Fprintf(w, "%s%s : %s, %d items, %s\n",
			ind, label, t.Name(), vv.Len(), humanize.Bytes(uint64(len(v.Bytes()))))
		offs := itemOffsets(t, v.Bytes(), vv.Len())
		for i := 0; i < vv.Len() && i < maxShownItems; i++ {
			renderView(w, fmt.Sprintf("[%d] @%d", i, offs[i]), vv.Get(i), depth+1)
		}
		if vv.Len() > maxShownItems {
			fmt.Fprintf(w, "%s  … %d more items\n", ind, vv.Len()-maxShownItems)
		}

	case schema.TableKind:
		tv, _ := v.Table()
		present := 0
		for i := 0; i < tv.Len(); i++ {
			if tv.Has(i) {
				present++
			}
		}
		extra := ""
		if tv.EncodedLen() > tv.Len() {
			extra = fmt.Sprintf(", %d unknown trailing members", tv.EncodedLen()-tv.Len())
		}
		fmt.Fprintf(w, "%s%s : %s table, %d of %d members, %s%s\n",
			ind, label, t.Name(), present, tv.Len(), humanize.Bytes(uint64(len(v.Bytes()))), extra)
		for i := 0; i < tv.Len(); i++ {
			f := t.FieldAt(i)
			fv, ok := tv.Field(i)
			if !ok {
				fmt.Fprintf(w, "%s  %s : absent\n", ind, f.Name)
				continue
			}
			off := binary.LittleEndian.Uint32(v.Bytes()[4+4*i:])
			renderView(w, fmt.Sprintf("%s @%d", f.Name, off), fv, depth+1)
		}

	case schema.UnionKind:
		uv, _ := v.Union()
		if !uv.Known() {
			fmt.Fprintf(w, "%s%s : %s union, unknown variant %d, payload = %s\n",
				ind, label, t.Name(), uv.VariantID(), hexPreview(uv.Value().Bytes()))
			return
		}
		fmt.Fprintf(w, "%s%s : %s union, variant %s (%d)\n",
			ind, label, t.Name(), uv.VariantName(), uv.VariantID())
		renderView(w, uv.VariantName(), uv.Value(), depth+1)

	case schema.OptionKind:
		ov, _ := v.Option()
		inner, ok := ov.Value()
		if !ok {
			fmt.Fprintf(w, "%s%s : %s = none\n", ind, label, t.Name())
			return
		}
		fmt.Fprintf(w, "%s%s : %s, some\n", ind, label, t.Name())
		renderView(w, "value", inner, depth+1)
	}
}

// itemOffsets answers where each vector item starts relative to the
// start of the vector's encoding.
func itemOffsets(t *schema.Type, buf []byte, n int) []uint32 {
	offs := make([]uint32, n)
	if size, fixed := t.Elem().FixedSize(); fixed {
		for i := range offs {
			offs[i] = 4 + uint32(i)*uint32(size)
		}
		return offs
	}
	for i := range offs {
		offs[i] = binary.LittleEndian.Uint32(buf[4+4*i:])
	}
	return offs
}

func primitiveString(v codec.View) string {
	switch v.Type().Width() {
	case 1:
		n, _ := v.Uint8()
		return fmt.Sprintf("%d", n)
	case 2:
		n, _ := v.Uint16()
		return fmt.Sprintf("%d", n)
	case 4:
		n, _ := v.Uint32()
		return fmt.Sprintf("%d", n)
	case 8:
		n, _ := v.Uint64()
		return fmt.Sprintf("%d", n)
	}
	return hexPreview(v.Bytes())
}

func hexPreview(b []byte) string {
	const max = 16
	if len(b) == 0 {
		return "(empty)"
	}
	if len(b) <= max {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x … (%s)", b[:max], humanize.Bytes(uint64(len(b))))
}
