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

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Manifest is the YAML form of a schema. It exists so schemas can be
// checked in next to the data they describe and loaded without
// recompiling.
type Manifest struct {
	Schema string         `yaml:"schema,omitempty"`
	Types  []ManifestType `yaml:"types"`
}

// ManifestType is one declaration in a manifest. Which fields apply
// depends on Kind: width for primitives, elem for vectors and
// options, elem and len for arrays, fields for structs and tables,
// variants for unions.
type ManifestType struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Width    uint32            `yaml:"width,omitempty"`
	Elem     string            `yaml:"elem,omitempty"`
	Len      uint32            `yaml:"len,omitempty"`
	Fields   []ManifestField   `yaml:"fields,omitempty"`
	Variants []ManifestVariant `yaml:"variants,omitempty"`
}

// ManifestField is one member of a struct or table declaration.
type ManifestField struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ManifestVariant is one arm of a union declaration. The wire tag may
// be omitted, in which case arms are tagged in order starting at
// zero. Tags must be given for all arms or for none.
type ManifestVariant struct {
	Type string  `yaml:"type"`
	ID   *uint32 `yaml:"id,omitempty"`
}

// ParseManifest decodes a YAML manifest and resolves it into a
// frozen registry.
func ParseManifest(data []byte) (*Registry, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, errors.Wrap(err, "parsing schema manifest")
	}
	return m.Registry()
}

// ReadManifest decodes a YAML manifest from |rd| and resolves it.
func ReadManifest(rd io.Reader) (*Registry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema manifest")
	}
	return ParseManifest(data)
}

// LoadManifestFile reads and resolves the manifest at |path|.
func LoadManifestFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema manifest %s", path)
	}
	reg, err := ParseManifest(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading schema manifest %s", path)
	}
	return reg, nil
}

// Registry turns the manifest into declarations and resolves them.
func (m Manifest) Registry() (*Registry, error) {
	r := NewRegistry()
	r.SetName(m.Schema)

	for _, mt := range m.Types {
		kind, ok := kindFromString(mt.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: type %q has unknown kind %q", ErrInvalidDefinition, mt.Name, mt.Kind)
		}
		switch kind {
		case PrimitiveKind:
			r.DeclarePrimitive(mt.Name, mt.Width)
		case ArrayKind:
			r.DeclareArray(mt.Name, mt.Elem, mt.Len)
		case VectorKind:
			r.DeclareVector(mt.Name, mt.Elem)
		case OptionKind:
			r.DeclareOption(mt.Name, mt.Elem)
		case StructKind, TableKind:
			fields := make([]FieldDecl, len(mt.Fields))
			for i, f := range mt.Fields {
				fields[i] = FieldDecl{Name: f.Name, Type: f.Type}
			}
			if kind == StructKind {
				r.DeclareStruct(mt.Name, fields...)
			} else {
				r.DeclareTable(mt.Name, fields...)
			}
		case UnionKind:
			variants, err := manifestVariants(mt)
			if err != nil {
				return nil, err
			}
			r.DeclareUnionWithIDs(mt.Name, variants...)
		}
	}

	if err := r.Resolve(); err != nil {
		return nil, err
	}
	return r, nil
}

// manifestVariants assigns wire tags to a union's arms. Explicit tags
// are all or nothing; a mix would make the implied tags ambiguous.
func manifestVariants(mt ManifestType) ([]VariantDecl, error) {
	tagged := 0
	for _, v := range mt.Variants {
		if v.ID != nil {
			tagged++
		}
	}
	if tagged != 0 && tagged != len(mt.Variants) {
		return nil, fmt.Errorf("%w: union %q mixes explicit and implied variant ids", ErrInvalidDefinition, mt.Name)
	}

	out := make([]VariantDecl, len(mt.Variants))
	for i, v := range mt.Variants {
		id := uint32(i)
		if v.ID != nil {
			id = *v.ID
		}
		out[i] = VariantDecl{Type: v.Type, ID: id}
	}
	return out, nil
}

// Manifest renders the resolved registry back into its YAML form.
// The predeclared "byte" type is implied and not emitted. Variant ids
// are always written explicitly.
func (r *Registry) Manifest() Manifest {
	r.mustBeResolved()

	m := Manifest{Schema: r.name}
	for _, d := range r.decls {
		if d.builtin {
			continue
		}
		mt := ManifestType{Name: d.name, Kind: d.kind.String()}
		switch d.kind {
		case PrimitiveKind:
			mt.Width = d.width
		case ArrayKind:
			mt.Elem = d.elem
			mt.Len = d.length
		case VectorKind, OptionKind:
			mt.Elem = d.elem
		case StructKind, TableKind:
			mt.Fields = make([]ManifestField, len(d.fields))
			for i, f := range d.fields {
				mt.Fields[i] = ManifestField{Name: f.Name, Type: f.Type}
			}
		case UnionKind:
			mt.Variants = make([]ManifestVariant, len(d.variants))
			for i, v := range d.variants {
				id := v.ID
				mt.Variants[i] = ManifestVariant{Type: v.Type, ID: &id}
			}
		}
		m.Types = append(m.Types, mt)
	}
	return m
}

// WriteManifest writes the registry's manifest as YAML.
func (r *Registry) WriteManifest(w io.Writer) error {
	data, err := yaml.Marshal(r.Manifest())
	if err != nil {
		return errors.Wrap(err, "encoding schema manifest")
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "writing schema manifest")
}
