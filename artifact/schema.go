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

// Package artifact carries typed bindings for the extended witness
// schema: signing actions attached to transactions, grouped into
// messages, and wrapped in a witness union alongside plain sighash
// locks and open transaction markers.
package artifact

import (
	"sync"

	"github.com/tabwire/tabwire/schema"
)

// SchemaName labels the witness schema in manifests and pack files.
const SchemaName = "extended-witness"

// Variant names of the ExtendedWitness union, in tag order.
const (
	VariantSighashWithAction = "SighashWithAction"
	VariantSighash           = "Sighash"
	VariantOtx               = "Otx"
	VariantOtxStart          = "OtxStart"
)

var (
	registryOnce sync.Once
	registry     *schema.Registry
)

// Registry returns the resolved witness schema. The same registry is
// shared by all callers; it is immutable.
func Registry() *schema.Registry {
	registryOnce.Do(func() {
		r := schema.NewRegistry()
		r.SetName(SchemaName)

		r.DeclarePrimitive("Uint32", 4)
		r.DeclareArray("Hash", "byte", 32)
		r.DeclareVector("Bytes", "byte")

		r.DeclareTable("Action",
			schema.FieldDecl{Name: "script_info_hash", Type: "Hash"},
			schema.FieldDecl{Name: "script_hash", Type: "Hash"},
			schema.FieldDecl{Name: "data", Type: "Bytes"},
		)
		r.DeclareVector("ActionVec", "Action")
		r.DeclareTable("Message",
			schema.FieldDecl{Name: "actions", Type: "ActionVec"},
		)

		r.DeclareTable("SighashWithAction",
			schema.FieldDecl{Name: "lock", Type: "Bytes"},
			schema.FieldDecl{Name: "message", Type: "Message"},
		)
		r.DeclareTable("Sighash",
			schema.FieldDecl{Name: "lock", Type: "Bytes"},
		)
		r.DeclareTable("OtxStart",
			schema.FieldDecl{Name: "start_input_cell", Type: "Uint32"},
			schema.FieldDecl{Name: "start_output_cell", Type: "Uint32"},
			schema.FieldDecl{Name: "start_cell_deps", Type: "Uint32"},
			schema.FieldDecl{Name: "start_header_deps", Type: "Uint32"},
		)
		r.DeclareTable("Otx",
			schema.FieldDecl{Name: "lock", Type: "Bytes"},
			schema.FieldDecl{Name: "input_cells", Type: "Uint32"},
			schema.FieldDecl{Name: "output_cells", Type: "Uint32"},
			schema.FieldDecl{Name: "cell_deps", Type: "Uint32"},
			schema.FieldDecl{Name: "header_deps", Type: "Uint32"},
			schema.FieldDecl{Name: "message", Type: "Message"},
		)

		r.DeclareUnion("ExtendedWitness",
			VariantSighashWithAction,
			VariantSighash,
			VariantOtx,
			VariantOtxStart,
		)

		if err := r.Resolve(); err != nil {
			panic(err) // the witness schema is hardwired; this cannot fail
		}
		registry = r
	})
	return registry
}

// Type returns the named type from the witness schema.
func Type(name string) *schema.Type {
	return Registry().MustLookup(name)
}
