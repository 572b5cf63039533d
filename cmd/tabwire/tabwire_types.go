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
	"fmt"

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"

	"github.com/tabwire/tabwire/cmd/tabwire/util"
)

func tabwireTypes(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, util.KingpinHandler) {
	types := app.Command("types", "list the resolved types of a schema")
	manifest := types.Flag("manifest", "schema manifest to read; defaults to the builtin witness schema").Short('m').String()

	return types, func(input string) int {
		reg, err := loadRegistry(*manifest)
		if err != nil {
			return fail(err)
		}

		name := reg.Name()
		if name == "" {
			name = "schema"
		}
		fmt.Printf("%s: %d types\n", name, reg.NumTypes())
		for _, t := range reg.Types() {
			size := "variable"
			if s, fixed := t.FixedSize(); fixed {
				size = humanize.Bytes(uint64(s))
			}
			fmt.Printf("%4d  %-48s %s\n", t.ID(), t.Describe(), size)
		}
		return 0
	}
}
