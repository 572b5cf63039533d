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
	"os"
	"strings"

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"

	"github.com/tabwire/tabwire/cmd/tabwire/util"
	"github.com/tabwire/tabwire/codec"
	"github.com/tabwire/tabwire/packfile"
)

func tabwirePack(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, util.KingpinHandler) {
	pack := app.Command("pack", "bundle encoded values into a pack file")
	manifest := pack.Flag("manifest", "schema manifest to read; defaults to the builtin witness schema").Short('m').String()
	out := pack.Flag("out", "pack file to write").Short('o').Required().String()
	entries := pack.Arg("records", "records to pack, each as Type=file").Required().Strings()

	return pack, func(input string) int {
		reg, err := loadRegistry(*manifest)
		if err != nil {
			return fail(err)
		}

		var records []packfile.Record
		total := 0
		for _, entry := range *entries {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fail(fmt.Errorf("record %q is not of the form Type=file", entry))
			}
			name, path := parts[0], parts[1]
			t, ok := reg.Lookup(name)
			if !ok {
				return fail(fmt.Errorf("schema %q declares no type %q", reg.Name(), name))
			}
			buf, err := os.ReadFile(path)
			if err != nil {
				return fail(err)
			}
			if err := codec.Verify(t, buf); err != nil {
				return fail(fmt.Errorf("%s is not a %s: %w", path, name, err))
			}
			records = append(records, packfile.Record{TypeName: name, Data: buf})
			total += len(buf)
		}

		if err := packfile.WriteFile(*out, reg.Name(), records); err != nil {
			return fail(err)
		}
		fmt.Printf("packed %d records (%s) into %s\n",
			len(records), humanize.Bytes(uint64(total)), *out)
		return 0
	}
}
