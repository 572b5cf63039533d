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
	"path/filepath"

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/tabwire/tabwire/artifact"
	"github.com/tabwire/tabwire/cmd/tabwire/util"
	"github.com/tabwire/tabwire/packfile"
)

func tabwireUnpack(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, util.KingpinHandler) {
	unpack := app.Command("unpack", "extract the records of a pack file")
	manifest := unpack.Flag("manifest", "schema manifest to verify records against").Short('m').String()
	dir := unpack.Flag("dir", "directory to write records into").Short('d').Default(".").String()
	skipVerify := unpack.Flag("skip-verify", "do not verify records against the schema").Bool()
	file := unpack.Arg("file", "pack file to read").Required().String()

	return unpack, func(input string) int {
		r, err := packfile.ReadFile(*file)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%s: schema %q, %d records\n", *file, r.SchemaName(), r.Len())

		switch {
		case *skipVerify:
		case *manifest == "" && r.SchemaName() != artifact.SchemaName:
			fmt.Printf("no manifest for schema %q, skipping verification\n", r.SchemaName())
		default:
			reg, err := loadRegistry(*manifest)
			if err != nil {
				return fail(err)
			}
			if err := r.Verify(ctx, reg); err != nil {
				fmt.Printf("%s %v\n", color.RedString("FAIL"), err)
				return 1
			}
			fmt.Printf("%s all records verify\n", color.GreenString("ok"))
		}

		if err := os.MkdirAll(*dir, os.ModePerm); err != nil {
			return fail(err)
		}
		for i, rec := range r.Records() {
			name := fmt.Sprintf("%03d_%s.bin", i, rec.TypeName)
			if err := os.WriteFile(filepath.Join(*dir, name), rec.Data, 0644); err != nil {
				return fail(err)
			}
			fmt.Printf("  %-32s %s\n", name, humanize.Bytes(uint64(len(rec.Data))))
		}
		return 0
	}
}
