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

	"github.com/attic-labs/kingpin"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/tabwire/tabwire/cmd/tabwire/util"
	"github.com/tabwire/tabwire/codec"
)

func tabwireVerify(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, util.KingpinHandler) {
	verify := app.Command("verify", "check that a file holds a well formed encoding of a type")
	manifest := verify.Flag("manifest", "schema manifest to read; defaults to the builtin witness schema").Short('m').String()
	typeName := verify.Flag("type", "type the buffer claims to encode").Short('t').Required().String()
	file := verify.Arg("file", "file holding the encoded value").Required().String()

	return verify, func(input string) int {
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

		if err := codec.Verify(t, buf); err != nil {
			fmt.Printf("%s %s is not a %s: %v\n", color.RedString("FAIL"), *file, t.Name(), err)
			return 1
		}
		fmt.Printf("%s %s is a %s (%s)\n", color.GreenString("ok"), *file, t.Name(),
			humanize.Bytes(uint64(len(buf))))
		return 0
	}
}
