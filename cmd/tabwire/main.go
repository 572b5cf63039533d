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

// Tabwire is a tool for inspecting encoded values, schemas and pack
// files from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/attic-labs/kingpin"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/tabwire/tabwire/artifact"
	"github.com/tabwire/tabwire/cmd/tabwire/util"
	"github.com/tabwire/tabwire/schema"
)

var kingpinCommands = []util.KingpinCommand{
	tabwireTypes,
	tabwireVerify,
	tabwireShow,
	tabwirePack,
	tabwireUnpack,
}

func main() {
	kingpin.EnableFileExpansion = false
	app := kingpin.New("tabwire", "Tabwire is a tool for inspecting encoded values and pack files.")
	app.HelpFlag.Short('h')

	verboseVal := app.Flag("verbose", "show more").Short('v').Bool()

	handlers := map[string]util.KingpinHandler{}
	for _, cmdFunction := range kingpinCommands {
		command, handler := cmdFunction(context.Background(), app)
		handlers[command.FullCommand()] = handler
	}

	input := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *verboseVal {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if handler := handlers[strings.Split(input, " ")[0]]; handler != nil {
		os.Exit(handler(input))
	}
}

// loadRegistry resolves the schema a command works against: the
// manifest at |path| when one was given, the builtin witness schema
// otherwise.
func loadRegistry(path string) (*schema.Registry, error) {
	if path == "" {
		return artifact.Registry(), nil
	}
	return schema.LoadManifestFile(path)
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	return 1
}
