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

// Package util holds the command plumbing shared by the tabwire tool.
package util

import (
	"context"

	"github.com/attic-labs/kingpin"
)

// KingpinHandler runs a parsed command line and returns an exit code.
type KingpinHandler func(input string) (exitCode int)

// KingpinCommand installs a command on |app| and returns its clause
// together with the handler to run when the clause is selected.
type KingpinCommand func(ctx context.Context, app *kingpin.Application) (*kingpin.CmdClause, KingpinHandler)
