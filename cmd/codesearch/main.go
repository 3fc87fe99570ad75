// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

// Package main implements the codesearch CLI: indexing source repositories
// into a hybrid BM25 + vector index, searching them, and running the
// indexing job queue as a long-lived worker.
//
// Usage:
//
//	codesearch init                 Create .codesearch/project.yaml
//	codesearch index <path>          Index a repository
//	codesearch search <query>        Search the index
//	codesearch worker <path>...      Drain an indexing job queue
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codesearch/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

// GlobalFlags are flags recognized before the subcommand name and threaded
// through to every command, the way the teacher's CLI passes shared
// output/verbosity settings down to each runXxx function.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

func main() {
	root := flag.NewFlagSet("codesearch", flag.ContinueOnError)
	showVersion := root.Bool("version", false, "Show version and exit")
	jsonOut := root.Bool("json", false, "Output as JSON where supported")
	quiet := root.BoolP("quiet", "q", false, "Suppress progress output")
	noColor := root.Bool("no-color", false, "Disable colored output")
	verbose := root.CountP("verbose", "v", "Increase log verbosity (repeatable)")

	root.Usage = func() {
		fmt.Fprintf(os.Stderr, `codesearch - hybrid lexical/semantic code search

Usage:
  codesearch <command> [options]

Commands:
  init     Create .codesearch/project.yaml
  index    Index a repository into the BM25 and vector indexes
  search   Search the index
  worker   Drain the indexing job queue for one or more repositories

Global Options:
`)
		root.PrintDefaults()
	}

	root.ParseErrorsWhitelist.UnknownFlags = true
	if err := root.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	globals := GlobalFlags{JSON: *jsonOut, Quiet: *quiet || *jsonOut, NoColor: *noColor, Verbose: *verbose}
	ui.InitColors(globals.NoColor)

	if *showVersion {
		fmt.Printf("codesearch version %s (%s)\n", version, commit)
		return
	}

	args := root.Args()
	if len(args) == 0 {
		root.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, globals)
	case "search":
		runSearch(cmdArgs, globals)
	case "worker":
		runWorker(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		root.Usage()
		os.Exit(1)
	}
}
