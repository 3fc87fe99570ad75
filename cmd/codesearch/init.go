// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codesearch/internal/config"
	"github.com/kraklabs/codesearch/internal/errors"
	"github.com/kraklabs/codesearch/internal/ui"
)

// runInit executes 'codesearch init', writing a .codesearch/project.yaml
// configuration file for the current directory.
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing configuration")
	projectID := fs.String("project-id", "", "Project identifier (default: directory name)")
	qdrantHost := fs.String("qdrant-host", "", "Qdrant host; setting this enables the vector store")
	qdrantPort := fs.Int("qdrant-port", 6334, "Qdrant gRPC port")
	embeddingModel := fs.String("embedding-model", "", "Embedding model name")
	embeddingURL := fs.String("embedding-url", "", "Embedding API base URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codesearch init [options]

Creates .codesearch/project.yaml.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot determine current directory", err.Error(), "", err), false)
	}

	path := config.ConfigPath(cwd)
	if _, err := os.Stat(path); err == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			fmt.Sprintf("%s already exists", path),
			"a configuration file is already present",
			"pass --force to overwrite it",
			nil,
		), false)
	}

	pid := *projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := config.DefaultConfig(pid)

	if *qdrantHost != "" {
		cfg.VectorStore.Enabled = true
		cfg.VectorStore.Host = *qdrantHost
		cfg.VectorStore.Port = *qdrantPort
	}
	if *embeddingModel != "" {
		cfg.Embedding.Model = *embeddingModel
	}
	if *embeddingURL != "" {
		cfg.Embedding.BaseURL = *embeddingURL
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		errors.FatalError(errors.NewConfigError("cannot save configuration", err.Error(), "", err), false)
	}

	ui.Success(fmt.Sprintf("Created %s", path))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  codesearch index .      Index this repository")
	fmt.Println("  codesearch search <q>   Search it")
}
