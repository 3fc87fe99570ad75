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
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codesearch/internal/config"
	"github.com/kraklabs/codesearch/internal/errors"
	"github.com/kraklabs/codesearch/internal/ui"
	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/pipeline"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// runIndex executes 'codesearch index <path>'.
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to project.yaml (default: ./.codesearch/project.yaml)")
	repoName := fs.String("repo-name", "", "Repository name (default: directory base name)")
	noEmbedder := fs.Bool("no-embedder", false, "Skip the vector store, building only the BM25 index")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codesearch index [options] <path>

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	rootPath := fs.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err.Error(), "run 'codesearch init' first", err), globals.JSON)
	}

	logLevel := slog.LevelWarn
	if globals.Verbose > 0 {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	lex := lexical.NewIndex()
	bm25Path := indexStatePath(cfg, "bm25.gob")
	if err := os.MkdirAll(filepath.Dir(bm25Path), 0o750); err != nil {
		errors.FatalError(errors.NewIndexError("cannot create index data directory", err.Error(), "", err), globals.JSON)
	}
	if err := lex.Load(bm25Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("index.bm25_load_failed", "path", bm25Path, "err", err)
	}

	var vectors vectorindex.Store
	var embedder embed.Embedder
	if *noEmbedder || !cfg.VectorStore.Enabled {
		vectors = vectorindex.NewMemoryStore()
		embedder = embed.NewDeterministicEmbedder(cfg.Embedding.Dimension)
	} else {
		vectors, err = vectorindex.NewQdrantStore(vectorindex.QdrantConfig{
			Host:           cfg.VectorStore.Host,
			Port:           cfg.VectorStore.Port,
			APIKey:         cfg.VectorStore.APIKey,
			UseTLS:         cfg.VectorStore.UseTLS,
			CollectionName: cfg.VectorStore.CollectionName,
		})
		if err != nil {
			errors.FatalError(errors.NewNetworkError("cannot connect to Qdrant", err.Error(), "check vector_store settings in project.yaml", err), globals.JSON)
		}
		embedder, err = embed.NewHTTPEmbedder(embed.HTTPConfig{
			BaseURL:   cfg.Embedding.BaseURL,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		})
		if err != nil {
			errors.FatalError(errors.NewConfigError("cannot configure embedder", err.Error(), "set embedding.model in project.yaml", err), globals.JSON)
		}
	}

	pcfg := pipeline.DefaultConfig()
	if cfg.Indexing.BatchSize > 0 {
		pcfg.BatchSize = cfg.Indexing.BatchSize
	}
	if cfg.Indexing.MaxFileSize > 0 {
		pcfg.MaxFileSize = cfg.Indexing.MaxFileSize
	}

	p := pipeline.New(logger, embedder, vectors, lex, pcfg)

	progressCfg := NewProgressConfig(globals)
	bar := NewProgressBar(progressCfg, -1, "indexing")

	result, err := p.IndexRepo(context.Background(), rootPath, firstNonEmpty(*repoName, filepath.Base(filepath.Clean(rootPath))), func(stage string, done, total int) {
		if bar != nil {
			_ = bar.Set(done)
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		errors.FatalError(errors.NewIndexError("indexing failed", err.Error(), "", err), globals.JSON)
	}

	if err := lex.Save(bm25Path); err != nil {
		logger.Warn("index.bm25_save_failed", "path", bm25Path, "err", err)
	}

	if globals.JSON {
		_ = jsonOut(result)
		return
	}
	ui.Success(fmt.Sprintf("Indexed %s: %d entities (%d files scanned, %d skipped, %d parse errors)",
		result.RepoName, result.EntitiesIndexed, result.FilesScanned, result.FilesSkipped, result.ParseErrors))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
