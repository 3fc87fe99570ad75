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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/codesearch/internal/config"
	"github.com/kraklabs/codesearch/internal/errors"
	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/pipeline"
	"github.com/kraklabs/codesearch/pkg/rank"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// runSearch executes 'codesearch search <query>'.
func runSearch(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to project.yaml")
	local := fs.String("local", "", "Search a directory directly (BM25 only, no index file needed)")
	limit := fs.Int("limit", 10, "Maximum results")
	role := fs.String("role", string(entity.RoleAny), "Restrict results to a file role: any, source, test, generated")
	language := fs.String("language", "", "Restrict results to a language")
	entityType := fs.String("type", "", "Restrict results to an entity type")
	repo := fs.String("repo", "", "Restrict results to a repository")
	semanticOnly := fs.Bool("semantic-only", false, "Skip BM25, rank by vector similarity alone")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codesearch search [options] <query>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}
	query := fs.Arg(0)

	if *local != "" {
		runLocalSearch(*local, query, *limit, globals)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load configuration", err.Error(), "run 'codesearch init' first, or pass --local <dir>", err), globals.JSON)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	lex := lexical.NewIndex()
	if err := lex.Load(indexStatePath(cfg, "bm25.gob")); err != nil {
		// No BM25 file yet is the NotIndexed case, not a fatal error: fall
		// through with an empty index so the search below reports zero
		// results instead of exiting the process.
		logger.Warn("search.no_bm25_index", "note", "run 'codesearch index <path>' first", "err", err)
	}

	var vectors vectorindex.Store
	var embedder embed.Embedder
	if cfg.VectorStore.Enabled {
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
		embedder, err = embed.NewHTTPEmbedder(embed.HTTPConfig{BaseURL: cfg.Embedding.BaseURL, Model: cfg.Embedding.Model, Dimension: cfg.Embedding.Dimension})
		if err != nil {
			errors.FatalError(errors.NewConfigError("cannot configure embedder", err.Error(), "set embedding.model in project.yaml", err), globals.JSON)
		}
	} else {
		vectors = vectorindex.NewMemoryStore()
		embedder = embed.NewDeterministicEmbedder(cfg.Embedding.Dimension)
		logger.Warn("search.vector_store_disabled", "note", "ranking by BM25 plus an unindexed in-memory vector store; enable vector_store in project.yaml for real semantic search")
	}

	ranker, err := rank.NewHybridRanker(vectors, lex, embedder)
	if err != nil {
		errors.FatalError(errors.NewInternalError("cannot construct ranker", err.Error(), "", err), globals.JSON)
	}

	opts := rank.Options{
		Limit:          *limit,
		Role:           entity.Role(*role),
		SemanticWeight: cfg.Search.SemanticWeight,
		Hybrid:         cfg.Search.Hybrid && !*semanticOnly,
		Filter: vectorindex.Filter{
			Language: entity.Language(*language),
			Type:     entity.Type(*entityType),
			RepoName: *repo,
		},
	}

	results, err := ranker.Search(context.Background(), query, opts)
	if err != nil {
		// The query path never throws to the caller: a backend that isn't
		// indexed yet (or is momentarily unreachable) reports zero results,
		// not a process exit.
		logger.Warn("search.failed", "err", err)
		results = nil
	}

	if globals.JSON {
		_ = jsonOut(fusedToSearchResults(results))
		return
	}
	printFusedResults(results)
}

func runLocalSearch(dir, query string, limit int, globals GlobalFlags) {
	idx := pipeline.NewLocalIndex(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	if _, err := idx.IndexDirectory(dir, ""); err != nil {
		errors.FatalError(errors.NewIndexError("cannot index directory", err.Error(), "", err), globals.JSON)
	}

	hits := idx.Search(query, limit)
	if globals.JSON {
		_ = jsonOut(hitsToSearchResults(hits))
		return
	}
	printLocalResults(hits)
}

func fusedToSearchResults(fused []rank.Fused) []entity.SearchResult {
	out := make([]entity.SearchResult, len(fused))
	for i, f := range fused {
		e := f.Entity
		out[i] = entity.SearchResult{Entity: f.Entity, Score: f.Score, SemanticScore: f.SemanticScore, BM25Score: f.BM25Score, Highlights: e.Highlights()}
	}
	return out
}

func hitsToSearchResults(hits []lexical.Hit) []entity.SearchResult {
	out := make([]entity.SearchResult, len(hits))
	for i, h := range hits {
		e := h.Entity
		out[i] = entity.SearchResult{Entity: h.Entity, Score: h.Score, BM25Score: h.Score, Highlights: e.Highlights()}
	}
	return out
}

func printFusedResults(fused []rank.Fused) {
	if len(fused) == 0 {
		fmt.Println("No results")
		return
	}
	for i, f := range fused {
		printResultRow(i+1, f.Entity, f.Score)
	}
}

func printLocalResults(hits []lexical.Hit) {
	if len(hits) == 0 {
		fmt.Println("No results")
		return
	}
	for i, h := range hits {
		printResultRow(i+1, h.Entity, h.Score)
	}
}

func printResultRow(num int, e entity.CodeEntity, score float64) {
	fmt.Printf("%d. %s %s (%.1f%% match)\n", num, confidenceIcon(score), e.Name, clampPercent(score)*100)
	fmt.Printf("   %s:%d\n", e.FilePath, e.StartLine)
	if e.Signature != "" && len(e.Signature) < 100 {
		fmt.Printf("   %s\n", e.Signature)
	}
	fmt.Println()
}

// confidenceIcon bands a score into a traffic-light indicator for
// human-readable output; it never affects ranking.
func confidenceIcon(score float64) string {
	switch {
	case score >= 0.75:
		return "[high]"
	case score >= 0.50:
		return "[med] "
	default:
		return "[low] "
	}
}

func clampPercent(score float64) float64 {
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
