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

// Package pipeline walks a repository's files, extracts code entities,
// embeds them, and dual-writes them into the lexical and vector indexes.
// Indexing a repository is idempotent: re-indexing purges that repo's
// prior entries from both indexes before inserting the fresh ones.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/extract"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// Config controls one Pipeline's behavior.
type Config struct {
	// BatchSize bounds how many entities are embedded per call to the
	// embedder, matching the original's batched-embedding behavior.
	BatchSize int

	// MaxFileSize skips files larger than this many bytes. 0 means no limit.
	MaxFileSize int64

	// ExtractMode selects tree-sitter, regex-only, or auto-fallback
	// extraction; see pkg/extract.Mode.
	ExtractMode extract.Mode
}

// DefaultConfig returns sane defaults for indexing.
func DefaultConfig() Config {
	return Config{BatchSize: 32, MaxFileSize: 1 << 20, ExtractMode: extract.DefaultMode}
}

// Result summarizes one IndexRepo/IndexDirectory run.
type Result struct {
	RepoName        string
	FilesScanned    int
	FilesSkipped    int
	EntitiesIndexed int
	ParseErrors     int
	ParseDuration   time.Duration
	EmbedDuration   time.Duration
	WriteDuration   time.Duration
	TotalDuration   time.Duration
}

// ProgressFunc is called as indexing advances; stage is a short label
// ("extract", "embed", "write") and done/total describe progress within
// that stage.
type ProgressFunc func(stage string, done, total int)

// Pipeline indexes repositories into a lexical.Index and a vectorindex.Store.
type Pipeline struct {
	logger    *slog.Logger
	registry  *extract.Registry
	embedder  embed.Embedder
	vectors   vectorindex.Store
	lex       *lexical.Index
	cfg       Config
}

// New constructs a Pipeline. vectors and embedder may be nil for BM25-only
// (local) indexing; see LocalIndex for a convenience wrapper over that mode.
func New(logger *slog.Logger, embedder embed.Embedder, vectors vectorindex.Store, lex *lexical.Index, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	return &Pipeline{
		logger:   logger,
		registry: extract.NewRegistry(logger, cfg.ExtractMode),
		embedder: embedder,
		vectors:  vectors,
		lex:      lex,
		cfg:      cfg,
	}
}

// IndexRepo walks rootPath, extracts entities tagged with repoName, purges
// any prior entries for repoName from both indexes, embeds the fresh batch
// (when a vector store and embedder are configured), and upserts into both.
func (p *Pipeline) IndexRepo(ctx context.Context, rootPath, repoName string, progress ProgressFunc) (Result, error) {
	start := time.Now()
	result := Result{RepoName: repoName}

	parseStart := time.Now()
	entities, filesScanned, filesSkipped, parseErrors := p.extractDirectory(rootPath, repoName, progress)
	result.FilesScanned = filesScanned
	result.FilesSkipped = filesSkipped
	result.ParseErrors = parseErrors
	result.ParseDuration = time.Since(parseStart)

	if len(entities) == 0 {
		// A transient empty extraction (e.g. a walk glitch) must not purge a
		// repo's existing index entries, so bail out before either purge call.
		result.TotalDuration = time.Since(start)
		return result, nil
	}

	if p.lex != nil {
		p.lex.RemoveByRepo(repoName)
	}
	if p.vectors != nil {
		if _, err := p.vectors.DeleteByRepo(ctx, repoName); err != nil {
			return result, fmt.Errorf("purge prior entries for repo %s: %w", repoName, err)
		}
	}

	if p.lex != nil {
		p.lex.Add(entities)
	}

	if p.vectors != nil && p.embedder != nil && len(entities) > 0 {
		embedStart := time.Now()
		embeddings, err := embed.EmbedEntities(ctx, p.embedder, entities, p.cfg.BatchSize, func(done, total int) {
			if progress != nil {
				progress("embed", done, total)
			}
		})
		result.EmbedDuration = time.Since(embedStart)
		if err != nil {
			return result, fmt.Errorf("embed entities: %w", err)
		}

		writeStart := time.Now()
		if err := p.vectors.CreateCollection(ctx, p.embedder.Dimension(), false); err != nil {
			return result, fmt.Errorf("ensure collection: %w", err)
		}
		if err := p.vectors.Insert(ctx, entities, embeddings); err != nil {
			return result, fmt.Errorf("insert into vector store: %w", err)
		}
		result.WriteDuration = time.Since(writeStart)
	}

	result.EntitiesIndexed = len(entities)
	result.TotalDuration = time.Since(start)

	p.logger.Info("pipeline.index_repo",
		"repo", repoName,
		"files_scanned", result.FilesScanned,
		"files_skipped", result.FilesSkipped,
		"entities", result.EntitiesIndexed,
		"parse_errors", result.ParseErrors,
		"duration", result.TotalDuration,
	)

	recordEntitiesIndexed(repoName, result.EntitiesIndexed)
	recordParseErrors(repoName, result.ParseErrors)
	pipelineMetrics.init()
	pipelineMetrics.indexDuration.Observe(result.TotalDuration.Seconds())

	return result, nil
}

// IndexDirectory is IndexRepo with repoName defaulted to the directory's
// base name, matching the CLI's convenience entry point.
func (p *Pipeline) IndexDirectory(ctx context.Context, rootPath string, progress ProgressFunc) (Result, error) {
	return p.IndexRepo(ctx, rootPath, filepath.Base(filepath.Clean(rootPath)), progress)
}

func (p *Pipeline) extractDirectory(rootPath, repoName string, progress ProgressFunc) ([]entity.CodeEntity, int, int, int) {
	var entities []entity.CodeEntity
	filesScanned, filesSkipped, parseErrors := 0, 0, 0

	_ = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Warn("pipeline.walk_error", "path", path, "err", err)
			return nil
		}

		if d.IsDir() {
			if d.Name() != "." && extract.SkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !extract.IsSupported(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if p.cfg.MaxFileSize > 0 && info.Size() > p.cfg.MaxFileSize {
			filesSkipped++
			return nil
		}

		content, err := readFile(path)
		if err != nil {
			p.logger.Warn("pipeline.read_error", "path", path, "err", err)
			filesSkipped++
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relPath = path
		}

		fileEntities, err := p.registry.ExtractFile(content, relPath, repoName)
		if err != nil {
			p.logger.Warn("pipeline.extract_error", "path", relPath, "err", err)
			parseErrors++
			return nil
		}

		entities = append(entities, fileEntities...)
		filesScanned++
		if progress != nil {
			progress("extract", filesScanned, 0)
		}
		return nil
	})

	return entities, filesScanned, filesSkipped, parseErrors
}
