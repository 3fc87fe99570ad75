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

package pipeline

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/extract"
	"github.com/kraklabs/codesearch/pkg/lexical"
)

// LocalIndex is a lightweight, BM25-only index over a single local
// directory: no embedder, no vector store, no network dependency. It
// backs the CLI's --local search mode, letting a user search a checkout
// on disk without standing up Qdrant or an embedding backend.
type LocalIndex struct {
	logger   *slog.Logger
	registry *extract.Registry
	bm25     *lexical.Index
}

// NewLocalIndex returns an empty LocalIndex.
func NewLocalIndex(logger *slog.Logger) *LocalIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalIndex{
		logger:   logger,
		registry: extract.NewRegistry(logger, extract.DefaultMode),
		bm25:     lexical.NewIndex(),
	}
}

// IndexDirectory walks directory, extracts every supported file's
// entities tagged with repoName, and adds them to the BM25 index.
func (l *LocalIndex) IndexDirectory(directory, repoName string) (int, error) {
	info, err := osStat(directory)
	if err != nil {
		return 0, fmt.Errorf("directory not found: %s", directory)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", directory)
	}

	var entities []entity.CodeEntity
	err = filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
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

		content, err := readFile(path)
		if err != nil {
			return nil
		}

		relPath, err := filepath.Rel(directory, path)
		if err != nil {
			relPath = path
		}

		fileEntities, err := l.registry.ExtractFile(content, relPath, repoName)
		if err != nil {
			l.logger.Warn("local_index.extract_error", "path", relPath, "err", err)
			return nil
		}
		entities = append(entities, fileEntities...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk directory: %w", err)
	}

	l.bm25.Add(entities)
	l.logger.Info("local_index.indexed", "path", directory, "entities", len(entities))
	return len(entities), nil
}

// Search runs a BM25-only query over everything indexed so far.
func (l *LocalIndex) Search(query string, limit int) []lexical.Hit {
	return l.bm25.Search(query, lexical.Filter{}, limit)
}

// Count returns the number of indexed entities.
func (l *LocalIndex) Count() int {
	return l.bm25.Count()
}
