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

// Package vectorindex abstracts vector-similarity storage behind a single
// contract, with a Qdrant-backed implementation and an in-memory one for
// local/test use.
package vectorindex

import (
	"context"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Filter narrows a Search call. A zero-value field means "don't filter on
// this dimension".
type Filter struct {
	Language entity.Language
	Type     entity.Type
	RepoName string
}

// Match is one scored nearest-neighbor result.
type Match struct {
	Entity entity.CodeEntity
	Score  float64 // cosine similarity, higher is more similar
}

// Stats summarizes a collection's current state.
type Stats struct {
	VectorCount int
	Dimension   int
}

// Store is the vector index contract every backend (Qdrant, in-memory)
// satisfies. Implementations own their own collection/namespace naming.
type Store interface {
	// CreateCollection ensures the backing collection exists with the
	// given vector dimension. If recreate is true, an existing collection
	// is dropped and rebuilt empty.
	CreateCollection(ctx context.Context, dimension int, recreate bool) error

	// Insert upserts entities with their embeddings. len(entities) must
	// equal len(embeddings).
	Insert(ctx context.Context, entities []entity.CodeEntity, embeddings [][]float32) error

	// Search returns the top-`limit` nearest neighbors of queryEmbedding
	// matching filter.
	Search(ctx context.Context, queryEmbedding []float32, limit int, filter Filter) ([]Match, error)

	// DeleteByRepo removes every vector whose repo_name matches repoName,
	// returning the number removed. QdrantStore does not count deletions
	// and always returns 0.
	DeleteByRepo(ctx context.Context, repoName string) (int, error)

	// Count returns the total number of vectors stored.
	Count(ctx context.Context) (int, error)

	// GetStats reports collection-level statistics.
	GetStats(ctx context.Context) (Stats, error)

	// Close releases any underlying connection.
	Close() error
}

// maxStoredSourceCode bounds how much of an entity's source_code is kept
// in the payload, mirroring the Python store's truncation of long bodies
// before they're shipped to the vector database.
const maxStoredSourceCode = 10000

func truncateSourceCode(s string) string {
	if len(s) <= maxStoredSourceCode {
		return s
	}
	return s[:maxStoredSourceCode]
}
