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

package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// point is one vector entry held by MemoryStore.
type point struct {
	entity    entity.CodeEntity
	embedding []float32
}

// MemoryStore is a brute-force, in-process Store: cosine similarity
// computed by full scan. Used for local search mode and for tests, where
// running a Qdrant instance isn't warranted.
type MemoryStore struct {
	mu        sync.RWMutex
	points    map[string]point
	order     []string
	dimension int
}

// NewMemoryStore returns an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string]point)}
}

func (s *MemoryStore) CreateCollection(ctx context.Context, dimension int, recreate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if recreate {
		s.points = make(map[string]point)
		s.order = nil
	}
	s.dimension = dimension
	return nil
}

func (s *MemoryStore) Insert(ctx context.Context, entities []entity.CodeEntity, embeddings [][]float32) error {
	if len(entities) != len(embeddings) {
		return fmt.Errorf("entities/embeddings length mismatch: %d vs %d", len(entities), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range entities {
		e.SourceCode = truncateSourceCode(e.SourceCode)
		if _, exists := s.points[e.ID]; !exists {
			s.order = append(s.order, e.ID)
		}
		s.points[e.ID] = point{entity: e, embedding: embeddings[i]}
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, queryEmbedding []float32, limit int, filter Filter) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		p := s.points[id]
		if !filterMatches(filter, p.entity) {
			continue
		}
		matches = append(matches, Match{Entity: p.entity, Score: cosineSimilarity(queryEmbedding, p.embedding)})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *MemoryStore) DeleteByRepo(ctx context.Context, repoName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	newOrder := s.order[:0:0]
	for _, id := range s.order {
		if s.points[id].entity.RepoName == repoName {
			delete(s.points, id)
			removed++
			continue
		}
		newOrder = append(newOrder, id)
	}
	s.order = newOrder
	return removed, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), nil
}

func (s *MemoryStore) GetStats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{VectorCount: len(s.order), Dimension: s.dimension}, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func filterMatches(f Filter, e entity.CodeEntity) bool {
	if f.Language != "" && e.Lang != f.Language {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.RepoName != "" && e.RepoName != f.RepoName {
		return false
	}
	return true
}

// cosineSimilarity returns the cosine similarity of two vectors, 0 if
// either is zero-length or a zero vector.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
