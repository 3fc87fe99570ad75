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

package rank

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// defaultQueryEmbeddingCacheSize bounds how many distinct enhanced
// queries' embeddings HybridRanker keeps around, avoiding a repeat round
// trip to the embedding backend for a query a user (or an IDE plugin
// autocompleting as they type) just issued.
const defaultQueryEmbeddingCacheSize = 256

// DefaultSemanticWeight is the default weighting of semantic vs. BM25
// scores in a hybrid search, before any adaptive adjustment.
const DefaultSemanticWeight = 0.7

// HybridRanker runs a query against both the vector store and the BM25
// index, then fuses the two ranked lists.
type HybridRanker struct {
	vectors  vectorindex.Store
	bm25     *lexical.Index
	embedder embed.Embedder
	cache    *lru.Cache[string, []float32]
}

// NewHybridRanker constructs a ranker over the given backends.
func NewHybridRanker(vectors vectorindex.Store, bm25 *lexical.Index, embedder embed.Embedder) (*HybridRanker, error) {
	cache, err := lru.New[string, []float32](defaultQueryEmbeddingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query embedding cache: %w", err)
	}
	return &HybridRanker{vectors: vectors, bm25: bm25, embedder: embedder, cache: cache}, nil
}

// Options configures one Search call.
type Options struct {
	Limit          int
	Filter         vectorindex.Filter
	Role           entity.Role // "" or entity.RoleAny never restricts results
	SemanticWeight float64     // 0 means DefaultSemanticWeight
	Hybrid         bool        // false = semantic-only, matching the base engine's mode
}

// Search runs opts.Limit-bounded hybrid search for query, returning fused
// results sorted by combined score descending.
func (r *HybridRanker) Search(ctx context.Context, query string, opts Options) ([]Fused, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	weight := opts.SemanticWeight
	if weight == 0 {
		weight = DefaultSemanticWeight
	}

	semanticMatches, err := r.semanticSearch(ctx, query, limit*2, opts.Filter, opts.Hybrid)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	semanticMatches = filterByRole(semanticMatches, opts.Role)

	if !opts.Hybrid {
		fused := make([]Fused, len(semanticMatches))
		for i, m := range semanticMatches {
			fused[i] = Fused{Entity: m.Entity, Score: m.Score, SemanticScore: m.Score}
		}
		if len(fused) > limit {
			fused = fused[:limit]
		}
		return fused, nil
	}

	bm25Filter := lexical.Filter{Language: opts.Filter.Language, Type: opts.Filter.Type, RepoName: opts.Filter.RepoName}
	bm25Hits := r.bm25.Search(query, bm25Filter, limit*2)
	bm25Hits = filterHitsByRole(bm25Hits, opts.Role)

	fused := ReciprocalRankFusion(semanticMatches, bm25Hits, weight, query)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// filterByRole drops matches whose entity role doesn't satisfy role. An
// empty role or entity.RoleAny is a no-op, keeping this additive to the
// documented filter set (language, entity type, repo).
func filterByRole(matches []vectorindex.Match, role entity.Role) []vectorindex.Match {
	if role == "" || role == entity.RoleAny {
		return matches
	}
	out := matches[:0]
	for _, m := range matches {
		if m.Entity.Role() == role {
			out = append(out, m)
		}
	}
	return out
}

// filterHitsByRole is filterByRole's counterpart for lexical search hits.
func filterHitsByRole(hits []lexical.Hit, role entity.Role) []lexical.Hit {
	if role == "" || role == entity.RoleAny {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Entity.Role() == role {
			out = append(out, h)
		}
	}
	return out
}

// semanticSearch embeds query and searches the vector store, using a
// cached embedding when this exact query has been seen before. enhance
// controls whether query is rewritten via EnhanceQuery first: the
// rewrite only applies on the hybrid path, since semantic-only mode
// embeds the raw query untouched.
func (r *HybridRanker) semanticSearch(ctx context.Context, query string, limit int, filter vectorindex.Filter, enhance bool) ([]vectorindex.Match, error) {
	lookup := query
	if enhance {
		lookup = EnhanceQuery(query)
	}

	vec, ok := r.cache.Get(lookup)
	if !ok {
		var err error
		vec, err = r.embedder.EmbedText(ctx, lookup)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		r.cache.Add(lookup, vec)
	}

	return r.vectors.Search(ctx, vec, limit, filter)
}

// AddToBM25 indexes entities into the BM25 side of the ranker. Callers
// are responsible for persisting the index (pkg/lexical.Index.Save) if
// it should survive a restart.
func (r *HybridRanker) AddToBM25(entities []entity.CodeEntity) {
	r.bm25.Add(entities)
}
