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
	"sort"

	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

// rrfK is the Reciprocal Rank Fusion constant: rrf_score = 1/(k+rank+1).
// 60 is the value the reference hybrid engine used.
const rrfK = 60

// lowSemanticDiversityThreshold is the score-range below which semantic
// results are considered too bunched-together to be trusted, triggering
// a reduced semantic weight in favor of BM25.
const lowSemanticDiversityThreshold = 0.05

// reducedSemanticWeight is substituted for the caller-supplied semantic
// weight when semantic results fail the diversity check.
const reducedSemanticWeight = 0.3

// Fused is one entity's result after combining semantic and lexical
// signals: the final boosted score, and the two raw inputs that produced
// it (for display / debugging, mirroring the original's separate
// semantic_score/bm25_score fields on a search result).
type Fused struct {
	Entity        entity.CodeEntity
	Score         float64
	SemanticScore float64
	BM25Score     float64
}

type fusionEntry struct {
	entity      entity.CodeEntity
	semanticRRF float64
	semanticRaw float64
	bm25RRF     float64
	bm25Raw     float64
}

// ReciprocalRankFusion merges ranked semantic and BM25 result lists into
// one combined ranking. semanticWeight is adaptively reduced when the
// semantic result set's score range is too narrow to be meaningful
// (all candidates look equally "similar", which usually means the
// embedding model found nothing distinctive). query drives both the
// query-enhancement the caller already applied before searching and the
// HTTP domain boost applied here, after fusion.
func ReciprocalRankFusion(semantic []vectorindex.Match, bm25 []lexical.Hit, semanticWeight float64, query string) []Fused {
	semanticWeight = adaptSemanticWeight(semantic, semanticWeight)
	bm25Weight := 1 - semanticWeight

	entries := make(map[string]*fusionEntry)
	// order records first-seen insertion order so the fused slice below is
	// built deterministically instead of ranging the map (Go randomizes map
	// iteration order, which would make tie-break order unstable across
	// runs of the same query against the same corpora).
	var order []string

	for rank, m := range semantic {
		rrfScore := 1 / float64(rrfK+rank+1)
		entries[m.Entity.ID] = &fusionEntry{
			entity:      m.Entity,
			semanticRRF: rrfScore * semanticWeight,
			semanticRaw: m.Score,
		}
		order = append(order, m.Entity.ID)
	}

	for rank, h := range bm25 {
		rrfScore := 1 / float64(rrfK+rank+1)
		if e, ok := entries[h.Entity.ID]; ok {
			e.bm25RRF = rrfScore * bm25Weight
			e.bm25Raw = h.Score
		} else {
			entries[h.Entity.ID] = &fusionEntry{
				entity:  h.Entity,
				bm25RRF: rrfScore * bm25Weight,
				bm25Raw: h.Score,
			}
			order = append(order, h.Entity.ID)
		}
	}

	fused := make([]Fused, 0, len(entries))
	for _, id := range order {
		e := entries[id]
		boost := httpBoost(query, e.entity)
		fused = append(fused, Fused{
			Entity:        e.entity,
			Score:         (e.semanticRRF + e.bm25RRF) * boost,
			SemanticScore: e.semanticRaw,
			BM25Score:     e.bm25Raw,
		})
	}

	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

// adaptSemanticWeight reduces weight toward BM25 when the semantic
// result set's top-to-bottom score range is too narrow to distinguish
// genuinely relevant matches from noise.
func adaptSemanticWeight(semantic []vectorindex.Match, weight float64) float64 {
	if len(semantic) == 0 {
		return weight
	}

	min, max := semantic[0].Score, semantic[0].Score
	for _, m := range semantic[1:] {
		if m.Score < min {
			min = m.Score
		}
		if m.Score > max {
			max = m.Score
		}
	}

	if max-min < lowSemanticDiversityThreshold {
		return reducedSemanticWeight
	}
	return weight
}
