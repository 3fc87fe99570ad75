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

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

func TestReciprocalRankFusion_CombinesBothSignals(t *testing.T) {
	a := entity.CodeEntity{ID: "a", Name: "fetch"}
	b := entity.CodeEntity{ID: "b", Name: "save"}

	semantic := []vectorindex.Match{{Entity: a, Score: 0.95}, {Entity: b, Score: 0.40}}
	bm25 := []lexical.Hit{{Entity: b, Score: 10.0}, {Entity: a, Score: 1.0}}

	fused := ReciprocalRankFusion(semantic, bm25, 0.7, "find data")
	require.Len(t, fused, 2)
	// a ranks first in semantic, b ranks first in bm25 - the combined
	// ranking should reflect whichever signal dominates given the weight.
	ids := []string{fused[0].Entity.ID, fused[1].Entity.ID}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestReciprocalRankFusion_EntityOnlyInOneListStillIncluded(t *testing.T) {
	a := entity.CodeEntity{ID: "a"}
	b := entity.CodeEntity{ID: "b"}

	semantic := []vectorindex.Match{{Entity: a, Score: 0.9}}
	bm25 := []lexical.Hit{{Entity: b, Score: 5.0}}

	fused := ReciprocalRankFusion(semantic, bm25, 0.7, "query")
	require.Len(t, fused, 2)
}

func TestReciprocalRankFusion_LowSemanticDiversityFavorsBM25(t *testing.T) {
	a := entity.CodeEntity{ID: "a"}
	b := entity.CodeEntity{ID: "b"}

	// Semantic scores nearly identical (range < 0.05) -> weight drops to 0.3,
	// so BM25's top-ranked entity (b) should win the fused ranking.
	semantic := []vectorindex.Match{{Entity: a, Score: 0.91}, {Entity: b, Score: 0.90}}
	bm25 := []lexical.Hit{{Entity: b, Score: 8.0}, {Entity: a, Score: 1.0}}

	fused := ReciprocalRankFusion(semantic, bm25, 0.9, "query")
	require.Len(t, fused, 2)
	assert.Equal(t, "b", fused[0].Entity.ID)
}

func TestReciprocalRankFusion_HTTPBoostAppliedAfterFusion(t *testing.T) {
	requestFn := entity.CodeEntity{ID: "r", FilePath: "requests/api.py", Name: "post"}
	handlerFn := entity.CodeEntity{ID: "h", FilePath: "server/views.py", Name: "handle_webhook"}

	semantic := []vectorindex.Match{{Entity: handlerFn, Score: 0.8}, {Entity: requestFn, Score: 0.79}}
	bm25 := []lexical.Hit{}

	fused := ReciprocalRankFusion(semantic, bm25, 0.7, "make an http post request")
	require.Len(t, fused, 2)
	assert.Equal(t, "r", fused[0].Entity.ID)
}

func TestReciprocalRankFusion_EmptyInputs(t *testing.T) {
	assert.Empty(t, ReciprocalRankFusion(nil, nil, 0.7, "query"))
}
