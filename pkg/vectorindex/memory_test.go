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

package vectorindex

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func sampleVectorEntities() ([]entity.CodeEntity, [][]float32) {
	entities := []entity.CodeEntity{
		{ID: "v1", Name: "fetch_user", Lang: entity.LanguagePython, Type: entity.TypeFunction, RepoName: "repo-a", SourceCode: "def fetch_user(): ..."},
		{ID: "v2", Name: "save_invoice", Lang: entity.LanguagePython, Type: entity.TypeFunction, RepoName: "repo-a", SourceCode: "def save_invoice(): ..."},
		{ID: "v3", Name: "Render", Lang: entity.LanguageGo, Type: entity.TypeMethod, RepoName: "repo-b", SourceCode: "func (t *T) Render() {}"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	return entities, embeddings
}

func TestMemoryStore_SearchRanksClosestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCollection(ctx, 3, false))

	entities, embeddings := sampleVectorEntities()
	require.NoError(t, s.Insert(ctx, entities, embeddings))

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 10, Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "v1", matches[0].Entity.ID)
}

func TestMemoryStore_SearchAppliesFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	entities, embeddings := sampleVectorEntities()
	require.NoError(t, s.Insert(ctx, entities, embeddings))

	matches, err := s.Search(ctx, []float32{0, 1, 0}, 10, Filter{Language: entity.LanguageGo})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "v3", matches[0].Entity.ID)
}

func TestMemoryStore_SearchRespectsLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	entities, embeddings := sampleVectorEntities()
	require.NoError(t, s.Insert(ctx, entities, embeddings))

	matches, err := s.Search(ctx, []float32{1, 0, 0}, 1, Filter{})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMemoryStore_DeleteByRepo(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	entities, embeddings := sampleVectorEntities()
	require.NoError(t, s.Insert(ctx, entities, embeddings))

	removed, err := s.DeleteByRepo(ctx, "repo-a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStore_InsertReplacesExisting(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Insert(ctx, []entity.CodeEntity{{ID: "v1", Name: "old"}}, [][]float32{{1, 0}}))
	require.NoError(t, s.Insert(ctx, []entity.CodeEntity{{ID: "v1", Name: "new"}}, [][]float32{{0, 1}}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	matches, err := s.Search(ctx, []float32{0, 1}, 10, Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "new", matches[0].Entity.Name)
}

func TestMemoryStore_InsertTruncatesSourceCode(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	long := strings.Repeat("x", maxStoredSourceCode+500)
	require.NoError(t, s.Insert(ctx, []entity.CodeEntity{{ID: "v1", SourceCode: long}}, [][]float32{{1}}))

	matches, err := s.Search(ctx, []float32{1}, 10, Filter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Entity.SourceCode, maxStoredSourceCode)
}

func TestMemoryStore_InsertMismatchedLengthsErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	err := s.Insert(ctx, []entity.CodeEntity{{ID: "v1"}}, [][]float32{})
	assert.Error(t, err)
}

func TestMemoryStore_GetStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateCollection(ctx, 3, false))
	entities, embeddings := sampleVectorEntities()
	require.NoError(t, s.Insert(ctx, entities, embeddings))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.VectorCount)
	assert.Equal(t, 3, stats.Dimension)
}

func TestCosineSimilarity_IdenticalVectorsScoreOne(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
}

func TestCosineSimilarity_ZeroVectorScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
