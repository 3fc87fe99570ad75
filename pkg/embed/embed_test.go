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

package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func TestEmbedEntity_UsesSearchableText(t *testing.T) {
	e := NewDeterministicEmbedder(16)
	ent := entity.CodeEntity{Name: "fetch_user", Type: entity.TypeFunction, Signature: "def fetch_user()"}

	vec, err := EmbedEntity(context.Background(), e, ent)
	require.NoError(t, err)

	direct, err := e.EmbedText(context.Background(), ent.SearchableText())
	require.NoError(t, err)
	assert.Equal(t, direct, vec)
}

func TestEmbedEntities_BatchesAndReportsProgress(t *testing.T) {
	e := NewDeterministicEmbedder(8)
	entities := []entity.CodeEntity{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"},
	}

	var progressCalls [][2]int
	vecs, err := EmbedEntities(context.Background(), e, entities, 2, func(done, total int) {
		progressCalls = append(progressCalls, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, [][2]int{{2, 5}, {4, 5}, {5, 5}}, progressCalls)
}

func TestEmbedEntities_EmptyInput(t *testing.T) {
	e := NewDeterministicEmbedder(8)
	vecs, err := EmbedEntities(context.Background(), e, nil, 2, nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedEntities_NonPositiveBatchSizeEmbedsAllAtOnce(t *testing.T) {
	e := NewDeterministicEmbedder(8)
	entities := []entity.CodeEntity{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	calls := 0
	vecs, err := EmbedEntities(context.Background(), e, entities, 0, func(done, total int) { calls++ })
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 1, calls)
}
