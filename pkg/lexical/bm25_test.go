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

package lexical

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func sampleEntities() []entity.CodeEntity {
	return []entity.CodeEntity{
		{
			ID: "e1", Name: "fetch_user_data", Type: entity.TypeFunction, Lang: entity.LanguagePython,
			RepoName: "repo-a", Signature: "def fetch_user_data(user_id)", Docstring: "Fetches a user's profile from the database.",
		},
		{
			ID: "e2", Name: "save_invoice", Type: entity.TypeFunction, Lang: entity.LanguagePython,
			RepoName: "repo-a", Signature: "def save_invoice(invoice)", Docstring: "Persists an invoice record.",
		},
		{
			ID: "e3", Name: "Render", Type: entity.TypeMethod, Lang: entity.LanguageGo,
			RepoName: "repo-b", Signature: "func (t *Template) Render() string", Docstring: "Renders the template to a string.",
		},
	}
}

func TestIndex_SearchRanksRelevantDocHigher(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	hits := idx.Search("fetch user data", Filter{}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "e1", hits[0].Entity.ID)
}

func TestIndex_SearchAppliesLanguageFilter(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	hits := idx.Search("render", Filter{Language: entity.LanguageGo}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "e3", hits[0].Entity.ID)
}

func TestIndex_SearchAppliesRepoFilter(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	hits := idx.Search("invoice", Filter{RepoName: "repo-b"}, 10)
	assert.Empty(t, hits)
}

func TestIndex_SearchRespectsLimit(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	hits := idx.Search("data record string", Filter{}, 1)
	assert.Len(t, hits, 1)
}

func TestIndex_SearchNoQueryTokensReturnsEmpty(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	assert.Empty(t, idx.Search("a", Filter{}, 10))
}

func TestIndex_RemoveByRepo(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())
	assert.Equal(t, 3, idx.Count())

	removed := idx.RemoveByRepo("repo-a")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, idx.Count())

	// Only repo-b's document is left. It shares no term with the query and
	// scores 0; with no positive top score the 1% floor does not apply, so
	// it is still returned.
	hits := idx.Search("fetch user data", Filter{}, 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "e3", hits[0].Entity.ID)
}

func TestIndex_AddSkipsExistingID(t *testing.T) {
	idx := NewIndex()
	idx.Add([]entity.CodeEntity{{ID: "e1", Name: "old_name", RepoName: "r"}})
	idx.Add([]entity.CodeEntity{{ID: "e1", Name: "new_name", RepoName: "r"}})

	assert.Equal(t, 1, idx.Count())
	hits := idx.Search("new name", Filter{}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "old_name", hits[0].Entity.Name)
}

func TestIndex_SaveLoadRoundTrip(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())

	path := filepath.Join(t.TempDir(), "bm25.gob")
	require.NoError(t, idx.Save(path))

	reloaded := NewIndex()
	require.NoError(t, reloaded.Load(path))

	assert.Equal(t, idx.Count(), reloaded.Count())
	hits := reloaded.Search("fetch user data", Filter{}, 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "e1", hits[0].Entity.ID)
}

func TestIndex_LoadMissingFileErrors(t *testing.T) {
	idx := NewIndex()
	err := idx.Load(filepath.Join(t.TempDir(), "does-not-exist.gob"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err) || err != nil)
}

func TestIndex_Clear(t *testing.T) {
	idx := NewIndex()
	idx.Add(sampleEntities())
	idx.Clear()
	assert.Equal(t, 0, idx.Count())
	assert.Empty(t, idx.Search("fetch", Filter{}, 10))
}
