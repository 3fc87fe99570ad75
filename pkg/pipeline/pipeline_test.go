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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/embed"
	"github.com/kraklabs/codesearch/pkg/extract"
	"github.com/kraklabs/codesearch/pkg/lexical"
	"github.com/kraklabs/codesearch/pkg/vectorindex"
)

func newTestPipeline() (*Pipeline, *vectorindex.MemoryStore, *lexical.Index) {
	vectors := vectorindex.NewMemoryStore()
	lex := lexical.NewIndex()
	embedder := embed.NewDeterministicEmbedder(16)
	p := New(nil, embedder, vectors, lex, Config{BatchSize: 4, ExtractMode: extract.DefaultMode})
	return p, vectors, lex
}

func TestPipeline_IndexRepo_PopulatesBothIndexes(t *testing.T) {
	ctx := context.Background()
	dir := writeSampleRepo(t)
	p, vectors, lex := newTestPipeline()

	result, err := p.IndexRepo(ctx, dir, "sample-repo", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntitiesIndexed)
	assert.Equal(t, 0, result.ParseErrors)

	assert.Equal(t, 2, lex.Count())
	count, err := vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_IndexRepo_IdempotentReindex(t *testing.T) {
	ctx := context.Background()
	dir := writeSampleRepo(t)
	p, vectors, lex := newTestPipeline()

	_, err := p.IndexRepo(ctx, dir, "sample-repo", nil)
	require.NoError(t, err)

	// Add an extra file, then reindex: the repo's prior entries should be
	// purged before the fresh set is inserted, not accumulated.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.py"), []byte("def extra():\n    pass\n"), 0o644))

	result, err := p.IndexRepo(ctx, dir, "sample-repo", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.EntitiesIndexed)
	assert.Equal(t, 3, lex.Count())

	count, err := vectors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPipeline_IndexDirectory_DefaultsRepoNameToBase(t *testing.T) {
	ctx := context.Background()
	dir := writeSampleRepo(t)
	p, _, lex := newTestPipeline()

	result, err := p.IndexDirectory(ctx, dir, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), result.RepoName)
	assert.Equal(t, 2, lex.Count())
}

func TestPipeline_IndexRepo_ReportsProgress(t *testing.T) {
	ctx := context.Background()
	dir := writeSampleRepo(t)
	p, _, _ := newTestPipeline()

	var stages []string
	_, err := p.IndexRepo(ctx, dir, "sample-repo", func(stage string, done, total int) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	assert.Contains(t, stages, "extract")
	assert.Contains(t, stages, "embed")
}
