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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PopulatesExpectedDefaults(t *testing.T) {
	cfg := DefaultConfig("myproject")
	assert.Equal(t, "myproject", cfg.ProjectID)
	assert.Equal(t, "codesearch_myproject", cfg.VectorStore.CollectionName)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.True(t, cfg.Search.Hybrid)
	assert.Equal(t, 0.7, cfg.Search.SemanticWeight)
}

func TestConfigPath_JoinsConfigDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".codesearch", "project.yaml"), ConfigPath("/repo"))
	assert.Equal(t, filepath.Join("/repo", ".codesearch"), ConfigDir("/repo"))
}

func TestSaveConfig_ThenLoadConfig_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig("roundtrip")
	cfg.Indexing.Exclude = []string{"vendor/", "node_modules/"}

	require.NoError(t, SaveConfig(cfg, path))
	require.FileExists(t, path)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ProjectID, loaded.ProjectID)
	assert.Equal(t, cfg.Indexing.Exclude, loaded.Indexing.Exclude)
	assert.Equal(t, cfg.Embedding.Model, loaded.Embedding.Model)
}

func TestLoadConfig_MissingFileReturnsHelpfulError(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "project.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codesearch init")
}

func TestLoadConfig_EnvOverridesAPIKeys(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	cfg := DefaultConfig("secretproject")
	cfg.Embedding.APIKey = "from-yaml"
	require.NoError(t, SaveConfig(cfg, path))

	t.Setenv("CODESEARCH_EMBEDDING_API_KEY", "from-env")
	t.Setenv("CODESEARCH_VECTOR_STORE_API_KEY", "")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded.Embedding.APIKey)
}

func TestLoadConfig_LoadsDotEnvAlongsideConfig(t *testing.T) {
	dir := t.TempDir()
	path := ConfigPath(dir)

	require.NoError(t, SaveConfig(DefaultConfig("dotenv-project"), path))
	require.NoError(t, os.WriteFile(
		filepath.Join(filepath.Dir(path), ".env"),
		[]byte("CODESEARCH_EMBEDDING_API_KEY=from-dotenv\n"),
		0o600,
	))

	t.Setenv("CODESEARCH_EMBEDDING_API_KEY", "")
	os.Unsetenv("CODESEARCH_EMBEDDING_API_KEY")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", loaded.Embedding.APIKey)
}
