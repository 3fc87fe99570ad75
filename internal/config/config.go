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

// Package config loads and saves the project configuration that drives the
// codesearch CLI: where the BM25 and vector indexes live, which embedding
// provider to call, and which files the indexer should skip.
//
// Configuration lives in a checked-in YAML file, .codesearch/project.yaml,
// with secrets (API keys) layered on top from a .env file that is not meant
// to be committed.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// configDirName is the directory, relative to a repository root, holding
// the project configuration.
const configDirName = ".codesearch"

// configFileName is the YAML file within configDirName.
const configFileName = "project.yaml"

// VectorStoreConfig configures the Qdrant-backed vector index. When Enabled
// is false, indexing and search fall back to the in-memory lexical-only
// path.
type VectorStoreConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	APIKey         string `yaml:"api_key,omitempty"`
	UseTLS         bool   `yaml:"use_tls"`
	CollectionName string `yaml:"collection_name"`
}

// EmbeddingConfig configures how source entities are turned into vectors.
type EmbeddingConfig struct {
	// Provider is one of "ollama" (HTTP embedder against an Ollama-style
	// endpoint) or "deterministic" (hash-based, for local mode and tests).
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Model     string `yaml:"model,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
}

// IndexingConfig controls what the crawler walks and how it batches work.
type IndexingConfig struct {
	Exclude     []string `yaml:"exclude,omitempty"`
	BatchSize   int      `yaml:"batch_size,omitempty"`
	MaxFileSize int64    `yaml:"max_file_size,omitempty"`
}

// SearchConfig controls default ranking behavior.
type SearchConfig struct {
	Hybrid         bool    `yaml:"hybrid"`
	SemanticWeight float64 `yaml:"semantic_weight,omitempty"`
}

// Config is the full project configuration persisted to
// .codesearch/project.yaml.
type Config struct {
	ProjectID string `yaml:"project_id"`
	DataDir   string `yaml:"data_dir,omitempty"`

	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Search      SearchConfig      `yaml:"search"`
}

// DefaultConfig returns the configuration created by 'codesearch init' when
// no flags override its defaults.
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		VectorStore: VectorStoreConfig{
			Enabled:        false,
			Host:           "localhost",
			Port:           6334,
			CollectionName: "codesearch_" + projectID,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			BaseURL:   "http://localhost:11434",
			Model:     "nomic-embed-text",
			Dimension: 768,
		},
		Indexing: IndexingConfig{
			BatchSize:   32,
			MaxFileSize: 1 << 20,
		},
		Search: SearchConfig{
			Hybrid:         true,
			SemanticWeight: 0.7,
		},
	}
}

// ConfigDir returns the .codesearch directory beneath repoDir.
func ConfigDir(repoDir string) string {
	return filepath.Join(repoDir, configDirName)
}

// ConfigPath returns the project.yaml path beneath repoDir.
func ConfigPath(repoDir string) string {
	return filepath.Join(ConfigDir(repoDir), configFileName)
}

// LoadConfig reads and parses the project configuration at path. If path is
// empty, it defaults to ConfigPath for the current directory.
//
// Secrets are layered on after the YAML is parsed: a .env file in the
// directory containing path is loaded via godotenv, and
// CODESEARCH_EMBEDDING_API_KEY / CODESEARCH_VECTOR_STORE_API_KEY override
// the corresponding YAML fields when set, so API keys never need to be
// committed to project.yaml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-supplied, not attacker input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration at %s (run 'codesearch init' first)", path)
		}
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	loadEnvSecrets(filepath.Dir(path))
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// loadEnvSecrets loads a .env file from dir into the process environment.
// A missing .env file is not an error - most projects won't have one.
func loadEnvSecrets(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
}

func applyEnvOverrides(cfg *Config) {
	if key := os.Getenv("CODESEARCH_EMBEDDING_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}
	if key := os.Getenv("CODESEARCH_VECTOR_STORE_API_KEY"); key != "" {
		cfg.VectorStore.APIKey = key
	}
}

// SaveConfig writes cfg as YAML to path, creating parent directories as
// needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot encode configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
