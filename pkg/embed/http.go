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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// HTTPConfig configures an HTTPEmbedder. Fields left empty fall back to
// environment variables, matching the provider package's Ollama defaults.
type HTTPConfig struct {
	// BaseURL of the embeddings endpoint. Falls back to EMBEDDING_BASE_URL,
	// then OLLAMA_HOST, then http://localhost:11434.
	BaseURL string

	// Model identifies the embedding model to request.
	Model string

	// Dimension is the expected embedding length, used to validate
	// responses and reported by Dimension().
	Dimension int

	Timeout time.Duration
}

// HTTPEmbedder calls an Ollama-compatible /api/embeddings endpoint over
// raw net/http, the same request/response idiom the LLM provider package
// uses for text generation.
type HTTPEmbedder struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// NewHTTPEmbedder constructs an HTTPEmbedder from cfg.
func NewHTTPEmbedder(cfg HTTPConfig) (*HTTPEmbedder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("EMBEDDING_BASE_URL")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OLLAMA_HOST")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("EMBEDDING_MODEL")
	}
	if model == "" {
		return nil, fmt.Errorf("embed: model not specified (set EMBEDDING_MODEL or pass HTTPConfig.Model)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &HTTPEmbedder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

func (e *HTTPEmbedder) Dimension() int { return e.dimension }

func (e *HTTPEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch requests one embedding per text. Ollama's /api/embeddings
// endpoint takes a single prompt per call, so a batch is a sequential
// fan-out rather than a single batched request.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d/%d: %w", i+1, len(texts), err)
		}
		results[i] = vec
	}
	return results, nil
}

func (e *HTTPEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model":  e.model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if e.dimension == 0 {
		e.dimension = len(result.Embedding)
	}
	return result.Embedding, nil
}
