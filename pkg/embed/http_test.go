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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEmbedder_EmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello world", req.Prompt)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "nomic-embed-text"})
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, 3, e.Dimension())
}

func TestHTTPEmbedder_EmbedBatchFansOutSequentially(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		seen = append(seen, req.Prompt)
		json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 2}})
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestHTTPEmbedder_ErrorStatusPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestNewHTTPEmbedder_RequiresModel(t *testing.T) {
	t.Setenv("EMBEDDING_MODEL", "")
	t.Setenv("OLLAMA_MODEL", "")
	_, err := NewHTTPEmbedder(HTTPConfig{BaseURL: "http://localhost:1"})
	assert.Error(t, err)
}
