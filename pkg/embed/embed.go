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

// Package embed generates vector embeddings for code entities, behind a
// single interface with an HTTP-backed implementation (Ollama or an
// OpenAI-compatible endpoint) and a deterministic one for tests and
// offline/local search mode.
package embed

import (
	"context"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Embedder turns text, or a code entity's searchable text, into a
// fixed-dimension float32 vector.
type Embedder interface {
	// EmbedText generates one embedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for several texts in one round trip
	// where the backend supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the embedding vector length this Embedder produces.
	Dimension() int
}

// EmbedEntity embeds e's searchable text.
func EmbedEntity(ctx context.Context, e Embedder, entity entity.CodeEntity) ([]float32, error) {
	return e.EmbedText(ctx, entity.SearchableText())
}

// EmbedEntities embeds entities in batches of batchSize, calling progress
// after each batch completes with the number of entities embedded so far.
// batchSize <= 0 embeds everything in a single batch.
func EmbedEntities(ctx context.Context, e Embedder, entities []entity.CodeEntity, batchSize int, progress func(done, total int)) ([][]float32, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = len(entities)
	}

	all := make([][]float32, 0, len(entities))
	for start := 0; start < len(entities); start += batchSize {
		end := start + batchSize
		if end > len(entities) {
			end = len(entities)
		}

		texts := make([]string, end-start)
		for i, ent := range entities[start:end] {
			texts[i] = ent.SearchableText()
		}

		batch, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if progress != nil {
			progress(end, len(entities))
		}
	}
	return all, nil
}
