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
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// DeterministicEmbedder produces reproducible unit vectors from a SHA-256
// hash of the input text, with no model dependency. Used in local search
// mode and by tests, where a real embedding backend isn't available.
type DeterministicEmbedder struct {
	dimension int
}

// NewDeterministicEmbedder returns a DeterministicEmbedder producing
// vectors of the given dimension (default 768 if dimension <= 0).
func NewDeterministicEmbedder(dimension int) *DeterministicEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &DeterministicEmbedder{dimension: dimension}
}

func (e *DeterministicEmbedder) Dimension() int { return e.dimension }

func (e *DeterministicEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return deterministicVector(text, e.dimension), nil
}

func (e *DeterministicEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = deterministicVector(t, e.dimension)
	}
	return out, nil
}

// deterministicVector derives dimension float32s from repeated SHA-256
// hashing of text (re-hashing the digest to extend it past 32 bytes when
// dimension needs more than 8 components), scales each uint32 chunk to
// [-1, 1], then L2-normalizes the result to a unit vector.
func deterministicVector(text string, dimension int) []float32 {
	values := make([]float32, 0, dimension)
	digest := sha256.Sum256([]byte(text))

	for len(values) < dimension {
		for i := 0; i+4 <= len(digest) && len(values) < dimension; i += 4 {
			raw := binary.BigEndian.Uint32(digest[i : i+4])
			scaled := float32(raw)/float32(math.MaxUint32)*2 - 1
			values = append(values, scaled)
		}
		digest = sha256.Sum256(digest[:])
	}

	var normSq float64
	for _, v := range values {
		normSq += float64(v) * float64(v)
	}
	if normSq == 0 {
		return values
	}
	norm := math.Sqrt(normSq)
	for i, v := range values {
		values[i] = float32(float64(v) / norm)
	}
	return values
}
