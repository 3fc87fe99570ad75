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

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateEntityID_Deterministic(t *testing.T) {
	id1 := GenerateEntityID("test.go", "testFunction", 10, 15, 1, 20)
	id2 := GenerateEntityID("test.go", "testFunction", 10, 15, 1, 20)

	assert.Equal(t, id1, id2)
	assert.True(t, len(id1) > len("entity:"))
	assert.Equal(t, "entity:", id1[:len("entity:")])
}

func TestGenerateEntityID_DifferentNames(t *testing.T) {
	id1 := GenerateEntityID("test.go", "functionA", 10, 15, 1, 20)
	id2 := GenerateEntityID("test.go", "functionB", 10, 15, 1, 20)

	assert.NotEqual(t, id1, id2)
}

func TestGenerateEntityID_DifferentRanges(t *testing.T) {
	id1 := GenerateEntityID("test.go", "testFunction", 10, 15, 1, 20)
	id2 := GenerateEntityID("test.go", "testFunction", 20, 25, 1, 25)

	assert.NotEqual(t, id1, id2)
}

func TestGenerateEntityID_NormalizesPath(t *testing.T) {
	id1 := GenerateEntityID("./test/file.go", "f", 1, 2, 0, 1)
	id2 := GenerateEntityID("test/file.go", "f", 1, 2, 0, 1)

	assert.Equal(t, id1, id2)
}

func TestGenerateFileID_Deterministic(t *testing.T) {
	id1 := GenerateFileID("pkg/foo/bar.go")
	id2 := GenerateFileID("pkg/foo/bar.go")

	assert.Equal(t, id1, id2)
	assert.Equal(t, "file:", id1[:len("file:")])
}

func TestNewJobID_Unique(t *testing.T) {
	assert.NotEqual(t, NewJobID(), NewJobID())
}

func TestNewRepositoryID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRepositoryID(), NewRepositoryID())
}
