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

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/codesearch/pkg/entity"
)

func TestLanguageForPath(t *testing.T) {
	cases := map[string]entity.Language{
		"pkg/foo.go":      entity.LanguageGo,
		"src/index.ts":    entity.LanguageTypeScript,
		"src/index.tsx":   entity.LanguageTypeScript,
		"app/main.py":     entity.LanguagePython,
		"lib/widget.jsx":  entity.LanguageJavaScript,
		"core/lib.rs":     entity.LanguageRust,
		"README.md":       entity.LanguageUnknown,
		"Makefile":        entity.LanguageUnknown,
	}
	for path, want := range cases {
		assert.Equal(t, want, LanguageForPath(path), path)
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("main.go"))
	assert.False(t, IsSupported("notes.txt"))
}

func TestSimplifiedExtractor_Go(t *testing.T) {
	src := `package foo

// Add returns the sum of two ints.
func Add(a int, b int) int {
	return a + b
}

type Repo struct {
	name string
}

func (r *Repo) Save(ctx context.Context) error {
	return nil
}

type Storer interface {
	Save() error
}
`
	ext := NewSimplifiedExtractor(entity.LanguageGo)
	entities, err := ext.Extract([]byte(src), "pkg/foo/foo.go", "myrepo")
	require.NoError(t, err)
	require.NotEmpty(t, entities)

	var names []string
	for _, e := range entities {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "Add")
	assert.Contains(t, names, "Repo")
	assert.Contains(t, names, "Save")
	assert.Contains(t, names, "Storer")

	for _, e := range entities {
		if e.Name == "Save" && e.Type == entity.TypeMethod {
			assert.Equal(t, "Repo", e.ParentClass)
		}
		if e.Name == "Add" {
			assert.Equal(t, entity.TypeFunction, e.Type)
			assert.Equal(t, "myrepo", e.RepoName)
		}
	}
}

func TestSimplifiedExtractor_Python(t *testing.T) {
	src := `class Parser:
    def parse(self, text):
        return text

def standalone(x):
    return x
`
	ext := NewSimplifiedExtractor(entity.LanguagePython)
	entities, err := ext.Extract([]byte(src), "app/parser.py", "myrepo")
	require.NoError(t, err)

	var method, fn *entity.CodeEntity
	for i := range entities {
		switch entities[i].Name {
		case "parse":
			method = &entities[i]
		case "standalone":
			fn = &entities[i]
		}
	}
	require.NotNil(t, method)
	require.NotNil(t, fn)
	assert.Equal(t, entity.TypeMethod, method.Type)
	assert.Equal(t, "Parser", method.ParentClass)
	assert.Equal(t, entity.TypeFunction, fn.Type)
	assert.Empty(t, fn.ParentClass)
}

func TestSimplifiedExtractor_UnsupportedLanguageReturnsNil(t *testing.T) {
	ext := NewSimplifiedExtractor(entity.LanguageUnknown)
	entities, err := ext.Extract([]byte("whatever"), "f.xyz", "repo")
	require.NoError(t, err)
	assert.Nil(t, entities)
}
