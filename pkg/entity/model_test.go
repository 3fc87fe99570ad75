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

func TestCodeEntity_SearchableText_FunctionOrdering(t *testing.T) {
	e := CodeEntity{
		Name:       "fetch_data",
		Type:       TypeFunction,
		Signature:  "def fetch_data(url: str) -> dict",
		Parameters: []string{"url: str"},
		Docstring:  `"""Fetches data from a URL."""`,
		ReturnType: "dict",
	}

	text := e.SearchableText()

	assert.Contains(t, text, "fetch_data")
	assert.Contains(t, text, "function")
	assert.Contains(t, text, "def fetch_data(url: str) -> dict")
	assert.Contains(t, text, "parameters: url: str")
	assert.Contains(t, text, "Fetches data from a URL.")
	assert.Contains(t, text, "returns dict")

	nameIdx := indexOf(text, "fetch_data")
	sigIdx := indexOf(text, "def fetch_data")
	docIdx := indexOf(text, "Fetches data")
	returnsIdx := indexOf(text, "returns dict")
	assert.True(t, nameIdx < sigIdx)
	assert.True(t, sigIdx < docIdx)
	assert.True(t, docIdx < returnsIdx)
}

func TestCodeEntity_SearchableText_Method(t *testing.T) {
	e := CodeEntity{
		Name:        "save",
		Type:        TypeMethod,
		ParentClass: "UserRepository",
	}

	text := e.SearchableText()

	assert.Contains(t, text, "method of UserRepository")
}

func TestCodeEntity_SearchableText_OmitsEmptyFields(t *testing.T) {
	e := CodeEntity{Name: "bare", Type: TypeFunction}

	text := e.SearchableText()

	assert.Equal(t, "bare function", text)
}

func TestCodeEntity_Role(t *testing.T) {
	cases := []struct {
		path string
		want Role
	}{
		{"pkg/foo/bar.go", RoleSource},
		{"pkg/foo/bar_test.go", RoleTest},
		{"src/util.test.ts", RoleTest},
		{"gen/api.pb.go", RoleGenerated},
		{"internal/generated/client.go", RoleGenerated},
	}

	for _, tc := range cases {
		e := CodeEntity{FilePath: tc.path}
		assert.Equal(t, tc.want, e.Role(), tc.path)
	}
}

func TestDefaultSearchQuery(t *testing.T) {
	q := DefaultSearchQuery("parse json")

	assert.Equal(t, "parse json", q.Query)
	assert.Equal(t, RoleAny, q.Role)
	assert.Equal(t, 20, q.Limit)
	assert.True(t, q.UseHybrid)
	assert.Equal(t, 0.7, q.SemanticWeight)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
