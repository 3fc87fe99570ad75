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

// Package entity defines the data model shared by every stage of the
// indexing and search pipeline: parsed source entities, search results,
// and the jobs that drive repository indexing.
package entity

import (
	"strings"
	"time"
)

// Language identifies the programming language a CodeEntity was extracted from.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
	LanguageUnknown    Language = "unknown"
)

// Type returns the kind of code construct a CodeEntity represents.
type Type string

const (
	TypeFunction  Type = "function"
	TypeMethod    Type = "method"
	TypeClass     Type = "class"
	TypeModule    Type = "module"
	TypeInterface Type = "interface"
	TypeStruct    Type = "struct"
	TypeEnum      Type = "enum"
)

// Role classifies the file an entity lives in, for noise filtering during
// search. It is additive to the core filter set (language, entity type,
// repo) and defaults to RoleAny, which never restricts results.
type Role string

const (
	RoleAny       Role = "any"
	RoleSource    Role = "source"
	RoleTest      Role = "test"
	RoleGenerated Role = "generated"
)

// CodeEntity is a single parsed unit of source code: a function, method,
// class, struct, interface, or enum, together with enough context to embed
// it, rank it, and render it back to a caller.
type CodeEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type Type   `json:"entity_type"`
	Lang Language `json:"language"`

	FilePath  string `json:"file_path"`
	RepoName  string `json:"repo_name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`

	SourceCode string `json:"source_code"`
	Docstring  string `json:"docstring,omitempty"`
	Signature  string `json:"signature,omitempty"`

	Parameters  []string `json:"parameters,omitempty"`
	ReturnType  string   `json:"return_type,omitempty"`
	Decorators  []string `json:"decorators,omitempty"`
	ParentClass string   `json:"parent_class,omitempty"`

	Complexity int       `json:"complexity,omitempty"`
	LOC        int       `json:"loc"`
	CreatedAt  time.Time `json:"created_at"`
}

// Role classifies the entity's file for optional noise filtering.
func (e *CodeEntity) Role() Role {
	lower := strings.ToLower(e.FilePath)
	switch {
	case strings.Contains(lower, "_test.") || strings.Contains(lower, "/test/") ||
		strings.Contains(lower, "/tests/") || strings.HasPrefix(lower, "test_") ||
		strings.Contains(lower, ".test.") || strings.Contains(lower, ".spec."):
		return RoleTest
	case strings.Contains(lower, ".pb.go") || strings.Contains(lower, "_generated.") ||
		strings.Contains(lower, "/generated/") || strings.Contains(lower, ".gen."):
		return RoleGenerated
	default:
		return RoleSource
	}
}

// SearchableText projects an entity down to the text an embedder or the
// BM25 tokenizer should consume. Field order matters: the name and type
// context come first (highest-weight terms), then signature, parameters and
// docstring, and the return type and parent class close the text.
func (e *CodeEntity) SearchableText() string {
	var parts []string

	parts = append(parts, e.Name)

	switch e.Type {
	case TypeFunction, TypeMethod:
		parts = append(parts, "function")
	case TypeClass:
		parts = append(parts, "class")
	}

	if e.Signature != "" {
		parts = append(parts, e.Signature)
	}

	if len(e.Parameters) > 0 {
		parts = append(parts, "parameters: "+strings.Join(e.Parameters, " "))
	}

	if e.Docstring != "" {
		doc := strings.TrimSpace(e.Docstring)
		doc = strings.Trim(doc, `"'`)
		parts = append(parts, doc)
	}

	if e.ReturnType != "" {
		parts = append(parts, "returns "+e.ReturnType)
	}

	if e.ParentClass != "" {
		parts = append(parts, "method of "+e.ParentClass)
	}

	return strings.Join(parts, " ")
}

// highlightDocstringMaxLen bounds the docstring prefix included in Highlights.
const highlightDocstringMaxLen = 200

// Highlights returns the short excerpt a search result surfaces to explain
// why an entity matched: the docstring prefix (truncated to
// highlightDocstringMaxLen) followed by the signature, when present.
func (e *CodeEntity) Highlights() []string {
	var out []string
	if doc := strings.TrimSpace(e.Docstring); doc != "" {
		if len(doc) > highlightDocstringMaxLen {
			doc = doc[:highlightDocstringMaxLen]
		}
		out = append(out, doc)
	}
	if e.Signature != "" {
		out = append(out, e.Signature)
	}
	return out
}

// IndexedCode pairs an entity with its embedding vector, ready for storage.
type IndexedCode struct {
	Entity    CodeEntity
	Embedding []float32
	IndexedAt time.Time
}

// Repository describes a source tree to index.
type Repository struct {
	ID          string
	Name        string
	URL         string
	Branch      string
	LocalPath   string
	Language    string
	LastIndexed time.Time
	EntityCount int
	IsIndexed   bool
	IndexError  string
}

// SearchResult is a single ranked hit returned by a search operation.
type SearchResult struct {
	Entity        CodeEntity `json:"entity"`
	Score         float64    `json:"score"`
	SemanticScore float64    `json:"semantic_score"`
	BM25Score     float64    `json:"bm25_score"`
	Highlights    []string   `json:"highlights,omitempty"`
}

// SearchQuery bundles the parameters of a hybrid search request.
type SearchQuery struct {
	Query          string
	Language       Language
	Type           Type
	RepoFilter     string
	Role           Role
	Limit          int
	UseHybrid      bool
	SemanticWeight float64
}

// DefaultSearchQuery returns a SearchQuery with the spec's documented
// defaults (limit 20, hybrid enabled, semantic weight 0.7).
func DefaultSearchQuery(query string) SearchQuery {
	return SearchQuery{
		Query:          query,
		Role:           RoleAny,
		Limit:          20,
		UseHybrid:      true,
		SemanticWeight: 0.7,
	}
}

// IndexingJob is a unit of work consumed off the job queue: index (or
// re-index) one repository.
type IndexingJob struct {
	ID        string         `json:"id"`
	RepoURL   string         `json:"repo_url"`
	RepoName  string         `json:"repo_name"`
	Branch    string         `json:"branch"`
	Priority  int            `json:"priority"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// IndexResult summarizes the outcome of indexing one repository or directory.
type IndexResult struct {
	Success         bool
	RepoName        string
	EntitiesFound   int
	EntitiesIndexed int
	FilesProcessed  int
	Duration        time.Duration
	Error           string
	Languages       map[Language]int
}
