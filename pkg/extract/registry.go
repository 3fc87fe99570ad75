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

package extract

import (
	"fmt"
	"log/slog"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Registry selects an Extractor for a file path, preferring tree-sitter and
// falling back to the simplified extractor per SPEC mode semantics.
type Registry struct {
	logger     *slog.Logger
	mode       Mode
	treeSitter map[entity.Language]Extractor
	simplified map[entity.Language]Extractor
}

// NewRegistry builds a Registry with the default extractor set wired in:
// one tree-sitter extractor per grammar the corpus bundles (Go, Python,
// JavaScript/TypeScript, Rust), and the regex-based fallback for all of
// them plus any future language that never gets a grammar.
func NewRegistry(logger *slog.Logger, mode Mode) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = DefaultMode
	}

	ts := NewTreeSitterExtractors(logger)
	simple := map[entity.Language]Extractor{
		entity.LanguageGo:         NewSimplifiedExtractor(entity.LanguageGo),
		entity.LanguagePython:    NewSimplifiedExtractor(entity.LanguagePython),
		entity.LanguageJavaScript: NewSimplifiedExtractor(entity.LanguageJavaScript),
		entity.LanguageTypeScript: NewSimplifiedExtractor(entity.LanguageTypeScript),
		entity.LanguageRust:       NewSimplifiedExtractor(entity.LanguageRust),
	}

	return &Registry{
		logger:     logger,
		mode:       mode,
		treeSitter: ts,
		simplified: simple,
	}
}

// ExtractFile dispatches content to the extractor registered for path's
// language, applying the registry's mode: Auto tries tree-sitter first and
// falls back to the simplified extractor if it errors; Simplified always
// uses the regex-based extractor; TreeSitter never falls back.
func (r *Registry) ExtractFile(content []byte, path, repoName string) ([]entity.CodeEntity, error) {
	lang := LanguageForPath(path)
	if lang == entity.LanguageUnknown {
		return nil, nil
	}

	switch r.mode {
	case ModeSimplified:
		return r.simplified[lang].Extract(content, path, repoName)
	case ModeTreeSitter:
		ext, ok := r.treeSitter[lang]
		if !ok {
			return nil, fmt.Errorf("no tree-sitter extractor registered for %s", lang)
		}
		return ext.Extract(content, path, repoName)
	default: // ModeAuto
		if ext, ok := r.treeSitter[lang]; ok {
			entities, err := ext.Extract(content, path, repoName)
			if err == nil {
				return entities, nil
			}
			r.logger.Warn("extract.treesitter_failed_falling_back",
				"path", path, "language", lang, "error", err)
		}
		return r.simplified[lang].Extract(content, path, repoName)
	}
}

// SupportsLanguage reports whether lang has any registered extractor.
func (r *Registry) SupportsLanguage(lang entity.Language) bool {
	_, ok := r.simplified[lang]
	return ok
}
