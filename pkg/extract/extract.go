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

// Package extract turns source files into entity.CodeEntity values. It
// prefers a tree-sitter structured-mode extractor per language and falls
// back to a regex/line-based extractor when a language has no bundled
// grammar or the AST parse fails.
package extract

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// Extractor parses a single file's content into code entities.
type Extractor interface {
	// Extract parses source content and returns the entities found in it.
	Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error)

	// Language reports the language this extractor handles.
	Language() entity.Language
}

// Mode selects which extractor implementation a Registry hands out.
type Mode string

const (
	// ModeTreeSitter uses tree-sitter for accurate AST-based extraction.
	ModeTreeSitter Mode = "treesitter"

	// ModeSimplified uses regex/line-based matching, no CGO dependency.
	ModeSimplified Mode = "simplified"

	// ModeAuto prefers tree-sitter, falling back to simplified per file
	// when the structured parser errors or a language has no grammar.
	ModeAuto Mode = "auto"
)

// DefaultMode is the mode a Registry uses unless told otherwise.
const DefaultMode = ModeAuto

// SkipDirs lists directory names a repository walk should never descend
// into: dependency trees, VCS metadata, and build output carry no code
// worth indexing and can be enormous.
var SkipDirs = map[string]bool{
	"node_modules":    true,
	"venv":            true,
	".venv":           true,
	"__pycache__":     true,
	".git":            true,
	"dist":            true,
	"build":           true,
	"target":          true,
	".tox":            true,
	".pytest_cache":   true,
	"vendor":          true,
	"third_party":     true,
	"external":        true,
}

// extensionLanguage maps a file extension to the language that owns it.
var extensionLanguage = map[string]entity.Language{
	".py":  entity.LanguagePython,
	".js":  entity.LanguageJavaScript,
	".jsx": entity.LanguageJavaScript,
	".mjs": entity.LanguageJavaScript,
	".cjs": entity.LanguageJavaScript,
	".ts":  entity.LanguageTypeScript,
	".tsx": entity.LanguageTypeScript,
	".go":  entity.LanguageGo,
	".rs":  entity.LanguageRust,
}

// LanguageForPath returns the language registered for a file's extension,
// or LanguageUnknown if none is registered.
func LanguageForPath(path string) entity.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguage[ext]; ok {
		return lang
	}
	return entity.LanguageUnknown
}

// SupportedExtensions lists every file extension a Registry can extract from.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguage))
	for ext := range extensionLanguage {
		exts = append(exts, ext)
	}
	return exts
}

// IsSupported reports whether path has a registered extractor.
func IsSupported(path string) bool {
	_, ok := extensionLanguage[strings.ToLower(filepath.Ext(path))]
	return ok
}
