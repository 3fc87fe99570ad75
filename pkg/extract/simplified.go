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
	"regexp"
	"strings"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// SimplifiedExtractor recovers entities with line-anchored regular
// expressions instead of an AST. It never errors: a line that matches
// nothing simply contributes no entity. Used when a language has no
// bundled tree-sitter grammar, or when the structured extractor fails on
// a file (e.g. a syntax error from a WIP edit).
type SimplifiedExtractor struct {
	lang     entity.Language
	patterns languagePatterns
}

type languagePatterns struct {
	function  *regexp.Regexp
	method    *regexp.Regexp
	class     *regexp.Regexp
	structure *regexp.Regexp
	iface     *regexp.Regexp
}

// NewSimplifiedExtractor builds the regex fallback for lang.
func NewSimplifiedExtractor(lang entity.Language) *SimplifiedExtractor {
	return &SimplifiedExtractor{lang: lang, patterns: patternsFor(lang)}
}

func (s *SimplifiedExtractor) Language() entity.Language { return s.lang }

func (s *SimplifiedExtractor) Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error) {
	switch s.lang {
	case entity.LanguageGo:
		return s.extractGo(content, filePath, repoName), nil
	case entity.LanguagePython:
		return s.extractPython(content, filePath, repoName), nil
	case entity.LanguageJavaScript, entity.LanguageTypeScript:
		return s.extractJS(content, filePath, repoName), nil
	case entity.LanguageRust:
		return s.extractRust(content, filePath, repoName), nil
	default:
		return nil, nil
	}
}

func patternsFor(lang entity.Language) languagePatterns {
	switch lang {
	case entity.LanguageGo:
		return languagePatterns{
			function:  regexp.MustCompile(`^func\s+(\w+)\s*\(([^)]*)\)\s*(\S.*)?\{`),
			method:    regexp.MustCompile(`^func\s+\((\w+)\s+\*?(\w+)\)\s+(\w+)\s*\(([^)]*)\)`),
			structure: regexp.MustCompile(`^type\s+(\w+)\s+struct\s*\{`),
			iface:     regexp.MustCompile(`^type\s+(\w+)\s+interface\s*\{`),
		}
	case entity.LanguagePython:
		return languagePatterns{
			function: regexp.MustCompile(`^(\s*)def\s+(\w+)\s*\(([^)]*)\)\s*(?:->\s*([^\:]+))?\s*:`),
			class:    regexp.MustCompile(`^(\s*)class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`),
		}
	case entity.LanguageJavaScript, entity.LanguageTypeScript:
		return languagePatterns{
			function: regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(([^)]*)\)`),
			method:   regexp.MustCompile(`^\s+(?:async\s+)?(\w+)\s*\(([^)]*)\)\s*\{`),
			class:    regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)(?:\s+extends\s+(\w+))?`),
		}
	case entity.LanguageRust:
		return languagePatterns{
			function:  regexp.MustCompile(`^(\s*)(pub\s+)?(async\s+)?fn\s+(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)`),
			structure: regexp.MustCompile(`^(\s*)(pub\s+)?struct\s+(\w+)`),
			iface:     regexp.MustCompile(`^(\s*)(pub\s+)?trait\s+(\w+)`),
		}
	default:
		return languagePatterns{}
	}
}

func (s *SimplifiedExtractor) extractGo(content []byte, filePath, repoName string) []entity.CodeEntity {
	var out []entity.CodeEntity
	lines := strings.Split(string(content), "\n")
	p := s.patterns

	for i, line := range lines {
		if m := p.function.FindStringSubmatch(line); m != nil {
			name, params, ret := m[1], m[2], strings.TrimSpace(m[3])
			sig := strings.TrimSpace(fmt.Sprintf("func %s(%s) %s", name, params, ret))
			out = append(out, entity.CodeEntity{
				ID:         entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)),
				Name:       name,
				Type:       entity.TypeFunction,
				Lang:       entity.LanguageGo,
				FilePath:   filePath,
				RepoName:   repoName,
				StartLine:  i + 1,
				EndLine:    i + 1,
				SourceCode: line,
				Signature:  sig,
				LOC:        1,
			})
			continue
		}
		if m := p.method.FindStringSubmatch(line); m != nil {
			receiverType, name, params := m[2], m[3], m[4]
			out = append(out, entity.CodeEntity{
				ID:          entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)),
				Name:        name,
				Type:        entity.TypeMethod,
				Lang:        entity.LanguageGo,
				FilePath:    filePath,
				RepoName:    repoName,
				StartLine:   i + 1,
				EndLine:     i + 1,
				SourceCode:  line,
				Signature:   fmt.Sprintf("func (%s %s) %s(%s)", m[1], receiverType, name, params),
				ParentClass: receiverType,
				LOC:         1,
			})
			continue
		}
		if m := p.structure.FindStringSubmatch(line); m != nil {
			name := m[1]
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeStruct, Lang: entity.LanguageGo, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: fmt.Sprintf("type %s struct", name), LOC: 1,
			})
			continue
		}
		if m := p.iface.FindStringSubmatch(line); m != nil {
			name := m[1]
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeInterface, Lang: entity.LanguageGo, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: fmt.Sprintf("type %s interface", name), LOC: 1,
			})
		}
	}
	return out
}

func (s *SimplifiedExtractor) extractPython(content []byte, filePath, repoName string) []entity.CodeEntity {
	var out []entity.CodeEntity
	lines := strings.Split(string(content), "\n")
	p := s.patterns

	type openClass struct {
		name   string
		indent int
	}
	var classStack []openClass

	for i, line := range lines {
		if m := p.class.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			for len(classStack) > 0 && classStack[len(classStack)-1].indent >= indent {
				classStack = classStack[:len(classStack)-1]
			}
			name := m[2]
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeClass, Lang: entity.LanguagePython, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: fmt.Sprintf("class %s(%s)", name, m[3]), LOC: 1,
			})
			classStack = append(classStack, openClass{name: name, indent: indent})
			continue
		}
		if m := p.function.FindStringSubmatch(line); m != nil {
			indent := len(m[1])
			for len(classStack) > 0 && classStack[len(classStack)-1].indent >= indent {
				classStack = classStack[:len(classStack)-1]
			}
			name, params, ret := m[2], m[3], strings.TrimSpace(m[4])
			entityType := entity.TypeFunction
			parent := ""
			if len(classStack) > 0 {
				entityType = entity.TypeMethod
				parent = classStack[len(classStack)-1].name
			}
			sig := fmt.Sprintf("def %s(%s)", name, params)
			if ret != "" {
				sig += " -> " + ret
			}
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entityType, Lang: entity.LanguagePython, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: sig, ReturnType: ret, ParentClass: parent, LOC: 1,
			})
		}
	}
	return out
}

func (s *SimplifiedExtractor) extractJS(content []byte, filePath, repoName string) []entity.CodeEntity {
	var out []entity.CodeEntity
	lines := strings.Split(string(content), "\n")
	p := s.patterns
	currentClass := ""

	for i, line := range lines {
		if m := p.class.FindStringSubmatch(line); m != nil {
			currentClass = m[1]
			sig := "class " + currentClass
			if len(m) > 2 && m[2] != "" {
				sig += " extends " + m[2]
			}
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, currentClass, i+1, i+1, 0, len(line)), Name: currentClass,
				Type: entity.TypeClass, Lang: s.lang, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line, Signature: sig, LOC: 1,
			})
			continue
		}
		if m := p.function.FindStringSubmatch(line); m != nil {
			name, params := m[1], m[2]
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeFunction, Lang: s.lang, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: fmt.Sprintf("function %s(%s)", name, params), LOC: 1,
			})
			continue
		}
		if currentClass != "" {
			if m := p.method.FindStringSubmatch(line); m != nil {
				name := m[1]
				if !isJSControlKeyword(name) {
					out = append(out, entity.CodeEntity{
						ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
						Type: entity.TypeMethod, Lang: s.lang, FilePath: filePath, RepoName: repoName,
						StartLine: i + 1, EndLine: i + 1, SourceCode: line,
						Signature: fmt.Sprintf("%s(%s)", name, m[2]), ParentClass: currentClass, LOC: 1,
					})
				}
			}
		}
		if strings.TrimSpace(line) == "}" {
			currentClass = ""
		}
	}
	return out
}

func isJSControlKeyword(name string) bool {
	switch name {
	case "if", "for", "while", "switch", "catch":
		return true
	default:
		return false
	}
}

func (s *SimplifiedExtractor) extractRust(content []byte, filePath, repoName string) []entity.CodeEntity {
	var out []entity.CodeEntity
	lines := strings.Split(string(content), "\n")
	p := s.patterns
	implPattern := regexp.MustCompile(`^impl\s*(?:<[^>]*>\s*)?(\w+)`)
	currentImpl := ""

	for i, line := range lines {
		if m := implPattern.FindStringSubmatch(line); m != nil {
			currentImpl = m[1]
			continue
		}
		if m := p.function.FindStringSubmatch(line); m != nil {
			isPub, isAsync, name, params := m[2] != "", m[3] != "", m[4], m[5]
			var sigParts []string
			if isPub {
				sigParts = append(sigParts, "pub")
			}
			if isAsync {
				sigParts = append(sigParts, "async")
			}
			sigParts = append(sigParts, fmt.Sprintf("fn %s(%s)", name, params))
			entityType := entity.TypeFunction
			if currentImpl != "" {
				entityType = entity.TypeMethod
			}
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entityType, Lang: entity.LanguageRust, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line,
				Signature: strings.Join(sigParts, " "), ParentClass: currentImpl, LOC: 1,
			})
			continue
		}
		if m := p.structure.FindStringSubmatch(line); m != nil {
			isPub, name := m[2] != "", m[3]
			sig := name
			if isPub {
				sig = "pub struct " + name
			} else {
				sig = "struct " + name
			}
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeStruct, Lang: entity.LanguageRust, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line, Signature: sig, LOC: 1,
			})
			currentImpl = ""
			continue
		}
		if m := p.iface.FindStringSubmatch(line); m != nil {
			isPub, name := m[2] != "", m[3]
			sig := "trait " + name
			if isPub {
				sig = "pub trait " + name
			}
			out = append(out, entity.CodeEntity{
				ID: entity.GenerateEntityID(filePath, name, i+1, i+1, 0, len(line)), Name: name,
				Type: entity.TypeInterface, Lang: entity.LanguageRust, FilePath: filePath, RepoName: repoName,
				StartLine: i + 1, EndLine: i + 1, SourceCode: line, Signature: sig, LOC: 1,
			})
			currentImpl = ""
			continue
		}
		if strings.TrimSpace(line) == "}" && !strings.HasPrefix(line, " ") {
			currentImpl = ""
		}
	}
	return out
}
