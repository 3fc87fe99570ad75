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
	"context"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// goExtractor walks a Go source file's AST and extracts top-level
// functions, methods (functions with a receiver), structs, and interfaces.
type goExtractor struct {
	logger *slog.Logger
}

func (g *goExtractor) Language() entity.Language { return entity.LanguageGo }

func (g *goExtractor) Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error) {
	parser := goPool.get()
	defer goPool.put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse go AST: %w", err)
	}

	var entities []entity.CodeEntity
	g.walk(tree.RootNode(), content, filePath, repoName, &entities)
	return entities, nil
}

func (g *goExtractor) walk(node *sitter.Node, src []byte, filePath, repoName string, out *[]entity.CodeEntity) {
	switch node.Type() {
	case "function_declaration":
		if e := g.parseFunction(node, src, filePath, repoName); e != nil {
			*out = append(*out, *e)
		}
	case "method_declaration":
		if e := g.parseMethod(node, src, filePath, repoName); e != nil {
			*out = append(*out, *e)
		}
	case "type_declaration":
		*out = append(*out, g.parseTypeDeclaration(node, src, filePath, repoName)...)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		g.walk(node.Child(i), src, filePath, repoName, out)
	}
}

func (g *goExtractor) parseFunction(node *sitter.Node, src []byte, filePath, repoName string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	params := splitParamList(childText(node, "parameters", src))
	result := strings.TrimSpace(childText(node, "result", src))

	sig := fmt.Sprintf("func %s(%s)", name, strings.Join(params, ", "))
	if result != "" {
		sig += " " + result
	}

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       entity.TypeFunction,
		Lang:       entity.LanguageGo,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Docstring:  extractGoDoc(node, src),
		Signature:  sig,
		Parameters: params,
		ReturnType: result,
		Complexity: calculateComplexity(node),
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (g *goExtractor) parseMethod(node *sitter.Node, src []byte, filePath, repoName string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	receiverNode := node.ChildByFieldName("receiver")
	receiverType := extractReceiverType(receiverNode, src)

	params := splitParamList(childText(node, "parameters", src))
	result := strings.TrimSpace(childText(node, "result", src))

	sig := fmt.Sprintf("func (%s) %s(%s)", receiverType, name, strings.Join(params, ", "))
	if result != "" {
		sig += " " + result
	}

	return &entity.CodeEntity{
		ID:          entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:        name,
		Type:        entity.TypeMethod,
		Lang:        entity.LanguageGo,
		FilePath:    filePath,
		RepoName:    repoName,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		SourceCode:  nodeText(node, src),
		Docstring:   extractGoDoc(node, src),
		Signature:   sig,
		Parameters:  params,
		ReturnType:  result,
		ParentClass: receiverType,
		Complexity:  calculateComplexity(node),
		LOC:         int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (g *goExtractor) parseTypeDeclaration(node *sitter.Node, src []byte, filePath, repoName string) []entity.CodeEntity {
	var out []entity.CodeEntity
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_spec" {
			continue
		}
		if e := g.parseTypeSpec(child, node, src, filePath, repoName); e != nil {
			out = append(out, *e)
		}
	}
	return out
}

func (g *goExtractor) parseTypeSpec(node, declNode *sitter.Node, src []byte, filePath, repoName string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	var kind entity.Type
	switch typeNode.Type() {
	case "struct_type":
		kind = entity.TypeStruct
	case "interface_type":
		kind = entity.TypeInterface
	default:
		return nil
	}

	sig := fmt.Sprintf("type %s struct", name)
	if kind == entity.TypeInterface {
		sig = fmt.Sprintf("type %s interface", name)
	}

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       kind,
		Lang:       entity.LanguageGo,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Docstring:  extractGoDoc(declNode, src),
		Signature:  sig,
		Complexity: 1,
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

// extractReceiverType pulls the receiver's base type name out of a
// parameter_list node like "(r *Repo)" or "(r Repo[T])", stripping
// pointer and generic-instantiation wrapping.
func extractReceiverType(receiverNode *sitter.Node, src []byte) string {
	if receiverNode == nil {
		return ""
	}
	for i := 0; i < int(receiverNode.ChildCount()); i++ {
		child := receiverNode.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return extractBaseTypeName(typeNode, src)
	}
	return ""
}

// extractBaseTypeName strips pointer and generic-instantiation wrapping
// from a type node, returning just the base type identifier.
func extractBaseTypeName(typeNode *sitter.Node, src []byte) string {
	switch typeNode.Type() {
	case "pointer_type":
		inner := typeNode.ChildByFieldName("type")
		if inner != nil {
			return extractBaseTypeName(inner, src)
		}
	case "generic_type":
		inner := typeNode.ChildByFieldName("type")
		if inner != nil {
			return nodeText(inner, src)
		}
	}
	return nodeText(typeNode, src)
}

// extractGoDoc walks preceding sibling comment nodes to find a Go doc
// comment immediately above a declaration.
func extractGoDoc(node *sitter.Node, src []byte) string {
	prev := node.PrevSibling()
	var lines []string
	for prev != nil && prev.Type() == "comment" {
		text := strings.TrimSpace(nodeText(prev, src))
		switch {
		case strings.HasPrefix(text, "//"):
			lines = append([]string{strings.TrimSpace(strings.TrimPrefix(text, "//"))}, lines...)
		case strings.HasPrefix(text, "/*"):
			trimmed := strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
			lines = append([]string{strings.TrimSpace(trimmed)}, lines...)
		}
		prev = prev.PrevSibling()
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, " ")
}

// splitParamList splits a Go parameter_list's raw text ("a int, b string")
// into individual parameter declarations, respecting nested parens/brackets
// so generic type arguments aren't split on their internal commas.
func splitParamList(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "(")
	raw = strings.TrimSuffix(raw, ")")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var params []string
	depth := 0
	start := 0
	for i, r := range raw {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				if p := strings.TrimSpace(raw[start:i]); p != "" {
					params = append(params, p)
				}
				start = i + 1
			}
		}
	}
	if p := strings.TrimSpace(raw[start:]); p != "" {
		params = append(params, p)
	}
	return params
}
