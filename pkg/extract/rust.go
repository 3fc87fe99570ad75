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

// rustExtractor walks a Rust source file's AST. Functions inside an impl
// block become methods with parent_class set to the implementing type;
// structs, enums, and traits are extracted as their own entities (traits
// map to entity.TypeInterface, the closest equivalent this model has).
type rustExtractor struct {
	logger *slog.Logger
}

func (r *rustExtractor) Language() entity.Language { return entity.LanguageRust }

func (r *rustExtractor) Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error) {
	parser := rustPool.get()
	defer rustPool.put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse rust AST: %w", err)
	}

	var entities []entity.CodeEntity
	r.visit(tree.RootNode(), content, filePath, repoName, "", &entities)
	return entities, nil
}

func (r *rustExtractor) visit(node *sitter.Node, src []byte, filePath, repoName, implType string, out *[]entity.CodeEntity) {
	switch node.Type() {
	case "function_item":
		if e := r.parseFunction(node, src, filePath, repoName, implType); e != nil {
			*out = append(*out, *e)
		}
	case "struct_item":
		if e := r.parseTyped(node, src, filePath, repoName, entity.TypeStruct, "struct"); e != nil {
			*out = append(*out, *e)
		}
	case "enum_item":
		if e := r.parseTyped(node, src, filePath, repoName, entity.TypeEnum, "enum"); e != nil {
			*out = append(*out, *e)
		}
	case "trait_item":
		if e := r.parseTyped(node, src, filePath, repoName, entity.TypeInterface, "trait"); e != nil {
			*out = append(*out, *e)
		}
	case "impl_item":
		implName := r.implType(node, src)
		for i := 0; i < int(node.ChildCount()); i++ {
			r.visit(node.Child(i), src, filePath, repoName, implName, out)
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		r.visit(node.Child(i), src, filePath, repoName, implType, out)
	}
}

func (r *rustExtractor) parseFunction(node *sitter.Node, src []byte, filePath, repoName, implType string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	params := r.extractParameters(node.ChildByFieldName("parameters"), src)
	returnType := ""
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		returnType = strings.TrimSpace(nodeText(rt, src))
	}

	isPublic := false
	isAsync := false
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "visibility_modifier":
			isPublic = strings.Contains(nodeText(node.Child(i), src), "pub")
		case "async":
			isAsync = true
		}
	}

	var sigParts []string
	if isPublic {
		sigParts = append(sigParts, "pub")
	}
	if isAsync {
		sigParts = append(sigParts, "async")
	}
	sigParts = append(sigParts, fmt.Sprintf("fn %s(%s)", name, strings.Join(params, ", ")))
	if returnType != "" {
		sigParts = append(sigParts, "-> "+returnType)
	}

	entityType := entity.TypeFunction
	if implType != "" {
		entityType = entity.TypeMethod
	}

	return &entity.CodeEntity{
		ID:          entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:        name,
		Type:        entityType,
		Lang:        entity.LanguageRust,
		FilePath:    filePath,
		RepoName:    repoName,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		SourceCode:  nodeText(node, src),
		Docstring:   r.extractDoc(node, src),
		Signature:   strings.Join(sigParts, " "),
		Parameters:  params,
		ReturnType:  returnType,
		ParentClass: implType,
		Complexity:  calculateComplexity(node),
		LOC:         int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (r *rustExtractor) parseTyped(node *sitter.Node, src []byte, filePath, repoName string, kind entity.Type, keyword string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	isPublic := false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "visibility_modifier" {
			isPublic = strings.Contains(nodeText(node.Child(i), src), "pub")
		}
	}

	sig := keyword + " " + name
	if isPublic {
		sig = "pub " + sig
	}

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       kind,
		Lang:       entity.LanguageRust,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Docstring:  r.extractDoc(node, src),
		Signature:  sig,
		Complexity: 1,
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

// implType resolves the base type name an impl block is implementing for
// (Foo in both `impl Foo` and `impl Trait for Foo`), unwrapping a
// generic_type wrapper when the impl targets Foo<T>.
func (r *rustExtractor) implType(node *sitter.Node, src []byte) string {
	if tn := node.ChildByFieldName("type"); tn != nil {
		if tn.Type() == "generic_type" {
			if inner := tn.ChildByFieldName("type"); inner != nil {
				return nodeText(inner, src)
			}
		}
		return nodeText(tn, src)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			return nodeText(child, src)
		case "generic_type":
			if tn := child.ChildByFieldName("type"); tn != nil {
				return nodeText(tn, src)
			}
		}
	}
	return ""
}

func (r *rustExtractor) extractParameters(paramsNode *sitter.Node, src []byte) []string {
	if paramsNode == nil {
		return nil
	}
	var params []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		if child.Type() == "parameter" || child.Type() == "self_parameter" {
			params = append(params, strings.TrimSpace(nodeText(child, src)))
		}
	}
	return params
}

// extractDoc collects consecutive `///`/`//!` or `/** */`/`/*! */` doc
// comments immediately preceding node, oldest first.
func (r *rustExtractor) extractDoc(node *sitter.Node, src []byte) string {
	var lines []string
	prev := node.PrevSibling()
	for prev != nil {
		if prev.Type() == "attribute_item" {
			prev = prev.PrevSibling()
			continue
		}
		if prev.Type() != "line_comment" && prev.Type() != "block_comment" {
			break
		}
		text := strings.TrimSpace(nodeText(prev, src))
		switch {
		case strings.HasPrefix(text, "///") || strings.HasPrefix(text, "//!"):
			lines = append([]string{strings.TrimSpace(text[3:])}, lines...)
		case strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/*!"):
			trimmed := strings.TrimSuffix(text[3:], "*/")
			lines = append([]string{strings.TrimSpace(trimmed)}, lines...)
		default:
			prev = prev.PrevSibling()
			continue
		}
		prev = prev.PrevSibling()
	}
	return strings.Join(lines, " ")
}
