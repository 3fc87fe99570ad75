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

// pythonExtractor walks a Python source file's AST, recursing through
// class bodies so a function nested in a class becomes a method with
// parent_class set, exactly as the plain module-level case becomes a
// function.
type pythonExtractor struct {
	logger *slog.Logger
}

func (p *pythonExtractor) Language() entity.Language { return entity.LanguagePython }

func (p *pythonExtractor) Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error) {
	parser := pyPool.get()
	defer pyPool.put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse python AST: %w", err)
	}

	var entities []entity.CodeEntity
	p.visit(tree.RootNode(), content, filePath, repoName, "", &entities)
	return entities, nil
}

func (p *pythonExtractor) visit(node *sitter.Node, src []byte, filePath, repoName, currentClass string, out *[]entity.CodeEntity) {
	switch node.Type() {
	case "function_definition":
		if e := p.parseFunction(node, src, filePath, repoName, currentClass); e != nil {
			*out = append(*out, *e)
		}
		return
	case "class_definition":
		className := ""
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			className = nodeText(nameNode, src)
		}
		if e := p.parseClass(node, src, filePath, repoName, className); e != nil {
			*out = append(*out, *e)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				p.visit(body.Child(i), src, filePath, repoName, className, out)
			}
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		p.visit(node.Child(i), src, filePath, repoName, currentClass, out)
	}
}

func (p *pythonExtractor) parseFunction(node *sitter.Node, src []byte, filePath, repoName, currentClass string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)

	params := p.extractParameters(node.ChildByFieldName("parameters"), src)
	returnType := strings.TrimSpace(childText(node, "return_type", src))

	entityType := entity.TypeFunction
	if currentClass != "" {
		entityType = entity.TypeMethod
	}

	sig := fmt.Sprintf("def %s(%s)", name, strings.Join(params, ", "))
	if returnType != "" {
		sig += " -> " + returnType
	}

	e := &entity.CodeEntity{
		ID:          entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:        name,
		Type:        entityType,
		Lang:        entity.LanguagePython,
		FilePath:    filePath,
		RepoName:    repoName,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		SourceCode:  nodeText(node, src),
		Docstring:   p.extractDocstring(node, src),
		Signature:   sig,
		Parameters:  params,
		ReturnType:  returnType,
		Decorators:  p.extractDecorators(node, src),
		ParentClass: currentClass,
		Complexity:  calculateComplexity(node),
		LOC:         int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
	return e
}

func (p *pythonExtractor) parseClass(node *sitter.Node, src []byte, filePath, repoName, name string) *entity.CodeEntity {
	if name == "" {
		return nil
	}
	bases := ""
	if argList := node.ChildByFieldName("superclasses"); argList != nil {
		bases = strings.Trim(nodeText(argList, src), "()")
	}

	sig := fmt.Sprintf("class %s(%s)", name, bases)

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       entity.TypeClass,
		Lang:       entity.LanguagePython,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Docstring:  p.extractDocstring(node, src),
		Signature:  sig,
		Decorators: p.extractDecorators(node, src),
		Complexity: calculateComplexity(node),
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

// extractParameters handles the parameter shapes Python's grammar
// distinguishes: bare identifiers, typed/defaulted parameters, *args, and
// **kwargs.
func (p *pythonExtractor) extractParameters(paramsNode *sitter.Node, src []byte) []string {
	if paramsNode == nil {
		return nil
	}
	var params []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			params = append(params, nodeText(child, src))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			params = append(params, nodeText(child, src))
		case "list_splat_pattern":
			params = append(params, "*"+strings.TrimPrefix(nodeText(child, src), "*"))
		case "dictionary_splat_pattern":
			params = append(params, "**"+strings.TrimPrefix(nodeText(child, src), "**"))
		}
	}
	return params
}

// extractDocstring returns a function or class's docstring: the string
// literal forming the first statement of its body, with surrounding quotes
// stripped.
func (p *pythonExtractor) extractDocstring(node *sitter.Node, src []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first.Type() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	strNode := first.Child(0)
	if strNode.Type() != "string" {
		return ""
	}
	text := nodeText(strNode, src)
	text = strings.Trim(text, `"'`)
	return strings.TrimSpace(text)
}

// extractDecorators walks preceding decorator siblings (Python attaches
// them as prior siblings of the def/class node, innermost first).
func (p *pythonExtractor) extractDecorators(node *sitter.Node, src []byte) []string {
	var decorators []string
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == "decorator" {
		decorators = append([]string{strings.TrimSpace(nodeText(prev, src))}, decorators...)
		prev = prev.PrevSibling()
	}
	return decorators
}
