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

// jsExtractor handles both JavaScript and TypeScript; the concrete
// language is fixed at construction time since the two grammars share an
// extraction path but are registered separately.
type jsExtractor struct {
	logger *slog.Logger
	lang   entity.Language
}

func (j *jsExtractor) Language() entity.Language { return j.lang }

func (j *jsExtractor) Extract(content []byte, filePath, repoName string) ([]entity.CodeEntity, error) {
	p := jsPool
	if j.lang == entity.LanguageTypeScript {
		p = tsPool
	}
	parser := p.get()
	defer p.put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s AST: %w", j.lang, err)
	}

	var entities []entity.CodeEntity
	j.visit(tree.RootNode(), content, filePath, repoName, "", &entities)
	return entities, nil
}

func (j *jsExtractor) visit(node *sitter.Node, src []byte, filePath, repoName, parentClass string, out *[]entity.CodeEntity) {
	switch node.Type() {
	case "function_declaration":
		if e := j.parseFunction(node, src, filePath, repoName, parentClass); e != nil {
			*out = append(*out, *e)
		}
		return

	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "variable_declarator" {
				if e := j.parseVariableFunction(child, src, filePath, repoName); e != nil {
					*out = append(*out, *e)
				}
			}
		}
		return

	case "class_declaration":
		nameNode := node.ChildByFieldName("name")
		className := nodeText(nameNode, src)
		if e := j.parseClass(node, src, filePath, repoName, className); e != nil {
			*out = append(*out, *e)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				member := body.Child(i)
				if member.Type() == "method_definition" {
					if e := j.parseMethod(member, src, filePath, repoName, className); e != nil {
						*out = append(*out, *e)
					}
				}
			}
		}
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		j.visit(node.Child(i), src, filePath, repoName, parentClass, out)
	}
}

func (j *jsExtractor) parseFunction(node *sitter.Node, src []byte, filePath, repoName, parentClass string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)
	params := j.extractParameters(node.ChildByFieldName("parameters"), src)

	entityType := entity.TypeFunction
	if parentClass != "" {
		entityType = entity.TypeMethod
	}

	return &entity.CodeEntity{
		ID:          entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:        name,
		Type:        entityType,
		Lang:        j.lang,
		FilePath:    filePath,
		RepoName:    repoName,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		SourceCode:  nodeText(node, src),
		Docstring:   j.extractJSDoc(node, src),
		Signature:   fmt.Sprintf("function %s(%s)", name, strings.Join(params, ", ")),
		Parameters:  params,
		ParentClass: parentClass,
		Complexity:  calculateComplexity(node),
		LOC:         int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (j *jsExtractor) parseVariableFunction(node *sitter.Node, src []byte, filePath, repoName string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	valueNode := node.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return nil
	}
	if valueNode.Type() != "arrow_function" && valueNode.Type() != "function" {
		return nil
	}
	name := nodeText(nameNode, src)

	var params []string
	if pn := valueNode.ChildByFieldName("parameters"); pn != nil {
		params = j.extractParameters(pn, src)
	} else if pn := valueNode.ChildByFieldName("parameter"); pn != nil {
		params = []string{nodeText(pn, src)}
	}

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       entity.TypeFunction,
		Lang:       j.lang,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Signature:  fmt.Sprintf("const %s = (%s) =>", name, strings.Join(params, ", ")),
		Parameters: params,
		Complexity: calculateComplexity(valueNode),
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (j *jsExtractor) parseClass(node *sitter.Node, src []byte, filePath, repoName, name string) *entity.CodeEntity {
	if name == "" {
		return nil
	}
	extends := ""
	if heritage := node.ChildByFieldName("heritage"); heritage != nil {
		extends = strings.TrimSpace(strings.TrimPrefix(nodeText(heritage, src), "extends"))
	}

	sig := fmt.Sprintf("class %s", name)
	var params []string
	if extends != "" {
		sig += " extends " + extends
		params = []string{extends}
	}

	return &entity.CodeEntity{
		ID:         entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:       name,
		Type:       entity.TypeClass,
		Lang:       j.lang,
		FilePath:   filePath,
		RepoName:   repoName,
		StartLine:  int(node.StartPoint().Row) + 1,
		EndLine:    int(node.EndPoint().Row) + 1,
		SourceCode: nodeText(node, src),
		Signature:  sig,
		Parameters: params,
		Complexity: calculateComplexity(node),
		LOC:        int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

func (j *jsExtractor) parseMethod(node *sitter.Node, src []byte, filePath, repoName, parentClass string) *entity.CodeEntity {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, src)
	params := j.extractParameters(node.ChildByFieldName("parameters"), src)

	return &entity.CodeEntity{
		ID:          entity.GenerateEntityID(filePath, name, int(node.StartPoint().Row)+1, int(node.EndPoint().Row)+1, int(node.StartPoint().Column), int(node.EndPoint().Column)),
		Name:        name,
		Type:        entity.TypeMethod,
		Lang:        j.lang,
		FilePath:    filePath,
		RepoName:    repoName,
		StartLine:   int(node.StartPoint().Row) + 1,
		EndLine:     int(node.EndPoint().Row) + 1,
		SourceCode:  nodeText(node, src),
		Docstring:   j.extractJSDoc(node, src),
		Signature:   fmt.Sprintf("%s(%s)", name, strings.Join(params, ", ")),
		Parameters:  params,
		ParentClass: parentClass,
		Complexity:  calculateComplexity(node),
		LOC:         int(node.EndPoint().Row) - int(node.StartPoint().Row) + 1,
	}
}

// extractParameters flattens formal_parameters into plain name strings,
// handling required/optional/rest parameter wrapper nodes.
func (j *jsExtractor) extractParameters(paramsNode *sitter.Node, src []byte) []string {
	if paramsNode == nil {
		return nil
	}
	var params []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			params = append(params, nodeText(child, src))
		case "required_parameter", "optional_parameter":
			if pn := child.ChildByFieldName("pattern"); pn != nil {
				params = append(params, nodeText(pn, src))
			}
		case "rest_pattern":
			if child.ChildCount() > 0 {
				params = append(params, "..."+nodeText(child.Child(child.ChildCount()-1), src))
			}
		}
	}
	return params
}

// extractJSDoc cleans up a /** ... */ block comment immediately
// preceding node into a single descriptive line, dropping @tag lines.
func (j *jsExtractor) extractJSDoc(node *sitter.Node, src []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := nodeText(prev, src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	var clean []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(line, "*")
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "@") {
			clean = append(clean, line)
		}
	}
	return strings.Join(clean, " ")
}
