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
	sitter "github.com/smacker/go-tree-sitter"
)

// branchNodeTypes are the grammar node types counted as a decision point
// when approximating cyclomatic complexity. The set spans the constructs
// of the languages extracted here (if/elif/for/while/except/with and match
// cases in Python, if/for/switch cases/select in Go, if/for/while/switch
// cases/catch in JS/TS, if/for/while/match arms in Rust) rather than one
// grammar.
var branchNodeTypes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"for_in_statement":       true,
	"while_statement":        true,
	"except_clause":          true,
	"with_statement":         true,
	"conditional_expression": true,
	"ternary_expression":     true,
	"case_clause":            true,
	"expression_case":        true,
	"type_case":              true,
	"switch_case":            true,
	"catch_clause":           true,
	"select_statement":       true,
	"if_expression":          true,
	"for_expression":         true,
	"while_expression":       true,
	"match_arm":              true,
	"boolean_operator":       true, // Python's "and"/"or"
}

// logicalBinaryOperators are the "operator" field values of a
// binary_expression node (Go/JS/TS/Rust) that represent logical-and/or,
// as opposed to the arithmetic and comparison operators binary_expression
// also covers in those grammars.
var logicalBinaryOperators = map[string]bool{
	"&&": true,
	"||": true,
}

// calculateComplexity approximates cyclomatic complexity by counting
// branch-type nodes in the subtree rooted at node, starting from a
// baseline of 1 (a function with no branches has one path through it).
func calculateComplexity(node *sitter.Node) int {
	complexity := 1
	var count func(n *sitter.Node)
	count = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch {
		case n.Type() == "binary_expression":
			if op := n.ChildByFieldName("operator"); op != nil && logicalBinaryOperators[op.Type()] {
				complexity++
			}
		case branchNodeTypes[n.Type()]:
			complexity++
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			count(n.Child(i))
		}
	}
	count(node)
	return complexity
}

// nodeText returns the source text spanned by node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// childText returns the source text of node's named child, or "" if the
// field isn't present.
func childText(node *sitter.Node, field string, source []byte) string {
	return nodeText(node.ChildByFieldName(field), source)
}
