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
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// pool wraps a sync.Pool of *sitter.Parser for one grammar. tree-sitter
// parsers are stateful and not safe for concurrent use, so each extraction
// call borrows one from the pool instead of allocating a fresh parser.
type pool struct {
	once sync.Pool
	init sync.Once
	new  func() *sitter.Parser
}

func (p *pool) get() *sitter.Parser {
	p.init.Do(func() {
		p.once.New = func() any { return p.new() }
	})
	return p.once.Get().(*sitter.Parser)
}

func (p *pool) put(parser *sitter.Parser) {
	p.once.Put(parser)
}

var (
	goPool = &pool{new: func() *sitter.Parser {
		parser := sitter.NewParser()
		parser.SetLanguage(golang.GetLanguage())
		return parser
	}}
	pyPool = &pool{new: func() *sitter.Parser {
		parser := sitter.NewParser()
		parser.SetLanguage(python.GetLanguage())
		return parser
	}}
	jsPool = &pool{new: func() *sitter.Parser {
		parser := sitter.NewParser()
		parser.SetLanguage(javascript.GetLanguage())
		return parser
	}}
	tsPool = &pool{new: func() *sitter.Parser {
		parser := sitter.NewParser()
		parser.SetLanguage(tstypescript.GetLanguage())
		return parser
	}}
	rustPool = &pool{new: func() *sitter.Parser {
		parser := sitter.NewParser()
		parser.SetLanguage(rust.GetLanguage())
		return parser
	}}
)

// NewTreeSitterExtractors builds the per-language tree-sitter extractors
// backed by the shared parser pools above.
func NewTreeSitterExtractors(logger *slog.Logger) map[entity.Language]Extractor {
	return map[entity.Language]Extractor{
		entity.LanguageGo:         &goExtractor{logger: logger},
		entity.LanguagePython:     &pythonExtractor{logger: logger},
		entity.LanguageJavaScript: &jsExtractor{logger: logger, lang: entity.LanguageJavaScript},
		entity.LanguageTypeScript: &jsExtractor{logger: logger, lang: entity.LanguageTypeScript},
		entity.LanguageRust:       &rustExtractor{logger: logger},
	}
}
