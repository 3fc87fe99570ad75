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

package lexical

import (
	"regexp"
	"strings"
)

var (
	// camelBoundary1 splits "fooBar" -> "foo Bar" before lowercasing.
	camelBoundary1 = regexp.MustCompile(`([a-z])([A-Z])`)
	// camelBoundary2 splits "HTTPServer" -> "HTTP Server" before lowercasing.
	camelBoundary2 = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	// separators are replaced with spaces after lowercasing.
	separators = regexp.MustCompile(`[_\-./\\]`)
	// nonAlnum strips anything left that isn't alphanumeric or whitespace.
	nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
)

// minTokenLength discards tokens shorter than this after tokenizing; single
// characters carry no discriminating signal for code search. Two-letter
// tokens are kept.
const minTokenLength = 2

// Tokenize splits code-ish text into lowercase search tokens. Order is
// load-bearing: camelCase boundaries must be split BEFORE lowercasing or
// "fooBar" collapses to "foobar" with the boundary lost; separators and
// punctuation are stripped after lowercasing.
func Tokenize(text string) []string {
	text = camelBoundary2.ReplaceAllString(text, "$1 $2")
	text = camelBoundary1.ReplaceAllString(text, "$1 $2")
	text = strings.ToLower(text)
	text = separators.ReplaceAllString(text, " ")
	text = nonAlnum.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
