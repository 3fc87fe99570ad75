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

// Package rank fuses semantic and lexical search results into a single
// ranked list: query enhancement for the embedding call, Reciprocal Rank
// Fusion across both result sets, and a domain-specific boost pass for
// HTTP-related queries.
package rank

import "strings"

// EnhanceQuery rewrites a natural-language query before it's embedded, so
// the embedding model sees it anchored in a code-search context rather
// than as bare conversational text. The rewrites are keyword-triggered:
// HTTP-ish queries get the most nuanced treatment since "handle http
// requests" is ambiguous between sending and processing a request.
func EnhanceQuery(query string) string {
	lower := strings.ToLower(query)

	switch {
	case containsAny(lower, "http", "request", "api", "url", "web"):
		return enhanceHTTPQuery(query, lower)
	case containsAny(lower, "json", "parse", "decode"):
		return "JSON parsing function: " + query
	case containsAny(lower, "auth", "login", "token"):
		return "authentication function: " + query
	case containsAny(lower, "download", "file", "save"):
		return "file handling function: " + query
	default:
		return "function or method that " + query
	}
}

func enhanceHTTPQuery(query, lower string) string {
	if strings.Contains(lower, "handle") && !containsAny(lower, "redirect", "response", "error", "exception", "cookie", "process") {
		// "handle http requests" usually means send/make, not process.
		return "function that sends makes HTTP requests GET POST PUT DELETE PATCH"
	}
	if containsAny(lower, "make", "send", "perform", "execute", "do") {
		return "function that sends or makes HTTP requests: " + query
	}
	return "HTTP request function: " + query
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
