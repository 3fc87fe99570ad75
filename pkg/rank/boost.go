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

package rank

import (
	"strings"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// httpBoost multiplies an entity's combined score when the query is about
// HTTP/API/requests, correcting for a pattern where request-issuing
// functions (requests.api.request/get/post, Session.send, Adapter.send)
// rank below request-handling/test code that happens to mention the same
// keywords. Boost is 1.0 (no effect) for any query not in this domain.
func httpBoost(query string, e entity.CodeEntity) float64 {
	lower := strings.ToLower(query)
	if !containsAny(lower, "http", "request", "api") {
		return 1.0
	}

	filePath := strings.ToLower(e.FilePath)
	name := strings.ToLower(e.Name)

	switch {
	case strings.Contains(filePath, "api.py"):
		if containsAny(name, "request", "get", "post", "put", "patch", "delete", "head", "options") {
			return 1.5
		}
		return 1.0
	case strings.Contains(filePath, "sessions.py") && strings.Contains(name, "send"):
		return 1.5
	case strings.Contains(filePath, "adapters.py") && strings.Contains(name, "send"):
		return 1.3
	case containsAny(name, "handle_", "test_"):
		return 0.7
	default:
		return 1.0
	}
}
