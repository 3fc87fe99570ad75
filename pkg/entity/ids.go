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

package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// GenerateEntityID derives a deterministic ID for a CodeEntity from its
// location, not its content: file path, name, and full line/column range.
// The signature is deliberately excluded so that IDs stay stable across
// parser improvements that change how a signature is rendered; reindexing
// the same function after a signature-formatting change must not orphan
// its old embedding and vector-store row.
func GenerateEntityID(filePath, name string, startLine, endLine, startCol, endCol int) string {
	normalized := normalizePath(filePath)
	idStr := fmt.Sprintf("%s|%s|%d|%d|%d|%d", normalized, name, startLine, endLine, startCol, endCol)
	hash := sha256.Sum256([]byte(idStr))
	return fmt.Sprintf("entity:%s", hex.EncodeToString(hash[:]))
}

// GenerateFileID derives a deterministic ID for a whole file, used when an
// entity's type is Module (i.e. the file itself carries searchable text,
// such as a module-level docstring).
func GenerateFileID(filePath string) string {
	normalized := normalizePath(filePath)
	if len(normalized) <= 256 {
		return fmt.Sprintf("file:%s", normalized)
	}
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("file:%s", hex.EncodeToString(hash[:16]))
}

// NewJobID mints a random ID for an IndexingJob. Unlike entity IDs, jobs
// have no stable natural key worth deriving an ID from — two jobs queued
// for the same repo are distinct work items, not the same one replayed.
func NewJobID() string {
	return uuid.NewString()
}

// NewRepositoryID mints a random ID for a Repository record.
func NewRepositoryID() string {
	return uuid.NewString()
}

// normalizePath normalizes a file path for consistent ID generation:
// strips a leading "./", cleans redundant separators, converts to forward
// slashes for cross-platform stability, and drops a leading "/".
func normalizePath(path string) string {
	if len(path) >= 2 && path[0:2] == "./" {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return path
}
