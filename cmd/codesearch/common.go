// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"

	"github.com/kraklabs/codesearch/internal/config"
	"github.com/kraklabs/codesearch/internal/output"
)

// indexStatePath returns where a per-project on-disk index artifact (the
// BM25 gob file) lives, namespaced under the project's data directory.
func indexStatePath(cfg *config.Config, name string) string {
	dir := cfg.DataDir
	if dir == "" {
		dir = filepath.Join(config.ConfigDir("."), "data")
	}
	return filepath.Join(dir, name)
}

// jsonOut writes v as pretty-printed JSON to stdout.
func jsonOut(v any) error {
	return output.JSON(v)
}
