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

package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePythonSource = `def fetch_user_data(user_id):
    """Fetches a user's profile from the database."""
    return db.query(user_id)


def save_invoice(invoice):
    """Persists an invoice record."""
    db.save(invoice)
`

func writeSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(samplePythonSource), 0o644))

	skipped := filepath.Join(dir, "node_modules")
	require.NoError(t, os.MkdirAll(skipped, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skipped, "ignored.py"), []byte("def ignored(): pass\n"), 0o644))

	return dir
}

func TestLocalIndex_IndexDirectory(t *testing.T) {
	dir := writeSampleRepo(t)
	idx := NewLocalIndex(nil)

	count, err := idx.IndexDirectory(dir, "sample-repo")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, idx.Count())
}

func TestLocalIndex_SkipsExcludedDirs(t *testing.T) {
	dir := writeSampleRepo(t)
	idx := NewLocalIndex(nil)

	_, err := idx.IndexDirectory(dir, "sample-repo")
	require.NoError(t, err)

	hits := idx.Search("ignored", 10)
	assert.Empty(t, hits)
}

func TestLocalIndex_Search(t *testing.T) {
	dir := writeSampleRepo(t)
	idx := NewLocalIndex(nil)
	_, err := idx.IndexDirectory(dir, "sample-repo")
	require.NoError(t, err)

	hits := idx.Search("fetch user data", 10)
	require.NotEmpty(t, hits)
	assert.Equal(t, "fetch_user_data", hits[0].Entity.Name)
}

func TestLocalIndex_MissingDirectoryErrors(t *testing.T) {
	idx := NewLocalIndex(nil)
	_, err := idx.IndexDirectory(filepath.Join(t.TempDir(), "does-not-exist"), "repo")
	assert.Error(t, err)
}
