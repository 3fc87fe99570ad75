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

// Package lexical implements the BM25 Okapi lexical index: tokenization,
// document scoring, and a persistable in-memory index keyed by entity ID.
package lexical

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// BM25 Okapi parameters, matched to rank_bm25's BM25Okapi defaults so
// scores are comparable to the reference implementation this index was
// distilled from.
const (
	k1      = 1.5
	b       = 0.75
	epsilon = 0.25
)

// doc is one indexed entity's tokenized searchable text plus the fields a
// Search call can filter on.
type doc struct {
	EntityID   string
	Tokens     []string
	Length     int
	Language   entity.Language
	Type       entity.Type
	RepoName   string
}

// Index is an in-memory BM25 Okapi index over CodeEntity searchable text.
// All exported methods are safe for concurrent use: every mutating method
// takes the write lock, and Search takes it briefly to rebuild stale IDF
// statistics before scoring under a read lock, matching the single
// writer / many readers pattern the indexing pipeline and query path use.
type Index struct {
	mu sync.RWMutex

	docs       map[string]*doc
	order      []string // stable doc order, mirrors insertion
	entities   map[string]entity.CodeEntity
	docFreq    map[string]int // term -> number of docs containing it
	avgDocLen  float64
	idf        map[string]float64
	avgIDF     float64
	dirty      bool // idf/avgDocLen need recomputation
}

// NewIndex returns an empty BM25 index.
func NewIndex() *Index {
	return &Index{
		docs:     make(map[string]*doc),
		entities: make(map[string]entity.CodeEntity),
		docFreq:  make(map[string]int),
	}
}

// Add indexes entities, skipping any entity whose ID is already indexed.
func (idx *Index) Add(entities []entity.CodeEntity) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entities {
		if _, exists := idx.docs[e.ID]; exists {
			continue
		}
		idx.order = append(idx.order, e.ID)

		tokens := Tokenize(e.SearchableText())
		d := &doc{
			EntityID: e.ID,
			Tokens:   tokens,
			Length:   len(tokens),
			Language: e.Lang,
			Type:     e.Type,
			RepoName: e.RepoName,
		}
		idx.docs[e.ID] = d
		idx.entities[e.ID] = e
		idx.addTermCounts(d)
	}
	idx.dirty = true
}

func (idx *Index) addTermCounts(d *doc) {
	seen := make(map[string]bool, len(d.Tokens))
	for _, tok := range d.Tokens {
		if !seen[tok] {
			idx.docFreq[tok]++
			seen[tok] = true
		}
	}
}

func (idx *Index) removeTermCounts(d *doc) {
	seen := make(map[string]bool, len(d.Tokens))
	for _, tok := range d.Tokens {
		if !seen[tok] {
			idx.docFreq[tok]--
			if idx.docFreq[tok] <= 0 {
				delete(idx.docFreq, tok)
			}
			seen[tok] = true
		}
	}
}

// RemoveByRepo deletes every document whose RepoName matches repoName,
// used by the indexing pipeline's purge-then-reinsert cycle.
func (idx *Index) RemoveByRepo(repoName string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	newOrder := idx.order[:0:0]
	for _, id := range idx.order {
		d := idx.docs[id]
		if d.RepoName == repoName {
			idx.removeTermCounts(d)
			delete(idx.docs, id)
			delete(idx.entities, id)
			removed++
			continue
		}
		newOrder = append(newOrder, id)
	}
	idx.order = newOrder
	idx.dirty = true
	return removed
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.docs = make(map[string]*doc)
	idx.entities = make(map[string]entity.CodeEntity)
	idx.docFreq = make(map[string]int)
	idx.order = nil
	idx.dirty = true
}

// Count returns the number of indexed documents.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.order)
}

// recompute rebuilds avgDocLen and per-term IDF. Mirrors rank_bm25's
// BM25Okapi._calc_idf: idf = log(N - freq + 0.5) - log(freq + 0.5); any
// term whose idf would be negative (very common terms, freq > N/2) is
// floored to epsilon * average_idf. That floor is itself negative when the
// average idf is, as in a corpus of one or two documents.
func (idx *Index) recompute() {
	if !idx.dirty {
		return
	}

	n := len(idx.order)
	totalLen := 0
	for _, id := range idx.order {
		totalLen += idx.docs[id].Length
	}
	if n > 0 {
		idx.avgDocLen = float64(totalLen) / float64(n)
	} else {
		idx.avgDocLen = 0
	}

	idx.idf = make(map[string]float64, len(idx.docFreq))
	var idfSum float64
	var negativeIdfs []string
	for term, freq := range idx.docFreq {
		v := math.Log(float64(n)-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[term] = v
		idfSum += v
		if v < 0 {
			negativeIdfs = append(negativeIdfs, term)
		}
	}

	if len(idx.docFreq) > 0 {
		idx.avgIDF = idfSum / float64(len(idx.docFreq))
	} else {
		idx.avgIDF = 0
	}

	floor := epsilon * idx.avgIDF
	for _, term := range negativeIdfs {
		idx.idf[term] = floor
	}

	idx.dirty = false
}

// Filter narrows a Search call to documents matching non-zero fields.
// A zero-value field (empty string / LanguageUnknown / "") means "don't
// filter on this dimension", matching the Python index's optional kwargs.
type Filter struct {
	Language entity.Language
	Type     entity.Type
	RepoName string
}

func (f Filter) matches(d *doc) bool {
	if f.Language != "" && d.Language != f.Language {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.RepoName != "" && d.RepoName != f.RepoName {
		return false
	}
	return true
}

// Hit is one scored BM25 result.
type Hit struct {
	Entity entity.CodeEntity
	Score  float64
}

// Search scores every document against query's tokens, drops anything
// scoring below 1% of the top score when the top score is positive (when
// it is zero or negative, as in a tiny corpus with negative idfs, nothing
// is dropped), applies
// filter, sorts descending by score, and truncates to limit.
func (idx *Index) Search(query string, filter Filter, limit int) []Hit {
	idx.mu.Lock()
	idx.recompute()
	idx.mu.Unlock()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryTokens := Tokenize(query)
	if len(idx.order) == 0 || len(queryTokens) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(idx.order))
	maxScore := math.Inf(-1)
	for _, id := range idx.order {
		d := idx.docs[id]
		score := idx.scoreDoc(d, queryTokens)
		scores[id] = score
		if score > maxScore {
			maxScore = score
		}
	}

	minScore := math.Inf(-1)
	if maxScore > 0 {
		minScore = maxScore * 0.01
	}

	hits := make([]Hit, 0, len(idx.order))
	for _, id := range idx.order {
		score := scores[id]
		if score < minScore {
			continue
		}
		d := idx.docs[id]
		if !filter.matches(d) {
			continue
		}
		hits = append(hits, Hit{Entity: idx.entities[id], Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// scoreDoc computes the BM25 Okapi score of one document for a tokenized
// query: sum over query terms of idf(term) * tf-saturation, where the
// saturation term uses document-length normalization against avgDocLen.
func (idx *Index) scoreDoc(d *doc, queryTokens []string) float64 {
	termFreq := make(map[string]int, len(d.Tokens))
	for _, tok := range d.Tokens {
		termFreq[tok]++
	}

	var score float64
	docLen := float64(d.Length)
	for _, qt := range queryTokens {
		freq, ok := termFreq[qt]
		if !ok {
			continue
		}
		idfVal, ok := idx.idf[qt]
		if !ok {
			continue
		}
		numerator := idfVal * float64(freq) * (k1 + 1)
		denominator := float64(freq) + k1*(1-b+b*docLen/idx.avgDocLen)
		score += numerator / denominator
	}
	return score
}

// persisted is the gob-serializable snapshot Save/Load exchange; the
// Python index pickles itself wholesale, the Go port gob-encodes the
// minimal state needed to reconstruct docFreq and entities exactly
// (per-doc tokens are recomputed from SearchableText on load instead of
// stored twice).
type persisted struct {
	Entities []entity.CodeEntity
}

// Save writes the index's entities to path; reloading replays them
// through Add so doc frequencies and IDF are rebuilt identically.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	snapshot := persisted{Entities: make([]entity.CodeEntity, 0, len(idx.order))}
	for _, id := range idx.order {
		snapshot.Entities = append(snapshot.Entities, idx.entities[id])
	}
	idx.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bm25 index file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snapshot); err != nil {
		return fmt.Errorf("encode bm25 index: %w", err)
	}
	return nil
}

// Load replaces the index's contents with the entities persisted at path.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open bm25 index file: %w", err)
	}
	defer f.Close()

	var snapshot persisted
	if err := gob.NewDecoder(f).Decode(&snapshot); err != nil {
		return fmt.Errorf("decode bm25 index: %w", err)
	}

	idx.Clear()
	idx.Add(snapshot.Entities)
	return nil
}
