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

package vectorindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kraklabs/codesearch/pkg/entity"
)

// QdrantConfig configures a connection to a Qdrant instance.
type QdrantConfig struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	CollectionName string
}

// QdrantStore is the production Store backend: a named Qdrant collection
// holding one point per CodeEntity, payload fields mirroring the entity's
// filterable and displayable attributes.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore dials a Qdrant instance per cfg.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &QdrantStore{client: client, collection: cfg.CollectionName}, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, dimension int, recreate bool) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}

	if exists {
		if !recreate {
			return nil
		}
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return fmt.Errorf("delete existing collection: %w", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create collection: %w", err)
	}

	return s.ensurePayloadIndexes(ctx)
}

// payloadIndexFields are the keyword-typed payload fields every filtered
// search (language, entity type, repo name) needs a payload index on;
// without one, Qdrant falls back to a full collection scan per filtered
// query.
var payloadIndexFields = []string{"language", "entity_type", "repo_name"}

func (s *QdrantStore) ensurePayloadIndexes(ctx context.Context) error {
	fieldType := qdrant.FieldType_FieldTypeKeyword
	for _, field := range payloadIndexFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      &fieldType,
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("create payload index on %s: %w", field, err)
		}
	}
	return nil
}

// Insert upserts points, making up to 3 attempts at the whole batch with
// exponential backoff (1s-10s) on transient failures, matching the
// retry budget the Python store's tenacity decorator used.
func (s *QdrantStore) Insert(ctx context.Context, entities []entity.CodeEntity, embeddings [][]float32) error {
	if len(entities) != len(embeddings) {
		return fmt.Errorf("entities/embeddings length mismatch: %d vs %d", len(entities), len(embeddings))
	}
	if len(entities) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entities))
	for i, e := range entities {
		payload, err := entityPayload(e)
		if err != nil {
			return fmt.Errorf("build payload for %s: %w", e.ID, err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(e.ID),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: payload,
		}
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(1*time.Second),
		backoff.WithMaxInterval(10*time.Second),
	), 2) // 2 retries on top of the first attempt = 3 attempts total

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}

func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, limit int, filter Filter) ([]Match, error) {
	req := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         queryEmbedding,
		Limit:          uint64(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
		Filter:         qdrantFilter(filter),
	}

	result, err := s.client.GetPointsClient().Search(ctx, req)
	if err != nil {
		if isNotFound(err) {
			// No collection yet (nothing indexed): NotIndexed is empty
			// results, not an error the caller needs to see.
			return []Match{}, nil
		}
		return nil, fmt.Errorf("search points: %w", err)
	}

	matches := make([]Match, 0, len(result.Result))
	for _, point := range result.Result {
		e, err := payloadToEntity(point.Id, point.Payload)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Entity: e, Score: float64(point.Score)})
	}
	return matches, nil
}

func (s *QdrantStore) DeleteByRepo(ctx context.Context, repoName string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("repo_name", repoName),
		},
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("delete by repo: %w", err)
	}
	return 0, nil // Qdrant's delete-by-filter doesn't report a removed count
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	resp, err := s.client.Count(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int(resp), nil
}

func (s *QdrantStore) GetStats(ctx context.Context) (Stats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return Stats{}, fmt.Errorf("get collection info: %w", err)
	}
	stats := Stats{VectorCount: int(info.GetPointsCount())}
	if cfg := info.GetConfig(); cfg != nil {
		if vectorsConfig := cfg.GetParams().GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				stats.Dimension = int(params.GetSize())
			}
		}
	}
	return stats, nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// isNotFound reports whether err is Qdrant's gRPC NotFound status (raised
// for a search/count/stats call against a collection that was never
// created), distinguishing it from a real connectivity or server error.
func isNotFound(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return true
	}
	return strings.Contains(err.Error(), "doesn't exist") || strings.Contains(err.Error(), "not found")
}

// entityPayload converts an entity to a Qdrant payload, truncating the
// stored source snippet the way the reference vector store does.
func entityPayload(e entity.CodeEntity) (map[string]*qdrant.Value, error) {
	fields := map[string]any{
		"name":         e.Name,
		"entity_type":  string(e.Type),
		"language":     string(e.Lang),
		"file_path":    e.FilePath,
		"repo_name":    e.RepoName,
		"start_line":   int64(e.StartLine),
		"end_line":     int64(e.EndLine),
		"source_code":  truncateSourceCode(e.SourceCode),
		"docstring":    e.Docstring,
		"signature":    e.Signature,
		"parameters":   e.Parameters,
		"return_type":  e.ReturnType,
		"decorators":   e.Decorators,
		"parent_class": e.ParentClass,
		"complexity":   int64(e.Complexity),
		"loc":          int64(e.LOC),
	}

	payload := make(map[string]*qdrant.Value, len(fields))
	for k, v := range fields {
		val, err := qdrant.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		payload[k] = val
	}
	return payload, nil
}

// payloadToEntity reconstructs a CodeEntity from a Qdrant point's ID and
// payload, the inverse of entityPayload.
func payloadToEntity(id *qdrant.PointId, payload map[string]*qdrant.Value) (entity.CodeEntity, error) {
	var e entity.CodeEntity

	if id != nil && id.PointIdOptions != nil {
		switch v := id.PointIdOptions.(type) {
		case *qdrant.PointId_Uuid:
			e.ID = v.Uuid
		case *qdrant.PointId_Num:
			e.ID = strconv.FormatUint(v.Num, 10)
		}
	}

	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	num := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}
	strList := func(key string) []string {
		v, ok := payload[key]
		if !ok || v.GetListValue() == nil {
			return nil
		}
		var out []string
		for _, item := range v.GetListValue().Values {
			out = append(out, item.GetStringValue())
		}
		return out
	}

	e.Name = str("name")
	e.Type = entity.Type(str("entity_type"))
	e.Lang = entity.Language(str("language"))
	e.FilePath = str("file_path")
	e.RepoName = str("repo_name")
	e.StartLine = num("start_line")
	e.EndLine = num("end_line")
	e.SourceCode = str("source_code")
	e.Docstring = str("docstring")
	e.Signature = str("signature")
	e.Parameters = strList("parameters")
	e.ReturnType = str("return_type")
	e.Decorators = strList("decorators")
	e.ParentClass = str("parent_class")
	e.Complexity = num("complexity")
	e.LOC = num("loc")

	return e, nil
}

// qdrantFilter translates a Filter into Qdrant's AND-of-matches condition
// list, omitting any dimension left at its zero value.
func qdrantFilter(f Filter) *qdrant.Filter {
	var conditions []*qdrant.Condition
	if f.Language != "" {
		conditions = append(conditions, qdrant.NewMatch("language", string(f.Language)))
	}
	if f.Type != "" {
		conditions = append(conditions, qdrant.NewMatch("entity_type", string(f.Type)))
	}
	if f.RepoName != "" {
		conditions = append(conditions, qdrant.NewMatch("repo_name", f.RepoName))
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
