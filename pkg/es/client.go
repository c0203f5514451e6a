// Package es implements the vector index on Elasticsearch.
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pdf-rag-go/internal/apperr"
	"pdf-rag-go/internal/config"
	"pdf-rag-go/internal/model"
	"pdf-rag-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// VectorIndex stores (segment, vector, metadata) tuples and answers
// nearest-neighbor queries. Upsert and DeleteByDocument surface failures as
// apperr.ErrIndex; Search is best-effort and degrades to no hits.
type VectorIndex interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, entry model.IndexEntry) error
	DeleteByDocument(ctx context.Context, pdfID uint) error
	Search(ctx context.Context, vector []float32, k int) []model.SearchHit
}

// knnMapping is the index schema: one dense 384-dim cosine vector per
// segment, HNSW-indexed, plus the segment metadata fields.
const knnMapping = `{
	"mappings": {
		"properties": {
			"pdf_id": { "type": "integer" },
			"filename": { "type": "text" },
			"text": { "type": "text" },
			"title": { "type": "text" },
			"author": { "type": "keyword" },
			"vector": {
				"type": "dense_vector",
				"dims": 384,
				"index": true,
				"similarity": "cosine",
				"index_options": {
					"type": "hnsw",
					"m": 16,
					"ef_construction": 128
				}
			}
		}
	}
}`

// Index is the Elasticsearch-backed VectorIndex.
type Index struct {
	client    *elasticsearch.Client
	indexName string
	recreate  bool
}

// NewIndex builds the Elasticsearch client from config.
func NewIndex(cfg config.ElasticsearchConfig) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Addresses},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Index{client: client, indexName: cfg.IndexName, recreate: cfg.RecreateOnStartup}, nil
}

// NewIndexWithClient wires an existing client, used by tests.
func NewIndexWithClient(client *elasticsearch.Client, indexName string, recreate bool) *Index {
	return &Index{client: client, indexName: indexName, recreate: recreate}
}

// EnsureSchema creates the k-NN index. With recreate on (the default), an
// existing index is dropped first, wiping previously indexed data on every
// startup; with it off the index is created only when absent.
func (i *Index) EnsureSchema(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.indexName}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index '%s': %w", i.indexName, err)
	}
	res.Body.Close()
	exists := res.StatusCode == http.StatusOK

	if exists {
		if !i.recreate {
			log.Infof("index '%s' already exists", i.indexName)
			return nil
		}
		log.Warnf("dropping existing index '%s' before recreating it", i.indexName)
		delRes, err := i.client.Indices.Delete([]string{i.indexName}, i.client.Indices.Delete.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("failed to delete index '%s': %w", i.indexName, err)
		}
		delRes.Body.Close()
		if delRes.IsError() {
			return fmt.Errorf("elasticsearch returned an error deleting index '%s': %s", i.indexName, delRes.Status())
		}
	}

	createRes, err := i.client.Indices.Create(
		i.indexName,
		i.client.Indices.Create.WithBody(strings.NewReader(knnMapping)),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index '%s': %w", i.indexName, err)
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("elasticsearch returned an error creating index '%s': %s", i.indexName, createRes.String())
	}

	log.Infof("index '%s' created successfully", i.indexName)
	return nil
}

// Upsert writes one entry keyed by its segment id. Indexing the same segment
// id again overwrites the previous entry.
func (i *Index) Upsert(ctx context.Context, entry model.IndexEntry) error {
	docBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal entry %s: %v", apperr.ErrIndex, entry.SegmentID, err)
	}

	req := esapi.IndexRequest{
		Index:      i.indexName,
		DocumentID: entry.SegmentID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: index segment %s: %v", apperr.ErrIndex, entry.SegmentID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index segment %s: %s", apperr.ErrIndex, entry.SegmentID, res.String())
	}
	return nil
}

// DeleteByDocument removes every entry belonging to the document. Deleting a
// document with no entries, or when the index itself is missing, succeeds
// silently.
func (i *Index) DeleteByDocument(ctx context.Context, pdfID uint) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"pdf_id": pdfID,
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("%w: encode delete query: %v", apperr.ErrIndex, err)
	}

	res, err := i.client.DeleteByQuery(
		[]string{i.indexName},
		&buf,
		i.client.DeleteByQuery.WithContext(ctx),
		i.client.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return fmt.Errorf("%w: delete entries for pdf %d: %v", apperr.ErrIndex, pdfID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// Index not created yet: nothing to delete.
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("%w: delete entries for pdf %d: %s", apperr.ErrIndex, pdfID, res.String())
	}
	return nil
}

// Search runs a k-NN query and returns up to k hits by descending score.
// This path feeds best-effort retrieval: any failure is logged and yields an
// empty result instead of an error.
func (i *Index) Search(ctx context.Context, vector []float32, k int) []model.SearchHit {
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
		},
		"_source": []string{"pdf_id", "filename", "text", "title"},
		"size":    k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		log.Errorf("[VectorIndex] failed to encode knn query: %v", err)
		return nil
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.indexName),
		i.client.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[VectorIndex] knn search failed: %v", err)
		return nil
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("[VectorIndex] elasticsearch returned an error for knn search: %s", res.Status())
		return nil
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.IndexEntry `json:"_source"`
				Score  float64          `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		log.Errorf("[VectorIndex] failed to decode knn response: %v", err)
		return nil
	}

	hits := make([]model.SearchHit, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		hits = append(hits, model.SearchHit{
			PDFID:    hit.Source.PDFID,
			Filename: hit.Source.Filename,
			Text:     hit.Source.Text,
			Title:    hit.Source.Title,
			Score:    hit.Score,
		})
	}
	return hits
}
