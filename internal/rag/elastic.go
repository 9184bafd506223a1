package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"TechPulse/internal/model"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "content":     {"type": "text"},
      "document_id": {"type": "keyword"},
      "source":      {"type": "keyword"},
      "seq":         {"type": "integer"}
    }
  }
}`

// ElasticStore keeps chunks in an Elasticsearch index and retrieves them
// with a BM25 match query on their content.
type ElasticStore struct {
	es    *elasticsearch.Client
	index string
}

// ElasticConfig holds the connection settings for ElasticStore.
type ElasticConfig struct {
	Endpoint  string
	Username  string
	Password  string
	Index     string
	Transport http.RoundTripper
}

// NewElasticStore creates a store client. No request is issued until Reset.
func NewElasticStore(cfg ElasticConfig) (*ElasticStore, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Endpoint},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}
	return &ElasticStore{es: es, index: cfg.Index}, nil
}

func (s *ElasticStore) Name() string { return "elasticsearch/" + s.index }

// Reset deletes the index when present and recreates it empty.
func (s *ElasticStore) Reset(ctx context.Context) error {
	res, err := s.es.Indices.Delete([]string{s.index},
		s.es.Indices.Delete.WithContext(ctx),
		s.es.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err := check(res, err, "delete index", http.StatusNotFound); err != nil {
		return err
	}
	res.Body.Close()

	res, err = s.es.Indices.Create(s.index,
		s.es.Indices.Create.WithContext(ctx),
		s.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err := check(res, err, "create index"); err != nil {
		return err
	}
	res.Body.Close()
	log.Printf("[INFO] elastic index %s recreated", s.index)
	return nil
}

// Write bulk-indexes chunks and refreshes so they are immediately searchable.
func (s *ElasticStore) Write(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, c := range chunks {
		meta := map[string]any{"index": map[string]any{"_index": s.index, "_id": c.ID}}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(c); err != nil {
			return err
		}
	}

	res, err := s.es.Bulk(bytes.NewReader(buf.Bytes()),
		s.es.Bulk.WithContext(ctx),
		s.es.Bulk.WithIndex(s.index),
		s.es.Bulk.WithRefresh("true"),
	)
	if err := check(res, err, "bulk index"); err != nil {
		return err
	}
	defer res.Body.Close()

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if out.Errors {
		for _, item := range out.Items {
			for _, r := range item {
				if r.Error != nil {
					return fmt.Errorf("bulk index: status %d: %s", r.Status, r.Error.Reason)
				}
			}
		}
		return fmt.Errorf("bulk index: partial failure")
	}
	return nil
}

// Search runs a match query on content and returns up to topK hits.
func (s *ElasticStore) Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error) {
	body, err := json.Marshal(map[string]any{
		"size": topK,
		"query": map[string]any{
			"match": map[string]any{"content": query},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.index),
		s.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err := check(res, err, "search"); err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var out struct {
		Hits struct {
			Hits []struct {
				Score  float64     `json:"_score"`
				Source model.Chunk `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	hits := make([]model.ScoredChunk, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, model.ScoredChunk{Chunk: h.Source, Score: h.Score})
	}
	return hits, nil
}

func (s *ElasticStore) Close() error { return nil }

// check turns a transport error or an error status into a Go error. Statuses
// listed in allow are accepted; the body is drained and closed for them.
// On success the caller owns res.Body.
func check(res *esapi.Response, err error, op string, allow ...int) error {
	if err != nil {
		return fmt.Errorf("elastic %s: %w", op, err)
	}
	for _, code := range allow {
		if res.StatusCode == code {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return nil
		}
	}
	if res.IsError() {
		defer res.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("elastic %s: %s: %s", op, res.Status(), string(msg))
	}
	return nil
}
