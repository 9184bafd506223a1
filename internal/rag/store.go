package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"TechPulse/internal/model"
)

// DocumentStore indexes chunks and retrieves them lexically.
type DocumentStore interface {
	// Reset drops every indexed chunk and prepares an empty index.
	Reset(ctx context.Context) error
	Write(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query string, topK int) ([]model.ScoredChunk, error)
	Name() string
	Close() error
}

// BM25 parameters, matching Lucene's defaults.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// MemoryStore is an in-process Okapi BM25 index.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   []memDoc
	df     map[string]int
	totLen int
}

type memDoc struct {
	chunk model.Chunk
	tf    map[string]int
	len   int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{df: make(map[string]int)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	m.df = make(map[string]int)
	m.totLen = 0
	return nil
}

func (m *MemoryStore) Write(_ context.Context, chunks []model.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range chunks {
		terms := tokenize(c.Content)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		for t := range tf {
			m.df[t]++
		}
		m.docs = append(m.docs, memDoc{chunk: c, tf: tf, len: len(terms)})
		m.totLen += len(terms)
	}
	return nil
}

func (m *MemoryStore) Search(_ context.Context, query string, topK int) ([]model.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := []model.ScoredChunk{}
	if len(m.docs) == 0 {
		return hits, nil
	}
	n := float64(len(m.docs))
	avg := float64(m.totLen) / n
	terms := tokenize(query)

	for _, d := range m.docs {
		var score float64
		for _, t := range terms {
			tf := float64(d.tf[t])
			if tf == 0 {
				continue
			}
			df := float64(m.df[t])
			idf := math.Log(1 + (n-df+0.5)/(df+0.5))
			norm := tf + bm25K1*(1-bm25B+bm25B*float64(d.len)/avg)
			score += idf * tf * (bm25K1 + 1) / norm
		}
		if score > 0 {
			hits = append(hits, model.ScoredChunk{Chunk: d.chunk, Score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *MemoryStore) Close() error { return nil }

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
