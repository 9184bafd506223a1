package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"TechPulse/internal/model"

	"github.com/google/uuid"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 10

var errSessionClosed = errors.New("rag session closed")

// Session owns the document index and the generator for the process lifetime.
// Open must be called once before Answer.
type Session struct {
	Store      DocumentStore
	Generator  Generator
	TopK       int
	ChunkWords int
	// Extract converts uploaded bytes to text; ExtractText when nil.
	Extract func([]byte) (string, error)

	mu     sync.Mutex
	opened bool
	closed bool
}

// NewSession binds a store and a generator with default retrieval settings.
func NewSession(store DocumentStore, gen Generator) *Session {
	return &Session{
		Store:      store,
		Generator:  gen,
		TopK:       DefaultTopK,
		ChunkWords: DefaultChunkWords,
	}
}

// Open resets the index so the process starts with no documents.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if err := s.Store.Reset(ctx); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	s.opened = true
	log.Printf("[INFO] rag session opened: store=%s generator=%s", s.Store.Name(), s.Generator.Name())
	return nil
}

// Reset drops every indexed document.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if err := s.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	s.opened = true
	return nil
}

// Answer indexes the PDF, retrieves the chunks most relevant to query across
// all indexed documents, and asks the generator to answer from them.
func (s *Session) Answer(ctx context.Context, source string, pdf []byte, query string) (*model.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("answer: query is required")
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errSessionClosed
	}
	if !s.opened {
		s.mu.Unlock()
		return nil, errors.New("answer: session not opened")
	}
	s.mu.Unlock()

	extract := s.Extract
	if extract == nil {
		extract = ExtractText
	}
	text, err := extract(pdf)
	if err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	chunks := Chunk(docID, source, text, s.ChunkWords)
	if err := s.Store.Write(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index %s: %w", source, err)
	}

	hits, err := s.Store.Search(ctx, query, s.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	prompt, err := BuildPrompt(query, hits)
	if err != nil {
		return nil, err
	}
	reply, err := s.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &model.Answer{
		DocumentID: docID,
		Source:     source,
		Query:      query,
		Reply:      reply,
		Chunks:     len(chunks),
		Documents:  hits,
	}, nil
}

// Close releases the store. Later calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Store.Close()
}
