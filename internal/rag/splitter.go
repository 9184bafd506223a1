package rag

import (
	"fmt"
	"strings"

	"TechPulse/internal/model"
)

// DefaultChunkWords is the number of words per indexed chunk.
const DefaultChunkWords = 150

// SplitWords cuts text into consecutive chunks of at most size words,
// without overlap. Whitespace is collapsed to single spaces.
func SplitWords(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}
	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// Chunk splits a document's text into model chunks tagged with documentID.
func Chunk(documentID, source, text string, size int) []model.Chunk {
	parts := SplitWords(text, size)
	out := make([]model.Chunk, len(parts))
	for i, p := range parts {
		out[i] = model.Chunk{
			ID:         fmt.Sprintf("%s-%04d", documentID, i),
			DocumentID: documentID,
			Source:     source,
			Seq:        i,
			Content:    p,
		}
	}
	return out
}
