// Package retrieval defines the document retrieval capability consumed
// by topic extraction. Chunking strategy and vector search internals
// belong to the implementing layer, not to this interface.
package retrieval

import (
	"context"
	"strings"
)

// Retriever returns up to k excerpts of already-extracted document
// text, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// MemoryRetriever serves fixed documents split into word-bounded
// chunks. Deterministic; used by the CLI, tests, and offline runs.
type MemoryRetriever struct {
	chunks []string
}

// NewMemoryRetriever chunks the given documents. chunkSize is the
// approximate chunk length in runes; zero means a single chunk per
// document.
func NewMemoryRetriever(documents []string, chunkSize int) *MemoryRetriever {
	var chunks []string
	for _, doc := range documents {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			continue
		}
		if chunkSize <= 0 || len(doc) <= chunkSize {
			chunks = append(chunks, doc)
			continue
		}
		chunks = append(chunks, splitChunks(doc, chunkSize)...)
	}
	return &MemoryRetriever{chunks: chunks}
}

// Retrieve returns the first k chunks. The in-memory implementation
// does no ranking: callers get insertion order.
func (r *MemoryRetriever) Retrieve(_ context.Context, _ string, k int) ([]string, error) {
	if k <= 0 || k > len(r.chunks) {
		k = len(r.chunks)
	}
	out := make([]string, k)
	copy(out, r.chunks[:k])
	return out, nil
}

// ChunkCount reports how many excerpts are available.
func (r *MemoryRetriever) ChunkCount() int { return len(r.chunks) }

// splitChunks cuts text near chunkSize, breaking on whitespace so
// words stay intact.
func splitChunks(text string, chunkSize int) []string {
	var out []string
	for len(text) > chunkSize {
		cut := strings.LastIndexByte(text[:chunkSize], ' ')
		if cut <= 0 {
			cut = chunkSize
		}
		out = append(out, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
