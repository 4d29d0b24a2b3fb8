package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/seangpt/ragcore/chunking"
)

// Memory is an in-memory ChunkStore using brute-force exact cosine search.
// Intended for tests and small local corpora.
type Memory struct {
	mu     sync.RWMutex
	chunks []chunking.Chunk
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Insert(_ context.Context, chunk chunking.Chunk) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chunk.ID == uuid.Nil {
		chunk.ID = uuid.New()
	}
	s.chunks = append(s.chunks, chunk)
	return chunk.ID, nil
}

func (s *Memory) DeleteBySource(_ context.Context, sourceURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.SourceURL != sourceURL {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	return nil
}

func (s *Memory) QueryTopK(_ context.Context, embedding []float32, k int) ([]RetrievalResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]RetrievalResult, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		results = append(results, RetrievalResult{
			Chunk:      chunk,
			Similarity: chunking.CosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *Memory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

// Count returns the number of stored chunks.
func (s *Memory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

var _ ChunkStore = (*Memory)(nil)
