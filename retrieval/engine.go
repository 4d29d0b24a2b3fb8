// Package retrieval embeds queries, searches the chunk store, and assembles
// citation-ready context passages from the results.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/seangpt/ragcore/embeddings"
	"github.com/seangpt/ragcore/store"
)

const (
	DefaultTopK          = 4
	DefaultMinSimilarity = 0.2
)

// Failure is the typed error for a broken retrieval path: the embedding
// service or the vector index was unavailable or misbehaved. It is distinct
// from an empty result set, which is a successful "nothing relevant" answer.
type Failure struct {
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Index is the read side of the chunk store needed for retrieval.
type Index interface {
	QueryTopK(ctx context.Context, embedding []float32, k int) ([]store.RetrievalResult, error)
}

// Options tunes a single retrieval. Zero values fall back to the defaults:
// a MinSimilarity of exactly 0 means "unset" and becomes
// DefaultMinSimilarity. To disable the similarity floor entirely, pass a
// negative value.
type Options struct {
	TopK          int
	MinSimilarity float64
}

// Engine answers queries by embedding them and ranking stored chunks by
// cosine similarity. The read path writes nothing, so engines are safe for
// concurrent use.
type Engine struct {
	embedder embeddings.Embedder
	index    Index
	logger   *log.Logger
}

func NewEngine(embedder embeddings.Embedder, index Index, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{embedder: embedder, index: index, logger: logger}
}

// Retrieve embeds the query, fetches the top-k nearest chunks, and drops any
// result below the similarity floor. An empty slice with a nil error means
// nothing relevant was found; a *Failure error means the subsystem is down.
func (e *Engine) Retrieve(ctx context.Context, query string, opts Options) ([]store.RetrievalResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinSimilarity == 0 {
		opts.MinSimilarity = DefaultMinSimilarity
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Printf("query embedding failed: %v", err)
		return nil, &Failure{Stage: "query embedding", Err: err}
	}

	candidates, err := e.index.QueryTopK(ctx, queryEmbedding, opts.TopK)
	if err != nil {
		e.logger.Printf("index query failed: %v", err)
		return nil, &Failure{Stage: "index query", Err: err}
	}

	results := make([]store.RetrievalResult, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, candidate)
	}

	// The store already orders by similarity, but the contract is ours to
	// keep regardless of the index implementation.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	return results, nil
}
