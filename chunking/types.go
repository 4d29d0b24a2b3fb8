// Package chunking splits raw document text into semantically coherent
// chunks using embedding similarity with a length-aware dynamic threshold.
package chunking

import "github.com/google/uuid"

// Sentence is a single segmented sentence in source order. Sentences are
// ephemeral: they exist between segmentation and chunk construction and are
// never persisted.
type Sentence struct {
	Text  string
	Index int
}

// Chunk is the atomic retrievable unit: one or more consecutive sentences
// from exactly one source document. PreChunkText and PostChunkText hold the
// full text of the neighboring chunks in the same document; empty means no
// neighbor.
type Chunk struct {
	ID            uuid.UUID
	Text          string
	Embedding     []float32
	Title         string
	SourceURL     string
	AnchorURL     string
	PreChunkText  string
	PostChunkText string
}

// Document is the ingestion input. A document owns its chunk sequence and is
// fully re-chunked on re-ingestion.
type Document struct {
	URL     string
	Title   string
	RawText string
}
