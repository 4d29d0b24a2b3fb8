package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/seangpt/ragcore/chunking"
	"github.com/seangpt/ragcore/embeddings"
	"github.com/seangpt/ragcore/store"
)

// Service drives document ingestion: sentence segmentation, batch sentence
// embedding, semantic chunk construction, and persistence. Each document is
// processed sequentially; independent Ingest calls may run concurrently.
type Service struct {
	store    store.ChunkStore
	embedder embeddings.Embedder
	builder  *chunking.Builder
	logger   *log.Logger
}

func NewService(chunkStore store.ChunkStore, embedder embeddings.Embedder, params chunking.Params, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		store:    chunkStore,
		embedder: embedder,
		builder:  chunking.NewBuilder(params, embedder),
		logger:   logger,
	}
}

// Ingest chunks one document and persists the result. Re-ingesting the same
// source URL replaces the document's entire chunk sequence. A document that
// segments to zero sentences is skipped without error. Embedding or storage
// failures abort the document; nothing further is written for it.
func (s *Service) Ingest(ctx context.Context, rawText, sourceURL, title string) ([]chunking.Chunk, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if s.store == nil {
		return nil, fmt.Errorf("chunk store not configured")
	}

	doc := chunking.Document{URL: sourceURL, Title: title, RawText: rawText}

	sentences := chunking.SegmentSentences(rawText)
	if len(sentences) == 0 {
		s.logger.Printf("skip empty document %s", sourceURL)
		return nil, nil
	}

	texts := make([]string, len(sentences))
	for i, sentence := range sentences {
		texts[i] = sentence.Text
	}

	sentenceEmbeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(sentenceEmbeddings) != len(sentences) {
		return nil, fmt.Errorf("embedding count mismatch: have %d sentences, %d embeddings", len(sentences), len(sentenceEmbeddings))
	}

	chunks, err := s.builder.Build(ctx, doc, sentences, sentenceEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("build chunks: %w", err)
	}

	if err := s.store.DeleteBySource(ctx, sourceURL); err != nil {
		return nil, fmt.Errorf("clear existing chunks: %w", err)
	}

	for i, chunk := range chunks {
		if _, err := s.store.Insert(ctx, chunk); err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	s.logger.Printf("ingested %s (%d sentences, %d chunks)", sourceURL, len(sentences), len(chunks))
	return chunks, nil
}

// IngestFile reads, parses, and ingests a single file. The file path doubles
// as the source URL.
func (s *Service) IngestFile(ctx context.Context, path string) ([]chunking.Chunk, error) {
	format := DetectFormat(path)
	parser, err := ParserFor(format)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	parsed, err := parser.Parse(ctx, DocumentPayload{Path: path, Data: data})
	if err != nil {
		return nil, fmt.Errorf("parse %s document: %w", format, err)
	}

	return s.Ingest(ctx, parsed.Text, filepath.ToSlash(path), parsed.Title)
}

// IngestDirectory walks dir and ingests every supported file. Per-file
// failures are logged and do not stop the walk.
func (s *Service) IngestDirectory(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}

	entries := make([]string, 0)
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if DetectFormat(path) != FormatUnknown {
			entries = append(entries, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk data directory: %w", err)
	}

	if len(entries) == 0 {
		s.logger.Printf("no supported documents found in %s", dir)
		return nil
	}

	for _, path := range entries {
		if _, err := s.IngestFile(ctx, path); err != nil {
			s.logger.Printf("ingest failed for %s: %v", path, err)
		}
	}

	return nil
}
