package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/seangpt/ragcore/chunking"
)

// Postgres is a pgvector-backed ChunkStore. Similarity search uses the
// cosine distance operator with an ivfflat index, so result ordering is a
// documented approximation of an exact scan.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Insert(ctx context.Context, chunk chunking.Chunk) (uuid.UUID, error) {
	if s.pool == nil {
		return uuid.Nil, fmt.Errorf("postgres pool is nil")
	}

	id := chunk.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO rag_chunks (id, source_url, title, content, pre_chunk, post_chunk, anchor_url, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, id, chunk.SourceURL, chunk.Title, chunk.Text, chunk.PreChunkText, chunk.PostChunkText, chunk.AnchorURL,
		pgvector.NewVector(chunk.Embedding)); err != nil {
		return uuid.Nil, fmt.Errorf("insert chunk: %w", err)
	}

	return id, nil
}

func (s *Postgres) DeleteBySource(ctx context.Context, sourceURL string) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := s.pool.Exec(ctx, "DELETE FROM rag_chunks WHERE source_url = $1", sourceURL); err != nil {
		return fmt.Errorf("delete chunks for source: %w", err)
	}
	return nil
}

func (s *Postgres) QueryTopK(ctx context.Context, embedding []float32, k int) ([]RetrievalResult, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if k <= 0 {
		k = 4
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := k * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            id,
            source_url,
            title,
            content,
            pre_chunk,
            post_chunk,
            anchor_url,
            1 - (embedding <=> $1::vector) AS similarity
        FROM rag_chunks
        ORDER BY embedding <=> $1::vector
        LIMIT $2
    `, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("query top-k chunks: %w", err)
	}
	defer rows.Close()

	results := make([]RetrievalResult, 0, k)
	for rows.Next() {
		var item RetrievalResult
		if scanErr := rows.Scan(
			&item.Chunk.ID,
			&item.Chunk.SourceURL,
			&item.Chunk.Title,
			&item.Chunk.Text,
			&item.Chunk.PreChunkText,
			&item.Chunk.PostChunkText,
			&item.Chunk.AnchorURL,
			&item.Similarity,
		); scanErr != nil {
			return nil, fmt.Errorf("scan retrieved chunk: %w", scanErr)
		}
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

func (s *Postgres) Clear(ctx context.Context) error {
	if s.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := s.pool.Exec(ctx, "TRUNCATE rag_chunks"); err != nil {
		return fmt.Errorf("truncate rag_chunks: %w", err)
	}
	return nil
}

var _ ChunkStore = (*Postgres)(nil)
