package chunking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Defaults for Params. The threshold constants are empirical and exposed as
// configuration rather than hard-coded in the algorithm.
const (
	DefaultBaseSimilarityThreshold = 0.22
	DefaultMaxSimilarityThreshold  = 0.28
	DefaultMaxChars                = 512
	DefaultMinChars                = 100
)

// Embedder is the single-text embedding operation the builder needs when
// re-embedding a finalized chunk at close time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Params tunes the greedy chunking pass.
type Params struct {
	// BaseSimilarityThreshold is the merge bar while the chunk is small.
	BaseSimilarityThreshold float64
	// MaxSimilarityThreshold is the merge bar as the chunk reaches MaxChars.
	MaxSimilarityThreshold float64
	// MaxChars caps the chunk length; at or above it the chunk always closes.
	MaxChars int
	// MinChars is the length below which sentences merge unconditionally.
	MinChars int
	// MeanOnClose skips the close-time re-embed and reuses the running mean
	// of the chunk's sentence embeddings. Cheaper, likely less accurate.
	MeanOnClose bool
}

// DefaultParams returns the default chunking parameters.
func DefaultParams() Params {
	return Params{
		BaseSimilarityThreshold: DefaultBaseSimilarityThreshold,
		MaxSimilarityThreshold:  DefaultMaxSimilarityThreshold,
		MaxChars:                DefaultMaxChars,
		MinChars:                DefaultMinChars,
	}
}

// ThresholdAt returns the dynamic similarity threshold for a chunk whose
// length is the given fraction of MaxChars. Constant at the base threshold
// up to half full, then rises linearly toward the max threshold so that a
// nearly-full chunk prefers closing over merging.
func (p Params) ThresholdAt(fractionOfMax float64) float64 {
	if fractionOfMax > 1 {
		fractionOfMax = 1
	}
	if fractionOfMax <= 0.5 {
		return p.BaseSimilarityThreshold
	}
	return p.BaseSimilarityThreshold + (p.MaxSimilarityThreshold-p.BaseSimilarityThreshold)*fractionOfMax
}

// Builder turns segmented sentences and their embeddings into an ordered
// chunk sequence for one document. A Builder holds no per-document state, so
// independent documents may be built concurrently on separate calls.
type Builder struct {
	params   Params
	embedder Embedder
}

// NewBuilder creates a Builder. The embedder is used only to re-embed
// finalized chunk text at close time; it may be nil when MeanOnClose is set.
func NewBuilder(params Params, embedder Embedder) *Builder {
	if params.MaxChars <= 0 {
		params.MaxChars = DefaultMaxChars
	}
	if params.MinChars < 0 {
		params.MinChars = DefaultMinChars
	}
	if params.BaseSimilarityThreshold == 0 && params.MaxSimilarityThreshold == 0 {
		params.BaseSimilarityThreshold = DefaultBaseSimilarityThreshold
		params.MaxSimilarityThreshold = DefaultMaxSimilarityThreshold
	}
	return &Builder{params: params, embedder: embedder}
}

// Build runs the greedy single-pass chunking over the document's sentences.
// sentences and embeddings must be parallel slices in source order. The
// decision for each sentence depends on the running mean of the current
// chunk's sentence embeddings, so the pass is strictly sequential.
func (b *Builder) Build(ctx context.Context, doc Document, sentences []Sentence, embeddings [][]float32) ([]Chunk, error) {
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) != len(embeddings) {
		return nil, fmt.Errorf("sentence/embedding count mismatch: %d sentences, %d embeddings", len(sentences), len(embeddings))
	}

	chunks := make([]Chunk, 0)
	currentText := sentences[0].Text
	currentEmbeddings := [][]float32{embeddings[0]}

	closeChunk := func() error {
		embedding, err := b.closeEmbedding(ctx, currentText, currentEmbeddings)
		if err != nil {
			return err
		}

		chunk := Chunk{
			ID:        uuid.New(),
			Text:      currentText,
			Embedding: embedding,
			Title:     doc.Title,
			SourceURL: doc.URL,
			AnchorURL: AnchorURL(doc.URL, currentText),
		}
		if n := len(chunks); n > 0 {
			chunk.PreChunkText = chunks[n-1].Text
			chunks[n-1].PostChunkText = currentText
		}
		chunks = append(chunks, chunk)
		return nil
	}

	for i := 1; i < len(sentences); i++ {
		sentence := sentences[i].Text
		embedding := embeddings[i]

		if len(currentText) < b.params.MinChars {
			currentText += " " + sentence
			currentEmbeddings = append(currentEmbeddings, embedding)
			continue
		}

		representative := MeanEmbedding(currentEmbeddings)
		similarity := CosineSimilarity(representative, embedding)
		fractionOfMax := float64(len(currentText)) / float64(b.params.MaxChars)
		threshold := b.params.ThresholdAt(fractionOfMax)

		if len(currentText) < b.params.MaxChars && similarity >= threshold {
			currentText += " " + sentence
			currentEmbeddings = append(currentEmbeddings, embedding)
			continue
		}

		if err := closeChunk(); err != nil {
			return nil, err
		}
		currentText = sentence
		currentEmbeddings = [][]float32{embedding}
	}

	if err := closeChunk(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (b *Builder) closeEmbedding(ctx context.Context, text string, sentenceEmbeddings [][]float32) ([]float32, error) {
	if b.params.MeanOnClose || b.embedder == nil {
		return MeanEmbedding(sentenceEmbeddings), nil
	}
	embedding, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("re-embed chunk: %w", err)
	}
	return embedding, nil
}
