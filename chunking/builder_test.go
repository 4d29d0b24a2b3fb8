package chunking_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/seangpt/ragcore/chunking"
)

// countingEmbedder records close-time re-embed calls and returns a marker
// vector.
type countingEmbedder struct {
	calls  int
	vector []float32
	err    error
}

func (e *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

func sentencesFrom(texts ...string) []chunking.Sentence {
	sentences := make([]chunking.Sentence, len(texts))
	for i, text := range texts {
		sentences[i] = chunking.Sentence{Text: text, Index: i}
	}
	return sentences
}

func TestBuildSplitsUnrelatedSentences(t *testing.T) {
	// Orthogonal embeddings have zero similarity, so once minChars is
	// cleared the second sentence must open a new chunk.
	params := chunking.Params{
		BaseSimilarityThreshold: 0.22,
		MaxSimilarityThreshold:  0.28,
		MaxChars:                500,
		MinChars:                5,
		MeanOnClose:             true,
	}
	builder := chunking.NewBuilder(params, nil)

	doc := chunking.Document{URL: "https://example.com/news", Title: "News"}
	sentences := sentencesFrom("The sky is blue.", "Stocks fell today.")
	embeddings := [][]float32{{1, 0}, {0, 1}}

	chunks, err := builder.Build(context.Background(), doc, sentences, embeddings)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].Text != "The sky is blue." || chunks[1].Text != "Stocks fell today." {
		t.Fatalf("unexpected chunk texts: %q, %q", chunks[0].Text, chunks[1].Text)
	}
	if chunks[0].PreChunkText != "" {
		t.Errorf("first chunk should have no pre-chunk, got %q", chunks[0].PreChunkText)
	}
	if chunks[0].PostChunkText != chunks[1].Text {
		t.Errorf("first chunk post-link should be second chunk text, got %q", chunks[0].PostChunkText)
	}
	if chunks[1].PreChunkText != chunks[0].Text {
		t.Errorf("second chunk pre-link should be first chunk text, got %q", chunks[1].PreChunkText)
	}
	if chunks[1].PostChunkText != "" {
		t.Errorf("last chunk should have no post-chunk, got %q", chunks[1].PostChunkText)
	}
}

func TestBuildSingleSentence(t *testing.T) {
	builder := chunking.NewBuilder(chunking.DefaultParams(), nil)
	doc := chunking.Document{URL: "https://example.com/hello", Title: "Hello"}

	chunks, err := builder.Build(context.Background(), doc,
		sentencesFrom("Hello world."), [][]float32{{1, 0}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world." {
		t.Fatalf("unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].PreChunkText != "" || chunks[0].PostChunkText != "" {
		t.Fatal("single chunk must have no neighbor links")
	}
}

func TestBuildEmptyInput(t *testing.T) {
	builder := chunking.NewBuilder(chunking.DefaultParams(), nil)
	chunks, err := builder.Build(context.Background(), chunking.Document{}, nil, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestBuildCoversEverySentenceOnce(t *testing.T) {
	params := chunking.Params{
		BaseSimilarityThreshold: 0.22,
		MaxSimilarityThreshold:  0.28,
		MaxChars:                60,
		MinChars:                10,
		MeanOnClose:             true,
	}
	builder := chunking.NewBuilder(params, nil)

	texts := []string{
		"Alpha waves roll in slowly.",
		"Beta particles decay fast.",
		"Gamma rays pierce through steel.",
		"Delta flows reach the sea.",
		"Epsilon is barely anything at all.",
	}
	embeddings := [][]float32{
		{1, 0, 0}, {0.9, 0.1, 0}, {0, 1, 0}, {0, 0.9, 0.1}, {0, 0, 1},
	}

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com/doc", Title: "Doc"},
		sentencesFrom(texts...), embeddings)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	reconstructed := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i < len(chunks)-1 && len(chunk.Text) < params.MinChars {
			t.Errorf("chunk %d closed below MinChars: %d chars", i, len(chunk.Text))
		}
		reconstructed = append(reconstructed, chunk.Text)
	}
	if got, want := strings.Join(reconstructed, " "), strings.Join(texts, " "); got != want {
		t.Fatalf("chunk concatenation does not reproduce the document:\n got %q\nwant %q", got, want)
	}
}

func TestBuildBackLinkIntegrity(t *testing.T) {
	params := chunking.Params{MaxChars: 30, MinChars: 1, BaseSimilarityThreshold: 0.9, MaxSimilarityThreshold: 0.95, MeanOnClose: true}
	builder := chunking.NewBuilder(params, nil)

	texts := []string{"One sentence here.", "Another sentence there.", "A third sentence appears.", "The fourth closes it."}
	embeddings := [][]float32{{1, 0}, {0, 1}, {1, 0}, {0, 1}}

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"}, sentencesFrom(texts...), embeddings)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks for this setup, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if i == 0 {
			if chunk.PreChunkText != "" {
				t.Errorf("chunk 0: expected empty pre-link, got %q", chunk.PreChunkText)
			}
		} else if chunk.PreChunkText != chunks[i-1].Text {
			t.Errorf("chunk %d: pre-link %q != previous text %q", i, chunk.PreChunkText, chunks[i-1].Text)
		}
		if i == len(chunks)-1 {
			if chunk.PostChunkText != "" {
				t.Errorf("last chunk: expected empty post-link, got %q", chunk.PostChunkText)
			}
		} else if chunk.PostChunkText != chunks[i+1].Text {
			t.Errorf("chunk %d: post-link %q != next text %q", i, chunk.PostChunkText, chunks[i+1].Text)
		}
	}
}

func TestBuildMinCharsMergesUnconditionally(t *testing.T) {
	// Dissimilar sentences still merge while the chunk is under MinChars.
	params := chunking.Params{
		BaseSimilarityThreshold: 0.22,
		MaxSimilarityThreshold:  0.28,
		MaxChars:                500,
		MinChars:                100,
		MeanOnClose:             true,
	}
	builder := chunking.NewBuilder(params, nil)

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"},
		sentencesFrom("The sky is blue.", "Stocks fell today."),
		[][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 merged chunk under MinChars, got %d", len(chunks))
	}
	if chunks[0].Text != "The sky is blue. Stocks fell today." {
		t.Fatalf("unexpected merged text %q", chunks[0].Text)
	}
}

func TestBuildTerminatesWhenMinCharsExceedsMaxChars(t *testing.T) {
	params := chunking.Params{
		BaseSimilarityThreshold: 0.22,
		MaxSimilarityThreshold:  0.28,
		MaxChars:                10,
		MinChars:                50,
		MeanOnClose:             true,
	}
	builder := chunking.NewBuilder(params, nil)

	texts := []string{"Sentence number one goes here.", "Sentence number two goes here.", "Sentence number three goes here."}
	embeddings := [][]float32{{1, 0}, {1, 0}, {1, 0}}

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"}, sentencesFrom(texts...), embeddings)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite MinChars >= MaxChars")
	}
}

func TestBuildDeterministicBoundaries(t *testing.T) {
	params := chunking.Params{MaxChars: 80, MinChars: 10, BaseSimilarityThreshold: 0.22, MaxSimilarityThreshold: 0.28, MeanOnClose: true}
	doc := chunking.Document{URL: "https://example.com", Title: "Doc"}
	sentences := sentencesFrom(
		"Cats purr when content.", "Dogs bark at strangers.",
		"Interest rates climbed again.", "Bond yields followed suit.",
	)
	embeddings := [][]float32{{1, 0.1}, {0.9, 0.2}, {0, 1}, {0.1, 0.9}}

	first, err := chunking.NewBuilder(params, nil).Build(context.Background(), doc, sentences, embeddings)
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	second, err := chunking.NewBuilder(params, nil).Build(context.Background(), doc, sentences, embeddings)
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Fatalf("chunk %d differs across runs: %q vs %q", i, first[i].Text, second[i].Text)
		}
	}
}

func TestBuildReembedsEachClosedChunk(t *testing.T) {
	embedder := &countingEmbedder{vector: []float32{0.5, 0.5}}
	params := chunking.Params{MaxChars: 500, MinChars: 5, BaseSimilarityThreshold: 0.22, MaxSimilarityThreshold: 0.28}
	builder := chunking.NewBuilder(params, embedder)

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"},
		sentencesFrom("The sky is blue.", "Stocks fell today."),
		[][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if embedder.calls != len(chunks) {
		t.Fatalf("expected one re-embed per chunk (%d), got %d calls", len(chunks), embedder.calls)
	}
	for i, chunk := range chunks {
		if len(chunk.Embedding) != 2 || chunk.Embedding[0] != 0.5 {
			t.Fatalf("chunk %d did not receive the re-embedded vector: %v", i, chunk.Embedding)
		}
	}
}

func TestBuildMeanOnCloseSkipsEmbedder(t *testing.T) {
	embedder := &countingEmbedder{vector: []float32{9, 9}}
	params := chunking.Params{MaxChars: 500, MinChars: 100, BaseSimilarityThreshold: 0.22, MaxSimilarityThreshold: 0.28, MeanOnClose: true}
	builder := chunking.NewBuilder(params, embedder)

	chunks, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"},
		sentencesFrom("First sentence here.", "Second sentence here."),
		[][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("expected no embedder calls with MeanOnClose, got %d", embedder.calls)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if got := chunks[0].Embedding; len(got) != 2 || got[0] != 0.5 || got[1] != 0.5 {
		t.Fatalf("expected mean embedding [0.5 0.5], got %v", got)
	}
}

func TestBuildPropagatesEmbedderFailure(t *testing.T) {
	embedder := &countingEmbedder{err: errors.New("quota exceeded")}
	params := chunking.Params{MaxChars: 500, MinChars: 5, BaseSimilarityThreshold: 0.22, MaxSimilarityThreshold: 0.28}
	builder := chunking.NewBuilder(params, embedder)

	_, err := builder.Build(context.Background(),
		chunking.Document{URL: "https://example.com"},
		sentencesFrom("The sky is blue.", "Stocks fell today."),
		[][]float32{{1, 0}, {0, 1}})
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
}

func TestBuildEmbeddingCountMismatch(t *testing.T) {
	builder := chunking.NewBuilder(chunking.DefaultParams(), nil)
	_, err := builder.Build(context.Background(), chunking.Document{},
		sentencesFrom("One.", "Two."), [][]float32{{1, 0}})
	if err == nil {
		t.Fatal("expected mismatch error")
	}
}

func TestThresholdAt(t *testing.T) {
	params := chunking.DefaultParams()

	for _, fraction := range []float64{0, 0.1, 0.3, 0.5} {
		if got := params.ThresholdAt(fraction); got != params.BaseSimilarityThreshold {
			t.Errorf("fraction %v: expected base threshold %v, got %v", fraction, params.BaseSimilarityThreshold, got)
		}
	}

	prev := params.BaseSimilarityThreshold
	for _, fraction := range []float64{0.51, 0.6, 0.75, 0.9, 1.0} {
		got := params.ThresholdAt(fraction)
		if got < prev {
			t.Errorf("threshold decreased at fraction %v: %v < %v", fraction, got, prev)
		}
		prev = got
	}

	if got := params.ThresholdAt(1.0); math.Abs(got-params.MaxSimilarityThreshold) > 1e-9 {
		t.Errorf("expected max threshold %v at full chunk, got %v", params.MaxSimilarityThreshold, got)
	}
	if got := params.ThresholdAt(2.0); math.Abs(got-params.MaxSimilarityThreshold) > 1e-9 {
		t.Errorf("fraction is clamped at 1: expected %v, got %v", params.MaxSimilarityThreshold, got)
	}
}
