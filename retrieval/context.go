package retrieval

import (
	"strings"

	"github.com/seangpt/ragcore/chunking"
	"github.com/seangpt/ragcore/store"
)

// Passage is a citation-ready context block for the downstream answer step.
type Passage struct {
	Title      string
	Text       string
	AnchorURL  string
	Similarity float64
}

// AssembleContext expands a retrieved chunk with minimal boundary context:
// the last sentence of the preceding chunk and the first sentence of the
// following one, when present. No re-embedding or re-ranking happens here.
func AssembleContext(result store.RetrievalResult) Passage {
	chunk := result.Chunk

	parts := make([]string, 0, 3)
	if pre := chunking.SegmentSentences(chunk.PreChunkText); len(pre) > 0 {
		parts = append(parts, pre[len(pre)-1].Text)
	}
	parts = append(parts, chunk.Text)
	if post := chunking.SegmentSentences(chunk.PostChunkText); len(post) > 0 {
		parts = append(parts, post[0].Text)
	}

	return Passage{
		Title:      chunk.Title,
		Text:       strings.Join(parts, " "),
		AnchorURL:  chunk.AnchorURL,
		Similarity: result.Similarity,
	}
}
