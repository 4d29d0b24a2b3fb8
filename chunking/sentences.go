package chunking

import (
	"regexp"
	"strings"
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`)

// SegmentSentences splits raw text into trimmed, non-empty sentences in
// source order. Clauses terminated by '.', '!' or '?' count as sentence
// boundaries; an unterminated trailing fragment becomes the final sentence.
// Text without any terminator yields a single sentence. Empty or
// whitespace-only input yields nil. Never fails.
func SegmentSentences(text string) []Sentence {
	var raw []string
	end := 0
	for _, loc := range sentenceSplitter.FindAllStringIndex(text, -1) {
		raw = append(raw, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		raw = append(raw, tail)
	}

	sentences := make([]Sentence, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		sentences = append(sentences, Sentence{Text: s, Index: len(sentences)})
	}
	return sentences
}
