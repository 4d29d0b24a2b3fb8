package chunking

import (
	"net/url"
	"strings"
)

const anchorWordCount = 3

// AnchorURL appends a text-fragment deep link for the chunk to the source
// URL: {sourceURL}#:~:text={percent-encoded first words of the chunk}. Best
// effort; not every browser resolves text fragments.
func AnchorURL(sourceURL, chunkText string) string {
	words := strings.Fields(chunkText)
	if len(words) > anchorWordCount {
		words = words[:anchorWordCount]
	}
	if len(words) == 0 {
		return sourceURL
	}
	fragment := url.QueryEscape(strings.Join(words, " "))
	fragment = strings.ReplaceAll(fragment, "+", "%20")
	return sourceURL + "#:~:text=" + fragment
}
