// Package chunker splits normalized text into fixed-size token windows.
package chunker

import "strings"

// DefaultSize is the window size used when a non-positive size is requested.
const DefaultSize = 250

// Separator joins the tokens of one window.
const Separator = " "

// Chunk tokenizes text on whitespace and partitions the tokens into
// consecutive, non-overlapping windows of size tokens. The last window may
// be shorter. Empty or whitespace-only text yields no chunks.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		chunks = append(chunks, strings.Join(tokens[start:end], Separator))
	}
	return chunks
}
