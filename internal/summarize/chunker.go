// Package summarize turns extracted text of arbitrary length into one
// analysis result via paragraph chunking and map-reduce completion calls.
package summarize

import "strings"

// paragraphSep separates paragraphs: a paragraph is a maximal run of text
// between blank lines.
const paragraphSep = "\n\n"

// SplitChunks partitions text into paragraph-aligned chunks. Paragraphs
// accumulate into the current chunk until adding the next one would exceed
// budget characters; a single paragraph longer than the budget is kept intact
// in its own chunk. Deterministic: same text and budget, same chunks.
// Joining the chunks with a blank line reproduces the original paragraph
// sequence exactly.
func SplitChunks(text string, budget int) []string {
	paras := strings.Split(text, paragraphSep)
	chunks := make([]string, 0, 1)
	current := paras[0]
	for _, p := range paras[1:] {
		if len(current)+len(paragraphSep)+len(p) <= budget {
			current += paragraphSep + p
			continue
		}
		chunks = append(chunks, current)
		current = p
	}
	return append(chunks, current)
}
