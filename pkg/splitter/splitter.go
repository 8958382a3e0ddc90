// Package splitter provides deterministic character-based text chunking for
// the ingestion pipeline. Pieces are split on a separator and greedily merged
// into chunks of at most chunkSize characters, carrying overlap characters of
// trailing context into the next chunk.
package splitter

import "strings"

// Split cuts text on separator and merges the pieces into overlapping chunks.
// Identical input always yields an identical ordered sequence of chunks. A
// single piece longer than chunkSize is emitted whole rather than cut.
func Split(text string, chunkSize, overlap int, separator string) []string {
	if text == "" {
		return nil
	}
	if chunkSize <= 0 || len(text) <= chunkSize {
		return []string{text}
	}
	if overlap >= chunkSize {
		overlap = 0 // nonsensical overlap, fall back to disjoint chunks
	}

	pieces := strings.Split(text, separator)
	sepLen := len(separator)

	var chunks []string
	var current []string
	total := 0

	joinedLen := func(n, pieceLen int) int {
		// length of current plus one more piece, separators included
		l := total + pieceLen
		if n > 0 {
			l += sepLen
		}
		return l
	}

	for _, piece := range pieces {
		for len(current) > 0 && joinedLen(len(current), len(piece)) > chunkSize {
			chunks = append(chunks, strings.Join(current, separator))

			// Drop leading pieces until what remains fits the overlap budget.
			for len(current) > 0 && (total > overlap || joinedLen(len(current), len(piece)) > chunkSize) {
				total -= len(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += len(piece)
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, separator))
	}

	return chunks
}
