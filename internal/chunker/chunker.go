// Package chunker provides deterministic recursive text splitting with
// configurable size, overlap, and separator preference.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators is the separator priority order: paragraph break, line
// break, sentence end, word boundary, and character split as a last resort.
func DefaultSeparators() []string {
	return []string{"\n\n", "\n", ". ", " ", ""}
}

// Splitter splits text into overlapping chunks of at most chunkSize characters.
// It holds no state across calls; Split is safe for concurrent use.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter. chunkSize must be positive and chunkOverlap
// must satisfy 0 <= chunkOverlap < chunkSize. A nil separators slice uses
// DefaultSeparators.
func NewSplitter(chunkSize, chunkOverlap int, separators []string) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", chunkOverlap)
	}
	if separators == nil {
		separators = DefaultSeparators()
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   separators,
	}, nil
}

// Split normalizes text and returns its ordered chunk sequence. Empty or
// whitespace-only input yields zero chunks. Each chunk is at most chunkSize
// characters unless a single unsplittable piece exceeds chunkSize, in which
// case that piece is emitted whole.
func (s *Splitter) Split(text string) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}
	return s.splitText(text, s.separators)
}

// splitText recursively splits text on the first separator that occurs in it,
// falling through to finer-grained separators for pieces that are still too
// large, then greedily merges adjacent small pieces into overlapping windows.
func (s *Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	splits := splitKeepSeparator(text, separator)
	var final []string
	var pending []string
	for _, piece := range splits {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.mergeSplits(pending)...)
			pending = nil
		}
		if len(remaining) == 0 {
			// No finer separator left: emit the oversized piece whole.
			// Whitespace pieces trim to nothing and are skipped, never
			// emitted as empty chunks.
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				final = append(final, trimmed)
			}
		} else {
			final = append(final, s.splitText(piece, remaining)...)
		}
	}
	if len(pending) > 0 {
		final = append(final, s.mergeSplits(pending)...)
	}
	return final
}

// splitKeepSeparator splits text on sep, keeping the separator attached to the
// end of the preceding piece so that concatenating pieces reproduces text.
// An empty separator splits into individual characters.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		runes := []rune(text)
		out := make([]string, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mergeSplits merges pieces (each smaller than chunkSize) into chunks of at
// most chunkSize characters. Each emitted chunk after the first starts with up
// to chunkOverlap trailing characters of its predecessor, cut at piece
// boundaries so the overlap never breaks mid-word.
func (s *Splitter) mergeSplits(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > s.chunkSize && len(window) > 0 {
			chunks = appendChunk(chunks, window)
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		chunks = appendChunk(chunks, window)
	}
	return chunks
}

func appendChunk(chunks []string, window []string) []string {
	chunk := strings.TrimSpace(strings.Join(window, ""))
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}
