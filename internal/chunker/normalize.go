package chunker

import (
	"regexp"
	"strings"
)

var (
	// Runs of horizontal whitespace collapse to a single space. Newlines are
	// handled separately so paragraph breaks survive normalization.
	horizontalWS = regexp.MustCompile(`[ \t\r\f\v]+`)

	// Spaces hugging a newline carry no information once runs are collapsed.
	spaceAroundNewline = regexp.MustCompile(` *\n *`)

	// Three or more consecutive newlines collapse to a paragraph break.
	excessNewlines = regexp.MustCompile(`\n{3,}`)

	// Sentence-terminating punctuation is followed by exactly one space.
	sentenceSpacing = regexp.MustCompile(`([.!?]) ?(\w)`)
)

// Normalize cleans text before splitting: horizontal whitespace runs become one
// space, 3+ newlines become exactly 2 (paragraph breaks are preserved), and
// sentence-terminating punctuation is followed by exactly one space.
func Normalize(text string) string {
	text = horizontalWS.ReplaceAllString(text, " ")
	text = spaceAroundNewline.ReplaceAllString(text, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = sentenceSpacing.ReplaceAllString(text, "$1 $2")
	return strings.TrimSpace(text)
}
