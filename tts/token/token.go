// Package token decodes the custom audio tokens emitted by the generation
// model into code-book IDs.
package token

import (
	"strconv"
	"strings"
)

// Prefix marks a custom audio token inside generated text.
const Prefix = "<custom_token_"

// The model's audio vocabulary is offset past the text vocabulary and laid
// out in seven rotating code-book partitions of 4096 entries each. The
// partition is selected by the token's position in the accepted stream.
const (
	idOffset       = 10
	partitionCount = 7
	partitionWidth = 4096
)

// ID extracts the code-book ID embedded in tokenText, de-offset for the
// partition selected by index. Index is the number of previously accepted
// IDs in the stream. The second return value is false when the text carries
// no well-formed custom token.
func ID(tokenText string, index int) (int, bool) {
	s := strings.TrimSpace(tokenText)
	start := strings.LastIndex(s, Prefix)
	if start < 0 {
		return 0, false
	}
	last := s[start:]
	if !strings.HasSuffix(last, ">") {
		return 0, false
	}
	n, err := strconv.Atoi(last[len(Prefix) : len(last)-1])
	if err != nil {
		return 0, false
	}
	return n - idOffset - (index%partitionCount)*partitionWidth, true
}
