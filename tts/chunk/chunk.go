// Package chunk splits input text into generation-safe pieces.
//
// The token-generation model degrades on long prompts, so text beyond a
// configured size is split at sentence boundaries and greedily packed. A
// sentence that is itself too long falls back to clause boundaries, then to
// word boundaries. Words are never split.
package chunk

import "strings"

// Chunk is a bounded, contiguous slice of the input text processed as one
// generation request.
type Chunk struct {
	Index int
	Text  string
}

const (
	sentenceEnders = ".!?"
	clauseEnders   = ",;"
)

// Split divides text into chunks no longer than maxSize characters, except
// when a single word exceeds maxSize and cannot be reduced further. Blank
// input yields no chunks. Split is pure and never fails.
func Split(text string, maxSize int) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxSize {
		return []Chunk{{Index: 0, Text: text}}
	}

	var parts []string
	var cur string
	for _, sentence := range splitAfter(text, sentenceEnders) {
		if len(sentence) > maxSize {
			if cur != "" {
				parts = append(parts, cur)
				cur = ""
			}
			parts = append(parts, splitLongSentence(sentence, maxSize)...)
			continue
		}
		switch {
		case cur == "":
			cur = sentence
		case len(cur)+len(sentence)+1 <= maxSize:
			cur += " " + sentence
		default:
			parts = append(parts, cur)
			cur = sentence
		}
	}
	if cur != "" {
		parts = append(parts, cur)
	}

	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{Index: i, Text: p}
	}
	return chunks
}

// splitLongSentence breaks a sentence longer than maxSize at clause
// boundaries, falling back to word boundaries when the longest clause still
// exceeds maxSize.
func splitLongSentence(sentence string, maxSize int) []string {
	clauses := splitAfter(sentence, clauseEnders)
	longest := 0
	for _, c := range clauses {
		if len(c) > longest {
			longest = len(c)
		}
	}
	if longest > maxSize {
		return pack(strings.Fields(sentence), maxSize)
	}
	return pack(clauses, maxSize)
}

// pack greedily joins items with single spaces into strings of at most
// maxSize characters. A single item longer than maxSize becomes its own
// entry rather than being cut.
func pack(items []string, maxSize int) []string {
	var out []string
	var cur string
	for _, item := range items {
		switch {
		case cur == "":
			cur = item
		case len(cur)+len(item)+1 <= maxSize:
			cur += " " + item
		default:
			out = append(out, cur)
			cur = item
		}
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// splitAfter splits text after any rune in enders that is followed by
// whitespace, consuming the whitespace run. The ender stays attached to the
// preceding segment.
func splitAfter(text, enders string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(text); i++ {
		if strings.IndexByte(enders, text[i]) < 0 {
			continue
		}
		j := i + 1
		if j >= len(text) || !isSpace(text[j]) {
			continue
		}
		parts = append(parts, text[start:j])
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
