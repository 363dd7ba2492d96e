// Package chunker splits long section text into bounded, overlapping
// sub-chunks ahead of embedding.
package chunker

import "strings"

// SoftChunk splits text into pieces of at most maxChars characters. Inside
// each window it prefers to cut at the last line break, then just after the
// last sentence terminator, and forces the cut to the window edge when
// neither exists. Consecutive chunks overlap by up to overlapChars
// characters. All window arithmetic is over runes, not bytes, so a forced
// cut can never split a multi-byte character.
//
// The window start strictly advances on every iteration: a found cut sits
// strictly after the previous start, and backing up by the overlap is only
// applied when it still moves forward. That bounds the chunk count and rules
// out an infinite loop on text with no break points at all.
func SoftChunk(text string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + maxChars
		if end > n {
			end = n
		}

		// Search (start, end) backwards so a cut can never land on start
		// itself.
		cut := -1
		for i := end - 1; i > start; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		if cut < 0 {
			for i := end - 1; i > start; i-- {
				if runes[i] == '.' {
					// Keep the terminator with its sentence.
					cut = i + 1
					break
				}
			}
		}
		if cut < 0 {
			cut = end
		}

		if segment := strings.TrimSpace(string(runes[start:cut])); segment != "" {
			chunks = append(chunks, segment)
		}

		next := cut - overlapChars
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}
