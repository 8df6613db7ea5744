// Package answer turns free-form model output into a choice letter.
package answer

import (
	"regexp"
	"strings"
)

// Extractor recognizes answer letters from a fixed alphabet, e.g. "ABCD"
type Extractor struct {
	alphabet string
	marker   *regexp.Regexp
	leading  *regexp.Regexp
	trailing *regexp.Regexp
}

// NewExtractor builds an extractor for alphabet. An empty alphabet means "A".
func NewExtractor(alphabet string) *Extractor {
	if alphabet == "" {
		alphabet = "A"
	}
	class := "[" + regexp.QuoteMeta(alphabet) + "]"

	return &Extractor{
		alphabet: alphabet,
		// "ĐÁP ÁN: B", "ĐÁP ÁN ĐÚNG LÀ **C**"; non-word means non letter/digit/underscore
		marker:   regexp.MustCompile(`ĐÁP ÁN(?:.*?LÀ)?[^\p{L}\p{N}_]*(` + class + `)`),
		leading:  regexp.MustCompile(`^(` + class + `)[.)\s]`),
		trailing: regexp.MustCompile(`(` + class + `)\s*$`),
	}
}

// Default is the letter used when nothing can be recognized
func (e *Extractor) Default() string {
	return e.alphabet[:1]
}

// Extract returns exactly one letter of the alphabet. First match wins:
//  1. the whole response is a single letter
//  2. the last answer marker followed by a letter
//  3. a letter followed by ".", ")" or whitespace at the start
//  4. a letter at the very end
//
// Anything else yields Default.
func (e *Extractor) Extract(text string) string {
	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return e.Default()
	}

	if len(text) == 1 && strings.Contains(e.alphabet, text) {
		return text
	}

	if matches := e.marker.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		return matches[len(matches)-1][1]
	}

	if m := e.leading.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	if m := e.trailing.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	return e.Default()
}
