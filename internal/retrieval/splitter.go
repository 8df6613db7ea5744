package retrieval

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSeparators is the split hierarchy for refinement: paragraphs, lines,
// sentence ends, words, then single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "? ", "! ", " ", ""}

// RecursiveSplitter splits text on the largest separator present and only
// descends to smaller separators for pieces that are still too long. Pieces
// are then merged back into chunks of at most ChunkSize characters, carrying
// up to ChunkOverlap characters of tail context into the next chunk.
//
// Lengths are measured in characters (runes). A separator's leading
// punctuation stays with the piece before it and its whitespace opens the
// piece after it; chunks are whitespace-trimmed.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewRecursiveSplitter(size, overlap int) *RecursiveSplitter {
	if size <= 0 {
		size = 1200
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &RecursiveSplitter{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text in document order
func (s *RecursiveSplitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := ""
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		small  []string
	)
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small)...)
			small = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small)...)
	}
	return chunks
}

// merge packs consecutive pieces into chunks. When a chunk is emitted, pieces
// are dropped from the front until what remains fits the overlap window and
// leaves room for the next piece.
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func splitKeepingSeparator(text, separator string) []string {
	var pieces []string
	if separator == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	tail := strings.TrimRightFunc(separator, unicode.IsSpace)
	lead := separator[len(tail):]

	parts := strings.Split(text, separator)
	for i, p := range parts {
		if i > 0 {
			p = lead + p
		}
		if i < len(parts)-1 {
			p += tail
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// FixedChunks cuts text into windows of size characters, each starting
// size-overlap characters after the previous one. The last window ends at
// the end of the text.
func FixedChunks(text string, size, overlap int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
