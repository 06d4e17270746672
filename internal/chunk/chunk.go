// Package chunk splits extracted text into overlapping windows so that
// context spanning a chunk boundary is not lost to the retriever.
package chunk

import "errors"

const (
	// DefaultSize is the window width in characters.
	DefaultSize = 1000
	// DefaultOverlap is how many trailing characters each window shares
	// with the next.
	DefaultOverlap = 200
)

// Split applies a sliding character window over the text. Windows are built
// from runes so multi-byte characters are never cut in half.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be > 0")
	}
	if overlap < 0 || overlap >= size {
		return nil, errors.New("overlap must be >= 0 and < chunk size")
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := size - overlap
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
	return chunks, nil
}
