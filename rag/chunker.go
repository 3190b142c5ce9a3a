package rag

import (
	"unicode"

	"go.uber.org/zap"

	"github.com/sabia-ai/sabia/types"
)

const (
	// DefaultChunkSize is the default chunk size in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default overlap between consecutive chunks
	// in characters.
	DefaultChunkOverlap = 200
)

// Chunker splits text into overlapping fixed-size segments. Splitting is
// length-based over characters; when feasible the cut is moved back to the
// nearest whitespace so words are not broken mid-way. Split is a pure
// function: identical input always yields an identical sequence.
type Chunker struct {
	size    int
	overlap int
	logger  *zap.Logger
}

// NewChunker creates a chunker. size and overlap are measured in characters
// and must satisfy 0 <= overlap < size.
func NewChunker(size, overlap int, logger *zap.Logger) (*Chunker, error) {
	if size <= 0 {
		return nil, types.NewError(types.ErrInvalidInput, "chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, types.NewError(types.ErrInvalidInput, "chunk overlap must be in [0, size)")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chunker{size: size, overlap: overlap, logger: logger}, nil
}

// MustChunker is NewChunker that panics on invalid parameters. Intended for
// construction with compile-time constants.
func MustChunker(size, overlap int, logger *zap.Logger) *Chunker {
	c, err := NewChunker(size, overlap, logger)
	if err != nil {
		panic(err)
	}
	return c
}

// Split splits text into an ordered sequence of chunks. Empty input yields an
// empty sequence; input no longer than the chunk size yields exactly one
// chunk equal to the whole input.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)

	if n == 0 {
		return nil
	}
	if n <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			chunks = append(chunks, string(runes[start:n]))
			break
		}

		// Prefer a whitespace boundary near the cut. If the whole window is
		// one unbroken run of non-space characters, keep the hard cut.
		cut := end
		for cut > start && !unicode.IsSpace(runes[cut]) {
			cut--
		}
		if cut > start {
			end = cut
		}

		chunks = append(chunks, string(runes[start:end]))

		next := end - c.overlap
		if next <= start {
			// Short chunk after a boundary adjustment; advance without
			// overlap so the walk always makes progress.
			next = end
		}
		start = next
	}

	c.logger.Debug("text split into chunks",
		zap.Int("chars", n),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.size),
		zap.Int("overlap", c.overlap))

	return chunks
}

// Size returns the configured chunk size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }
