package rag

import (
	"github.com/pkoukk/tiktoken-go"

	"github.com/sabia-ai/sabia/types"
)

// Tokenizer estimates how many tokens a text occupies in a model context.
type Tokenizer interface {
	CountTokens(text string) int
}

// Estimator approximates tokens as len(text)/4. This is the contractual
// default for context assembly: cheap, deterministic and close enough for
// budgeting prose.
type Estimator struct{}

// CountTokens returns len(text)/4.
func (Estimator) CountTokens(text string) int {
	return len(text) / 4
}

// TiktokenTokenizer counts tokens with a real BPE encoding. Heavier than the
// estimator; use it when the budget must match a specific model.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenTokenizer creates a tokenizer for the given encoding name,
// e.g. "cl100k_base".
func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidInput, "unknown token encoding: "+encodingName).WithCause(err)
	}
	return &TiktokenTokenizer{encoding: enc}, nil
}

// CountTokens returns the exact token count under the configured encoding.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
