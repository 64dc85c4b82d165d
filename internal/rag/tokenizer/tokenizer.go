// Package tokenizer counts and encodes text in model-specific tokens.
//
// Two variants exist. Exact wraps a BPE vocabulary and round-trips text byte-for-byte.
// Approximate is a deterministic length/4 estimate used when no vocabulary can be loaded.
// The variant is chosen once, in New, and callers that need exact token windows
// type-assert for Codec.
package tokenizer

import (
	"unicode/utf8"

	"github.com/akolanti/KnowledgeBase/pkg/logger_i"
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer counts tokens. Count never fails.
type Tokenizer interface {
	Count(text string) int
}

// Codec is a Tokenizer whose Decode is the exact inverse of Encode.
type Codec interface {
	Tokenizer
	Encode(text string) []int
	Decode(tokens []int) string
}

// Encoding is the shape of a tiktoken vocabulary.
type Encoding interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

var (
	_ Codec     = (*Exact)(nil)
	_ Tokenizer = Approximate{}
)

// New loads the vocabulary for model. When it cannot be loaded (unknown model,
// vocabulary download blocked) the approximate tokenizer is returned instead.
func New(model string) Tokenizer {
	logger := logger_i.NewLogger("Tokenizer")
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warn("tokenizer vocabulary unavailable, using approximate token counts", "model", model, "err", err)
		return Approximate{}
	}
	logger.Debug("loaded tokenizer vocabulary", "model", model)
	return FromEncoding(enc)
}

type Exact struct {
	enc Encoding
}

func FromEncoding(enc Encoding) *Exact {
	return &Exact{enc: enc}
}

// Encode treats special-token text as ordinary text so Decode always round-trips.
func (e *Exact) Encode(text string) []int {
	return e.enc.Encode(text, nil, nil)
}

func (e *Exact) Decode(tokens []int) string {
	return e.enc.Decode(tokens)
}

func (e *Exact) Count(text string) int {
	return len(e.Encode(text))
}

// Approximate estimates one token per four characters, rounded down.
type Approximate struct{}

func (Approximate) Count(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// IsExact reports whether tok can produce exact token windows.
func IsExact(tok Tokenizer) bool {
	_, ok := tok.(Codec)
	return ok
}
