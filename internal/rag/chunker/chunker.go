// Package chunker splits document text into ordered, overlapping, token-bounded chunks.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/KnowledgeBase/internal/config"
	"github.com/akolanti/KnowledgeBase/internal/rag/tokenizer"
)

type Chunker struct {
	tok       tokenizer.Tokenizer
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the token budget per chunk.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets how many tokens consecutive chunks share.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

func New(tok tokenizer.Tokenizer, opts ...Option) (*Chunker, error) {
	c := &Chunker{
		tok:       tok,
		chunkSize: config.DefaultChunkSize,
		overlap:   config.DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", c.chunkSize)
	}
	if c.overlap < 0 || c.overlap >= c.chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", c.chunkSize, c.overlap)
	}
	return c, nil
}

// Result is the ordered chunk texts. Exact is false when the word approximation was used,
// in which case reconstruction from the chunks is only word-granular.
type Result struct {
	Chunks []string
	Exact  bool
}

func (c *Chunker) ChunkSize() int { return c.chunkSize }
func (c *Chunker) Overlap() int   { return c.overlap }

func (c *Chunker) Split(text string) Result {
	if codec, ok := c.tok.(tokenizer.Codec); ok {
		return Result{Chunks: c.splitTokens(codec, text), Exact: true}
	}
	return Result{Chunks: c.splitWords(text), Exact: false}
}

// splitTokens emits windows [start, min(start+size, N)) advancing by size-overlap.
// It stops once a window reaches N, so N <= size always gives exactly one chunk.
func (c *Chunker) splitTokens(codec tokenizer.Codec, text string) []string {
	tokens := codec.Encode(text)
	n := len(tokens)
	if n == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := min(start+c.chunkSize, n)
		chunks = append(chunks, codec.Decode(tokens[start:end]))
		if end == n {
			break
		}
	}
	return chunks
}

// splitWords approximates a word as runes/4+1 tokens and the overlap as overlap/4 words.
func (c *Chunker) splitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	seedWords := c.overlap / 4
	var (
		chunks  []string
		current []string
		cost    int
	)
	for _, word := range words {
		wordCost := wordTokens(word)
		if cost+wordCost > c.chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			seed := current[max(len(current)-seedWords, 0):]
			current = append([]string(nil), seed...)
			cost = 0
			for _, w := range current {
				cost += wordTokens(w)
			}
		}
		current = append(current, word)
		cost += wordCost
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

func wordTokens(word string) int {
	return utf8.RuneCountInString(word)/4 + 1
}
