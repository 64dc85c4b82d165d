package chunker

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/akolanti/KnowledgeBase/internal/rag/tokenizer"
)

// byteEncoding maps every byte to one token, so token offsets equal byte offsets.
type byteEncoding struct{}

func (byteEncoding) Encode(text string, _ []string, _ []string) []int {
	out := make([]int, len(text))
	for i := 0; i < len(text); i++ {
		out[i] = int(text[i])
	}
	return out
}

func (byteEncoding) Decode(tokens []int) string {
	b := make([]byte, len(tokens))
	for i, t := range tokens {
		b[i] = byte(t)
	}
	return string(b)
}

func exactChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := New(tokenizer.FromEncoding(byteEncoding{}), WithChunkSize(size), WithOverlap(overlap))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func randomText(n int, seed int64) string {
	r := rand.New(rand.NewSource(seed))
	const alphabet = "abcdefghijklmnopqrstuvwxyz \n.,"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New(tokenizer.Approximate{})
		if err != nil {
			t.Fatal(err)
		}
		if c.ChunkSize() != 500 || c.Overlap() != 50 {
			t.Errorf("defaults = %d/%d, want 500/50", c.ChunkSize(), c.Overlap())
		}
	})

	t.Run("overlap must be below chunk size", func(t *testing.T) {
		if _, err := New(tokenizer.Approximate{}, WithChunkSize(100), WithOverlap(100)); err == nil {
			t.Error("expected error for overlap == chunk size")
		}
	})

	t.Run("chunk size must be positive", func(t *testing.T) {
		if _, err := New(tokenizer.Approximate{}, WithChunkSize(0), WithOverlap(0)); err == nil {
			t.Error("expected error for zero chunk size")
		}
	})
}

func TestSplit_1200Tokens(t *testing.T) {
	c := exactChunker(t, 500, 50)
	text := randomText(1200, 1)

	res := c.Split(text)
	if !res.Exact {
		t.Fatal("expected exact split")
	}
	if len(res.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(res.Chunks))
	}

	wantOffsets := [][2]int{{0, 500}, {450, 950}, {900, 1200}}
	for i, off := range wantOffsets {
		if res.Chunks[i] != text[off[0]:off[1]] {
			t.Errorf("chunk %d does not cover tokens [%d, %d)", i, off[0], off[1])
		}
	}
}

func TestSplit_ChunkCountFormula(t *testing.T) {
	tests := []struct {
		n, size, overlap int
	}{
		{1, 500, 50},
		{499, 500, 50},
		{500, 500, 50},
		{501, 500, 50},
		{950, 500, 50},
		{951, 500, 50},
		{1200, 500, 50},
		{5000, 500, 50},
		{37, 10, 3},
		{100, 10, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d size=%d overlap=%d", tt.n, tt.size, tt.overlap), func(t *testing.T) {
			c := exactChunker(t, tt.size, tt.overlap)
			got := len(c.Split(randomText(tt.n, int64(tt.n))).Chunks)

			step := tt.size - tt.overlap
			span := max(tt.n-tt.overlap, 1)
			want := (span + step - 1) / step
			if got != want {
				t.Errorf("got %d chunks, want %d", got, want)
			}
		})
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	for _, tt := range []struct{ n, size, overlap int }{
		{1200, 500, 50},
		{2048, 100, 25},
		{77, 10, 9},
		{300, 64, 1},
	} {
		c := exactChunker(t, tt.size, tt.overlap)
		text := randomText(tt.n, int64(tt.size))
		chunks := c.Split(text).Chunks

		var b strings.Builder
		b.WriteString(chunks[0])
		for _, chunk := range chunks[1:] {
			b.WriteString(chunk[tt.overlap:])
		}
		if b.String() != text {
			t.Errorf("n=%d size=%d overlap=%d: reconstruction differs from input", tt.n, tt.size, tt.overlap)
		}
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	c := exactChunker(t, 500, 50)
	for _, text := range []string{"x", "short document", randomText(500, 9)} {
		chunks := c.Split(text).Chunks
		if len(chunks) != 1 || chunks[0] != text {
			t.Errorf("expected one chunk equal to input for %d-token text, got %d chunks", len(text), len(chunks))
		}
	}
}

func TestSplit_WordFallback(t *testing.T) {
	c, err := New(tokenizer.Approximate{}, WithChunkSize(10), WithOverlap(8))
	if err != nil {
		t.Fatal(err)
	}

	words := make([]string, 10)
	for i := range words {
		words[i] = fmt.Sprintf("w%03d", i) // 4 bytes, costs 2
	}
	res := c.Split(strings.Join(words, "  \n"))
	if res.Exact {
		t.Error("fallback result must not be marked exact")
	}

	want := []string{
		"w000 w001 w002 w003 w004",
		"w003 w004 w005 w006 w007",
		"w006 w007 w008 w009",
	}
	if len(res.Chunks) != len(want) {
		t.Fatalf("got %d chunks %q, want %d", len(res.Chunks), res.Chunks, len(want))
	}
	for i := range want {
		if res.Chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, res.Chunks[i], want[i])
		}
	}
}

func TestSplit_WordFallbackCountsCharacters(t *testing.T) {
	c, err := New(tokenizer.Approximate{}, WithChunkSize(4), WithOverlap(3))
	if err != nil {
		t.Fatal(err)
	}
	// "äöüß" is 4 characters but 8 bytes; each word costs 2, so two fit per chunk
	chunks := c.Split("äöüß äöüß äöüß").Chunks
	want := []string{"äöüß äöüß", "äöüß"}
	if len(chunks) != len(want) || chunks[0] != want[0] || chunks[1] != want[1] {
		t.Errorf("got %q, want %q", chunks, want)
	}
}

func TestSplit_WordFallbackNoOverlapWords(t *testing.T) {
	// overlap/4 == 0 words, so chunks do not share words
	c, err := New(tokenizer.Approximate{}, WithChunkSize(4), WithOverlap(3))
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Split("aa bb cc dd ee").Chunks
	want := []string{"aa bb cc dd", "ee"}
	if len(chunks) != 2 || chunks[0] != want[0] || chunks[1] != want[1] {
		t.Errorf("got %q, want %q", chunks, want)
	}
}

func TestSplit_WhitespaceOnly(t *testing.T) {
	c, err := New(tokenizer.Approximate{})
	if err != nil {
		t.Fatal(err)
	}
	if chunks := c.Split(" \n\t  ").Chunks; len(chunks) != 0 {
		t.Errorf("expected zero chunks for whitespace input, got %d", len(chunks))
	}
}
