// Package prompt turns retrieved chunks into a citation-labelled context block.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/akolanti/KnowledgeBase/internal/domain/kbModel"
)

const (
	SystemInstruction = `You are a helpful AI assistant that answers questions based on the provided context.

Rules:
1. Only answer based on the provided context
2. If the context doesn't contain enough information, say so
3. Cite your sources by mentioning which document the information came from
4. Be concise but thorough
5. If asked about something not in the context, politely explain you can only answer based on the uploaded documents`

	NoDocumentsAnswer = "I don't have any documents to search through. Please upload some documents first."

	SourceDelimiter = "\n\n---\n\n"
	PreviewLength   = 200
	previewEllipsis = "..."
)

type Assembly struct {
	Context string
	Sources []kbModel.Source
}

func (a Assembly) Empty() bool {
	return len(a.Sources) == 0
}

// Assemble labels hits "Source 1..K" in the order given; it never re-sorts.
func Assemble(hits []kbModel.ScoredChunk) Assembly {
	if len(hits) == 0 {
		return Assembly{Sources: []kbModel.Source{}}
	}

	blocks := make([]string, len(hits))
	sources := make([]kbModel.Source, len(hits))
	for i, hit := range hits {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, hit.Chunk.DocumentName, hit.Chunk.Text)
		sources[i] = kbModel.Source{
			Document:   hit.Chunk.DocumentName,
			ChunkIndex: hit.Chunk.ChunkIndex,
			Score:      roundScore(hit.Score),
			Preview:    Preview(hit.Chunk.Text),
		}
	}

	return Assembly{
		Context: strings.Join(blocks, SourceDelimiter),
		Sources: sources,
	}
}

// Preview truncates to PreviewLength characters and marks the cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength]) + previewEllipsis
}

// roundScore keeps an absent score absent.
func roundScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	rounded := math.Round(*score*10000) / 10000
	return &rounded
}
