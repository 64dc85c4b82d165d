package llm

import (
	"context"
	"fmt"
)

// Completion is a synthesized answer and the tokens the provider billed for it.
type Completion struct {
	Text       string
	TokensUsed int
}

// Synthesizer answers a question from an assembled context block.
// Failures are terminal for the request; implementations do not degrade.
type Synthesizer interface {
	Synthesize(ctx context.Context, systemInstruction string, contextBlock string, question string) (Completion, error)
}

// UserPrompt frames the context block and the question for the model.
func UserPrompt(contextBlock string, question string) string {
	return fmt.Sprintf("Context:\n%s\n\n---\n\nQuestion: %s\n\nPlease provide a helpful answer based on the context above.", contextBlock, question)
}
