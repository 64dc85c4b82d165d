package embedding

import "context"

// Embedder maps text to a vector of fixed length Dimensions().
// A failed call is returned as is; retries are the provider SDK's business.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ToFloat32 narrows provider vectors to the stored precision.
func ToFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
