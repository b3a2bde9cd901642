package embedding

import "context"

// EmbedResult is one batch slot, aligned 1:1 with the input texts. A group
// level provider failure marks every slot in that group with Err instead of
// shrinking the returned slice, so callers can tell which texts failed.
type EmbedResult struct {
	Vector     []float32
	TokensUsed int
	Err        error
}

type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([]EmbedResult, error)
}
