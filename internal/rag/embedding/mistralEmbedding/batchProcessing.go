package mistralEmbedding

import (
	"github.com/mvembar/SyllabusAPI/internal/config"
)

// truncateText caps each input so an oversized chunk cannot blow the
// provider's token limit.
func truncateText(text string) string {
	if len(text) > config.EmbeddingMaxChars {
		return text[:config.EmbeddingMaxChars]
	}
	return text
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
