package chunker

import (
	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// chunkFixedSize walks the text in steps of chunkSize-overlap characters.
// Trailing fragments under the minimum are dropped rather than emitted.
func chunkFixedSize(text string, chunkSize, overlap int, base ragModel.Metadata) []ragModel.TextChunk {
	var chunks []ragModel.TextChunk
	step := chunkSize - overlap

	for i := 0; i < len(text); i += step {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		piece := text[i:end]

		if len(piece) < config.MinChunkSize {
			continue
		}

		chunks = append(chunks, newChunk(piece, len(chunks), i, end, base))
	}
	return chunks
}
