package chunker

import (
	"strings"
	"unicode"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
)

// chunkSentences accumulates whole sentences greedily until adding the next
// one would push the chunk past target*(1+tolerance). The final partial
// accumulation is always flushed. Sentences are never split across chunks.
func chunkSentences(text string, targetSize int, tolerance float64, base ragModel.Metadata) []ragModel.TextChunk {
	sentences := splitSentences(text)
	maxSize := int(float64(targetSize) * (1 + tolerance))

	var chunks []ragModel.TextChunk
	var current []string
	currentLen := 0
	startChar := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunkText := strings.Join(current, " ")
		chunks = append(chunks, newChunk(chunkText, len(chunks), startChar, startChar+len(chunkText), base))
		startChar += len(chunkText) + 1
		current = nil
		currentLen = 0
	}

	for _, sentence := range sentences {
		if currentLen+len(sentence) > maxSize && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		currentLen += len(sentence)
	}
	flush()

	return chunks
}

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace. Offsets stay approximate since surrounding space is trimmed.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && !unicode.IsSpace(rune(text[i+1])) {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
