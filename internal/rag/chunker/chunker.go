package chunker

import (
	"fmt"
	"strings"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

var logger = logger_i.NewLogger("Text Chunker")

// Strategy is the closed set of chunking algorithms. Selection happens at
// construction time; Chunk dispatches through a single switch.
type Strategy int

const (
	StrategyFixedSize Strategy = iota
	StrategySentence
	StrategySection
)

func (s Strategy) String() string {
	switch s {
	case StrategyFixedSize:
		return "fixed_size"
	case StrategySentence:
		return "sentence"
	case StrategySection:
		return "section"
	default:
		return "unknown"
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "fixed_size", "":
		return StrategyFixedSize, nil
	case "sentence":
		return StrategySentence, nil
	case "section":
		return StrategySection, nil
	default:
		return StrategyFixedSize, fmt.Errorf("unsupported chunking strategy: %q", name)
	}
}

type Config struct {
	Strategy   Strategy
	ChunkSize  int     //fixed_size: characters per chunk
	Overlap    int     //fixed_size: characters shared between neighbours
	TargetSize int     //sentence: approximate chunk size
	Tolerance  float64 //sentence: allowed variation from target (0.2 = ±20%)
}

type Chunker struct {
	cfg Config
}

// New validates strategy parameters. Bad parameters are a configuration
// error and fail here, never per call.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = config.ChunkSize
	}
	if cfg.Overlap == 0 && cfg.Strategy == StrategyFixedSize {
		cfg.Overlap = config.ChunkOverlap
	}
	if cfg.TargetSize == 0 {
		cfg.TargetSize = config.SentenceTargetSz
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = config.SentenceTol
	}

	if cfg.Strategy == StrategyFixedSize && cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", cfg.Overlap, cfg.ChunkSize)
	}

	return &Chunker{cfg: cfg}, nil
}

func (c *Chunker) Strategy() Strategy { return c.cfg.Strategy }

// Chunk splits text into ordered chunks carrying a copy of base metadata.
// Empty or whitespace-only input yields no chunks, not an error.
func (c *Chunker) Chunk(text string, base ragModel.Metadata) []ragModel.TextChunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []ragModel.TextChunk
	switch c.cfg.Strategy {
	case StrategyFixedSize:
		chunks = chunkFixedSize(text, c.cfg.ChunkSize, c.cfg.Overlap, base)
	case StrategySentence:
		chunks = chunkSentences(text, c.cfg.TargetSize, c.cfg.Tolerance, base)
	case StrategySection:
		chunks = chunkSections(text, base)
	}

	logger.Debug("chunked text", "strategy", c.cfg.Strategy.String(), "chunks", len(chunks))
	return chunks
}

// ChunkForDocument chunks text and enriches every chunk's metadata with the
// document id, its position and the total count. Enrichment runs after the
// full batch exists so total_chunks is exact.
func (c *Chunker) ChunkForDocument(text string, base ragModel.Metadata, documentID string) []ragModel.TextChunk {
	chunks := c.Chunk(text, base)

	for i := range chunks {
		chunks[i].Metadata[ragModel.KeyDocumentID] = documentID
		chunks[i].Metadata[ragModel.KeyChunkIndex] = chunks[i].Index
		chunks[i].Metadata[ragModel.KeyTotalChunks] = len(chunks)
		chunks[i].Metadata[ragModel.KeyStrategy] = c.cfg.Strategy.String()
	}
	return chunks
}

func newChunk(content string, index, start, end int, base ragModel.Metadata) ragModel.TextChunk {
	meta := ragModel.Metadata{}
	if base != nil {
		meta = base.Copy()
	}
	return ragModel.TextChunk{
		Content:   strings.TrimSpace(content),
		Index:     index,
		StartChar: start,
		EndChar:   end,
		Metadata:  meta,
	}
}
