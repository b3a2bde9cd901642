package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mvembar/SyllabusAPI/internal/data/store"
	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/metrics"
	"github.com/mvembar/SyllabusAPI/internal/rag/chunker"
	"github.com/mvembar/SyllabusAPI/internal/rag/embedding"
	"github.com/mvembar/SyllabusAPI/internal/rag/parser"
	"github.com/mvembar/SyllabusAPI/internal/rag/vectorDB"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

// Service runs the parse, chunk, embed, upsert pipeline. Each stage must
// fully succeed before the next runs; a failed embedding batch means
// nothing from that file reaches the index.
type Service struct {
	vectorDB vectorDB.Store
	embedder embedding.Embedder
	chunker  *chunker.Chunker
	registry *store.FileRegistry
	logger   *logger_i.Logger
}

func NewService(v vectorDB.Store, e embedding.Embedder, c *chunker.Chunker, r *store.FileRegistry) *Service {
	return &Service{
		vectorDB: v,
		embedder: e,
		chunker:  c,
		registry: r,
		logger:   logger_i.NewLogger("Document Ingestion"),
	}
}

func (s *Service) IngestFile(ctx context.Context, path string, originalFilename string, extra ragModel.Metadata) ragModel.IngestionResult {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	filename := originalFilename
	if filename == "" {
		filename = filepath.Base(path)
	}
	result := ragModel.IngestionResult{
		FilePath: path,
		Filename: filename,
	}

	doc, err := s.parseStep(path)
	if err != nil {
		return s.fail(result, "parse failed", err)
	}
	// uploaded files land under temp names; the registry and the index
	// should carry the name the caller knows
	doc.Metadata[ragModel.KeySourceFile] = filename

	// caller-supplied metadata overrides anything the parser guessed
	for k, v := range extra {
		doc.Metadata[k] = v
	}

	documentID := newDocumentID(filename)
	fileID := uuid.NewString()
	result.DocumentID = documentID
	doc.Metadata[ragModel.KeyFileID] = fileID

	chunks := s.chunkStep(doc, documentID)
	result.ChunksCreated = len(chunks)
	if len(chunks) == 0 {
		return s.fail(result, "no chunks produced", fmt.Errorf("document %q yielded no usable text", filename))
	}

	vectors, err := s.embedStep(ctx, chunks)
	if err != nil {
		return s.fail(result, "embedding failed", err)
	}

	uploaded, err := s.upsertStep(ctx, chunks, vectors, documentID)
	result.ChunksUploaded = uploaded
	if err != nil {
		return s.fail(result, "upsert failed", err)
	}
	metrics.AddIngestedChunks(uploaded)

	s.registry.Register(store.FileRecord{
		FileID:     fileID,
		DocumentID: documentID,
		Filename:   filename,
		ChunkCount: uploaded,
		Metadata:   doc.Metadata.Copy(),
		IngestedAt: time.Now(),
	})

	result.Success = true
	result.Metadata = doc.Metadata
	s.logger.Info("document ingested", "filename", filename, "document_id", documentID, "chunks", uploaded)
	return result
}

// IngestDirectory walks dir and ingests every parseable file, sequentially.
// Files the parser cannot handle are skipped, not failed.
func (s *Service) IngestDirectory(ctx context.Context, dir string, recursive bool) ragModel.BatchIngestionResult {
	batch := ragModel.BatchIngestionResult{}

	var paths []string
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.CanParse(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		s.logger.Error("directory walk failed", "dir", dir, "error", walkErr)
		return batch
	}

	batch.TotalFiles = len(paths)
	for _, path := range paths {
		res := s.IngestFile(ctx, path, "", nil)
		batch.Results = append(batch.Results, res)
		if res.Success {
			batch.Successful++
			batch.TotalChunks += res.ChunksUploaded
		} else {
			batch.Failed++
		}
	}
	return batch
}

// DeleteDocument removes every chunk of a document from the index.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) (bool, error) {
	_, err := s.vectorDB.DeleteByFilter(ctx, map[string]string{ragModel.KeyDocumentID: documentID})
	if err != nil {
		return false, err
	}
	for _, rec := range s.registry.List() {
		if rec.DocumentID == documentID {
			s.registry.Remove(rec.FileID)
		}
	}
	s.logger.Info("document deleted", "document_id", documentID)
	return true, nil
}

// DeleteFile removes an ingested file by the registry id handed out at
// ingest time.
func (s *Service) DeleteFile(ctx context.Context, fileID string) (bool, error) {
	rec, ok := s.registry.Get(fileID)
	if !ok {
		return false, nil
	}
	if _, err := s.vectorDB.DeleteByFilter(ctx, map[string]string{ragModel.KeyFileID: fileID}); err != nil {
		return false, err
	}
	s.registry.Remove(fileID)
	s.logger.Info("file deleted", "file_id", fileID, "filename", rec.Filename)
	return true, nil
}

func (s *Service) Registry() *store.FileRegistry { return s.registry }

func (s *Service) parseStep(path string) (ragModel.ParsedDocument, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("parse", time.Since(start)) }()
	return parser.Parse(path)
}

func (s *Service) chunkStep(doc ragModel.ParsedDocument, documentID string) []ragModel.TextChunk {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("chunk", time.Since(start)) }()
	return s.chunker.ChunkForDocument(doc.Content, doc.Metadata, documentID)
}

// embedStep is all-or-nothing: a single failed slot rejects the file, so a
// document is never half-indexed.
func (s *Service) embedStep(ctx context.Context, chunks []ragModel.TextChunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embed", time.Since(start)) }()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	results, err := s.embedder.BatchEmbedding(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(results) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d results for %d chunks", len(results), len(chunks))
	}

	vectors := make([][]float32, len(results))
	for i, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("chunk %d embedding failed: %w", i, res.Err)
		}
		vectors[i] = res.Vector
	}
	return vectors, nil
}

func (s *Service) upsertStep(ctx context.Context, chunks []ragModel.TextChunk, vectors [][]float32, documentID string) (int, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("upsert", time.Since(start)) }()

	records := make([]ragModel.VectorRecord, len(chunks))
	for i, c := range chunks {
		metadata := c.Metadata.Copy()
		metadata[ragModel.KeyContent] = c.Content
		records[i] = ragModel.VectorRecord{
			ID:       fmt.Sprintf("%s_chunk_%d", documentID, c.Index),
			Vector:   vectors[i],
			Metadata: metadata,
		}
	}
	return s.vectorDB.Upsert(ctx, records)
}

func (s *Service) fail(result ragModel.IngestionResult, stage string, err error) ragModel.IngestionResult {
	s.logger.Error("ingestion failed", "filename", result.Filename, "stage", stage, "error", err)
	result.Success = false
	result.Error = fmt.Sprintf("%s: %v", stage, err)
	return result
}

// newDocumentID is a readable slug plus a short digest so repeated ingests
// of the same filename stay distinct.
func newDocumentID(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	slug := strings.ToLower(strings.Join(strings.FieldsFunc(stem, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}), "-"))
	if slug == "" {
		slug = "document"
	}
	sum := sha256.Sum256([]byte(filename + time.Now().Format(time.RFC3339Nano)))
	return slug + "-" + hex.EncodeToString(sum[:])[:8]
}
