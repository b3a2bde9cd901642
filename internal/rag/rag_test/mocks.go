package rag_test

import (
	"context"

	"github.com/mvembar/SyllabusAPI/internal/domain/ragModel"
	"github.com/mvembar/SyllabusAPI/internal/rag/embedding"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
)

// MockVectorDB implements vectorDB.Store
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnSearch         func(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ragModel.SearchResult, error)
	OnUpsert         func(ctx context.Context, records []ragModel.VectorRecord) (int, error)
	OnDeleteByFilter func(ctx context.Context, filter map[string]string) (int, error)
	OnStats          func(ctx context.Context) (ragModel.StoreStats, error)

	UpsertedRecords []ragModel.VectorRecord
}

func (m *MockVectorDB) Initialize(ctx context.Context) error { return nil }

func (m *MockVectorDB) Upsert(ctx context.Context, records []ragModel.VectorRecord) (int, error) {
	m.UpsertedRecords = append(m.UpsertedRecords, records...)
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, records)
	}
	return len(records), nil
}

func (m *MockVectorDB) Search(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ragModel.SearchResult, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, vector, topK, filter)
	}
	return []ragModel.SearchResult{
		{
			ID:              "doc_chunk_0",
			Content:         "default context",
			SimilarityScore: 0.9,
			Metadata:        ragModel.Metadata{ragModel.KeySourceFile: "default.pdf"},
		},
	}, nil
}

func (m *MockVectorDB) DeleteByID(ctx context.Context, ids []string) (int, error) {
	return len(ids), nil
}

func (m *MockVectorDB) DeleteByFilter(ctx context.Context, filter map[string]string) (int, error) {
	if m.OnDeleteByFilter != nil {
		return m.OnDeleteByFilter(ctx, filter)
	}
	return 0, nil
}

func (m *MockVectorDB) Stats(ctx context.Context) (ragModel.StoreStats, error) {
	if m.OnStats != nil {
		return m.OnStats(ctx)
	}
	return ragModel.StoreStats{}, nil
}

func (m *MockVectorDB) HealthCheck(ctx context.Context) bool { return true }

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([]embedding.EmbedResult, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, text)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([]embedding.EmbedResult, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	// One dummy vector per input
	results := make([]embedding.EmbedResult, len(texts))
	for i := range results {
		results[i] = embedding.EmbedResult{Vector: []float32{0.1, 0.2}}
	}
	return results, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnComplete func(ctx context.Context, prompt string, history []string) (string, error)
	OnStream   func(ctx context.Context, prompt string, history []string) (<-chan llm.Fragment, error)
}

func (m *MockLLM) Complete(ctx context.Context, prompt string, history []string) (string, error) {
	if m.OnComplete != nil {
		return m.OnComplete(ctx, prompt, history)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Stream(ctx context.Context, prompt string, history []string) (<-chan llm.Fragment, error) {
	if m.OnStream != nil {
		return m.OnStream(ctx, prompt, history)
	}
	out := make(chan llm.Fragment, 2)
	out <- llm.Fragment{Content: "mocked "}
	out <- llm.Fragment{Content: "stream"}
	close(out)
	return out, nil
}
