package mistralEmbedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/customHttpClient"
	"github.com/mvembar/SyllabusAPI/internal/rag/embedding"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

// GetMistralEmbeddingClient builds the embedder once. Mistral exposes an
// OpenAI-compatible endpoint, so the client is the openai SDK pointed at
// the Mistral base URL.
func GetMistralEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("mistral_embedding")
		if apikey == "" {
			logger.Error("no Mistral API key supplied")
			return
		}
		embeddingClient = &client{
			api: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithBaseURL(config.MistralBaseURL),
				option.WithHTTPClient(customHttpClient.Pooled()),
			),
			model: modelName,
		}
		logger.Info("Mistral embedding client created", "model", modelName)
		go closeClient(ctx, embeddingClient)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{api: embeddingClient.api, model: embeddingClient.model}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Releasing Mistral embedding client")
	embeddingClient.model = ""
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.EmbeddingRequestTimeout)
	defer cancel()

	vectors, _, err := c.doCall(callCtx, []string{text})
	if err != nil {
		logger.Error("embedding request failed", "error", err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding response malformed: got %d vectors for 1 input", len(vectors))
	}
	return vectors[0], nil
}

// BatchEmbedding submits fixed-size groups sequentially, never concurrently,
// to keep provider rate-limit exposure boundable. A failed group does not
// abort the batch: its slots carry the group error and later groups proceed.
func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([]embedding.EmbedResult, error) {
	results := make([]embedding.EmbedResult, len(texts))

	for start := 0; start < len(texts); start += config.EmbeddingBatchSize {
		end := start + config.EmbeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		group := texts[start:end]

		callCtx, cancel := context.WithTimeout(ctx, config.EmbeddingRequestTimeout)
		vectors, tokens, err := c.doCall(callCtx, group)
		cancel()

		if err != nil || len(vectors) != len(group) {
			if err == nil {
				err = fmt.Errorf("embedding response malformed: got %d vectors for %d inputs", len(vectors), len(group))
			}
			logger.Error("embedding group failed, continuing with remaining groups",
				"group_start", start, "group_size", len(group), "error", err)
			for i := range group {
				results[start+i] = embedding.EmbedResult{Err: err}
			}
			continue
		}

		perText := tokens / len(group)
		for i, vector := range vectors {
			results[start+i] = embedding.EmbedResult{Vector: vector, TokensUsed: perText}
		}
	}

	return results, nil
}

func (c *client) doCall(ctx context.Context, texts []string) ([][]float32, int, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncateText(t)
	}

	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.model,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
	})
	if err != nil {
		return nil, 0, err
	}

	vectors := make([][]float32, len(res.Data))
	for _, item := range res.Data {
		if int(item.Index) >= len(vectors) {
			return nil, 0, fmt.Errorf("embedding response index %d out of range", item.Index)
		}
		vectors[item.Index] = toFloat32(item.Embedding)
	}
	return vectors, int(res.Usage.TotalTokens), nil
}
