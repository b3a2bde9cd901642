package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var geminiClient *llmClient

type llmClient struct {
	client    *genai.Client
	modelName string
}

// GetGeminiClient is the alternate chat backend, selected with
// LLM_PROVIDER=gemini.
func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
	go closeClient(ctx, geminiClient)
}

func closeClient(ctx context.Context, c *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	c.client = nil
	c.modelName = ""
}

func (c *llmClient) Complete(ctx context.Context, prompt string, messageHistory []string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(
		callCtx,
		c.modelName,
		genai.Text(prompt),
		c.contentConfig(messageHistory),
	)
	if err != nil {
		logger.Error("generation failed", "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}
	return result.Text(), nil
}

func (c *llmClient) Stream(ctx context.Context, prompt string, messageHistory []string) (<-chan llm.Fragment, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)

	seq := c.client.Models.GenerateContentStream(
		callCtx,
		c.modelName,
		genai.Text(prompt),
		c.contentConfig(messageHistory),
	)

	out := make(chan llm.Fragment)
	go func() {
		defer cancel()
		defer close(out)

		for resp, err := range seq {
			if err != nil {
				logger.Error("generation stream broke", "error", err)
				select {
				case out <- llm.Fragment{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- llm.Fragment{Content: text}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *llmClient) contentConfig(messageHistory []string) *genai.GenerateContentConfig {
	instruction := "You are a helpful assistant answering questions about course syllabi."
	if len(messageHistory) > 0 {
		instruction += "\nPrevious conversation turns, oldest first:\n" + strings.Join(messageHistory, "\n")
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		},
		Temperature: genai.Ptr(float32(config.ModelTemperature)),
	}
}
