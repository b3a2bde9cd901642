package mistral

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/customHttpClient"
	"github.com/mvembar/SyllabusAPI/internal/rag/llm"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var mistralClient *llmClient

type llmClient struct {
	api   openai.Client
	model string
}

// GetMistralClient builds the chat client once. Mistral speaks the OpenAI
// wire protocol, so the openai SDK pointed at the Mistral base URL is the
// whole adapter.
func GetMistralClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_mistral")
		if apikey == "" {
			logger.Error("no Mistral API key supplied")
			return
		}
		mistralClient = &llmClient{
			api: openai.NewClient(
				option.WithAPIKey(apikey),
				option.WithBaseURL(config.MistralBaseURL),
				option.WithHTTPClient(customHttpClient.Pooled()),
			),
			model: modelName,
		}
		logger.Info("Mistral chat client created", "model", modelName)
		go closeClient(ctx, mistralClient)
	})

	if mistralClient == nil {
		return nil
	}
	return &llmClient{api: mistralClient.api, model: mistralClient.model}
}

func closeClient(ctx context.Context, c *llmClient) {
	<-ctx.Done()
	logger.Info("Releasing Mistral chat client")
	c.model = ""
}

func (c *llmClient) Complete(ctx context.Context, prompt string, messageHistory []string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)
	defer cancel()

	res, err := c.api.Chat.Completions.New(callCtx, c.params(prompt, messageHistory))
	if err != nil {
		logger.Error("chat completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return res.Choices[0].Message.Content, nil
}

// Stream produces the completion as it arrives. The goroutine owns the
// channel and always closes it; a transport failure mid-stream arrives as
// the final Fragment.
func (c *llmClient) Stream(ctx context.Context, prompt string, messageHistory []string) (<-chan llm.Fragment, error) {
	callCtx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)

	stream := c.api.Chat.Completions.NewStreaming(callCtx, c.params(prompt, messageHistory))
	if err := stream.Err(); err != nil {
		cancel()
		logger.Error("could not open completion stream", "error", err)
		return nil, fmt.Errorf("could not open completion stream: %w", err)
	}

	out := make(chan llm.Fragment)
	go func() {
		defer cancel()
		defer close(out)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case out <- llm.Fragment{Content: content}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil {
			logger.Error("completion stream broke", "error", err)
			select {
			case out <- llm.Fragment{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (c *llmClient) params(prompt string, messageHistory []string) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(messageHistory)+1)
	if len(messageHistory) > 0 {
		messages = append(messages, openai.SystemMessage(
			"Previous conversation turns, oldest first:\n"+strings.Join(messageHistory, "\n")))
	}
	messages = append(messages, openai.UserMessage(prompt))

	return openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(config.ModelTemperature),
		MaxTokens:   openai.Int(config.ModelMaxTokens),
	}
}
