package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You summarize passages from documents. Reply with the summary only, " +
	"in plain prose, between %d and %d words. Do not add facts that are not in the passage."

// OpenAIModel summarizes through the chat completions API.
type OpenAIModel struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	if apiKey == "" {
		return &OpenAIModel{model: model}
	}
	return NewOpenAIModelWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAIModelWithConfig(cfg openai.ClientConfig, model string) *OpenAIModel {
	return &OpenAIModel{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: 30 * time.Second,
	}
}

// Load checks that the API key works and the model exists.
func (m *OpenAIModel) Load(ctx context.Context) error {
	if m.client == nil {
		return errors.New("OPENAI_API_KEY is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, err := m.client.GetModel(ctx, m.model); err != nil {
		return fmt.Errorf("get model %s: %w", m.model, err)
	}
	return nil
}

func (m *OpenAIModel) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: 0.2,
		MaxTokens:   maxLength * 2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(systemPrompt, minLength, maxLength)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("empty summary")
	}
	return out, nil
}
