package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "Eres un asistente especializado en verificación de noticias de salud. " +
	"Responde en español, recomienda fuentes oficiales y nunca inventes datos. " +
	"Si no estás seguro, dilo explícitamente."

// OpenAIProvider answers questions through the Chat Completions API.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIProvider creates a provider. Returns an error when no API
// key is configured so callers can cleanly disable the LLM rung.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: 500,
		timeout:   30 * time.Second,
	}, nil
}

// Answer asks the model for a reply to the user's question.
func (p *OpenAIProvider) Answer(ctx context.Context, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
