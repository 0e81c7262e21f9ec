package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veritaslab/veritas/internal/model"
)

// Generator executes a single text-generation request against a named model
type Generator interface {
	Generate(ctx context.Context, modelName, prompt string) (string, error)
}

// SpeechTranscriber converts an audio file to text
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// GroqClient talks to Groq's OpenAI-compatible API for both chat completion
// and Whisper transcription
type GroqClient struct {
	client      *openai.Client
	speechModel string
}

// NewGroqClient creates a client from the models configuration
func NewGroqClient(cfg model.ModelsConfig) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model provider API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &GroqClient{
		client:      openai.NewClientWithConfig(clientConfig),
		speechModel: cfg.Speech,
	}, nil
}

// Generate runs one chat completion and returns the raw assistant text
func (c *GroqClient) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Transcribe submits an audio file to the speech-to-text model
func (c *GroqClient) Transcribe(ctx context.Context, filePath string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       c.speechModel,
		FilePath:    filePath,
		Format:      openai.AudioResponseFormatText,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
