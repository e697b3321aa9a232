package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/schoolchat/config"
	"github.com/mohammad-safakhou/schoolchat/models"
	openai_provider "github.com/mohammad-safakhou/schoolchat/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	// ClassifyQuery labels a message as greeting, farewell or
	// knowledge_base, detecting a named school when one appears.
	ClassifyQuery(ctx context.Context, message string, schools []string) (models.Classification, error)
	// ModerateInput reports whether the message is allowed through.
	ModerateInput(ctx context.Context, text string) (bool, error)
	// GenerateAnswer produces the assistant reply, including the trailing
	// <sources_used>[...]</sources_used> citation marker.
	GenerateAnswer(ctx context.Context, req models.AnswerRequest) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("llm api key not configured (llm.api_key or OPENAI_API_KEY)")
		}
		return openai_provider.NewOpenAIClient(
			cfg.APIKey,
			cfg.ChatModel,
			cfg.ClassifierModel,
			cfg.EmbeddingModel,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
		), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
