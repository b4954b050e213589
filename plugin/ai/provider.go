package ai

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// CompletionClient is the chat-completion surface the agent loop depends on.
// *openai.Client satisfies it; tests substitute a scripted fake.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Provider wraps an OpenAI-compatible client built from Config.
type Provider struct {
	client *openai.Client
	config *Config
}

// NewProvider creates a new AI provider.
func NewProvider(cfg *Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (p *Provider) Client() CompletionClient {
	return p.client
}

func (p *Provider) Config() *Config {
	return p.config
}
