package ai

import (
	"errors"
	"time"

	"github.com/hrygo/taskpilot/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int

	// MaxIterations bounds the tool-calling loop per exchange.
	MaxIterations int
	// Timeout is the deadline for one whole exchange, covering every model
	// round-trip and tool invocation inside it.
	Timeout time.Duration
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		BaseURL:       p.AIBaseURL,
		APIKey:        p.AIAPIKey,
		Model:         p.AIModel,
		Temperature:   p.AITemperature,
		MaxTokens:     p.AIMaxTokens,
		MaxIterations: p.AgentMaxIterations,
		Timeout:       p.AgentTimeout,
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("AI API key is required")
	}
	if c.Model == "" {
		return errors.New("AI model is required")
	}
	if c.MaxIterations < 1 {
		return errors.New("agent max iterations must be at least 1")
	}
	return nil
}
