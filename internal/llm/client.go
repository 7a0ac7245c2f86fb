package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Complete sends prompt and returns the raw text of the model's reply.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for the LLM labeler.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
	// MaxContentChars caps how much document text is sent per request.
	MaxContentChars int
}

const (
	defaultTimeout         = 30 * time.Second
	defaultTemperature     = 0.3
	defaultMaxTokens       = 1000
	defaultMaxContentChars = 3000
)

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c Config) temperature() float64 {
	if c.Temperature == 0 {
		return defaultTemperature
	}
	return c.Temperature
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) maxContentChars() int {
	if c.MaxContentChars <= 0 {
		return defaultMaxContentChars
	}
	return c.MaxContentChars
}
