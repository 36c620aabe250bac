package ai

import (
	"context"
	"fmt"
	"time"
)

// Settings selects and configures a provider
type Settings struct {
	Provider      string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
}

// NewFromSettings returns the configured provider, or (nil, nil) when the
// selected provider has no credential. Callers treat a nil Provider as
// "AI unavailable" and never reach the network.
func NewFromSettings(ctx context.Context, s Settings) (Provider, error) {
	switch s.Provider {
	case "", "openai":
		if s.OpenAIKey == "" {
			return nil, nil
		}
		p, err := NewOpenAIProvider(OpenAIConfig{
			APIKey:  s.OpenAIKey,
			Model:   s.OpenAIModel,
			BaseURL: s.OpenAIBaseURL,
			Timeout: s.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "gemini":
		if s.GeminiKey == "" {
			return nil, nil
		}
		p, err := NewGeminiProvider(ctx, GeminiConfig{APIKey: s.GeminiKey, ModelName: s.GeminiModel})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, s.Provider)
	}
}
