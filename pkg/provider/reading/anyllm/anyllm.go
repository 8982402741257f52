// Package anyllm provides a readings provider backed by
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports Gemini, OpenAI, Anthropic, Ollama, and more.
//
// Usage:
//
//	p, err := anyllm.New("gemini", "gemini-3-flash-preview", anyllmlib.WithAPIKey("..."))
//	r, err := p.PersonalizedReading(ctx, info)
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/suryalive/suryalive/pkg/provider/reading"
)

var _ reading.Provider = (*Provider)(nil)

// Provider implements reading.Provider by wrapping github.com/mozilla-ai/any-llm-go.
type Provider struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a Provider backed by the given LLM provider name.
//
// providerName is one of: "gemini", "openai", "anthropic", "ollama".
// model is the specific model to use (e.g., "gemini-3-flash-preview").
// opts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey).
// If no API key option is provided, the backend falls back to its usual
// environment variable (GEMINI_API_KEY, OPENAI_API_KEY, …).
func New(providerName, model string, opts ...anyllmlib.Option) (*Provider, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Provider{backend: backend, model: model}, nil
}

// NewGemini creates a Provider backed by Google Gemini, the default readings
// backend. Without options, it reads the GEMINI_API_KEY or GOOGLE_API_KEY
// environment variable.
func NewGemini(model string, opts ...anyllmlib.Option) (*Provider, error) {
	return New("gemini", model, opts...)
}

// PersonalizedReading implements reading.Provider.
func (p *Provider) PersonalizedReading(ctx context.Context, info reading.BirthInfo) (*reading.LagnaReading, error) {
	text, err := p.complete(ctx, reading.PersonalizedPrompt(info))
	if err != nil {
		return nil, fmt.Errorf("anyllm: personalized reading: %w", err)
	}
	return reading.DecodeReading(text)
}

// DailyHoroscope implements reading.Provider.
func (p *Provider) DailyHoroscope(ctx context.Context, lagna string) (string, error) {
	text, err := p.complete(ctx, reading.HoroscopePrompt(lagna))
	if err != nil {
		return "", fmt.Errorf("anyllm: daily horoscope: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// complete runs a single-turn completion and returns the response text.
func (p *Provider) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.backend.Completion(ctx, anyllmlib.CompletionParams{
		Model: p.model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}

// createBackend creates the underlying any-llm-go provider for the given name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "gemini":
		return gemini.New(opts...)
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: gemini, openai, anthropic, ollama", providerName)
	}
}
