package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/suryalive/suryalive/internal/config"
	"github.com/suryalive/suryalive/pkg/provider/live"
	"github.com/suryalive/suryalive/pkg/provider/reading"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

providers:
  live:
    name: gemini
    api_key: gm-test
    model: gemini-2.5-flash-native-audio-preview-12-2025
  reading:
    name: openai
    api_key: sk-test
    model: gpt-4o

persona:
  name: Surya
  instructions: You are an experienced Sri Lankan astrologer.
  voice: Kore

audio:
  queue_capacity: 64
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Providers.Live.Name != "gemini" {
		t.Errorf("providers.live.name: got %q, want %q", cfg.Providers.Live.Name, "gemini")
	}
	if cfg.Providers.Reading.Model != "gpt-4o" {
		t.Errorf("providers.reading.model: got %q, want %q", cfg.Providers.Reading.Model, "gpt-4o")
	}
	if cfg.Persona.Voice != "Kore" {
		t.Errorf("persona.voice: got %q, want %q", cfg.Persona.Voice, "Kore")
	}
	if cfg.Audio.QueueCapacity != 64 {
		t.Errorf("audio.queue_capacity: got %d, want 64", cfg.Audio.QueueCapacity)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields).
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}

	// The built-in persona fills the gaps.
	if cfg.Persona.Name != config.DefaultPersonaName {
		t.Errorf("persona.name: got %q, want %q", cfg.Persona.Name, config.DefaultPersonaName)
	}
	if cfg.Persona.Voice != config.DefaultVoice {
		t.Errorf("persona.voice: got %q, want %q", cfg.Persona.Voice, config.DefaultVoice)
	}
	if cfg.Persona.Instructions == "" {
		t.Error("persona.instructions not defaulted")
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := `
server:
  listen_addr: ":8080"
  max_conns: 10
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_IncompleteTLS(t *testing.T) {
	yaml := `
server:
  tls:
    cert_file: /etc/ssl/suryalive.pem
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidate_NegativeQueueCapacity(t *testing.T) {
	yaml := `
audio:
  queue_capacity: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative queue_capacity, got nil")
	}
	if !strings.Contains(err.Error(), "queue_capacity") {
		t.Errorf("error should mention queue_capacity, got: %v", err)
	}
}

// ── Registry miss behaviour ───────────────────────────────────────────────────

func TestRegistry_UnknownLive(t *testing.T) {
	r := config.NewRegistry()
	_, err := r.CreateLive(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownReading(t *testing.T) {
	r := config.NewRegistry()
	_, err := r.CreateReading(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

// ── Registry hit behaviour ────────────────────────────────────────────────────

func TestRegistry_RegisteredLive(t *testing.T) {
	r := config.NewRegistry()
	r.RegisterLive("stub", func(e config.ProviderEntry) (live.Provider, error) {
		return &stubLive{key: e.APIKey}, nil
	})

	p, err := r.CreateLive(config.ProviderEntry{Name: "stub", APIKey: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.(*stubLive).key != "k" {
		t.Error("factory did not receive the provider entry")
	}
}

func TestRegistry_RegisteredReading(t *testing.T) {
	r := config.NewRegistry()
	r.RegisterReading("stub", func(config.ProviderEntry) (reading.Provider, error) {
		return &stubReading{}, nil
	})

	if _, err := r.CreateReading(config.ProviderEntry{Name: "stub"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	r := config.NewRegistry()
	wantErr := errors.New("missing api key")
	r.RegisterLive("broken", func(config.ProviderEntry) (live.Provider, error) {
		return nil, wantErr
	})

	_, err := r.CreateLive(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error, got: %v", err)
	}
}

// ── stubs ─────────────────────────────────────────────────────────────────────

type stubLive struct{ key string }

func (s *stubLive) Connect(context.Context, live.SessionConfig) (live.SessionHandle, error) {
	return nil, errors.New("stub")
}

type stubReading struct{}

func (s *stubReading) PersonalizedReading(context.Context, reading.BirthInfo) (*reading.LagnaReading, error) {
	return nil, errors.New("stub")
}

func (s *stubReading) DailyHoroscope(context.Context, string) (string, error) {
	return "", errors.New("stub")
}
