// Package config provides the configuration schema, loader, and provider
// registry for the Suryalive voice astrology server.
package config

// LogLevel controls log verbosity for the Suryalive server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Default persona values used when the persona block is absent.
const (
	// DefaultPersonaName is the astrologer's display name.
	DefaultPersonaName = "Surya"

	// DefaultVoice is the prebuilt voice used for live sessions.
	DefaultVoice = "Kore"

	// DefaultInstructions is the system prompt injected into live sessions
	// when persona.instructions is empty.
	DefaultInstructions = "ඔබ පළපුරුදු ශ්‍රී ලාංකික ජ්‍යොතිර්වේදියෙකි. ඔබගේ නම 'සූර්යා'. " +
		"කරුණාකර සිංහල භාෂාවෙන් පමණක් කතා කරන්න. ඉතා ගෞරවනීය සහ සුහදශීලී වන්න. " +
		"(You are an experienced Sri Lankan astrologer named Surya. Speak only in Sinhala. Be respectful and friendly.)"
)

// Config is the root configuration structure for Suryalive.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Persona   PersonaConfig   `yaml:"persona"`
	Audio     AudioConfig     `yaml:"audio"`
}

// ServerConfig holds network and logging settings for the Suryalive server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// concern. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	// Live is the realtime speech-to-speech provider backing voice sessions.
	Live ProviderEntry `yaml:"live"`

	// Reading is the text inference provider backing chart readings and
	// daily horoscopes.
	Reading ProviderEntry `yaml:"reading"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// PersonaConfig describes the astrologer persona presented in live sessions.
type PersonaConfig struct {
	// Name is the astrologer's display name. Defaults to "Surya".
	Name string `yaml:"name"`

	// Instructions is the free-text system prompt injected into live
	// sessions. Defaults to [DefaultInstructions].
	Instructions string `yaml:"instructions"`

	// Voice is the prebuilt voice identifier used for speech synthesis.
	// Defaults to "Kore".
	Voice string `yaml:"voice"`
}

// AudioConfig holds capture and playback tuning for live sessions.
type AudioConfig struct {
	// QueueCapacity bounds the outbound microphone queue. When the queue is
	// full the oldest pending block is dropped. Zero means the built-in
	// default.
	QueueCapacity int `yaml:"queue_capacity"`
}
