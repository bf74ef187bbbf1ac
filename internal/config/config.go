// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the agent configuration.
type Config struct {
	Agent      AgentConfig      `toml:"agent"`
	LLM        LLMConfig        `toml:"llm"`        // Reply generator model
	Classifier LLMConfig        `toml:"classifier"` // Fast/cheap model for intent classification
	Memory     MemoryConfig     `toml:"memory"`
	Safety     SafetyConfig     `toml:"safety"`
	Adaptation AdaptationConfig `toml:"adaptation"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Health     HealthConfig     `toml:"health"`
	Storage    StorageConfig    `toml:"storage"`
	Timeouts   TimeoutsConfig   `toml:"timeouts"`
}

// AgentConfig contains agent identification settings.
type AgentConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// LLMConfig contains LLM provider settings.
type LLMConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	MaxTokens int    `toml:"max_tokens"`
	BaseURL   string `toml:"base_url"` // Custom API endpoint (OpenRouter, LiteLLM, Ollama)
}

// MemoryConfig contains bounded memory and archive settings.
type MemoryConfig struct {
	Capacity       int  `toml:"capacity"`        // Bounded store capacity (default 200)
	ArchiveEnabled bool `toml:"archive_enabled"` // true = index exchanges for recall
}

// SafetyConfig contains safety gate settings.
type SafetyConfig struct {
	Level string `toml:"level"` // permissive, standard, strict
}

// AdaptationConfig contains learning settings.
type AdaptationConfig struct {
	Enabled   bool   `toml:"enabled"`
	RulesFile string `toml:"rules_file"` // YAML lexicon and rule set, optional
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"` // OTLP endpoint (e.g., localhost:4317)
	Protocol string `toml:"protocol"` // grpc (default) or http
}

// HealthConfig contains health publishing settings.
type HealthConfig struct {
	PublishEnabled bool   `toml:"publish_enabled"` // true = publish transitions to NATS
	NATSURL        string `toml:"nats_url"`
	Subject        string `toml:"subject"`
}

// StorageConfig contains persistent storage settings.
type StorageConfig struct {
	Path            string `toml:"path"`             // Base directory for sessions and the archive
	Resume          bool   `toml:"resume"`           // true = restore the newest state checkpoint on start
	KeepCheckpoints int    `toml:"keep_checkpoints"` // Snapshots retained (default 5)
}

// TimeoutsConfig contains timeout settings, in seconds.
type TimeoutsConfig struct {
	Invocation int `toml:"invocation"` // Capability invocation timeout (default 30)
	Generation int `toml:"generation"` // LLM reply timeout (default 60)
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Classifier: LLMConfig{
			MaxTokens: 1024,
		},
		Memory: MemoryConfig{
			Capacity:       200,
			ArchiveEnabled: true,
		},
		Safety: SafetyConfig{
			Level: "standard",
		},
		Adaptation: AdaptationConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
		Health: HealthConfig{
			Subject: "axon.health",
		},
		Storage: StorageConfig{
			Path:            "~/.local/axon",
			Resume:          true,
			KeepCheckpoints: 5,
		},
		Timeouts: TimeoutsConfig{
			Invocation: 30,
			Generation: 60,
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from axon.toml in the current directory.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFile(filepath.Join(cwd, "axon.toml"))
}

// ExpandPath resolves a leading ~ against the user's home directory.
func ExpandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// GetAPIKey returns the API key for an LLM config from its environment
// variable, falling back to the provider's default variable.
func (l LLMConfig) GetAPIKey() string {
	envVar := l.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(l.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}
