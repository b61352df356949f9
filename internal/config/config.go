// Package config loads the modelmux configuration from the environment.
// The whole surface is read once at startup into a flat struct; nothing
// re-reads the environment afterwards, so tests can construct a Config
// directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConversationTTL is how long an idle conversation thread survives.
const DefaultConversationTTL = 3 * time.Hour

// Config is the full runtime configuration.
type Config struct {
	// Model selection
	DefaultModel string // concrete model name or "auto"

	// Provider credentials. An empty key disables the provider.
	GeminiAPIKey     string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	XAIAPIKey        string
	OpenRouterAPIKey string
	CustomAPIURL     string // presence enables the custom/local provider
	CustomAPIKey     string
	AzureAPIKey      string
	AzureEndpoint    string

	// Per-provider base URL overrides
	GeminiBaseURL     string
	OpenAIBaseURL     string
	AnthropicBaseURL  string
	XAIBaseURL        string
	OpenRouterBaseURL string

	// Allow-lists, raw comma-separated form. Empty = unrestricted.
	GeminiAllowed     string
	OpenAIAllowed     string
	AnthropicAllowed  string
	XAIAllowed        string
	OpenRouterAllowed string
	CustomAllowed     string
	AzureAllowed      string

	// Workspace sandbox
	WorkspaceRoot      string // absolute path all file access is confined to
	WorkspaceTranslate string // "containerPrefix:hostPrefix" rewrite, optional
	UserHomeOverride   string

	// Custom-models registry file (JSON). Optional.
	CustomModelsFile string

	// Conversation store
	ConversationBackend string // "memory" (default) or "sqlite"
	ConversationDB      string // sqlite path when backend is sqlite
	ConversationTTL     time.Duration

	LogLevel string
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DefaultModel: getenvDefault("DEFAULT_MODEL", "auto"),

		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		XAIAPIKey:        os.Getenv("XAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		CustomAPIURL:     os.Getenv("CUSTOM_API_URL"),
		CustomAPIKey:     os.Getenv("CUSTOM_API_KEY"),
		AzureAPIKey:      os.Getenv("AZURE_OPENAI_API_KEY"),
		AzureEndpoint:    os.Getenv("AZURE_OPENAI_ENDPOINT"),

		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		AnthropicBaseURL:  os.Getenv("ANTHROPIC_BASE_URL"),
		XAIBaseURL:        os.Getenv("XAI_BASE_URL"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),

		GeminiAllowed:     os.Getenv("GEMINI_ALLOWED_MODELS"),
		OpenAIAllowed:     os.Getenv("OPENAI_ALLOWED_MODELS"),
		AnthropicAllowed:  os.Getenv("ANTHROPIC_ALLOWED_MODELS"),
		XAIAllowed:        os.Getenv("XAI_ALLOWED_MODELS"),
		OpenRouterAllowed: os.Getenv("OPENROUTER_ALLOWED_MODELS"),
		CustomAllowed:     os.Getenv("CUSTOM_ALLOWED_MODELS"),
		AzureAllowed:      os.Getenv("AZURE_ALLOWED_MODELS"),

		WorkspaceRoot:      os.Getenv("WORKSPACE_ROOT"),
		WorkspaceTranslate: os.Getenv("WORKSPACE_TRANSLATE"),
		UserHomeOverride:   os.Getenv("USER_HOME_OVERRIDE"),

		CustomModelsFile: os.Getenv("CUSTOM_MODELS_FILE"),

		ConversationBackend: getenvDefault("CONVERSATION_BACKEND", "memory"),
		ConversationDB:      os.Getenv("CONVERSATION_DB"),
		ConversationTTL:     DefaultConversationTTL,

		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	if ttl := os.Getenv("CONVERSATION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("CONVERSATION_TTL: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("CONVERSATION_TTL must be positive, got %s", d)
		}
		cfg.ConversationTTL = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks constraints that would otherwise surface as confusing
// failures deep inside a tool call.
func (c *Config) Validate() error {
	if c.WorkspaceRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("WORKSPACE_ROOT not set and home directory unknown: %w", err)
		}
		c.WorkspaceRoot = home
	}
	if !filepath.IsAbs(c.WorkspaceRoot) {
		return fmt.Errorf("WORKSPACE_ROOT must be absolute, got %q", c.WorkspaceRoot)
	}

	if c.WorkspaceTranslate != "" && !strings.Contains(c.WorkspaceTranslate, ":") {
		return fmt.Errorf("WORKSPACE_TRANSLATE must be containerPrefix:hostPrefix, got %q", c.WorkspaceTranslate)
	}

	switch c.ConversationBackend {
	case "memory":
	case "sqlite":
		if c.ConversationDB == "" {
			return fmt.Errorf("CONVERSATION_DB is required when CONVERSATION_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("unknown CONVERSATION_BACKEND %q (want memory or sqlite)", c.ConversationBackend)
	}

	return nil
}

// AutoMode reports whether model selection is delegated to the registry.
func (c *Config) AutoMode() bool {
	return strings.EqualFold(strings.TrimSpace(c.DefaultModel), "auto")
}

// TranslatePrefixes splits WORKSPACE_TRANSLATE into its two halves.
// Returns ("", "") when no translation is configured.
func (c *Config) TranslatePrefixes() (container, host string) {
	if c.WorkspaceTranslate == "" {
		return "", ""
	}
	parts := strings.SplitN(c.WorkspaceTranslate, ":", 2)
	return parts[0], parts[1]
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
