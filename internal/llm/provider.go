package llm

import (
	"context"
	"fmt"
)

// Usage reports token consumption for one generation call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ModelResponse is the uniform result of Provider.Generate.
type ModelResponse struct {
	Content      string         `json:"content"`
	Usage        Usage          `json:"usage"`
	ModelName    string         `json:"model_name"` // canonical name that served the call
	FriendlyName string         `json:"friendly_name"`
	Provider     ProviderKind   `json:"provider"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ImageInput is an image attached to a generation request.
type ImageInput struct {
	MimeType string
	Data     []byte
}

// GenerateRequest carries one generation call through a provider.
// Model may be an alias; the provider resolves it before the wire call.
type GenerateRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string

	// Temperature is the validated, clamped value. Providers omit it from
	// the wire entirely when the model's SupportsTemperature is false.
	Temperature float64

	// MaxOutputTokens caps the reply; 0 means the model default.
	MaxOutputTokens int

	// ThinkingMode is a fraction of the model's thinking-token ceiling in
	// [0,1]. 0 disables extended thinking. Ignored by models without it.
	ThinkingMode float64

	// Seed and Stop pass through even for models that reject temperature.
	Seed *int
	Stop []string

	Images []ImageInput
}

// Provider is the uniform interface over all LLM back-ends.
// Implementations must be safe for concurrent use; each owns its HTTP
// transport and connection pool.
type Provider interface {
	// Kind identifies the back-end family.
	Kind() ProviderKind

	// Capabilities returns the capability record for a model name or
	// alias. ErrModelNotSupported when unknown, ErrModelRestricted when
	// the restriction policy denies it.
	Capabilities(nameOrAlias string) (*ModelCapabilities, error)

	// ListModels returns canonical names, filtered through the
	// restriction policy when respectRestrictions is true. Aliases are
	// not included.
	ListModels(respectRestrictions bool) []string

	// ListAllKnownModels returns canonical names plus every alias,
	// lowercased. Used by restriction validation only.
	ListAllKnownModels() []string

	// Validate reports whether this provider recognizes the name.
	Validate(nameOrAlias string) bool

	// ResolveModelName maps an alias to its canonical name,
	// case-insensitively. Unknown input is returned unchanged. Pure: no
	// I/O, no client construction.
	ResolveModelName(nameOrAlias string) string

	// SupportsThinking reports whether the model accepts an extended
	// thinking budget.
	SupportsThinking(nameOrAlias string) bool

	// EffectiveTemperature validates and clamps a requested temperature.
	// Returns (0, false) iff the model does not support temperature at
	// all, in which case nothing temperature-related goes on the wire.
	EffectiveTemperature(nameOrAlias string, requested float64) (float64, bool)

	// Generate performs one completion call, with provider-internal
	// retries for transient failures.
	Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error)

	// CountTokens estimates prompt tokens for the given model.
	CountTokens(text string, nameOrAlias string) int

	// Close releases pooled transports.
	Close() error
}

// ErrModelNotSupported is returned when a provider does not recognize a
// model name.
type ErrModelNotSupported struct {
	Provider ProviderKind
	Model    string
}

func (e ErrModelNotSupported) Error() string {
	return fmt.Sprintf("%s does not support model %q", e.Provider, e.Model)
}

// ErrModelRestricted is returned when the restriction policy denies a
// model the provider would otherwise serve.
type ErrModelRestricted struct {
	Provider ProviderKind
	Model    string
}

func (e ErrModelRestricted) Error() string {
	return fmt.Sprintf("model %q is not allowed by the %s restriction policy", e.Model, e.Provider)
}
