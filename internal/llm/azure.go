package llm

import (
	"context"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	. "github.com/modelmux/modelmux/internal/logging"
)

// AzureProvider serves models hosted on Azure OpenAI. Every model maps
// to a named deployment; the API routes by deployment, not model name,
// so each deployment gets its own configured client.
type AzureProvider struct {
	baseProvider

	apiKey   string
	endpoint string

	clientsMu sync.Mutex
	clients   map[string]*openai.Client // deployment -> client
}

// NewAzureProvider builds the provider from registry-file entries
// carrying provider "azure" and a deployment name.
func NewAzureProvider(apiKey, endpoint string, registryModels []ModelCapabilities) (*AzureProvider, error) {
	models := make([]ModelCapabilities, 0, len(registryModels))
	for _, m := range registryModels {
		if m.Provider != KindAzure {
			continue
		}
		models = append(models, m)
	}

	base, err := newBaseProvider(KindAzure, models)
	if err != nil {
		return nil, err
	}
	L_debug("azure provider created", "endpoint", endpoint, "deployments", len(models))

	return &AzureProvider{
		baseProvider: base,
		apiKey:       apiKey,
		endpoint:     endpoint,
		clients:      make(map[string]*openai.Client),
	}, nil
}

// clientFor returns the cached client for a deployment, creating it on
// first use. Double-checked under one mutex; construction is cheap but
// callers race on the map.
func (p *AzureProvider) clientFor(deployment string) *openai.Client {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	if client, ok := p.clients[deployment]; ok {
		return client
	}

	cfg := openai.DefaultAzureConfig(p.apiKey, p.endpoint)
	cfg.AzureModelMapperFunc = func(model string) string {
		return deployment
	}
	client := openai.NewClientWithConfig(cfg)
	p.clients[deployment] = client
	L_debug("azure: client created", "deployment", deployment)
	return client
}

// Generate performs one completion call against the model's deployment.
func (p *AzureProvider) Generate(ctx context.Context, req GenerateRequest) (*ModelResponse, error) {
	caps, err := p.Capabilities(req.Model)
	if err != nil {
		return nil, err
	}
	model := caps.Name
	client := p.clientFor(caps.Deployment)

	chatReq := baseChatRequest(model, req, p.EffectiveTemperature)

	return withRetries(ctx, KindAzure, model, func() (*ModelResponse, error) {
		resp, err := client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return nil, upstreamFromOpenAIError(KindAzure, model, err)
		}
		return chatResponseToModelResponse(KindAzure, caps, &resp), nil
	})
}

// Close drops the cached clients.
func (p *AzureProvider) Close() error {
	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()
	p.clients = make(map[string]*openai.Client)
	return nil
}
