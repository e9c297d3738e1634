package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/typedflow/typedflow/internal/tlsutil"
	"github.com/typedflow/typedflow/llm"
	"github.com/typedflow/typedflow/llm/providers"
	"github.com/typedflow/typedflow/types"
)

// Config holds the configuration for an OpenAI-compatible provider.
type Config struct {
	// ProviderName is the unique identifier for this provider.
	ProviderName string

	// APIKey authenticates requests against the provider's API.
	APIKey string

	// BaseURL is the base URL of the API.
	BaseURL string

	// DefaultModel is used when the request does not name a model.
	DefaultModel string

	// Timeout is the HTTP client timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the chat completions path. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// ModelsEndpoint is the models list path used by health checks.
	// Defaults to "/v1/models".
	ModelsEndpoint string

	// QueryParams are appended to every request URL (e.g. api-version for
	// Azure deployments).
	QueryParams map[string]string

	// BuildHeaders optionally sets custom headers per request. If nil, the
	// default "Authorization: Bearer <apiKey>" header is used.
	BuildHeaders func(req *http.Request, apiKey string)

	// SupportsTools indicates whether the provider honors native function
	// calling. Defaults to true if not set.
	SupportsTools *bool
}

// Provider is an llm.Provider over an OpenAI-compatible HTTP API.
type Provider struct {
	Cfg    Config
	Client *http.Client
	Logger *zap.Logger
}

// New creates a new OpenAI-compatible provider with the given config.
func New(cfg Config, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if cfg.ModelsEndpoint == "" {
		cfg.ModelsEndpoint = "/v1/models"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		Cfg:    cfg,
		Client: tlsutil.SecureHTTPClient(timeout),
		Logger: logger,
	}
}

// NewAzure creates a provider configured for an Azure OpenAI deployment:
// api-key header auth, api-version query parameter, and the deployment's
// chat-completions path.
func NewAzure(serviceURL, apiKey, apiVersion, deployment string, logger *zap.Logger) *Provider {
	return New(Config{
		ProviderName: "azure-openai",
		APIKey:       apiKey,
		BaseURL:      serviceURL,
		EndpointPath: fmt.Sprintf("/openai/deployments/%s/chat/completions", deployment),
		QueryParams:  map[string]string{"api-version": apiVersion},
		BuildHeaders: func(req *http.Request, apiKey string) {
			req.Header.Set("api-key", apiKey)
			req.Header.Set("Content-Type", "application/json")
		},
	}, logger)
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.Cfg.ProviderName }

// SupportsNativeFunctionCalling reports whether this provider honors forced
// tool calls.
func (p *Provider) SupportsNativeFunctionCalling() bool {
	if p.Cfg.SupportsTools != nil {
		return *p.Cfg.SupportsTools
	}
	return true
}

// buildHeaders applies headers to the HTTP request.
func (p *Provider) buildHeaders(req *http.Request) {
	if p.Cfg.BuildHeaders != nil {
		p.Cfg.BuildHeaders(req, p.Cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+p.Cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

// endpoint builds the full URL for a given path including configured query
// parameters.
func (p *Provider) endpoint(path string) string {
	base := fmt.Sprintf("%s%s", strings.TrimRight(p.Cfg.BaseURL, "/"), path)
	if len(p.Cfg.QueryParams) == 0 {
		return base
	}
	q := url.Values{}
	for k, v := range p.Cfg.QueryParams {
		q.Set(k, v)
	}
	return base + "?" + q.Encode()
}

// HealthCheck verifies the provider is reachable.
func (p *Provider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint(p.Cfg.ModelsEndpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.Client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthStatus{Healthy: false, Latency: latency}, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		msg := providers.ReadErrorMessage(resp.Body)
		return &llm.HealthStatus{Healthy: false, Latency: latency},
			fmt.Errorf("%s health check failed: status=%d msg=%s", p.Cfg.ProviderName, resp.StatusCode, msg)
	}

	return &llm.HealthStatus{Healthy: true, Latency: latency}, nil
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body := providers.ChatRequest{
		Model:       providers.ChooseModel(req, p.Cfg.DefaultModel),
		Messages:    providers.ConvertMessages(req.Messages),
		Tools:       providers.ConvertTools(req.Tools),
		ToolChoice:  providers.ConvertToolChoice(req.ToolChoice),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.Cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	p.Logger.Debug("chat completion request",
		zap.String("provider", p.Name()),
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Int("tools", len(body.Tools)))

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "chat completion request failed",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}).WithCause(err)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oaResp providers.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "failed to decode chat completion response",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}).WithCause(err)
	}

	result := providers.ToChatResponse(oaResp, p.Name())
	if oaResp.Created != 0 {
		result.CreatedAt = time.Unix(oaResp.Created, 0)
	}
	return result, nil
}
