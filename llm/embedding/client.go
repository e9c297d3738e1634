package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/typedflow/typedflow/internal/tlsutil"
	"github.com/typedflow/typedflow/llm/providers"
	"github.com/typedflow/typedflow/types"
)

// Config holds the embedding client configuration.
type Config struct {
	// ProviderName identifies the endpoint in errors and logs.
	ProviderName string

	// BaseURL is the base URL of the API.
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Model is the embedding model name.
	Model string

	// EndpointPath is the embeddings path. Defaults to "/v1/embeddings".
	EndpointPath string

	// QueryParams are appended to every request URL.
	QueryParams map[string]string

	// BuildHeaders optionally sets custom headers per request; defaults to
	// Bearer token auth.
	BuildHeaders func(req *http.Request, apiKey string)

	// MaxBatch caps inputs per request. Defaults to 100.
	MaxBatch int

	// Timeout is the HTTP client timeout. Defaults to 30s.
	Timeout time.Duration
}

// Client embeds text against an OpenAI-compatible embeddings endpoint.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a new embedding client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/embeddings"
	}
	if cfg.MaxBatch == 0 {
		cfg.MaxBatch = 100
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(timeout),
		logger: logger,
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

// Embed returns one vector per input, preserving order. Inputs beyond the
// configured batch size are split across sequential requests.
func (c *Client) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := make([][]float64, 0, len(inputs))
	for start := 0; start < len(inputs); start += c.cfg.MaxBatch {
		end := start + c.cfg.MaxBatch
		if end > len(inputs) {
			end = len(inputs)
		}
		vectors, err := c.embedBatch(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, inputs []string) ([][]float64, error) {
	payload, err := json.Marshal(embeddingRequest{Input: inputs, Model: c.cfg.Model})
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to marshal embedding request").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create embedding request").WithCause(err)
	}
	c.buildHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "embedding request failed",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: c.cfg.ProviderName,
		}).WithCause(err)
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, c.cfg.ProviderName)
	}

	var body embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "failed to decode embedding response",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: c.cfg.ProviderName,
		}).WithCause(err)
	}
	if len(body.Data) != len(inputs) {
		return nil, &types.Error{
			Code:     types.ErrUpstreamError,
			Message:  "embedding response cardinality does not match input",
			Provider: c.cfg.ProviderName,
		}
	}

	vectors := make([][]float64, len(inputs))
	for _, d := range body.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, &types.Error{
				Code:     types.ErrUpstreamError,
				Message:  "embedding response index out of range",
				Provider: c.cfg.ProviderName,
			}
		}
		vectors[d.Index] = d.Embedding
	}

	c.logger.Debug("embedded batch",
		zap.String("provider", c.cfg.ProviderName),
		zap.Int("inputs", len(inputs)))
	return vectors, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/") + c.cfg.EndpointPath
	if len(c.cfg.QueryParams) == 0 {
		return base
	}
	q := url.Values{}
	for k, v := range c.cfg.QueryParams {
		q.Set(k, v)
	}
	return base + "?" + q.Encode()
}

func (c *Client) buildHeaders(req *http.Request) {
	if c.cfg.BuildHeaders != nil {
		c.cfg.BuildHeaders(req, c.cfg.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}
