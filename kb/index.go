package kb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/typedflow/typedflow/internal/tlsutil"
	"github.com/typedflow/typedflow/llm/embedding"
	"github.com/typedflow/typedflow/llm/providers"
	"github.com/typedflow/typedflow/types"
)

// Document is a source document submitted for ingestion.
type Document struct {
	// ID identifies the document; generated when empty.
	ID string `json:"id"`

	// Title is an optional human-readable title.
	Title string `json:"title,omitempty"`

	// Content is the document body.
	Content string `json:"content"`

	// Metadata is indexed alongside the content and usable in filters.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchHit is one result of an index query.
type SearchHit struct {
	ID       string  `json:"id"`
	SourceID string  `json:"source_id"`
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	Score    float64 `json:"score"`
}

// IndexConfig configures the search index client.
type IndexConfig struct {
	// Endpoint is the search service URL, e.g. "https://svc.search.windows.net".
	Endpoint string `yaml:"endpoint"`

	// APIKey authenticates index requests via the api-key header.
	APIKey string `yaml:"api_key"`

	// IndexName is the target index.
	IndexName string `yaml:"index_name"`

	// APIVersion is sent as the api-version query parameter.
	// Defaults to "2024-07-01".
	APIVersion string `yaml:"api_version"`

	// BatchSize caps documents per upload request. Defaults to 100.
	BatchSize int `yaml:"batch_size"`

	// UploadsPerSecond rate-limits upload requests. Zero disables limiting.
	UploadsPerSecond float64 `yaml:"uploads_per_second"`

	// EmbedConcurrency bounds concurrent embedding calls during ingestion.
	// Defaults to 4.
	EmbedConcurrency int `yaml:"embed_concurrency"`

	// Timeout is the HTTP client timeout. Defaults to 60s.
	Timeout time.Duration `yaml:"timeout"`
}

// indexAction is one entry of an index batch in the REST wire format.
type indexAction struct {
	Action   string    `json:"@search.action"`
	ID       string    `json:"id"`
	SourceID string    `json:"source_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Metadata string    `json:"metadata,omitempty"`
	Vector   []float64 `json:"content_vector,omitempty"`
}

// IndexClient ingests chunked documents into a vector search index and
// queries it. Pending upload actions accumulate in an internal batch;
// the batch is guarded by a mutex so concurrent Ingest calls are safe.
type IndexClient struct {
	cfg      IndexConfig
	embedder *embedding.Client
	chunker  *Chunker
	client   *http.Client
	limiter  *rate.Limiter
	logger   *zap.Logger

	mu      sync.Mutex
	pending []indexAction
}

// NewIndexClient creates an index client. The embedder supplies content
// vectors; the chunker splits documents before embedding.
func NewIndexClient(cfg IndexConfig, embedder *embedding.Client, chunker *Chunker, logger *zap.Logger) *IndexClient {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-07-01"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = 4
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.UploadsPerSecond), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexClient{
		cfg:      cfg,
		embedder: embedder,
		chunker:  chunker,
		client:   tlsutil.SecureHTTPClient(timeout),
		limiter:  limiter,
		logger:   logger,
	}
}

// Ingest chunks, embeds and queues the documents, then flushes all pending
// actions. It returns the number of chunks indexed. Documents are embedded
// concurrently; queueing preserves per-document chunk order.
func (c *IndexClient) Ingest(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.EmbedConcurrency)

	queued := make([][]indexAction, len(docs))
	for i := range docs {
		i := i
		g.Go(func() error {
			actions, err := c.buildActions(gctx, docs[i])
			if err != nil {
				return err
			}
			queued[i] = actions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	c.mu.Lock()
	for _, actions := range queued {
		c.pending = append(c.pending, actions...)
		total += len(actions)
	}
	c.mu.Unlock()

	if err := c.Flush(ctx); err != nil {
		return 0, err
	}
	c.logger.Info("ingested documents",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", total),
		zap.String("index", c.cfg.IndexName))
	return total, nil
}

// buildActions chunks and embeds one document into upload actions.
func (c *IndexClient) buildActions(ctx context.Context, doc Document) ([]indexAction, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	chunks := c.chunker.Split(doc.Content)
	if len(chunks) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(chunks))
	for i, ch := range chunks {
		inputs[i] = ch.Content
	}
	vectors, err := c.embedder.Embed(ctx, inputs)
	if err != nil {
		return nil, err
	}

	var metadata string
	if len(doc.Metadata) > 0 {
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidRequest, "failed to marshal document metadata").WithCause(err)
		}
		metadata = string(raw)
	}

	actions := make([]indexAction, len(chunks))
	for i, ch := range chunks {
		actions[i] = indexAction{
			Action:   "mergeOrUpload",
			ID:       fmt.Sprintf("%s-%d", doc.ID, ch.Index),
			SourceID: doc.ID,
			Title:    doc.Title,
			Content:  ch.Content,
			Metadata: metadata,
			Vector:   vectors[i],
		}
	}
	return actions, nil
}

// Flush uploads all pending actions in batches of BatchSize. Each batch is
// dequeued under the lock before upload, so concurrent Flush calls each own
// disjoint batches. On upload failure the owned batch returns to the head of
// the queue for the next Flush.
func (c *IndexClient) Flush(ctx context.Context) error {
	for {
		batch := c.takeBatch()
		if len(batch) == 0 {
			return nil
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				c.requeue(batch)
				return types.NewError(types.ErrUpstreamTimeout, "rate limit wait canceled").WithCause(err)
			}
		}
		if err := c.uploadBatch(ctx, batch); err != nil {
			c.requeue(batch)
			return err
		}
	}
}

// takeBatch removes and returns up to BatchSize actions from the queue.
func (c *IndexClient) takeBatch() []indexAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.cfg.BatchSize
	if n > len(c.pending) {
		n = len(c.pending)
	}
	if n == 0 {
		return nil
	}
	batch := make([]indexAction, n)
	copy(batch, c.pending[:n])
	c.pending = c.pending[n:]
	return batch
}

// requeue puts a failed batch back at the head of the queue.
func (c *IndexClient) requeue(batch []indexAction) {
	c.mu.Lock()
	c.pending = append(batch, c.pending...)
	c.mu.Unlock()
}

// Pending reports the number of queued, not yet uploaded actions.
func (c *IndexClient) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

type indexBatchRequest struct {
	Value []indexAction `json:"value"`
}

type indexBatchResult struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

func (c *IndexClient) uploadBatch(ctx context.Context, batch []indexAction) error {
	payload, err := json.Marshal(indexBatchRequest{Value: batch})
	if err != nil {
		return types.NewError(types.ErrInvalidRequest, "failed to marshal index batch").WithCause(err)
	}

	resp, err := c.post(ctx, "/docs/index", payload)
	if err != nil {
		return err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return providers.MapHTTPError(resp.StatusCode, msg, "search-index")
	}

	var result indexBatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return (&types.Error{
			Code: types.ErrUpstreamError, Message: "failed to decode index batch response",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: "search-index",
		}).WithCause(err)
	}
	for _, item := range result.Value {
		if !item.Status {
			return &types.Error{
				Code:       types.ErrUpstreamError,
				Message:    fmt.Sprintf("index rejected document %s: %s", item.Key, item.ErrorMessage),
				HTTPStatus: item.StatusCode,
				Retryable:  item.StatusCode == http.StatusServiceUnavailable,
				Provider:   "search-index",
			}
		}
	}

	c.logger.Debug("uploaded index batch",
		zap.Int("actions", len(batch)),
		zap.String("index", c.cfg.IndexName))
	return nil
}

// QueryOptions controls a vector search.
type QueryOptions struct {
	// TopK is the number of hits to return. Defaults to 5.
	TopK int

	// Filter restricts candidates with an OData expression.
	Filter FilterExpr
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float64 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type searchRequest struct {
	VectorQueries []vectorQuery `json:"vectorQueries"`
	Filter        string        `json:"filter,omitempty"`
	Select        string        `json:"select"`
	Top           int           `json:"top"`
}

type searchResponse struct {
	Value []struct {
		Score    float64 `json:"@search.score"`
		ID       string  `json:"id"`
		SourceID string  `json:"source_id"`
		Title    string  `json:"title"`
		Content  string  `json:"content"`
	} `json:"value"`
}

// Query embeds the text and runs a filtered vector search, returning hits
// in descending score order.
func (c *IndexClient) Query(ctx context.Context, text string, opts QueryOptions) ([]SearchHit, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}

	vectors, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(searchRequest{
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: vectors[0],
			Fields: "content_vector",
			K:      opts.TopK,
		}},
		Filter: opts.Filter.String(),
		Select: "id,source_id,title,content",
		Top:    opts.TopK,
	})
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to marshal search request").WithCause(err)
	}

	resp, err := c.post(ctx, "/docs/search", payload)
	if err != nil {
		return nil, err
	}
	defer providers.SafeCloseBody(resp.Body)

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, "search-index")
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "failed to decode search response",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: "search-index",
		}).WithCause(err)
	}

	hits := make([]SearchHit, len(body.Value))
	for i, v := range body.Value {
		hits[i] = SearchHit{
			ID:       v.ID,
			SourceID: v.SourceID,
			Title:    v.Title,
			Content:  v.Content,
			Score:    v.Score,
		}
	}
	return hits, nil
}

func (c *IndexClient) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	q := url.Values{}
	q.Set("api-version", c.cfg.APIVersion)
	endpoint := fmt.Sprintf("%s/indexes/%s%s?%s",
		strings.TrimRight(c.cfg.Endpoint, "/"),
		url.PathEscape(c.cfg.IndexName),
		path,
		q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewError(types.ErrInvalidRequest, "failed to create index request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, (&types.Error{
			Code: types.ErrUpstreamError, Message: "index request failed",
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: "search-index",
		}).WithCause(err)
	}
	return resp, nil
}
