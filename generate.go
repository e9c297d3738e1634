package typedflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/typedflow/typedflow/llm"
	"github.com/typedflow/typedflow/structured"
	"github.com/typedflow/typedflow/types"
)

// Options carries generation parameters shared by all calls on a Generator.
type Options struct {
	// Model overrides the provider's default model.
	Model string

	// Temperature is passed through to the provider.
	Temperature float32

	// MaxTokens caps the completion length. Zero leaves it to the provider.
	MaxTokens int

	// ToolName overrides the forced tool's name.
	ToolName string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Generator produces typed values from prompt templates via one provider.
// It is stateless between calls and safe for concurrent use.
type Generator struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger
}

// NewGenerator creates a Generator. The provider must support native
// function calling; there is no free-text fallback.
func NewGenerator(provider llm.Provider, opts Options) (*Generator, error) {
	if provider == nil {
		return nil, types.NewError(types.ErrInvalidRequest, "provider is required")
	}
	if !provider.SupportsNativeFunctionCalling() {
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("provider %s does not support forced tool calls", provider.Name()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{provider: provider, opts: opts, logger: logger}, nil
}

// Generate assembles the template into a completion request constrained to
// the target shape and returns the decoded value. The result uses the
// canonical decoded forms: string, bool, int64, float64, map[string]any,
// []any and nil.
//
// Errors carry a types.Error code: UNSUPPORTED_SHAPE when the target cannot
// be expressed as a schema, NO_RELEVANT_RESPONSE when the model produced no
// usable tool call, INVALID_GENERATION when the arguments do not conform to
// the target shape, and transport codes from the provider.
func (g *Generator) Generate(ctx context.Context, tmpl structured.Template, target types.Shape) (any, error) {
	schema, err := structured.Synthesize(target)
	if err != nil {
		return nil, err
	}

	parts, err := structured.BuildContent(tmpl)
	if err != nil {
		return nil, err
	}

	toolName := g.opts.ToolName
	if toolName == "" {
		toolName = structured.DefaultToolName
	}
	req, err := structured.BuildRequest(parts, schema, structured.RequestOptions{
		Model:       g.opts.Model,
		ToolName:    toolName,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	req.TraceID = uuid.NewString()

	resp, err := g.provider.Completion(ctx, req)
	if err != nil {
		return nil, err
	}

	call, err := pickToolCall(resp, toolName)
	if err != nil {
		return nil, err
	}

	value, err := structured.Decode(call.Arguments, schema, target)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("generated typed value",
		zap.String("trace_id", req.TraceID),
		zap.String("provider", g.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return value, nil
}

// pickToolCall finds the forced tool's invocation in the response. Anything
// else, including a plain text reply, means the model did not produce a
// relevant response.
func pickToolCall(resp *llm.ChatResponse, toolName string) (*types.ToolCall, error) {
	for _, choice := range resp.Choices {
		for i := range choice.Message.ToolCalls {
			call := &choice.Message.ToolCalls[i]
			if call.Name == toolName {
				return call, nil
			}
		}
	}
	return nil, types.NewError(types.ErrNoRelevantResponse,
		"unable to obtain a valid response from the model for the given prompt")
}

// GenerateAs derives the target shape from T, generates, and binds the
// decoded value into a T via a JSON round trip.
func GenerateAs[T any](ctx context.Context, g *Generator, tmpl structured.Template) (T, error) {
	var zero T

	shape, err := structured.ShapeFor[T]()
	if err != nil {
		return zero, err
	}

	value, err := g.Generate(ctx, tmpl, shape)
	if err != nil {
		return zero, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return zero, types.NewError(types.ErrInvalidGeneration, "failed to re-encode decoded value").WithCause(err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, types.NewError(types.ErrInvalidGeneration, "decoded value does not bind to the target type").WithCause(err)
	}
	return out, nil
}
