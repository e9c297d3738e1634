// Package llm defines the unified provider contract and chat wire types the
// typed structured-output engine sends its forced tool calls through.
//
// The engine itself is transport-agnostic: it produces a ChatRequest and
// consumes the first choice's tool-call arguments from a ChatResponse.
// Concrete HTTP adapters live under llm/providers.
package llm
