// Package openaicompat implements llm.Provider over any OpenAI-compatible
// chat-completions API. Endpoint paths, auth headers and query parameters
// are configurable, which also covers Azure OpenAI deployments (api-key
// header plus api-version query parameter).
package openaicompat
