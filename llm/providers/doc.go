// Package providers contains shared wire types and helpers for
// OpenAI-compatible chat-completion APIs: request/response envelopes,
// message and tool conversion, and HTTP status to error-code mapping.
package providers
