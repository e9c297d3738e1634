// Package embedding provides an HTTP client for OpenAI-compatible
// embeddings endpoints, with input batching by the endpoint's maximum
// batch size. It is consumed by the knowledge-base ingestion pipeline.
package embedding
