// Package typedflow turns free-form LLM completions into values of a
// caller-declared shape. A prompt template and a target shape go in; the
// shape is synthesized into a JSON Schema, attached to the request as a
// forced tool call, and the model's tool arguments are decoded and
// validated against the shape on the way back.
//
// The package root exposes the Generator entry point. Shape construction,
// schema synthesis and response decoding live in the structured package;
// provider adapters live under llm.
package typedflow
