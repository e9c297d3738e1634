// Package structured implements the typed structured-output engine: it
// synthesizes a JSON Schema from a target shape, builds the forced tool call
// that makes the model's reply machine-parseable, and decodes the reply back
// into the target shape.
//
// The pipeline is pure and stateless: Synthesize and Decode are synchronous
// CPU-only computations over immutable values, so concurrent calls need no
// coordination. Schemas are never cached; each call synthesizes its own.
package structured
