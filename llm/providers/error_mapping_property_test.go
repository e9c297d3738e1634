package providers

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Every HTTP error status maps to a non-empty code, preserves the status and
// provider, and is retryable only for 429, 529 and 5xx statuses.
func TestProperty_ErrorMappingInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("status and provider are preserved and the code is set", prop.ForAll(
		func(status int, msg string, provider string) bool {
			err := MapHTTPError(status, msg, provider)
			if err.Code == "" {
				t.Logf("empty code for status %d", status)
				return false
			}
			if err.HTTPStatus != status {
				t.Logf("status not preserved: got %d want %d", err.HTTPStatus, status)
				return false
			}
			if err.Provider != provider {
				t.Logf("provider not preserved: got %q want %q", err.Provider, provider)
				return false
			}
			return true
		},
		gen.IntRange(400, 599),
		gen.AlphaString(),
		gen.Identifier(),
	))

	properties.Property("retryable iff 429, 529 or 5xx", prop.ForAll(
		func(status int) bool {
			err := MapHTTPError(status, "boom", "p")
			wantRetry := status == 429 || status == 529 || status >= 500
			if err.Retryable != wantRetry {
				t.Logf("retryable mismatch for status %d: got %v want %v", status, err.Retryable, wantRetry)
				return false
			}
			return true
		},
		gen.IntRange(400, 599),
	))

	properties.Property("4xx without quota keywords never maps to quota exceeded", prop.ForAll(
		func(status int) bool {
			err := MapHTTPError(status, "plain failure", "p")
			return err.Code != "QUOTA_EXCEEDED"
		},
		gen.IntRange(400, 499),
	))

	properties.TestingRun(t)
}
