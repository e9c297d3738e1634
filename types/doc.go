// Package types provides core value types used across the typedflow module.
// This package has ZERO dependencies on other typedflow packages to avoid
// circular imports. All other packages should import types from here.
//
// Everything in this package is an immutable value: shapes, schema nodes,
// messages and content parts are constructed once per generate call and never
// mutated afterwards, so they are safe to share across goroutines.
package types
