// Package kb implements the knowledge-base plumbing around a remote vector
// search index: token-window document chunking, embedding orchestration,
// batched index uploads and OData filter construction.
//
// Unlike the structured-output engine, the index client holds mutable
// per-call aggregation state (the pending upload batch); access to it is
// serialized internally.
package kb
