// Package embedding provides the pluggable vector similarity capability
// behind hybrid search.
//
// An Adapter owns one Backend (openai, local hashing, or none) plus the
// embedding vector cache. Initialization is explicit and idempotent; any
// missing configuration or backend failure leaves the adapter not-ready,
// which callers treat as "run lexical-only" rather than an error.
package embedding
