// Package embedcache provides the byte-budgeted embedding vector cache used
// by the vector adapter.
//
// Entries are keyed by item id and validated against a content fingerprint
// (TextHash), so any change to the underlying text invalidates the cached
// vector. The in-memory tier evicts least-recently-used vectors once the
// byte budget is exceeded; the optional disk tier mirrors vectors as
// "{id}.bin" (raw little-endian float32) plus a "{id}.json" metadata sidecar
// and is never pruned by memory eviction, so an evicted vector can always be
// reloaded on a later miss.
package embedcache
