// Package types defines the task and knowledge document entities shared by
// the store, the vault synchronizer and the MCP tool layer.
package types
