// Package store persists tasks and knowledge documents in SQLite with
// soft-delete semantics. Trashed rows keep their data and can be restored or
// purged; default reads never see them.
//
// Two drivers are supported via build tags: modernc.org/sqlite (pure Go,
// default) and mattn/go-sqlite3 (cgo, build with -tags cgo_sqlite).
package store
