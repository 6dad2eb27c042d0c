// Package store provides the SQLite-backed nested document store.
//
// Each record associates a unique string key with one JSON document:
//
//	documents(id, key UNIQUE NOT NULL, data CHECK json_valid, created_at)
//
// The surrogate id is internal to SQLite and never returned.
//
// # Operations
//
//   - Put / PutAny / Add: atomic upsert of a whole document
//   - Get: the document for a key
//   - UpdatePath: json_set of one subtree in a single statement
//   - ExtractPath: the value at a path, distinguishing JSON null from absent
//   - QueryPath: documents whose value at a path equals a given value
//   - SearchText: documents whose JSON text contains a substring
//   - ArrayLength: length of the array at a path
//   - Keys / Count / Stat: listing and metadata
//
// # Concurrency
//
// A Store pins its *sql.DB to a single connection, so statements issued from
// many goroutines through one Store run one at a time. Separate Stores (or
// processes) on the same file rely on SQLite locking, bounded by the busy
// timeout. Every mutation is one statement; there is no read-modify-write
// window in Go.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout: configurable, 5 seconds by default
//   - foreign_keys=ON
package store
