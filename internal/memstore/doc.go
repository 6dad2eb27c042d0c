// Package memstore is an in-memory document store with the same operations
// and error values as package store.
//
// Documents are held as canonical JSON text under a sync.RWMutex, so reads
// hand out fresh values and callers can never alias stored state. Path
// reads and writes are evaluated by package jsonpath with the same
// auto-vivification rules SQLite's json_set applies, and text search runs
// over the canonical text.
//
// Scenario runs use it when invoked with "nestdoc test --memory". Nothing it
// holds survives Close.
package memstore
