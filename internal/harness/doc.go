// Package harness runs YAML scenarios against a document store and checks
// the outcome of every operation.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	key_prefix: doc            # keys for add steps: doc-0001, doc-0002, ...
//	seed:
//	  user:1: {name: Alice, address: {city: Springfield}}
//	steps:
//	  - op: update
//	    key: user:1
//	    path: $.address.city
//	    value: Shelbyville
//	  - op: extract
//	    key: user:1
//	    path: $.address.zip
//	    expect: {present: false}
//	  - op: get
//	    key: user:9
//	    expect: {error: not_found}
//	assertions:
//	  - type: document
//	    key: user:1
//	    expect: {name: Alice, address: {city: Shelbyville}}
//	  - type: trace_count
//	    op: update
//	    count: 1
//
// # Operations
//
// put, add, get, update, extract, query, search, len, keys and count map
// one to one onto store operations. extract and len take strict: true to
// use the strict variants.
//
// # Expectations
//
// An expect clause may name an error code (not_found, invalid_document,
// invalid_path, invalid_key, path_not_present, not_array,
// connection_closed), a value compared under JSON equality, presence for
// extract, a count, or the ordered list of matching keys. A step without an
// expect clause must succeed.
//
// # Assertion Types
//
//   - document: the final document under key equals expect
//   - absent: no document remains under key
//   - count: the store holds count documents
//   - trace_contains: an op step (on key, if given) was executed
//   - trace_order: ops were executed in this order
//   - trace_count: op was executed exactly count times
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, a logical clock for event
// sequence numbers and a sequential key generator for add, so the same
// scenario always produces an identical trace for golden file comparison.
// Run with WithBackend(BackendMemory) to execute against memstore instead
// of SQLite.
package harness
