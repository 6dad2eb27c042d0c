// Package querysql compiles document store operations to parameterized
// SQLite statements over the documents table.
//
// Every statement binds values with ? placeholders; keys, paths, terms and
// documents are never interpolated into SQL text. Every statement that
// returns more than one row orders by key (COLLATE BINARY) so results are
// deterministic.
//
// Path-filtered selects are exact for scalar targets. For array and object
// targets the SQL narrows candidates by JSON type only; callers compare the
// decoded subtree with value.Equal, because json_set may leave object members
// in insertion order rather than canonical order.
package querysql
