// Package jsonpath parses and evaluates JSON path expressions over value.Value.
//
// The grammar is the one SQLite's JSON functions accept, so a path that
// parses here is accepted by the storage engine and evaluates identically:
//
//	$              the whole document
//	.name          object member (ends at the next '.' or '[')
//	."any.name"    quoted object member (no escapes)
//	[N]            array element N, counting from 0
//	[#-N]          array element N from the end
//	[#]            one past the last element (only meaningful for Set)
//
// Get resolves a path to a value or reports it absent. Set follows json_set:
// missing object members are created, an index equal to the array length
// appends, and a missing container is created as an object when the next
// step is a member or as an array when the next step is [0] or [#]. Any
// other unreachable target leaves the document unchanged.
package jsonpath
