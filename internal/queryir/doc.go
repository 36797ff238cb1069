// Package queryir is the backend-agnostic form of a compiled track query.
//
// A Program is what the query compiler produces and what storage
// lowerings consume:
//
//	[query text] -> [query.Query] -> [queryir.Program] -> [SQL]
//
// Predicate, Operand and Order are sealed interfaces using the marker
// method pattern, so lowerings can switch over them exhaustively:
//
//	switch p := pred.(type) {
//	case queryir.Contains:
//	case queryir.Between:
//	...
//	}
//
// All literal operands are ir.IRValue, so no floats. Time-relative bounds
// stay symbolic (NowOffset) until the backend evaluates them; Validate
// flags them along with random ordering as non-deterministic.
package queryir
