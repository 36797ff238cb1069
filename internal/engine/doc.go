// Package engine runs track queries end to end.
//
// An Engine owns a store and a snapshot of the store's field catalog.
// Each query goes through the same pipeline:
//
//	raw string
//	  -> query.QueryParser.Parse  (syntax, *query.SyntaxError)
//	  -> compiler.Compile         (field kinds, *compiler.SemanticError)
//	  -> queryir.Validate         (determinism warnings)
//	  -> querysql.SQLCompiler     (parameterized SELECT)
//	  -> store.Search             (rows)
//
// Everything up to the SQL text is pure. Plan stops there, Search runs
// the statement.
//
// # Catalog snapshots
//
// The catalog is rebuilt from the store's columns by Refresh and swapped
// in atomically. A query sees exactly one snapshot from parse to SQL, so
// Refresh may run concurrently with searches.
//
// # Query tokens
//
// Every search is stamped with a token from the engine's TokenGenerator
// (UUIDv7 by default) and every log line for that search carries it as
// "token".
package engine
