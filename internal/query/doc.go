// Package query parses the track query language.
//
// A query is a space-separated sequence of clauses:
//
//	artist:radiohead       field predicate (substring)
//	year:1995..2003        field predicate (range: number, duration or date)
//	^genre:pop             negated field predicate
//	year- title+           orderings, descending / ascending
//	@random                random ordering
//	@25                    limit
//	mellow                 bare term, matched against the default text fields
//
// Ranges accept "N..", "..M" and "N..M". Bounds are numbers, durations
// ("3:00", "1:02:03") or dates ("2020", "2020-06", "2020-06-15", or a
// relative offset such as "-7d"; units m h d w y).
//
// # Parsing model
//
// The grammar is built from small combinators over an immutable cursor.
// Every parser returns a tagged Result whose Status is Success,
// Recoverable or Fatal. Alt tries its branches in priority order and only
// moves on after a Recoverable failure; Soft turns any failure into a
// Recoverable one. This is how a token such as "year-" can be tried as an
// ordering, a limit, a field predicate and finally a bare term without
// unbounded backtracking.
//
// Clause-local state (the "^" negation marker, whether a range has a
// lower bound) is a value carried by the cursor, so it never leaks across
// clauses or alternatives.
//
// Field names that are not in the FieldSet are never rejected: the token
// falls through to a bare term. Anything no branch accepts produces a
// *SyntaxError and the whole query is rejected.
package query
