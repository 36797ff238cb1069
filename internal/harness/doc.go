// Package harness runs YAML query scenarios end to end.
//
// A scenario names a fixture library, one query and assertions on the
// result:
//
//	name: nineties_by_year
//	description: Nineties tracks sorted by year
//	fixtures: ../fixtures/library.yaml
//	query: "year:1990..1999 year+"
//	assertions:
//	  - type: count
//	    count: 5
//	  - type: order
//	    field: year
//
// Each run gets a fresh in-memory SQLite store, the real engine, a fixed
// query token and UTC dates. Assertion types:
//
//   - count, max_count: number of rows
//   - field_contains: every row's field contains a value, ignoring case
//   - field_between: every row's numeric field lies in [min, max]
//   - order: exact path order, or sorted by a field
//   - error: the query is rejected, optionally with a given code
//
// RunWithGolden additionally compares a canonical JSON snapshot of the
// matched paths against testdata/golden.
package harness
