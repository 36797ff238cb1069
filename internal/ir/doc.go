// Package ir provides the canonical value types carried by predicate
// programs, their RFC 8785 canonical encoding and domain-separated
// hashing.
//
// ir imports nothing internal. Numbers are always int64; floats are
// rejected at every boundary so encodings stay deterministic.
package ir
