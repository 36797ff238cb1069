package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Flag is a single bit of clause-local parse state.
type Flag uint8

const (
	// FlagNegated is set once the "^" marker of a field clause has been consumed.
	FlagNegated Flag = 1 << iota

	// FlagBounded is set once the lower bound of a range has been parsed,
	// which makes the upper bound optional.
	FlagBounded
)

// State is the parse-local state threaded through combinators.
//
// State is a value type. Every combinator receives its own copy through
// Input and hands a (possibly changed) copy back through Result.Rest, so
// alternative branches can never observe each other's mutations.
type State struct {
	flags Flag
}

// Has reports whether f is set.
func (s State) Has(f Flag) bool {
	return s.flags&f != 0
}

// With returns a copy of s with f set.
func (s State) With(f Flag) State {
	s.flags |= f
	return s
}

// Input is an immutable cursor into the query text.
type Input struct {
	src   string
	pos   int
	state State
}

// NewInput returns a cursor at the start of src with empty state.
func NewInput(src string) Input {
	return Input{src: src}
}

// Pos returns the byte offset of the cursor.
func (in Input) Pos() int { return in.pos }

// State returns the parse state carried by the cursor.
func (in Input) State() State { return in.state }

// Rest returns the unconsumed text.
func (in Input) Rest() string { return in.src[in.pos:] }

// AtEnd reports whether all input has been consumed.
func (in Input) AtEnd() bool { return in.pos >= len(in.src) }

func (in Input) advance(n int) Input {
	in.pos += n
	return in
}

func (in Input) withState(s State) Input {
	in.state = s
	return in
}

// Status tags the outcome of a parser.
type Status uint8

const (
	// Success means the parser produced a value.
	Success Status = iota

	// Recoverable means the parser did not match and an enclosing
	// alternation may try its next branch.
	Recoverable

	// Fatal means the input is malformed at this point; alternation stops
	// and the whole query is rejected.
	Fatal
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Recoverable:
		return "recoverable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Failure describes where and why a parser did not match.
type Failure struct {
	Pos      int
	Expected string
}

// Result is the tagged outcome of running a Parser.
//
// On Success, Value holds the parsed value and Rest the cursor after it.
// On failure, Rest is the cursor the parser was called with and Failure
// records the position of the mismatch.
type Result[T any] struct {
	Value   T
	Rest    Input
	Status  Status
	Failure Failure
}

// OK reports whether the parser succeeded.
func (r Result[T]) OK() bool { return r.Status == Success }

// Parser consumes a prefix of its input.
type Parser[T any] func(Input) Result[T]

// Maybe is the value of an optional parse.
type Maybe[T any] struct {
	Value T
	Ok    bool
}

func success[T any](v T, rest Input) Result[T] {
	return Result[T]{Value: v, Rest: rest, Status: Success}
}

func failAt[T any](at Input, status Status, expected string) Result[T] {
	return Result[T]{Rest: at, Status: status, Failure: Failure{Pos: at.pos, Expected: expected}}
}

func recoverable[T any](at Input, expected string) Result[T] {
	return failAt[T](at, Recoverable, expected)
}

// propagate re-types a failed result for the caller that started at start.
// A recoverable failure positioned after start means the caller already
// consumed input, so it is committed and becomes fatal.
func propagate[T, U any](start Input, r Result[U]) Result[T] {
	status := r.Status
	if status == Recoverable && r.Failure.Pos > start.pos {
		status = Fatal
	}
	return Result[T]{Rest: start, Status: status, Failure: r.Failure}
}

// Literal matches s exactly. It never consumes input on mismatch.
func Literal(s string) Parser[string] {
	return func(in Input) Result[string] {
		if strings.HasPrefix(in.Rest(), s) {
			return success(s, in.advance(len(s)))
		}
		return recoverable[string](in, "'"+s+"'")
	}
}

// OneOf matches a single byte from chars.
func OneOf(chars string) Parser[byte] {
	return func(in Input) Result[byte] {
		if !in.AtEnd() && strings.IndexByte(chars, in.src[in.pos]) >= 0 {
			return success(in.src[in.pos], in.advance(1))
		}
		return recoverable[byte](in, "one of '"+chars+"'")
	}
}

// TakeWhile1 matches the longest non-empty run of runes satisfying pred.
func TakeWhile1(pred func(rune) bool, expected string) Parser[string] {
	return func(in Input) Result[string] {
		rest := in.Rest()
		n := 0
		for n < len(rest) {
			r, size := utf8.DecodeRuneInString(rest[n:])
			if !pred(r) {
				break
			}
			n += size
		}
		if n == 0 {
			return recoverable[string](in, expected)
		}
		return success(rest[:n], in.advance(n))
	}
}

// EndOfToken succeeds without consuming input at end of input or before
// whitespace.
func EndOfToken(in Input) Result[struct{}] {
	if in.AtEnd() {
		return success(struct{}{}, in)
	}
	r, _ := utf8.DecodeRuneInString(in.Rest())
	if unicode.IsSpace(r) {
		return success(struct{}{}, in)
	}
	return recoverable[struct{}](in, "end of token")
}

// EndOfInput succeeds only when all input has been consumed.
func EndOfInput(in Input) Result[struct{}] {
	if in.AtEnd() {
		return success(struct{}{}, in)
	}
	return recoverable[struct{}](in, "end of input")
}

// Map transforms the value of a successful parse.
func Map[T, U any](p Parser[T], f func(T) U) Parser[U] {
	return func(in Input) Result[U] {
		r := p(in)
		if !r.OK() {
			return propagate[U](in, r)
		}
		return success(f(r.Value), r.Rest)
	}
}

// Left runs p then q and keeps the value of p. Failure of q after p
// consumed input is fatal.
func Left[T, U any](p Parser[T], q Parser[U]) Parser[T] {
	return func(in Input) Result[T] {
		r := p(in)
		if !r.OK() {
			return propagate[T](in, r)
		}
		r2 := q(r.Rest)
		if !r2.OK() {
			return propagate[T](in, r2)
		}
		return success(r.Value, r2.Rest)
	}
}

// Right runs p then q and keeps the value of q.
func Right[T, U any](p Parser[T], q Parser[U]) Parser[U] {
	return func(in Input) Result[U] {
		r := p(in)
		if !r.OK() {
			return propagate[U](in, r)
		}
		r2 := q(r.Rest)
		if !r2.OK() {
			return propagate[U](in, r2)
		}
		return r2
	}
}

// Filter rejects a successful parse whose value does not satisfy pred.
// The rejection is recoverable and positioned at the start of p, so
// enclosing alternations can still try other branches.
func Filter[T any](p Parser[T], pred func(T) bool, expected string) Parser[T] {
	return func(in Input) Result[T] {
		r := p(in)
		if !r.OK() {
			return r
		}
		if !pred(r.Value) {
			return recoverable[T](in, expected)
		}
		return r
	}
}

// Optional succeeds with Ok=false when p fails recoverably.
func Optional[T any](p Parser[T]) Parser[Maybe[T]] {
	return func(in Input) Result[Maybe[T]] {
		r := p(in)
		switch r.Status {
		case Success:
			return success(Maybe[T]{Value: r.Value, Ok: true}, r.Rest)
		case Recoverable:
			if r.Failure.Pos > in.pos {
				return propagate[Maybe[T]](in, r)
			}
			return success(Maybe[T]{}, in)
		default:
			return propagate[Maybe[T]](in, r)
		}
	}
}

// Soft converts any failure of p into a recoverable failure at the
// current position, so the enclosing alternation can try its next branch
// as if p had consumed nothing.
func Soft[T any](p Parser[T]) Parser[T] {
	return func(in Input) Result[T] {
		r := p(in)
		if r.OK() {
			return r
		}
		return recoverable[T](in, r.Failure.Expected)
	}
}

// Alt tries each parser in priority order. It moves on to the next branch
// only when the current one fails recoverably; a fatal failure stops the
// alternation.
func Alt[T any](ps ...Parser[T]) Parser[T] {
	return func(in Input) Result[T] {
		var expected []string
		for _, p := range ps {
			r := p(in)
			switch r.Status {
			case Success, Fatal:
				return r
			}
			if r.Failure.Expected != "" && !containsString(expected, r.Failure.Expected) {
				expected = append(expected, r.Failure.Expected)
			}
		}
		return recoverable[T](in, strings.Join(expected, " or "))
	}
}

// SepBy parses zero or more p separated by sep. Once a separator has been
// consumed, the following p is mandatory.
func SepBy[T, S any](p Parser[T], sep Parser[S]) Parser[[]T] {
	return func(in Input) Result[[]T] {
		var items []T
		r := p(in)
		switch r.Status {
		case Recoverable:
			return success(items, in)
		case Fatal:
			return propagate[[]T](in, r)
		}
		items = append(items, r.Value)
		cur := r.Rest
		for {
			s := sep(cur)
			if s.Status == Recoverable {
				return success(items, cur)
			}
			if s.Status == Fatal {
				return propagate[[]T](in, s)
			}
			next := p(s.Rest)
			if !next.OK() {
				f := next.Failure
				if f.Pos < s.Rest.pos {
					f.Pos = s.Rest.pos
				}
				return Result[[]T]{Rest: in, Status: Fatal, Failure: f}
			}
			items = append(items, next.Value)
			cur = next.Rest
		}
	}
}

// OptionalPrefix runs p with state changed by mutate when the literal
// prefix is present, and applies mapResult to the value and the state
// p finished with. Without the prefix, p runs against the unchanged state.
//
// The mutated state is scoped to this call: the returned cursor carries
// the caller's original state.
func OptionalPrefix[T any](prefix string, mutate func(State) State, mapResult func(T, State) T, p Parser[T]) Parser[T] {
	return func(in Input) Result[T] {
		if !strings.HasPrefix(in.Rest(), prefix) {
			return p(in)
		}
		inner := in.advance(len(prefix))
		inner = inner.withState(mutate(in.state))
		r := p(inner)
		if !r.OK() {
			return propagate[T](in, r)
		}
		return success(mapResult(r.Value, r.Rest.state), r.Rest.withState(in.state))
	}
}

// PrefixFlag specializes OptionalPrefix to a boolean toggle: when prefix
// matches, flag is set for the duration of p and wrap is applied to its
// value.
func PrefixFlag[T any](prefix string, flag Flag, wrap func(T) T, p Parser[T]) Parser[T] {
	return OptionalPrefix(prefix,
		func(s State) State { return s.With(flag) },
		func(v T, s State) T {
			if s.Has(flag) {
				return wrap(v)
			}
			return v
		},
		p)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
