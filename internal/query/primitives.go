package query

import (
	"strconv"
	"unicode"
)

// FieldSet reports which field names the backing relation exposes.
type FieldSet interface {
	Has(name string) bool
}

// Int parses one or more decimal digits. It does not accept a sign.
func Int(in Input) Result[int64] {
	r := TakeWhile1(isDigit, "digit")(in)
	if !r.OK() {
		return propagate[int64](in, r)
	}
	n, err := strconv.ParseInt(r.Value, 10, 64)
	if err != nil {
		return Result[int64]{Rest: in, Status: Fatal, Failure: Failure{Pos: in.pos, Expected: "integer in range"}}
	}
	return success(n, r.Rest)
}

// Name parses a letter followed by letters, digits or underscores.
func Name(in Input) Result[string] {
	rest := in.Rest()
	if rest == "" || !isASCIILetter(rest[0]) {
		return recoverable[string](in, "field name")
	}
	n := 1
	for n < len(rest) && (isASCIILetter(rest[n]) || isDigit(rune(rest[n])) || rest[n] == '_') {
		n++
	}
	return success(rest[:n], in.advance(n))
}

// StrictFieldName parses a Name that is a member of fields. Unknown names
// fail softly so the token can be read as a bare term instead.
func StrictFieldName(fields FieldSet) Parser[string] {
	return Filter[string](Name, fields.Has, "known field")
}

// Token parses a maximal run of non-whitespace.
func Token(in Input) Result[string] {
	return TakeWhile1(isToken, "term")(in)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isToken(r rune) bool { return !unicode.IsSpace(r) }
