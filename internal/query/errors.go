package query

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrCodeSyntax identifies syntax errors in CLI and API output.
const ErrCodeSyntax = "E101"

// SyntaxError reports input that no grammar alternative accepts.
type SyntaxError struct {
	Input    string `json:"input"`
	Pos      int    `json:"pos"`
	Token    string `json:"token"`
	Expected string `json:"expected,omitempty"`
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("[%s] syntax error at position %d near %q", ErrCodeSyntax, e.Pos, e.Token)
	if e.Expected != "" {
		msg += ": expected " + e.Expected
	}
	return msg
}

// IsSyntaxError reports whether err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func newSyntaxError(src string, f Failure) *SyntaxError {
	pos := f.Pos
	if pos > len(src) {
		pos = len(src)
	}
	return &SyntaxError{
		Input:    src,
		Pos:      pos,
		Token:    tokenAt(src, pos),
		Expected: f.Expected,
	}
}

// tokenAt returns the offending substring starting at pos: the rest of
// the token, or the single rune found there.
func tokenAt(src string, pos int) string {
	rest := src[pos:]
	if rest == "" {
		return "end of input"
	}
	if i := strings.IndexFunc(rest, unicode.IsSpace); i > 0 {
		return rest[:i]
	} else if i < 0 {
		return rest
	}
	_, size := utf8.DecodeRuneInString(rest)
	return rest[:size]
}
