package query

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// QueryParser parses query strings against a snapshot of known fields.
//
// A QueryParser holds no mutable state and is safe for concurrent use.
type QueryParser struct {
	g grammar
}

// Option configures a QueryParser.
type Option func(*QueryParser)

// WithLocation sets the calendar location used for absolute dates.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(p *QueryParser) {
		if loc != nil {
			p.g.loc = loc
		}
	}
}

// New returns a QueryParser that recognizes the field names in fields.
func New(fields FieldSet, opts ...Option) *QueryParser {
	p := &QueryParser{g: grammar{fields: fields, loc: time.Local}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseClauses parses s into clauses in encounter order.
//
// The input is trimmed and NFC-normalized first. Parsing is total: either
// the whole input is consumed or a *SyntaxError is returned.
func (p *QueryParser) ParseClauses(s string) ([]Clause, error) {
	src := norm.NFC.String(strings.TrimSpace(s))
	r := p.g.query()(NewInput(src))
	if !r.OK() {
		return nil, newSyntaxError(src, r.Failure)
	}
	if r.Value == nil {
		return []Clause{}, nil
	}
	return r.Value, nil
}

// Parse parses s and groups its clauses into a Query.
func (p *QueryParser) Parse(s string) (*Query, error) {
	clauses, err := p.ParseClauses(s)
	if err != nil {
		return nil, err
	}
	return Bucket(clauses), nil
}
