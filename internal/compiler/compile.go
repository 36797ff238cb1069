// Package compiler lowers a parsed query into a queryir.Program, checking
// each field predicate against the kind of its field.
package compiler

import (
	"time"

	"github.com/roach88/dual/internal/fields"
	"github.com/roach88/dual/internal/ir"
	"github.com/roach88/dual/internal/query"
	"github.com/roach88/dual/internal/queryir"
)

// FieldKinds is the field lookup the compiler needs.
// *fields.Catalog implements it.
type FieldKinds interface {
	Kind(name string) (fields.Kind, bool)
	TextFields() []string
}

// Option configures Compile.
type Option func(*compiler)

// WithLocation sets the location used when range bounds are re-read as
// absolute dates. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *compiler) {
		if loc != nil {
			c.loc = loc
		}
	}
}

type compiler struct {
	kinds FieldKinds
	loc   *time.Location
}

// Compile lowers q to a program.
//
// Field predicates are conjoined, then each bare filter becomes a
// disjunction over the default text fields, and the two groups are
// conjoined. Orderings and the limit are copied unchanged. Compile is
// pure and returns a *SemanticError for the first predicate that does
// not fit its field's kind.
func Compile(q *query.Query, kinds FieldKinds, opts ...Option) (*queryir.Program, error) {
	c := &compiler{kinds: kinds, loc: time.Local}
	for _, opt := range opts {
		opt(c)
	}

	fieldGroup := queryir.And{Predicates: make([]queryir.Predicate, 0, len(q.Fields))}
	for _, fp := range q.Fields {
		kind, ok := kinds.Kind(fp.Field)
		if !ok {
			return nil, semanticErrorf(ErrUnknownField, fp.Field, "unknown field")
		}
		p, err := c.compileFilter(fp.Field, kind, fp.Filter)
		if err != nil {
			return nil, err
		}
		fieldGroup.Predicates = append(fieldGroup.Predicates, p)
	}

	text := kinds.TextFields()
	bareGroup := queryir.And{Predicates: make([]queryir.Predicate, 0, len(q.Raw))}
	for _, bf := range q.Raw {
		disj := queryir.Or{Predicates: make([]queryir.Predicate, 0, len(text)*len(bf.Values))}
		for _, field := range text {
			for _, v := range bf.Values {
				disj.Predicates = append(disj.Predicates, queryir.Contains{Field: field, Value: v})
			}
		}
		bareGroup.Predicates = append(bareGroup.Predicates, disj)
	}

	order := make([]queryir.Order, 0, len(q.Order))
	for _, o := range q.Order {
		if o.Random {
			order = append(order, queryir.Random{})
			continue
		}
		order = append(order, queryir.ByField{Field: o.Field, Ascending: o.Ascending})
	}

	var limit *int
	if q.Limit != nil {
		n := *q.Limit
		limit = &n
	}

	return &queryir.Program{
		Filter: queryir.And{Predicates: []queryir.Predicate{fieldGroup, bareGroup}},
		Order:  order,
		Limit:  limit,
	}, nil
}

func (c *compiler) compileFilter(field string, kind fields.Kind, f query.FilterComponent) (queryir.Predicate, error) {
	switch f := f.(type) {
	case query.Negated:
		inner, err := c.compileFilter(field, kind, f.Inner)
		if err != nil {
			return nil, err
		}
		return queryir.Not{Inner: inner}, nil

	case query.ValueFilter:
		if kind != fields.KindString {
			return nil, semanticErrorf(ErrKindMismatch, field,
				"%s field needs a range such as %s, got %q", kind, example(kind), f.Value)
		}
		return queryir.Contains{Field: field, Value: f.Value}, nil

	case query.RangeFilter:
		if kind == fields.KindString {
			return nil, semanticErrorf(ErrKindMismatch, field,
				"string field cannot take a %s range", f.Kind)
		}
		rf, err := c.coerce(field, kind, f)
		if err != nil {
			return nil, err
		}
		return rangePredicate(field, rf), nil

	default:
		return nil, semanticErrorf(ErrKindMismatch, field, "unsupported filter %T", f)
	}
}

// coerce re-reads a range whose parsed kind differs from the field's.
// The grammar tries date ranges first, so "1990..1999" arrives as a date
// range even on a number field. A duration field also accepts plain
// seconds.
func (c *compiler) coerce(field string, kind fields.Kind, rf query.RangeFilter) (query.RangeFilter, error) {
	want := rangeKind(kind)
	if rf.Kind == want {
		return rf, nil
	}
	out := query.RangeFilter{Kind: want}
	for _, side := range []struct {
		from *query.Bound
		to   **query.Bound
	}{{rf.Min, &out.Min}, {rf.Max, &out.Max}} {
		if side.from == nil {
			continue
		}
		b, ok := query.ReadBound(want, side.from.Text, c.loc)
		if !ok && want == query.RangeDuration {
			b, ok = query.ReadBound(query.RangeNumber, side.from.Text, c.loc)
		}
		if !ok {
			return query.RangeFilter{}, semanticErrorf(ErrRangeKindConflict, field,
				"bound %q is not a %s", side.from.Text, kind)
		}
		*side.to = &b
	}
	return out, nil
}

func rangePredicate(field string, rf query.RangeFilter) queryir.Predicate {
	switch {
	case rf.Min != nil && rf.Max != nil:
		return queryir.Between{Field: field, Min: operand(*rf.Min), Max: operand(*rf.Max)}
	case rf.Min != nil:
		return queryir.Compare{Field: field, Op: queryir.GTE, Value: operand(*rf.Min)}
	default:
		return queryir.Compare{Field: field, Op: queryir.LTE, Value: operand(*rf.Max)}
	}
}

func operand(b query.Bound) queryir.Operand {
	if b.Relative {
		return queryir.NowOffset{Seconds: b.Value}
	}
	return queryir.Literal{Value: ir.IRInt(b.Value)}
}

func rangeKind(k fields.Kind) query.RangeKind {
	switch k {
	case fields.KindDuration:
		return query.RangeDuration
	case fields.KindDate:
		return query.RangeDate
	default:
		return query.RangeNumber
	}
}

func example(k fields.Kind) string {
	switch k {
	case fields.KindDuration:
		return "3:00..4:30"
	case fields.KindDate:
		return "2020-01..2020-06"
	default:
		return "1990..1999"
	}
}
