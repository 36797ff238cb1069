package query

import "time"

// grammar builds the clause parsers for one field set and location.
type grammar struct {
	fields FieldSet
	loc    *time.Location
}

// valueFilter parses a maximal run of non-whitespace as a substring filter.
func (g grammar) valueFilter() Parser[FilterComponent] {
	return Map[string, FilterComponent](Token, func(s string) FilterComponent {
		return ValueFilter{Value: s}
	})
}

// rangeFilter tries the date, duration and number range grammars in that
// order. Each must end at a token boundary.
func (g grammar) rangeFilter() Parser[FilterComponent] {
	kinds := []Parser[RangeFilter]{
		Range(RangeDate, DateBound(g.loc)),
		Range(RangeDuration, DurationBound),
		Range(RangeNumber, NumberBound),
	}
	alts := make([]Parser[FilterComponent], len(kinds))
	for i, p := range kinds {
		alts[i] = Soft(Map(Left[RangeFilter, struct{}](p, EndOfToken), func(r RangeFilter) FilterComponent {
			return r
		}))
	}
	return Alt(alts...)
}

// fieldValue prefers the range grammar over a plain value.
func (g grammar) fieldValue() Parser[FilterComponent] {
	return Alt(g.rangeFilter(), g.valueFilter())
}

// fieldPredicate parses `<field> ":" <value-or-range>`.
func (g grammar) fieldPredicate() Parser[FieldPredicate] {
	name := StrictFieldName(g.fields)
	colon := Literal(":")
	value := g.fieldValue()
	return func(in Input) Result[FieldPredicate] {
		field := name(in)
		if !field.OK() {
			return propagate[FieldPredicate](in, field)
		}
		c := colon(field.Rest)
		if !c.OK() {
			return propagate[FieldPredicate](in, c)
		}
		v := value(c.Rest)
		if !v.OK() {
			return propagate[FieldPredicate](in, v)
		}
		return success(FieldPredicate{Field: field.Value, Filter: v.Value}, v.Rest)
	}
}

// fieldClause is a field predicate with an optional "^" negation marker.
// The marker is consumed first, but wraps the parsed filter afterwards.
func (g grammar) fieldClause() Parser[Clause] {
	negate := func(fp FieldPredicate) FieldPredicate {
		fp.Filter = Negated{Inner: fp.Filter}
		return fp
	}
	p := PrefixFlag("^", FlagNegated, negate, g.fieldPredicate())
	return Soft(Map(p, func(fp FieldPredicate) Clause { return fp }))
}

// random parses "@random".
func (g grammar) random() Parser[Ordering] {
	lit := Left[string, struct{}](Literal("@random"), EndOfToken)
	return Soft(Map(lit, func(string) Ordering { return Ordering{Random: true} }))
}

// fieldOrdering parses a known field immediately followed by "-"
// (descending) or "+" (ascending).
func (g grammar) fieldOrdering() Parser[Ordering] {
	name := StrictFieldName(g.fields)
	dir := Left[byte, struct{}](OneOf("+-"), EndOfToken)
	return Soft[Ordering](func(in Input) Result[Ordering] {
		field := name(in)
		if !field.OK() {
			return propagate[Ordering](in, field)
		}
		d := dir(field.Rest)
		if !d.OK() {
			return propagate[Ordering](in, d)
		}
		return success(Ordering{Field: field.Value, Ascending: d.Value == '+'}, d.Rest)
	})
}

func (g grammar) ordering() Parser[Clause] {
	return Map(Alt(g.fieldOrdering(), g.random()), func(o Ordering) Clause { return o })
}

// limit parses "@" followed by an integer. Once "@" is consumed the
// integer is mandatory.
func (g grammar) limit() Parser[Clause] {
	n := Right[string, int64](Literal("@"), Left[int64, struct{}](Int, EndOfToken))
	return Map(n, func(v int64) Clause { return Limit(v) })
}

// bareClause reads any remaining token as free text.
func (g grammar) bareClause() Parser[Clause] {
	return Map[string, Clause](Token, func(s string) Clause {
		return BareFilter{Values: []string{s}}
	})
}

// clause tries ordering, limit, field clause and bare term in that order.
// Earlier branches fail softly so shared prefixes fall through.
func (g grammar) clause() Parser[Clause] {
	return Alt(g.ordering(), g.limit(), g.fieldClause(), g.bareClause())
}

// query parses clauses separated by single spaces up to end of input.
func (g grammar) query() Parser[[]Clause] {
	return Left[[]Clause, struct{}](SepBy(g.clause(), Literal(" ")), EndOfInput)
}
