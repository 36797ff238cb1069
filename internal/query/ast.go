package query

import "fmt"

// Query is a parsed query, with clauses bucketed by kind.
//
// Fields are combined with AND, each BareFilter must match some default
// text field, Order applies in encounter order and Limit caps the result
// count when set.
type Query struct {
	Fields []FieldPredicate `json:"fields"`
	Raw    []BareFilter     `json:"raw"`
	Order  []Ordering       `json:"order"`
	Limit  *int             `json:"limit,omitempty"`
}

// Clause is one whitespace-delimited unit of a query.
//
// This is a sealed interface. Implementations: FieldPredicate, BareFilter,
// Ordering, Limit.
type Clause interface {
	clauseNode()
}

// FieldPredicate constrains one field known to the field set.
type FieldPredicate struct {
	Field  string          `json:"field"`
	Filter FilterComponent `json:"filter"`
}

func (FieldPredicate) clauseNode() {}

// BareFilter is free text not bound to a field. It matches when any of
// its values matches any default text field.
type BareFilter struct {
	Values []string `json:"values"`
}

func (BareFilter) clauseNode() {}

// Ordering sorts results by a field, or randomly when Random is set.
type Ordering struct {
	Field     string `json:"field,omitempty"`
	Ascending bool   `json:"ascending,omitempty"`
	Random    bool   `json:"random,omitempty"`
}

func (Ordering) clauseNode() {}

func (o Ordering) String() string {
	switch {
	case o.Random:
		return "@random"
	case o.Ascending:
		return o.Field + "+"
	default:
		return o.Field + "-"
	}
}

// Limit caps the number of results.
type Limit int

func (Limit) clauseNode() {}

// FilterComponent is the value side of a field predicate.
//
// This is a sealed interface. Implementations: RangeFilter, ValueFilter,
// Negated.
type FilterComponent interface {
	filterNode()
}

// RangeKind is the domain of a range filter.
type RangeKind string

const (
	RangeNumber   RangeKind = "number"
	RangeDuration RangeKind = "duration"
	RangeDate     RangeKind = "date"
)

// Bound is one end of a range.
//
// Value is a plain integer for number ranges, seconds for durations, and
// for dates either epoch seconds (absolute) or a signed offset in seconds
// from evaluation time (Relative). Text is the literal the bound was
// parsed from.
type Bound struct {
	Value    int64  `json:"value"`
	Relative bool   `json:"relative,omitempty"`
	Text     string `json:"text"`
}

func (b Bound) String() string {
	return b.Text
}

// RangeFilter constrains a field to [Min, Max]. At least one bound is set.
type RangeFilter struct {
	Kind RangeKind `json:"kind"`
	Min  *Bound    `json:"min,omitempty"`
	Max  *Bound    `json:"max,omitempty"`
}

func (RangeFilter) filterNode() {}

func (r RangeFilter) String() string {
	var lo, hi string
	if r.Min != nil {
		lo = r.Min.Text
	}
	if r.Max != nil {
		hi = r.Max.Text
	}
	return fmt.Sprintf("%s(%s..%s)", r.Kind, lo, hi)
}

// ValueFilter matches fields containing Value.
type ValueFilter struct {
	Value string `json:"value"`
}

func (ValueFilter) filterNode() {}

func (v ValueFilter) String() string {
	return fmt.Sprintf("contains(%q)", v.Value)
}

// Negated inverts Inner.
type Negated struct {
	Inner FilterComponent `json:"inner"`
}

func (Negated) filterNode() {}

func (n Negated) String() string {
	return fmt.Sprintf("not(%v)", n.Inner)
}

// Bucket groups clauses by kind, preserving their relative order. When
// several limits are present the last one wins.
func Bucket(clauses []Clause) *Query {
	q := &Query{
		Fields: []FieldPredicate{},
		Raw:    []BareFilter{},
		Order:  []Ordering{},
	}
	for _, c := range clauses {
		switch c := c.(type) {
		case FieldPredicate:
			q.Fields = append(q.Fields, c)
		case BareFilter:
			q.Raw = append(q.Raw, c)
		case Ordering:
			q.Order = append(q.Order, c)
		case Limit:
			n := int(c)
			q.Limit = &n
		}
	}
	return q
}
