package queryir

import "github.com/roach88/dual/internal/ir"

// Predicate is a filter condition over one track.
//
// This is a sealed interface. The marker method keeps implementations in
// this package so lowerings can switch exhaustively.
//
// Predicate types:
//   - Contains: substring match on a text field
//   - Compare: field >= operand or field <= operand
//   - Between: min <= field <= max
//   - Not: negation
//   - And: all must hold (empty = true)
//   - Or: any must hold (empty = false)
type Predicate interface {
	predicateNode()
}

// Operand is the right-hand side of a comparison.
//
// Operand types:
//   - Literal: a fixed value
//   - NowOffset: evaluation time plus a signed number of seconds
type Operand interface {
	operandNode()
}

// Order is one sort key.
//
// Order types:
//   - ByField: sort on a field
//   - Random: shuffle
type Order interface {
	orderNode()
}

// Contains matches when Field contains Value, case-insensitively.
// A missing field value never contains anything.
type Contains struct {
	Field string
	Value string
}

func (Contains) predicateNode() {}

// CompareOp is the operator of a Compare predicate.
type CompareOp string

const (
	GTE CompareOp = ">="
	LTE CompareOp = "<="
)

// Compare matches when Field Op Value holds. Used for half-open ranges.
type Compare struct {
	Field string
	Op    CompareOp
	Value Operand
}

func (Compare) predicateNode() {}

// Between matches when Min <= Field <= Max. No check is made that
// Min <= Max; an inverted range simply matches nothing.
type Between struct {
	Field string
	Min   Operand
	Max   Operand
}

func (Between) predicateNode() {}

// Not inverts Inner.
type Not struct {
	Inner Predicate
}

func (Not) predicateNode() {}

// And is a conjunction. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. An empty Or never holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Literal is a constant operand. Values are ir.IRValue, so never floats.
type Literal struct {
	Value ir.IRValue
}

func (Literal) operandNode() {}

// NowOffset is evaluation time in epoch seconds plus Seconds. Seconds is
// negative for offsets into the past.
type NowOffset struct {
	Seconds int64
}

func (NowOffset) operandNode() {}

// ByField sorts on Field.
type ByField struct {
	Field     string
	Ascending bool
}

func (ByField) orderNode() {}

// Random shuffles the result.
type Random struct{}

func (Random) orderNode() {}

// Program is a compiled query: a filter, sort keys applied in order, and
// an optional result cap.
type Program struct {
	Filter Predicate
	Order  []Order
	Limit  *int
}

// Flatten merges nested conjunctions and drops empty ones. A conjunction
// left with a single child is replaced by that child, and one left with
// none becomes nil, meaning no filter.
func Flatten(p Predicate) Predicate {
	switch pred := p.(type) {
	case And:
		var out []Predicate
		for _, sub := range pred.Predicates {
			f := Flatten(sub)
			if f == nil {
				continue
			}
			if inner, ok := f.(And); ok {
				out = append(out, inner.Predicates...)
				continue
			}
			out = append(out, f)
		}
		switch len(out) {
		case 0:
			return nil
		case 1:
			return out[0]
		}
		return And{Predicates: out}
	case Or:
		out := make([]Predicate, 0, len(pred.Predicates))
		for _, sub := range pred.Predicates {
			f := Flatten(sub)
			if f == nil {
				// A vacuous conjunction inside a disjunction makes it hold.
				return nil
			}
			out = append(out, f)
		}
		if len(out) == 1 {
			return out[0]
		}
		return Or{Predicates: out}
	case Not:
		inner := Flatten(pred.Inner)
		if inner == nil {
			return Or{}
		}
		return Not{Inner: inner}
	default:
		return p
	}
}
