package queryir

import (
	"fmt"

	"github.com/roach88/dual/internal/ir"
)

// ValidationResult reports whether a program's result set is a pure
// function of the stored tracks.
type ValidationResult struct {
	// Deterministic is true when running the program twice against the
	// same data yields the same rows in the same order.
	Deterministic bool

	// Warnings lists every feature that breaks determinism, plus
	// structural oddities such as an empty disjunction. Oddities alone
	// leave Deterministic true.
	Warnings []string
}

// Validate walks a program and reports warnings:
//  1. Random ordering
//  2. Operands relative to evaluation time
//  3. Empty disjunctions, which can never match
//  4. Null literals, which never compare equal to anything
//
// Only the first two make a program non-deterministic.
//
// Non-deterministic programs are valid and run normally. Validate is a
// pure function.
func Validate(p *Program) ValidationResult {
	v := &validator{warnings: []string{}}
	if p == nil {
		v.addWarning("nil program")
	} else {
		if p.Filter != nil {
			v.validatePredicate(p.Filter)
		}
		for _, o := range p.Order {
			v.validateOrder(o)
		}
		if p.Limit != nil && *p.Limit == 0 {
			v.addWarning("limit 0 matches nothing")
		}
	}
	return ValidationResult{
		Deterministic: !v.volatile,
		Warnings:      v.warnings,
	}
}

type validator struct {
	warnings []string
	volatile bool // random ordering or now-relative operand seen
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addWarning("nil predicate")
	case Contains:
		if pred.Value == "" {
			v.addWarning("field '%s' contains empty string - matches every non-null value", pred.Field)
		}
	case Compare:
		v.validateOperand(pred.Field, pred.Value)
	case Between:
		v.validateOperand(pred.Field, pred.Min)
		v.validateOperand(pred.Field, pred.Max)
	case Not:
		v.validatePredicate(pred.Inner)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		if len(pred.Predicates) == 0 {
			v.addWarning("empty disjunction never matches")
		}
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

func (v *validator) validateOperand(field string, o Operand) {
	switch op := o.(type) {
	case Literal:
		if _, isNull := op.Value.(ir.IRNull); isNull || op.Value == nil {
			v.addWarning("field '%s' compared to null", field)
		}
	case NowOffset:
		v.volatile = true
		v.addWarning("field '%s' compared relative to evaluation time", field)
	default:
		v.addWarning("unknown operand type: %T", o)
	}
}

func (v *validator) validateOrder(o Order) {
	switch o.(type) {
	case ByField:
	case Random:
		v.volatile = true
		v.addWarning("random ordering")
	default:
		v.addWarning("unknown order type: %T", o)
	}
}
