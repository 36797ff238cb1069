package queryir

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/dual/internal/ir"
)

// ToIR encodes the program as an ir.IRObject. The encoding is the input
// to Fingerprint and to the JSON form shown by the CLI.
func (p *Program) ToIR() (ir.IRObject, error) {
	obj := ir.IRObject{}
	if p.Filter != nil {
		f, err := encodePredicate(p.Filter)
		if err != nil {
			return nil, err
		}
		obj["filter"] = f
	}

	order := make(ir.IRArray, 0, len(p.Order))
	for i, o := range p.Order {
		switch o := o.(type) {
		case ByField:
			order = append(order, ir.IRObject{
				"field":     ir.IRString(o.Field),
				"ascending": ir.IRBool(o.Ascending),
			})
		case Random:
			order = append(order, ir.IRObject{"random": ir.IRBool(true)})
		default:
			return nil, fmt.Errorf("order[%d]: unknown order type %T", i, o)
		}
	}
	obj["order"] = order

	if p.Limit != nil {
		obj["limit"] = ir.IRInt(*p.Limit)
	}
	return obj, nil
}

// MarshalJSON implements json.Marshaler using the ToIR encoding.
func (p *Program) MarshalJSON() ([]byte, error) {
	obj, err := p.ToIR()
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// Fingerprint returns a stable digest of the program. Equal programs
// always have equal fingerprints, independent of map iteration order.
func Fingerprint(p *Program) (string, error) {
	obj, err := p.ToIR()
	if err != nil {
		return "", err
	}
	return ir.Hash(ir.DomainProgram, obj)
}

func encodePredicate(p Predicate) (ir.IRObject, error) {
	switch pred := p.(type) {
	case Contains:
		return ir.IRObject{
			"op":    ir.IRString("contains"),
			"field": ir.IRString(pred.Field),
			"value": ir.IRString(pred.Value),
		}, nil
	case Compare:
		v, err := encodeOperand(pred.Value)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{
			"op":    ir.IRString(string(pred.Op)),
			"field": ir.IRString(pred.Field),
			"value": v,
		}, nil
	case Between:
		lo, err := encodeOperand(pred.Min)
		if err != nil {
			return nil, err
		}
		hi, err := encodeOperand(pred.Max)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{
			"op":    ir.IRString("between"),
			"field": ir.IRString(pred.Field),
			"min":   lo,
			"max":   hi,
		}, nil
	case Not:
		inner, err := encodePredicate(pred.Inner)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"op": ir.IRString("not"), "inner": inner}, nil
	case And:
		args, err := encodePredicates(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"op": ir.IRString("and"), "args": args}, nil
	case Or:
		args, err := encodePredicates(pred.Predicates)
		if err != nil {
			return nil, err
		}
		return ir.IRObject{"op": ir.IRString("or"), "args": args}, nil
	default:
		return nil, fmt.Errorf("unknown predicate type %T", p)
	}
}

func encodePredicates(ps []Predicate) (ir.IRArray, error) {
	out := make(ir.IRArray, len(ps))
	for i, p := range ps {
		e, err := encodePredicate(p)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func encodeOperand(o Operand) (ir.IRObject, error) {
	switch op := o.(type) {
	case Literal:
		if op.Value == nil {
			return nil, fmt.Errorf("literal has no value")
		}
		return ir.IRObject{"literal": op.Value}, nil
	case NowOffset:
		return ir.IRObject{"now_offset": ir.IRInt(op.Seconds)}, nil
	default:
		return nil, fmt.Errorf("unknown operand type %T", o)
	}
}
