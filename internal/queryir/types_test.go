package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/dual/internal/ir"
)

func TestSealedInterfaces(t *testing.T) {
	var _ Predicate = Contains{}
	var _ Predicate = Compare{}
	var _ Predicate = Between{}
	var _ Predicate = Not{}
	var _ Predicate = And{}
	var _ Predicate = Or{}
	var _ Operand = Literal{}
	var _ Operand = NowOffset{}
	var _ Order = ByField{}
	var _ Order = Random{}
}

func TestFlatten(t *testing.T) {
	a := Contains{Field: "artist", Value: "radiohead"}
	b := Contains{Field: "title", Value: "creep"}
	y := Between{Field: "year", Min: Literal{Value: ir.IRInt(1995)}, Max: Literal{Value: ir.IRInt(2003)}}

	tests := []struct {
		name string
		in   Predicate
		want Predicate
	}{
		{"leaf unchanged", a, a},
		{"empty and is nil", And{}, nil},
		{"nested empty ands are nil", And{Predicates: []Predicate{And{}, And{}}}, nil},
		{"single child unwrapped", And{Predicates: []Predicate{And{Predicates: []Predicate{a}}, And{}}}, a},
		{
			"nested ands merged",
			And{Predicates: []Predicate{And{Predicates: []Predicate{a, y}}, And{Predicates: []Predicate{b}}}},
			And{Predicates: []Predicate{a, y, b}},
		},
		{"or kept", Or{Predicates: []Predicate{a, b}}, Or{Predicates: []Predicate{a, b}}},
		{"single or unwrapped", Or{Predicates: []Predicate{a}}, a},
		{"empty or kept", Or{}, Or{Predicates: []Predicate{}}},
		{"or with vacuous branch holds", Or{Predicates: []Predicate{a, And{}}}, nil},
		{"not of vacuous is false", Not{Inner: And{}}, Or{}},
		{"not flattened inside", Not{Inner: And{Predicates: []Predicate{a}}}, Not{Inner: a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flatten(tt.in))
		})
	}
}
