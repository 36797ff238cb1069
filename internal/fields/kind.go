package fields

import (
	"fmt"
	"strings"
)

// Kind is the query domain of a field.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindDuration Kind = "duration"
	KindDate     Kind = "date"
)

// Numeric reports whether values of k are compared as integers.
func (k Kind) Numeric() bool {
	return k == KindNumber || k == KindDuration || k == KindDate
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindString, KindNumber, KindDuration, KindDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown field kind %q", s)
}

// KindForType maps a database column type name to a storage-derived kind.
// Integer and floating point types are numbers; everything else is text.
func KindForType(dbType string) Kind {
	t := strings.ToUpper(dbType)
	for _, marker := range []string{"INT", "REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL", "SERIAL"} {
		if strings.Contains(t, marker) {
			return KindNumber
		}
	}
	return KindString
}
