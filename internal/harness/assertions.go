package harness

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/dual/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Paths    []string // Matched rows for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Paths) > 0 {
		fmt.Fprintf(&buf, "\nResult rows:\n")
		for i, p := range e.Paths {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, p)
		}
	}
	return buf.String()
}

func failure(r *Result, typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Paths: r.Paths()}
}

// requireSuccess fails row assertions on a rejected query.
func requireSuccess(r *Result, typ string) error {
	if r.ErrorCode == "" {
		return nil
	}
	return failure(r, typ, "query to succeed", fmt.Sprintf("%s: %s", r.ErrorCode, r.ErrorMessage))
}

func assertCount(r *Result, a Assertion) error {
	if err := requireSuccess(r, AssertCount); err != nil {
		return err
	}
	if len(r.Tracks) != *a.Count {
		return failure(r, AssertCount, fmt.Sprintf("%d rows", *a.Count), fmt.Sprintf("%d rows", len(r.Tracks)))
	}
	return nil
}

func assertMaxCount(r *Result, a Assertion) error {
	if err := requireSuccess(r, AssertMaxCount); err != nil {
		return err
	}
	if len(r.Tracks) > *a.Count {
		return failure(r, AssertMaxCount, fmt.Sprintf("at most %d rows", *a.Count), fmt.Sprintf("%d rows", len(r.Tracks)))
	}
	return nil
}

// assertFieldContains checks that every row's field contains the value,
// ignoring case.
func assertFieldContains(r *Result, a Assertion) error {
	if err := requireSuccess(r, AssertFieldContains); err != nil {
		return err
	}
	want := strings.ToLower(a.Value)
	for _, t := range r.Tracks {
		v, ok := t.Value(a.Field)
		if !ok {
			return failure(r, AssertFieldContains, fmt.Sprintf("field %s", a.Field), "no such field")
		}
		s, ok := v.(string)
		if !ok || !strings.Contains(strings.ToLower(s), want) {
			return failure(r, AssertFieldContains,
				fmt.Sprintf("%s containing %q", a.Field, a.Value),
				fmt.Sprintf("%s = %v on %s", a.Field, v, t.Path))
		}
	}
	return nil
}

func assertFieldBetween(r *Result, a Assertion) error {
	if err := requireSuccess(r, AssertFieldBetween); err != nil {
		return err
	}
	expected := fmt.Sprintf("%s in [%s, %s]", a.Field, bound(a.Min), bound(a.Max))
	for _, t := range r.Tracks {
		v, ok := t.Value(a.Field)
		if !ok {
			return failure(r, AssertFieldBetween, expected, "no such field")
		}
		n, ok := v.(int64)
		if !ok {
			return failure(r, AssertFieldBetween, expected, fmt.Sprintf("%s is not numeric", a.Field))
		}
		if (a.Min != nil && n < *a.Min) || (a.Max != nil && n > *a.Max) {
			return failure(r, AssertFieldBetween, expected, fmt.Sprintf("%s = %d on %s", a.Field, n, t.Path))
		}
	}
	return nil
}

func bound(b *int64) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprint(*b)
}

// assertOrder checks either an exact path sequence or that rows are
// sorted by a field.
func assertOrder(r *Result, a Assertion) error {
	if err := requireSuccess(r, AssertOrder); err != nil {
		return err
	}
	if len(a.Paths) > 0 {
		if got := r.Paths(); !slices.Equal(got, a.Paths) {
			return failure(r, AssertOrder, fmt.Sprintf("%v", a.Paths), fmt.Sprintf("%v", got))
		}
		return nil
	}

	dir := "ascending"
	if a.Descending {
		dir = "descending"
	}
	for i := 1; i < len(r.Tracks); i++ {
		c, err := compareField(r.Tracks[i-1], r.Tracks[i], a.Field)
		if err != nil {
			return failure(r, AssertOrder, fmt.Sprintf("%s %s", a.Field, dir), err.Error())
		}
		if (a.Descending && c < 0) || (!a.Descending && c > 0) {
			return failure(r, AssertOrder, fmt.Sprintf("%s %s", a.Field, dir),
				fmt.Sprintf("rows %d and %d out of order", i, i+1))
		}
	}
	return nil
}

func compareField(x, y store.Track, field string) (int, error) {
	a, ok := x.Value(field)
	if !ok {
		return 0, fmt.Errorf("no such field %s", field)
	}
	b, _ := y.Value(field)
	switch av := a.(type) {
	case int64:
		return cmp.Compare(av, b.(int64)), nil
	case string:
		return cmp.Compare(strings.ToLower(av), strings.ToLower(b.(string))), nil
	}
	return 0, fmt.Errorf("cannot order by %s", field)
}

func assertError(r *Result, a Assertion) error {
	if r.ErrorCode == "" {
		return failure(r, AssertError, errorExpectation(a.Code), fmt.Sprintf("query succeeded with %d rows", len(r.Tracks)))
	}
	if a.Code != "" && r.ErrorCode != a.Code {
		return failure(r, AssertError, errorExpectation(a.Code), r.ErrorCode)
	}
	return nil
}

func errorExpectation(code string) string {
	if code == "" {
		return "query error"
	}
	return "query error " + code
}

// EvaluateAssertions evaluates all assertions against the result and
// returns the error messages of those that failed, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCount:
			err = assertCount(result, assertion)
		case AssertMaxCount:
			err = assertMaxCount(result, assertion)
		case AssertFieldContains:
			err = assertFieldContains(result, assertion)
		case AssertFieldBetween:
			err = assertFieldBetween(result, assertion)
		case AssertOrder:
			err = assertOrder(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
