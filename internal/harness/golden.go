package harness

import (
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dual/internal/ir"
)

// Snapshot is the golden form of a scenario result: what matched, not
// how it was compiled.
type Snapshot struct {
	ScenarioName  string
	Query         string
	Paths         []string
	Deterministic bool
	ErrorCode     string
}

// NewSnapshot captures a result. Paths of non-deterministic results are
// sorted so the snapshot is stable.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	paths := result.Paths()
	if !result.Deterministic {
		slices.Sort(paths)
	}
	return Snapshot{
		ScenarioName:  scenario.Name,
		Query:         scenario.Query,
		Paths:         paths,
		Deterministic: result.Deterministic,
		ErrorCode:     result.ErrorCode,
	}
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which
// only handles IR types and primitives.
func (s Snapshot) toCanonicalMap() map[string]any {
	paths := make([]any, len(s.Paths))
	for i, p := range s.Paths {
		paths[i] = p
	}
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"query":         s.Query,
		"paths":         paths,
	}
	if s.ErrorCode != "" {
		m["error_code"] = s.ErrorCode
	} else {
		m["deterministic"] = s.Deterministic
	}
	return m
}

// MarshalCanonical renders the snapshot as canonical JSON followed by a
// newline.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	data, err := ir.MarshalCanonical(s.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the scenario's golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenario, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
