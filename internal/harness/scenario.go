package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dual/internal/store"
)

// Scenario is one query run against a fixture library, with assertions
// on the result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixtures is a YAML track list, relative to the scenario file.
	Fixtures string `yaml:"fixtures,omitempty"`

	// Tracks are inline fixtures, inserted after those from Fixtures.
	Tracks []store.Track `yaml:"tracks,omitempty"`

	// Catalog is an optional CUE field declaration file, relative to the
	// scenario file.
	Catalog string `yaml:"catalog,omitempty"`

	// Token is the fixed query token. Defaults to "test-query-default".
	Token string `yaml:"token,omitempty"`

	// Query is the raw query string. An empty query is valid.
	Query string `yaml:"query"`

	// Assertions validate the search result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of a search result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the exact (count) or maximum (max_count) number of rows.
	Count *int `yaml:"count,omitempty"`

	// Field names the column checked by field_contains, field_between
	// and order.
	Field string `yaml:"field,omitempty"`

	// Value must appear in Field of every row (field_contains), compared
	// case-insensitively.
	Value string `yaml:"value,omitempty"`

	// Min and Max bound Field of every row (field_between). Either may be
	// omitted.
	Min *int64 `yaml:"min,omitempty"`
	Max *int64 `yaml:"max,omitempty"`

	// Paths is the exact expected row order (order).
	Paths []string `yaml:"paths,omitempty"`

	// Descending flips the direction checked by an order assertion on
	// Field.
	Descending bool `yaml:"descending,omitempty"`

	// Code is the expected error code (error). Empty accepts any code.
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertCount         = "count"
	AssertMaxCount      = "max_count"
	AssertFieldContains = "field_contains"
	AssertFieldBetween  = "field_between"
	AssertOrder         = "order"
	AssertError         = "error"
)

// LoadScenario reads and parses a scenario YAML file. Fixtures and
// Catalog paths are resolved relative to the file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Fixtures = resolve(base, scenario.Fixtures)
	scenario.Catalog = resolve(base, scenario.Catalog)

	for _, p := range []string{scenario.Fixtures, scenario.Catalog} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("invalid scenario: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject typos such as "assertion:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, t := range s.Tracks {
		if t.Path == "" {
			return fmt.Errorf("tracks[%d]: path is required", i)
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCount, AssertMaxCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertFieldContains:
		if a.Field == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: field and value are required for field_contains", index)
		}
	case AssertFieldBetween:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for field_between", index)
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for field_between", index)
		}
	case AssertOrder:
		if (a.Field == "") == (len(a.Paths) == 0) {
			return fmt.Errorf("assertions[%d]: exactly one of field or paths is required for order", index)
		}
	case AssertError:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
