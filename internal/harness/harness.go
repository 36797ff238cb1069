package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/dual/internal/compiler"
	"github.com/roach88/dual/internal/engine"
	"github.com/roach88/dual/internal/fields"
	"github.com/roach88/dual/internal/query"
	"github.com/roach88/dual/internal/store"
	"github.com/roach88/dual/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory SQLite database with a fixed
// query token and UTC dates, so repeated runs give the same result.
// Syntax and semantic errors are part of the result, not returned as
// errors. An error is returned only when the scenario cannot be set up
// or the store fails.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	ctx := context.Background()

	tracks, err := loadFixtures(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Config{Driver: store.DriverSQLite3, DSN: ":memory:"})
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.InsertTracks(ctx, tracks); err != nil {
		return nil, fmt.Errorf("failed to insert fixtures: %w", err)
	}

	opts := []engine.Option{
		engine.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.Token)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithLocation(time.UTC),
	}
	if scenario.Catalog != "" {
		decl, err := fields.LoadCUE(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		opts = append(opts, engine.WithDeclarations(decl.Kinds))
		if len(decl.Text) > 0 {
			opts = append(opts, engine.WithTextFields(decl.Text))
		}
	}

	eng, err := engine.New(ctx, st, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	result := NewResult()
	res, err := eng.Search(ctx, scenario.Query)
	switch {
	case err == nil:
		result.Token = res.Token
		result.Fingerprint = res.Plan.Fingerprint
		result.SQL = res.Plan.SQL
		result.Deterministic = res.Plan.Validation.Deterministic
		result.Tracks = res.Tracks
	default:
		code, ok := errorCode(err)
		if !ok {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		result.ErrorCode = code
		result.ErrorMessage = err.Error()
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadFixtures(scenario *Scenario) ([]store.Track, error) {
	var tracks []store.Track
	if scenario.Fixtures != "" {
		f, err := os.Open(scenario.Fixtures)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixtures: %w", err)
		}
		defer f.Close()

		tracks, err = store.LoadTracks(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixtures: %w", err)
		}
	}
	return append(tracks, scenario.Tracks...), nil
}

// errorCode extracts the code of a query rejection.
func errorCode(err error) (string, bool) {
	var syn *query.SyntaxError
	if errors.As(err, &syn) {
		return query.ErrCodeSyntax, true
	}
	var sem *compiler.SemanticError
	if errors.As(err, &sem) {
		return sem.Code, true
	}
	return "", false
}
