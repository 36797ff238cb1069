package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/queryir"
)

// PlanOutput is the JSON form of a compiled query.
type PlanOutput struct {
	Query         string           `json:"query"`
	QueryID       string           `json:"query_id"`
	Fingerprint   string           `json:"fingerprint"`
	Program       *queryir.Program `json:"program"`
	Deterministic bool             `json:"deterministic"`
	Warnings      []string         `json:"warnings"`
	SQL           string           `json:"sql"`
	Params        []any            `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to its predicate program and SQL",
		Long: `Compile a query to the predicate program and parameterized SQL it
would run, without touching any rows.

Exit codes:
  0 - Query compiled
  1 - Syntax or semantic error
  2 - Command error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(rootOpts, queryArg(args), cmd)
		},
	}
}

func runCompile(opts *RootOptions, raw string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	s, err := openSession(cmd.Context(), opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	plan, err := s.engine.Plan(raw)
	if err != nil {
		return f.QueryError(err)
	}

	out := PlanOutput{
		Query:         plan.Raw,
		QueryID:       plan.QueryID,
		Fingerprint:   plan.Fingerprint,
		Program:       plan.Program,
		Deterministic: plan.Validation.Deterministic,
		Warnings:      plan.Validation.Warnings,
		SQL:           plan.SQL,
		Params:        plan.Params,
	}
	if f.Format == "json" {
		return f.Success(out)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "fingerprint: %s\n", out.Fingerprint)
	fmt.Fprintf(&b, "sql: %s\n", out.SQL)
	for i, p := range out.Params {
		fmt.Fprintf(&b, "  $%d = %v\n", i+1, p)
	}
	if out.Deterministic {
		b.WriteString("deterministic: yes")
	} else {
		fmt.Fprintf(&b, "deterministic: no (%s)", strings.Join(out.Warnings, "; "))
	}
	return f.Success(b.String())
}
