package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/query"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its clauses",
		Long: `Parse a query against the library's fields and print the grouped
clauses without compiling or running it.

Exit codes:
  0 - Query parsed
  1 - Syntax error
  2 - Command error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, queryArg(args), cmd)
		},
	}
}

func runParse(opts *RootOptions, raw string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	s, err := openSession(cmd.Context(), opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	q, err := query.New(s.engine.Catalog()).Parse(raw)
	if err != nil {
		return f.QueryError(err)
	}

	if f.Format == "json" {
		return f.Success(q)
	}
	return f.Success(formatQuery(q))
}

func formatQuery(q *query.Query) string {
	var b strings.Builder
	for _, fp := range q.Fields {
		fmt.Fprintf(&b, "field  %s %v\n", fp.Field, fp.Filter)
	}
	for _, bf := range q.Raw {
		fmt.Fprintf(&b, "bare   %s\n", strings.Join(bf.Values, " | "))
	}
	for _, o := range q.Order {
		fmt.Fprintf(&b, "order  %v\n", o)
	}
	if q.Limit != nil {
		fmt.Fprintf(&b, "limit  %d\n", *q.Limit)
	}
	if b.Len() == 0 {
		return "(empty query)"
	}
	return strings.TrimSuffix(b.String(), "\n")
}
