package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Limit int // default row cap, overridden by "@N"
}

// SearchOutput is the JSON form of a search.
type SearchOutput struct {
	Query       string        `json:"query"`
	Fingerprint string        `json:"fingerprint"`
	Count       int           `json:"count"`
	Tracks      []store.Track `json:"tracks"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the library",
		Long: `Run a query against the library and print the matching tracks.

Examples:
  dual search artist:radiohead year:1995..2003 @random @5
  dual search '^genre:pop' added:-7d.. year-
  dual search mellow --format json

Exit codes:
  0 - Query ran (even with no matches)
  1 - Syntax or semantic error
  2 - Command error`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, queryArg(args), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row cap for queries without @N, 0 for none (default from config)")

	return cmd
}

func runSearch(opts *SearchOptions, raw string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	s, err := openSession(cmd.Context(), opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.engine.Search(cmd.Context(), raw)
	if err != nil {
		return f.QueryError(err)
	}
	f.VerboseLog("sql: %s", res.Plan.SQL)

	if f.Format == "json" {
		return f.SuccessWithTrace(SearchOutput{
			Query:       raw,
			Fingerprint: res.Plan.Fingerprint,
			Count:       len(res.Tracks),
			Tracks:      res.Tracks,
		}, res.Token)
	}
	return f.Success(formatTracks(res.Tracks))
}

func formatTracks(tracks []store.Track) string {
	if len(tracks) == 0 {
		return "No tracks found."
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tARTIST\tTITLE\tALBUM\tYEAR\tLENGTH")
	for _, t := range tracks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			t.ID, t.Artist, t.Title, t.Album, t.Year, formatLength(int64(t.Length)))
	}
	w.Flush()
	fmt.Fprintf(&b, "\n%d track(s)", len(tracks))
	return b.String()
}

func formatLength(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
