package cli

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/fields"
)

// FieldInfo describes one queryable field.
type FieldInfo struct {
	Name string      `json:"name"`
	Kind fields.Kind `json:"kind"`
	Text bool        `json:"text"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List queryable fields and their kinds",
		Long: `List every field of the library with the kind its values are
matched as. Fields marked as text are searched by bare terms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields(rootOpts, cmd)
		},
	}
}

func runFields(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)
	s, err := openSession(cmd.Context(), opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	cat := s.engine.Catalog()
	text := cat.TextFields()
	infos := make([]FieldInfo, 0, len(cat.Names()))
	for _, name := range cat.Names() {
		kind, _ := cat.Kind(name)
		infos = append(infos, FieldInfo{Name: name, Kind: kind, Text: slices.Contains(text, name)})
	}

	if f.Format == "json" {
		return f.Success(infos)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tKIND\tTEXT")
	for _, fi := range infos {
		mark := ""
		if fi.Text {
			mark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", fi.Name, fi.Kind, mark)
	}
	w.Flush()
	return f.Success(strings.TrimSuffix(b.String(), "\n"))
}
