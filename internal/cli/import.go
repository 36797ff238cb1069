package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/store"
)

// ImportResult is the JSON form of an import.
type ImportResult struct {
	File     string `json:"file"`
	Imported int    `json:"imported"`
	Total    int64  `json:"total"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <tracks.yaml>",
		Short: "Import tracks from a YAML file",
		Long: `Insert the tracks listed in a YAML file into the library in one
transaction. Each entry needs a unique path; dates may be written as
2006-01-02 and lengths as m:ss.

  - path: /music/radiohead/ok-computer/02.flac
    title: Paranoid Android
    artist: Radiohead
    year: 1997
    length: "6:23"
    added: 2021-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	file, err := os.Open(path)
	if err != nil {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "open tracks file", err)
	}
	defer file.Close()

	tracks, err := store.LoadTracks(file)
	if err != nil {
		_ = f.Error(ErrCodeImportFailed, err.Error(), map[string]string{"file": path})
		return WrapExitError(ExitCommandError, "decode tracks", err)
	}

	s, err := openSession(cmd.Context(), opts, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.InsertTracks(cmd.Context(), tracks); err != nil {
		_ = f.Error(ErrCodeImportFailed, err.Error(), map[string]string{"file": path})
		return WrapExitError(ExitCommandError, "insert tracks", err)
	}
	total, err := s.store.Count(cmd.Context())
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "count tracks", err)
	}
	f.VerboseLog("imported %d track(s) from %s", len(tracks), path)

	result := ImportResult{File: path, Imported: len(tracks), Total: total}
	if f.Format == "json" {
		return f.Success(result)
	}
	return f.Success(fmt.Sprintf("✓ Imported %d track(s), library now holds %d", result.Imported, result.Total))
}
