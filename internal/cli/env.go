package cli

import (
	"context"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/dual/internal/config"
	"github.com/roach88/dual/internal/engine"
	"github.com/roach88/dual/internal/fields"
	"github.com/roach88/dual/internal/store"
)

// session is an open library for the duration of one command.
type session struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
}

func (s *session) Close() error {
	return s.store.Close()
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openSession loads configuration, opens the store and builds an engine.
// Failures are reported through f and returned as exit errors.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, f *OutputFormatter) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	logger := cfg.Log.NewLogger(f.GetErrWriter(), opts.Verbose)

	declared := fields.DefaultDeclarations()
	textFields := cfg.Search.TextFields
	if cfg.Catalog.Schema != "" {
		decl, err := fields.LoadCUE(cfg.Catalog.Schema)
		if err != nil {
			_ = f.Error(ErrCodeCatalog, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "load field declarations", err)
		}
		maps.Copy(declared, decl.Kinds)
		if len(decl.Text) > 0 {
			textFields = decl.Text
		}
	}

	st, err := store.Open(ctx, store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
	if err != nil {
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	logger.Debug("database opened", "driver", cfg.Database.Driver, "dsn", cfg.Database.DSN)

	eng, err := engine.New(ctx, st,
		engine.WithLogger(logger),
		engine.WithDeclarations(declared),
		engine.WithTextFields(textFields),
		engine.WithDefaultLimit(cfg.Search.DefaultLimit),
	)
	if err != nil {
		st.Close()
		_ = f.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "load field catalog", err)
	}

	return &session{cfg: cfg, store: st, engine: eng}, nil
}

// queryArg joins positional arguments so unquoted multi-clause queries
// work: dual search artist:radiohead @5
func queryArg(args []string) string {
	return strings.Join(args, " ")
}
