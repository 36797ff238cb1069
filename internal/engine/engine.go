package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roach88/dual/internal/compiler"
	"github.com/roach88/dual/internal/fields"
	"github.com/roach88/dual/internal/ir"
	"github.com/roach88/dual/internal/query"
	"github.com/roach88/dual/internal/queryir"
	"github.com/roach88/dual/internal/querysql"
	"github.com/roach88/dual/internal/store"
)

// DefaultLimit caps searches that carry no "@N" clause.
const DefaultLimit = 100

// Store is the storage the engine searches. *store.Store implements it.
type Store interface {
	Driver() string
	Columns(ctx context.Context) ([]fields.Column, error)
	Search(ctx context.Context, sql string, params []any) ([]store.Track, error)
}

// Engine parses, compiles and runs track queries against a store.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	store   Store
	dialect querysql.Dialect
	catalog atomic.Pointer[fields.Catalog]

	tokens       TokenGenerator
	logger       *slog.Logger
	declared     map[string]fields.Kind
	textFields   []string
	defaultLimit int
	loc          *time.Location
}

// Option configures an Engine.
type Option func(*Engine)

// WithTokenGenerator sets the query token source. Defaults to
// UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithDeclarations overrides storage-derived field kinds. Defaults to
// fields.DefaultDeclarations().
func WithDeclarations(kinds map[string]fields.Kind) Option {
	return func(e *Engine) {
		e.declared = kinds
	}
}

// WithTextFields sets the fields bare terms are matched against.
// Defaults to fields.DefaultTextFields.
func WithTextFields(names []string) Option {
	return func(e *Engine) {
		e.textFields = names
	}
}

// WithDefaultLimit sets the row cap for queries without "@N". Zero
// means unlimited.
func WithDefaultLimit(n int) Option {
	return func(e *Engine) {
		e.defaultLimit = n
	}
}

// WithLocation sets the location used for absolute dates. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.loc = loc
	}
}

// New creates an Engine over s and loads its field catalog.
func New(ctx context.Context, s Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:        s,
		tokens:       UUIDv7Generator{},
		logger:       slog.Default(),
		declared:     fields.DefaultDeclarations(),
		textFields:   fields.DefaultTextFields,
		defaultLimit: DefaultLimit,
		loc:          time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}

	dialect, err := querysql.DialectFor(s.Driver())
	if err != nil {
		return nil, err
	}
	e.dialect = dialect

	if err := e.Refresh(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Refresh rebuilds the field catalog from the store's columns.
func (e *Engine) Refresh(ctx context.Context) error {
	cols, err := e.store.Columns(ctx)
	if err != nil {
		return fmt.Errorf("discover fields: %w", err)
	}
	cat := fields.NewCatalog(cols, e.declared, e.textFields)
	e.catalog.Store(cat)

	e.logger.Debug("field catalog loaded",
		"fields", len(cat.Names()),
		"text_fields", cat.TextFields(),
	)
	return nil
}

// Catalog returns the current field catalog snapshot.
func (e *Engine) Catalog() *fields.Catalog {
	return e.catalog.Load()
}

// Plan is a query compiled as far as SQL, without touching the store.
type Plan struct {
	Raw         string
	QueryID     string
	Query       *query.Query
	Program     *queryir.Program
	Fingerprint string
	Validation  queryir.ValidationResult
	SQL         string
	Params      []any
}

// Plan parses and compiles raw against the current catalog.
//
// Syntax errors are returned as *query.SyntaxError and kind mismatches as
// *compiler.SemanticError, wrapped so errors.As finds them.
func (e *Engine) Plan(raw string) (*Plan, error) {
	cat := e.catalog.Load()

	q, err := query.New(cat, query.WithLocation(e.loc)).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	prog, err := compiler.Compile(q, cat, compiler.WithLocation(e.loc))
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	fp, err := queryir.Fingerprint(prog)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	sc := querysql.SQLCompiler{
		Dialect:      e.dialect,
		Table:        store.Table,
		Columns:      store.TrackColumns,
		DefaultLimit: e.defaultLimit,
	}
	sql, params, err := sc.Compile(prog)
	if err != nil {
		return nil, fmt.Errorf("lower to sql: %w", err)
	}

	return &Plan{
		Raw:         raw,
		QueryID:     ir.QueryID(raw),
		Query:       q,
		Program:     prog,
		Fingerprint: fp,
		Validation:  queryir.Validate(prog),
		SQL:         sql,
		Params:      params,
	}, nil
}

// Result is the outcome of one search.
type Result struct {
	Token  string
	Plan   *Plan
	Tracks []store.Track
}

// Search plans raw and runs it against the store.
func (e *Engine) Search(ctx context.Context, raw string) (*Result, error) {
	token := e.tokens.Generate()
	log := e.logger.With("token", token)

	log.Debug("search started", "query", raw)

	plan, err := e.Plan(raw)
	if err != nil {
		log.Info("query rejected", "query", raw, "error", err)
		return nil, err
	}
	if !plan.Validation.Deterministic {
		log.Debug("non-deterministic query", "warnings", plan.Validation.Warnings)
	}

	tracks, err := e.store.Search(ctx, plan.SQL, plan.Params)
	if err != nil {
		log.Error("search failed",
			"fingerprint", plan.Fingerprint,
			"error", err,
		)
		return nil, fmt.Errorf("run query %s: %w", plan.QueryID, err)
	}

	log.Info("search completed",
		"fingerprint", plan.Fingerprint,
		"rows", len(tracks),
	)
	return &Result{Token: token, Plan: plan, Tracks: tracks}, nil
}
