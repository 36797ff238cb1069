package fields

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// Declarations are field kinds and text fields read from a CUE file.
type Declarations struct {
	Kinds map[string]Kind
	Text  []string
}

// DeclError reports an invalid declaration file.
type DeclError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DeclError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE reads field declarations from the CUE file at path.
//
//	fields: {
//		length: "duration"
//		added:  "date"
//	}
//	text: ["title", "artist"]
func LoadCUE(path string) (*Declarations, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	return ParseCUE(src, path)
}

// ParseCUE parses field declarations from CUE source, validating them
// against the embedded #Catalog schema.
func ParseCUE(src []byte, filename string) (*Declarations, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Catalog")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &Declarations{Kinds: map[string]Kind{}}

	iter, err := v.LookupPath(cue.ParsePath("fields")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		k, err := ParseKind(s)
		if err != nil {
			return nil, &DeclError{Field: iter.Selector().Unquoted(), Message: err.Error(), Pos: iter.Value().Pos()}
		}
		decl.Kinds[iter.Selector().Unquoted()] = k
	}

	textVal := v.LookupPath(cue.ParsePath("text"))
	if textVal.Exists() {
		list, err := textVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			decl.Text = append(decl.Text, s)
		}
	}

	return decl, nil
}

func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &DeclError{Field: "cue", Message: err.Error()}
	}
	first := errs[0]
	de := &DeclError{Field: "cue", Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		de.Pos = positions[0]
	}
	return de
}
