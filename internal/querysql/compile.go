// Package querysql lowers a queryir.Program to parameterized SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/dual/internal/ir"
	"github.com/roach88/dual/internal/queryir"
)

// SQLCompiler lowers programs against one table.
//
// All values are bound as parameters, never interpolated. Every
// statement ends its ORDER BY with "id ASC" so ties resolve the same way
// on every run.
type SQLCompiler struct {
	Dialect Dialect
	Table   string
	// Columns is the SELECT list. Empty selects every column.
	Columns []string
	// DefaultLimit applies when the program has no limit. Zero means
	// unlimited.
	DefaultLimit int
}

// Compile converts p to a SELECT statement and its parameters.
func (c *SQLCompiler) Compile(p *queryir.Program) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil program")
	}
	if err := checkIdent(c.Table); err != nil {
		return "", nil, fmt.Errorf("table: %w", err)
	}

	b := &builder{style: c.Dialect.Placeholder}
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if len(c.Columns) == 0 {
		sb.WriteString("*")
	} else {
		for _, col := range c.Columns {
			if err := checkIdent(col); err != nil {
				return "", nil, fmt.Errorf("column: %w", err)
			}
		}
		sb.WriteString(strings.Join(c.Columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(c.Table)

	if filter := queryir.Flatten(p.Filter); filter != nil {
		where, err := c.predicate(b, filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}

	order, err := c.orderBy(p.Order)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)

	limit := c.DefaultLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	if p.Limit != nil || limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.arg(int64(limit)))
	}

	return sb.String(), b.args, nil
}

func (c *SQLCompiler) orderBy(orders []queryir.Order) (string, error) {
	keys := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		switch o := o.(type) {
		case queryir.ByField:
			if err := checkIdent(o.Field); err != nil {
				return "", fmt.Errorf("order: %w", err)
			}
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			keys = append(keys, o.Field+" "+dir)
		case queryir.Random:
			keys = append(keys, c.Dialect.Random)
		default:
			return "", fmt.Errorf("unsupported order type: %T", o)
		}
	}
	keys = append(keys, "id ASC")
	return strings.Join(keys, ", "), nil
}

func (c *SQLCompiler) predicate(b *builder, p queryir.Predicate) (string, error) {
	switch pred := p.(type) {
	case queryir.Contains:
		if err := checkIdent(pred.Field); err != nil {
			return "", err
		}
		// COALESCE so that a negated substring match includes missing values.
		return fmt.Sprintf(`COALESCE(%s, '') %s %s ESCAPE '\'`,
			pred.Field, c.Dialect.Like, b.arg("%"+escapeLike(pred.Value)+"%")), nil

	case queryir.Compare:
		if err := checkIdent(pred.Field); err != nil {
			return "", err
		}
		v, err := c.operand(b, pred.Value)
		if err != nil {
			return "", err
		}
		switch pred.Op {
		case queryir.GTE, queryir.LTE:
		default:
			return "", fmt.Errorf("unsupported operator %q", pred.Op)
		}
		return fmt.Sprintf("%s %s %s", pred.Field, pred.Op, v), nil

	case queryir.Between:
		if err := checkIdent(pred.Field); err != nil {
			return "", err
		}
		lo, err := c.operand(b, pred.Min)
		if err != nil {
			return "", err
		}
		hi, err := c.operand(b, pred.Max)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", pred.Field, lo, hi), nil

	case queryir.Not:
		inner, err := c.predicate(b, pred.Inner)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil

	case queryir.And:
		return c.junction(b, pred.Predicates, " AND ", "1 = 1")

	case queryir.Or:
		return c.junction(b, pred.Predicates, " OR ", "1 = 0")

	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) junction(b *builder, preds []queryir.Predicate, sep, empty string) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		s, err := c.predicate(b, p)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (c *SQLCompiler) operand(b *builder, o queryir.Operand) (string, error) {
	switch op := o.(type) {
	case queryir.Literal:
		v, err := irValueToParam(op.Value)
		if err != nil {
			return "", err
		}
		return b.arg(v), nil
	case queryir.NowOffset:
		return fmt.Sprintf("(%s + %s)", c.Dialect.Now, b.arg(op.Seconds)), nil
	default:
		return "", fmt.Errorf("unsupported operand type: %T", o)
	}
}

// escapeLike escapes the LIKE metacharacters % _ and \ for use with
// ESCAPE '\'.
func escapeLike(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// checkIdent accepts the identifiers the field grammar can produce.
func checkIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRNull, nil:
		return nil, fmt.Errorf("null cannot be compared")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
