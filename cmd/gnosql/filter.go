package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

// ErrBadExpression is returned for --where values without an operator.
type ErrBadExpression struct {
	Expr string
}

// Error implements [error].
func (e ErrBadExpression) Error() string {
	return fmt.Sprintf("invalid expression %q: expected field<op>value with op one of = != > >= < <= ~", e.Expr)
}

// two character operators come first so >= is not read as >.
var exprOperators = []string{">=", "<=", "!=", "=", ">", "<", "~"}

// parseValue reads JSON literals and falls back to the raw string. Integral
// numbers become int64.
func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return f
	}
	return v
}

// splitExpr finds the first operator of expr, after a non-empty field name.
func splitExpr(expr string) (name, op, raw string, ok bool) {
	for i := 1; i < len(expr); i++ {
		for _, o := range exprOperators {
			if strings.HasPrefix(expr[i:], o) {
				return strings.TrimSpace(expr[:i]), o, strings.TrimSpace(expr[i+len(o):]), true
			}
		}
	}
	return "", "", "", false
}

// parseExpr parses field<op>value into a condition. ~ is LIKE.
func parseExpr(expr string) (domain.Condition, error) {
	name, op, raw, ok := splitExpr(expr)
	if !ok || name == "" {
		return domain.Condition{}, ErrBadExpression{Expr: expr}
	}
	switch op {
	case "!=":
		return domain.Not(domain.Eq(name, parseValue(raw))), nil
	case ">":
		return domain.Gt(name, parseValue(raw)), nil
	case ">=":
		return domain.Gte(name, parseValue(raw)), nil
	case "<":
		return domain.Lt(name, parseValue(raw)), nil
	case "<=":
		return domain.Lte(name, parseValue(raw)), nil
	case "~":
		return domain.Like(name, raw), nil
	}
	return domain.Eq(name, parseValue(raw)), nil
}

// parseWhere joins every expression with AND. It returns nil for no
// expressions.
func parseWhere(exprs []string) (*domain.Condition, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	conditions := make([]domain.Condition, len(exprs))
	for n, expr := range exprs {
		c, err := parseExpr(expr)
		if err != nil {
			return nil, err
		}
		conditions[n] = c
	}
	if len(conditions) == 1 {
		return &conditions[0], nil
	}
	c := domain.And(conditions...)
	return &c, nil
}

// parseSort reads field for ascending order and -field for descending.
func parseSort(fields []string) []domain.Sort {
	sorts := make([]domain.Sort, len(fields))
	for n, f := range fields {
		if name, ok := strings.CutPrefix(f, "-"); ok {
			sorts[n] = domain.SortDesc(name)
			continue
		}
		sorts[n] = domain.SortAsc(f)
	}
	return sorts
}
