package oraclenosql

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/likepattern"
)

// Statement is a query with its external variables, keyed with the $
// prefix.
type Statement struct {
	SQL  string
	Vars map[string]any
}

var comparisons = map[domain.Operator]string{
	domain.OpEquals:            "=",
	domain.OpGreaterThan:       ">",
	domain.OpGreaterEqualsThan: ">=",
	domain.OpLesserThan:        "<",
	domain.OpLesserEqualsThan:  "<=",
}

// VarType returns the declared type of an external variable holding v.
func VarType(v any) string {
	switch t := v.(type) {
	case int8, int16, int32, uint8, uint16:
		return "INTEGER"
	case int:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return "LONG"
		}
		return "INTEGER"
	case int64, uint32:
		return "LONG"
	case uint:
		if uint64(t) > math.MaxInt64 {
			return "NUMBER"
		}
		return "LONG"
	case uint64:
		if t > math.MaxInt64 {
			return "NUMBER"
		}
		return "LONG"
	case float32, float64:
		return "DOUBLE"
	case string:
		return "STRING"
	case bool:
		return "BOOLEAN"
	case time.Time:
		return "TIMESTAMP"
	case []byte:
		return "BINARY"
	case map[string]any, []any:
		return "JSON"
	}
	return "ANY"
}

func field(path string) string {
	return "t." + path
}

func table(name string) string {
	return name + " t"
}

// Where lowers a condition into an expression of the query language.
// LIKE patterns are converted to regex_like.
func Where(c domain.Condition, params *bind.Params) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return where(c, params), nil
}

func where(c domain.Condition, params *bind.Params) string {
	switch c.Operator {
	case domain.OpAnd, domain.OpOr:
		parts := make([]string, len(c.Conditions))
		for n, sub := range c.Conditions {
			parts[n] = where(sub, params)
		}
		return "(" + strings.Join(parts, " "+c.Operator.String()+" ") + ")"
	case domain.OpNot:
		return "NOT (" + where(c.Conditions[0], params) + ")"
	case domain.OpLike:
		re := likepattern.Regex(c.Value().(string))
		re = strings.TrimSuffix(strings.TrimPrefix(re, "^"), "$")
		return fmt.Sprintf("regex_like(%s, %s)", field(c.Name()), params.Add(c.Name(), re))
	case domain.OpIn:
		values := c.Values()
		if len(values) == 0 {
			return "false"
		}
		vars := make([]string, len(values))
		for n, v := range values {
			vars[n] = params.Add(c.Name(), domain.FlattenValue(v))
		}
		return fmt.Sprintf("%s IN (%s)", field(c.Name()), strings.Join(vars, ", "))
	case domain.OpBetween:
		bounds := c.Values()
		f := field(c.Name())
		return fmt.Sprintf("%s >= %s AND %s <= %s",
			f, params.Add(c.Name(), domain.FlattenValue(bounds[0])),
			f, params.Add(c.Name(), domain.FlattenValue(bounds[1])))
	}
	return fmt.Sprintf("%s %s %s", field(c.Name()), comparisons[c.Operator],
		params.Add(c.Name(), domain.FlattenValue(c.Value())))
}

// build prefixes body with the declarations of every variable in params.
func build(body string, params *bind.Params) Statement {
	vars := make(map[string]any, params.Len())
	var b strings.Builder
	if params.Len() > 0 {
		b.WriteString("DECLARE")
		for n, name := range params.Names() {
			v := params.Values()[n]
			fmt.Fprintf(&b, " $%s %s;", name, VarType(v))
			vars["$"+name] = v
		}
		b.WriteByte(' ')
	}
	b.WriteString(body)
	return Statement{SQL: b.String(), Vars: vars}
}

func whereClause(c *domain.Condition, params *bind.Params) (string, error) {
	if c == nil {
		return "", nil
	}
	w, err := Where(*c, params)
	if err != nil {
		return "", err
	}
	return " WHERE " + w, nil
}

// SelectStatement builds the query of a select. Projections always include
// key.
func SelectStatement(query domain.SelectQuery, key string) (Statement, error) {
	params := bind.New(bind.Dollar)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(query.Fields) == 0 {
		b.WriteString("*")
	} else {
		cols := []string{field(key)}
		for _, f := range query.Fields {
			if f != key {
				cols = append(cols, field(f))
			}
		}
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM " + table(query.Name) + w)
	if len(query.Sorts) > 0 {
		sorts := make([]string, len(query.Sorts))
		for n, s := range query.Sorts {
			sorts[n] = field(s.Name) + " " + s.Order.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(sorts, ", "))
	}
	if query.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", query.Limit)
	}
	if query.Skip > 0 {
		fmt.Fprintf(&b, " OFFSET %d", query.Skip)
	}
	return build(b.String(), params), nil
}

// DeleteStatement builds the query of a delete. Named fields other than key
// are removed with an UPDATE, which requires the condition to name the full
// primary key. The statement is empty when only key is named.
func DeleteStatement(query domain.DeleteQuery, key string) (Statement, error) {
	params := bind.New(bind.Dollar)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	if len(query.Fields) == 0 {
		return build("DELETE FROM "+table(query.Name)+w, params), nil
	}
	var removes []string
	for _, f := range query.Fields {
		if f != key {
			removes = append(removes, "REMOVE "+field(f))
		}
	}
	if len(removes) == 0 {
		return Statement{}, nil
	}
	return build("UPDATE "+table(query.Name)+" "+strings.Join(removes, ", ")+w, params), nil
}

// CountStatement counts the rows of a table.
func CountStatement(name string) Statement {
	return Statement{SQL: "SELECT count(*) AS count FROM " + table(name), Vars: map[string]any{}}
}
