package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

// Columns of every entity table.
const (
	IDColumn  = "id"
	DocColumn = "doc"
)

// Statement is a SQL command with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

var comparisons = map[domain.Operator]string{
	domain.OpEquals:            "=",
	domain.OpGreaterThan:       ">",
	domain.OpGreaterEqualsThan: ">=",
	domain.OpLesserThan:        "<",
	domain.OpLesserEqualsThan:  "<=",
}

// Table returns the quoted table name of an entity.
func Table(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// CreateTableStatement creates the table of an entity when missing.
func CreateTableStatement(name string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s text PRIMARY KEY, %s jsonb NOT NULL)",
		Table(name), IDColumn, DocColumn)
}

// pathLiteral renders a dotted field as a text[] literal usable with the #>
// family of operators.
func pathLiteral(path string) string {
	parts := strings.Split(path, ".")
	for n, p := range parts {
		p = strings.ReplaceAll(p, `\`, `\\`)
		p = strings.ReplaceAll(p, `"`, `\"`)
		parts[n] = `"` + p + `"`
	}
	return "'{" + strings.ReplaceAll(strings.Join(parts, ","), "'", "''") + "}'"
}

// jsonField returns the jsonb value at path. Comparing jsonb values orders
// numbers numerically and strings lexically.
func jsonField(path string) string {
	if path == IDElement {
		return IDColumn
	}
	return DocColumn + " #> " + pathLiteral(path)
}

// textField returns the value at path as text.
func textField(path string) string {
	if path == IDElement {
		return IDColumn
	}
	return DocColumn + " #>> " + pathLiteral(path)
}

// operand binds v for a comparison against the field at path. Document
// fields are compared as jsonb and the id column as text.
func operand(path string, v any, params *bind.Params) (string, error) {
	v = domain.FlattenValue(v)
	if path == IDElement {
		return params.Add(path, fmt.Sprint(v)), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return params.Add(path, string(raw)) + "::jsonb", nil
}

// Where lowers a condition into a SQL expression over the document column.
func Where(c domain.Condition, params *bind.Params) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return where(c, params)
}

func where(c domain.Condition, params *bind.Params) (string, error) {
	switch c.Operator {
	case domain.OpAnd, domain.OpOr:
		parts := make([]string, len(c.Conditions))
		for n, sub := range c.Conditions {
			p, err := where(sub, params)
			if err != nil {
				return "", err
			}
			parts[n] = p
		}
		return "(" + strings.Join(parts, " "+c.Operator.String()+" ") + ")", nil
	case domain.OpNot:
		p, err := where(c.Conditions[0], params)
		if err != nil {
			return "", err
		}
		return "NOT (" + p + ")", nil
	case domain.OpLike:
		return fmt.Sprintf("%s LIKE %s", textField(c.Name()), params.Add(c.Name(), c.Value())), nil
	case domain.OpIn:
		values := c.Values()
		if len(values) == 0 {
			return "false", nil
		}
		ops := make([]string, len(values))
		for n, v := range values {
			op, err := operand(c.Name(), v, params)
			if err != nil {
				return "", err
			}
			ops[n] = op
		}
		return fmt.Sprintf("%s IN (%s)", jsonField(c.Name()), strings.Join(ops, ", ")), nil
	case domain.OpBetween:
		bounds := c.Values()
		from, err := operand(c.Name(), bounds[0], params)
		if err != nil {
			return "", err
		}
		to, err := operand(c.Name(), bounds[1], params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", jsonField(c.Name()), from, to), nil
	}
	op, err := operand(c.Name(), c.Value(), params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s", jsonField(c.Name()), comparisons[c.Operator], op), nil
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

// SelectStatement builds the SQL of a select. Projections are applied to the
// decoded rows.
func SelectStatement(query domain.SelectQuery) (Statement, error) {
	params := bind.New(bind.Numbered)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, %s FROM %s%s", IDColumn, DocColumn, Table(query.Name), w)
	if len(query.Sorts) > 0 {
		sorts := make([]string, len(query.Sorts))
		for n, s := range query.Sorts {
			sorts[n] = jsonField(s.Name) + " " + s.Order.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(sorts, ", "))
	}
	if query.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", query.Limit)
	}
	if query.Skip > 0 {
		fmt.Fprintf(&b, " OFFSET %d", query.Skip)
	}
	return Statement{SQL: b.String(), Args: params.Values()}, nil
}

// DeleteStatement builds the SQL of a delete. Named fields are removed from
// the document with the #- operator, and the id column is never touched.
// The statement is empty when only the id is named.
func DeleteStatement(query domain.DeleteQuery) (Statement, error) {
	params := bind.New(bind.Numbered)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	if len(query.Fields) == 0 {
		return Statement{SQL: "DELETE FROM " + Table(query.Name) + w, Args: params.Values()}, nil
	}
	doc := DocColumn
	for _, f := range query.Fields {
		if f != IDElement {
			doc += " #- " + pathLiteral(f)
		}
	}
	if doc == DocColumn {
		return Statement{}, nil
	}
	return Statement{
		SQL:  fmt.Sprintf("UPDATE %s SET %s = %s%s", Table(query.Name), DocColumn, doc, w),
		Args: params.Values(),
	}, nil
}

// InsertStatement stores a document under id.
func InsertStatement(name string) string {
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2)", Table(name), IDColumn, DocColumn)
}

// UpdateStatement replaces the document stored under id.
func UpdateStatement(name string) string {
	return fmt.Sprintf("UPDATE %s SET %s = $2 WHERE %s = $1", Table(name), DocColumn, IDColumn)
}

// CountStatement counts the rows of an entity table.
func CountStatement(name string) string {
	return "SELECT count(*) FROM " + Table(name)
}
