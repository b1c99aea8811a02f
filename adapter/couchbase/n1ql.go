package couchbase

import (
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

// Statement is a N1QL statement with its named parameters.
type Statement struct {
	N1QL   string
	Params map[string]any
}

var comparisons = map[domain.Operator]string{
	domain.OpEquals:            "=",
	domain.OpGreaterThan:       ">",
	domain.OpGreaterEqualsThan: ">=",
	domain.OpLesserThan:        "<",
	domain.OpLesserEqualsThan:  "<=",
	domain.OpLike:              "LIKE",
	domain.OpIn:                "IN",
}

func escape(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Keyspace returns the escaped bucket.scope.collection path.
func Keyspace(bucket, scope, collection string) string {
	return escape(bucket) + "." + escape(scope) + "." + escape(collection)
}

func field(path string) string {
	if path == IDElement {
		return "META(c).id"
	}
	parts := strings.Split(path, ".")
	for n, p := range parts {
		parts[n] = escape(p)
	}
	return "c." + strings.Join(parts, ".")
}

// Where lowers a condition into a N1QL expression, registering operands in
// params.
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
		sub := c.Conditions[0]
		if sub.Operator == domain.OpAnd || sub.Operator == domain.OpOr {
			return "NOT " + where(sub, params)
		}
		return "NOT (" + where(sub, params) + ")"
	case domain.OpBetween:
		bounds := c.Values()
		return fmt.Sprintf("%s BETWEEN %s AND %s", field(c.Name()),
			params.Add(c.Name(), domain.FlattenValue(bounds[0])),
			params.Add(c.Name(), domain.FlattenValue(bounds[1])))
	}
	value := c.Value()
	if c.Operator == domain.OpIn {
		value = c.Values()
	}
	return fmt.Sprintf("%s %s %s", field(c.Name()), comparisons[c.Operator],
		params.Add(c.Name(), domain.FlattenValue(value)))
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

// SelectStatement builds the N1QL of a select on keyspace.
func SelectStatement(keyspace string, query domain.SelectQuery) (Statement, error) {
	params := bind.New(bind.Dollar)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	var b strings.Builder
	b.WriteString("SELECT META(c).id AS " + escape(IDElement) + ", ")
	if len(query.Fields) == 0 {
		b.WriteString("c.*")
	} else {
		cols := make([]string, len(query.Fields))
		for n, f := range query.Fields {
			cols[n] = field(f)
		}
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM " + keyspace + " c" + w)
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
	return Statement{N1QL: b.String(), Params: params.Map()}, nil
}

// DeleteStatement builds the N1QL of a delete on keyspace. Named fields are
// unset instead of removing the documents.
func DeleteStatement(keyspace string, query domain.DeleteQuery) (Statement, error) {
	params := bind.New(bind.Dollar)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	if len(query.Fields) == 0 {
		return Statement{N1QL: "DELETE FROM " + keyspace + " c" + w, Params: params.Map()}, nil
	}
	var unset []string
	for _, f := range query.Fields {
		if f != IDElement {
			unset = append(unset, field(f))
		}
	}
	stmt := "UPDATE " + keyspace + " c UNSET " + strings.Join(unset, ", ") + w
	return Statement{N1QL: stmt, Params: params.Map()}, nil
}

// CountStatement counts the documents of keyspace.
func CountStatement(keyspace string) Statement {
	return Statement{N1QL: "SELECT RAW COUNT(*) FROM " + keyspace + " c", Params: map[string]any{}}
}
