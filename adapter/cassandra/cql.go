package cassandra

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

const (
	insertTemplate = `INSERT INTO {{.Table}} ({{join .Columns ", "}})` +
		` VALUES ({{marks .Columns}}){{if gt .TTL 0}} USING TTL {{.TTL}}{{end}}`

	selectTemplate = `SELECT {{if .Columns}}{{join .Columns ", "}}{{else}}*{{end}} FROM {{.Table}}` +
		`{{if .Where}} WHERE {{.Where}}{{end}}` +
		`{{if .Order}} ORDER BY {{join .Order ", "}}{{end}}` +
		`{{if gt .Limit 0}} LIMIT {{.Limit}}{{end}}` +
		`{{if .AllowFiltering}} ALLOW FILTERING{{end}}`

	deleteTemplate = `DELETE {{if .Columns}}{{join .Columns ", "}} {{end}}FROM {{.Table}}` +
		`{{if .Where}} WHERE {{.Where}}{{end}}`
)

var (
	funcMap = template.FuncMap{
		"join":  strings.Join,
		"marks": marks,
	}

	insertTmpl = template.Must(template.New("insert").Funcs(funcMap).Parse(insertTemplate))
	selectTmpl = template.Must(template.New("select").Funcs(funcMap).Parse(selectTemplate))
	deleteTmpl = template.Must(template.New("delete").Funcs(funcMap).Parse(deleteTemplate))
)

// Statement is a CQL statement with its bound values.
type Statement struct {
	CQL    string
	Values []any
}

type stmtData struct {
	Table          string
	Columns        []string
	Where          string
	Order          []string
	Limit          int64
	TTL            int64
	AllowFiltering bool
}

func marks(columns []string) string {
	return strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
}

// quote quotes a CQL identifier.
func quote(name string) string {
	return strconv.Quote(name)
}

func table(keyspace, name string) string {
	if keyspace == "" {
		return quote(name)
	}
	return quote(keyspace) + "." + quote(name)
}

func execute(tmpl *template.Template, data stmtData) (string, error) {
	var bb bytes.Buffer
	err := tmpl.Execute(&bb, data)
	return bb.String(), err
}

// InsertStatement builds an INSERT for entity. A positive ttl, in seconds,
// adds a USING TTL clause.
func InsertStatement(keyspace string, entity *domain.Entity, ttl int64) (Statement, error) {
	elements := entity.Elements()
	data := stmtData{Table: table(keyspace, entity.Name()), TTL: ttl}
	values := make([]any, len(elements))
	for n, el := range elements {
		data.Columns = append(data.Columns, quote(el.Name))
		values[n] = toCQL(el.Value)
	}
	cql, err := execute(insertTmpl, data)
	return Statement{CQL: cql, Values: values}, err
}

// SelectStatement builds a SELECT for query. Cassandra has no OFFSET, so the
// limit is widened by the skip and the caller drops the skipped rows.
func SelectStatement(keyspace string, query domain.SelectQuery, allowFiltering bool) (Statement, error) {
	where, values, err := Where(query.Condition)
	if err != nil {
		return Statement{}, err
	}
	data := stmtData{
		Table:          table(keyspace, query.Name),
		Where:          where,
		AllowFiltering: allowFiltering && where != "",
	}
	for _, f := range query.Fields {
		data.Columns = append(data.Columns, quote(f))
	}
	for _, s := range query.Sorts {
		data.Order = append(data.Order, quote(s.Name)+" "+s.Order.String())
	}
	if query.Limit > 0 {
		data.Limit = query.Limit + query.Skip
	}
	cql, err := execute(selectTmpl, data)
	return Statement{CQL: cql, Values: values}, err
}

// DeleteStatement builds a DELETE for query. Named fields delete only those
// columns, never key, and need a condition on the primary key. The statement
// is empty when only key is named. A query without condition must be run as
// TRUNCATE, see [TruncateStatement].
func DeleteStatement(keyspace, key string, query domain.DeleteQuery) (Statement, error) {
	where, values, err := Where(query.Condition)
	if err != nil {
		return Statement{}, err
	}
	data := stmtData{Table: table(keyspace, query.Name), Where: where}
	for _, f := range query.Fields {
		if f != key {
			data.Columns = append(data.Columns, quote(f))
		}
	}
	if len(query.Fields) > 0 {
		if len(data.Columns) == 0 {
			return Statement{}, nil
		}
		if where == "" {
			return Statement{}, fmt.Errorf("%w: deleting columns requires a condition", domain.ErrUnsupportedOperation)
		}
	}
	cql, err := execute(deleteTmpl, data)
	return Statement{CQL: cql, Values: values}, err
}

// TruncateStatement removes every row of a table.
func TruncateStatement(keyspace, name string) Statement {
	return Statement{CQL: "TRUNCATE " + table(keyspace, name)}
}

// CountStatement counts the rows of a table.
func CountStatement(keyspace, name string) Statement {
	return Statement{CQL: "SELECT COUNT(*) FROM " + table(keyspace, name)}
}

// Where lowers a condition into a CQL WHERE clause. CQL only combines
// restrictions with AND, so OR and NOT return
// [domain.ErrUnsupportedCondition].
func Where(c *domain.Condition) (string, []any, error) {
	if c == nil {
		return "", nil, nil
	}
	if err := c.Validate(); err != nil {
		return "", nil, err
	}
	var values []any
	parts, err := where(*c, &values)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(parts, " AND "), values, nil
}

func where(c domain.Condition, values *[]any) ([]string, error) {
	name := quote(c.Name())
	switch c.Operator {
	case domain.OpAnd:
		var parts []string
		for _, sub := range c.Conditions {
			p, err := where(sub, values)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p...)
		}
		return parts, nil
	case domain.OpOr, domain.OpNot:
		return nil, domain.ErrUnsupportedCondition{Driver: Driver, Operator: c.Operator}
	case domain.OpBetween:
		bounds := c.Values()
		*values = append(*values, toCQL(bounds[0]), toCQL(bounds[1]))
		return []string{name + " >= ?", name + " <= ?"}, nil
	case domain.OpIn:
		*values = append(*values, toCQL(c.Values()))
		return []string{name + " IN ?"}, nil
	}
	op, ok := operators[c.Operator]
	if !ok {
		return nil, domain.ErrUnsupportedCondition{Driver: Driver, Operator: c.Operator}
	}
	*values = append(*values, toCQL(c.Value()))
	return []string{fmt.Sprintf("%s %s ?", name, op)}, nil
}

var operators = map[domain.Operator]string{
	domain.OpEquals:            "=",
	domain.OpGreaterThan:       ">",
	domain.OpGreaterEqualsThan: ">=",
	domain.OpLesserThan:        "<",
	domain.OpLesserEqualsThan:  "<=",
	domain.OpLike:              "LIKE",
}
