package orientdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

// Statement is an OSQL command with its named parameters.
type Statement struct {
	Command    string
	Parameters map[string]any
}

var ridPattern = regexp.MustCompile(`^#-?\d+:-?\d+$`)

// ValidRID reports whether rid is a record id such as #12:3.
func ValidRID(rid string) bool {
	return ridPattern.MatchString(rid)
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
	parts := strings.Split(name, ".")
	for n, p := range parts {
		if strings.HasPrefix(p, "@") {
			continue
		}
		parts[n] = "`" + strings.ReplaceAll(p, "`", "\\`") + "`"
	}
	return strings.Join(parts, ".")
}

// Where lowers a condition into an OSQL expression, registering operands in
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
		return fmt.Sprintf("%s BETWEEN %s AND %s", escape(c.Name()),
			params.Add(c.Name(), domain.FlattenValue(bounds[0])),
			params.Add(c.Name(), domain.FlattenValue(bounds[1])))
	}
	value := c.Value()
	if c.Operator == domain.OpIn {
		value = c.Values()
	}
	return fmt.Sprintf("%s %s %s", escape(c.Name()), comparisons[c.Operator],
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

// SelectStatement builds the OSQL of a select. Projections always return
// @rid.
func SelectStatement(query domain.SelectQuery) (Statement, error) {
	params := bind.New(bind.Colon)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(query.Fields) > 0 {
		cols := []string{IDElement}
		for _, f := range query.Fields {
			cols = append(cols, escape(f))
		}
		b.WriteString(strings.Join(cols, ", ") + " ")
	}
	b.WriteString("FROM " + escape(query.Name) + w)
	if len(query.Sorts) > 0 {
		sorts := make([]string, len(query.Sorts))
		for n, s := range query.Sorts {
			sorts[n] = escape(s.Name) + " " + s.Order.String()
		}
		b.WriteString(" ORDER BY " + strings.Join(sorts, ", "))
	}
	if query.Skip > 0 {
		fmt.Fprintf(&b, " SKIP %d", query.Skip)
	}
	if query.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", query.Limit)
	}
	return Statement{Command: b.String(), Parameters: params.Map()}, nil
}

// DeleteStatement builds the OSQL of a delete. Named fields are removed with
// an UPDATE instead of deleting the records.
func DeleteStatement(query domain.DeleteQuery) (Statement, error) {
	params := bind.New(bind.Colon)
	w, err := whereClause(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	if len(query.Fields) == 0 {
		return Statement{Command: "DELETE FROM " + escape(query.Name) + w, Parameters: params.Map()}, nil
	}
	var cols []string
	for _, f := range query.Fields {
		if f != IDElement {
			cols = append(cols, escape(f))
		}
	}
	cmd := "UPDATE " + escape(query.Name) + " REMOVE " + strings.Join(cols, ", ") + w
	return Statement{Command: cmd, Parameters: params.Map()}, nil
}

// InsertStatement builds an INSERT of content, a JSON document.
func InsertStatement(class string, content []byte) Statement {
	return Statement{
		Command:    "INSERT INTO " + escape(class) + " CONTENT " + string(content),
		Parameters: map[string]any{},
	}
}

// UpdateStatement replaces the content of the record rid.
func UpdateStatement(class, rid string, content []byte) Statement {
	return Statement{
		Command:    "UPDATE " + escape(class) + " CONTENT " + string(content) + " WHERE @rid = :rid",
		Parameters: map[string]any{"rid": rid},
	}
}

// CountStatement counts the records of class.
func CountStatement(class string) Statement {
	return Statement{
		Command:    "SELECT count(*) AS count FROM " + escape(class),
		Parameters: map[string]any{},
	}
}
