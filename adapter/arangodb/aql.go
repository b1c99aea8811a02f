package arangodb

import (
	"fmt"
	"strings"

	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

// CollectionParam is the bind parameter holding the collection name.
const CollectionParam = "@collection"

// noLimit is used as LIMIT count when a query skips without a limit.
const noLimit = 1<<53 - 1

// Statement is an AQL query with its bind variables.
type Statement struct {
	AQL      string
	BindVars map[string]any
}

var comparisons = map[domain.Operator]string{
	domain.OpEquals:            "==",
	domain.OpGreaterThan:       ">",
	domain.OpGreaterEqualsThan: ">=",
	domain.OpLesserThan:        "<",
	domain.OpLesserEqualsThan:  "<=",
}

// attribute renders a dotted field path as an attribute access on the loop
// variable.
func attribute(field string) string {
	parts := strings.Split(field, ".")
	for n, p := range parts {
		parts[n] = "`" + strings.ReplaceAll(p, "`", "\\`") + "`"
	}
	return "c." + strings.Join(parts, ".")
}

// Filter lowers a condition into an AQL boolean expression, registering
// operands in params.
func Filter(c domain.Condition, params *bind.Params) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return filter(c, params), nil
}

func filter(c domain.Condition, params *bind.Params) string {
	switch c.Operator {
	case domain.OpAnd, domain.OpOr:
		parts := make([]string, len(c.Conditions))
		for n, sub := range c.Conditions {
			parts[n] = filter(sub, params)
		}
		return "(" + strings.Join(parts, " "+c.Operator.String()+" ") + ")"
	case domain.OpNot:
		return "NOT " + group(c.Conditions[0], filter(c.Conditions[0], params))
	case domain.OpLike:
		return fmt.Sprintf("LIKE(%s, %s, false)", attribute(c.Name()), params.Add(c.Name(), c.Value()))
	case domain.OpIn:
		return fmt.Sprintf("%s IN %s", attribute(c.Name()), params.Add(c.Name(), domain.FlattenValue(c.Values())))
	case domain.OpBetween:
		bounds := c.Values()
		attr := attribute(c.Name())
		return fmt.Sprintf("%s >= %s AND %s <= %s",
			attr, params.Add(c.Name(), domain.FlattenValue(bounds[0])),
			attr, params.Add(c.Name(), domain.FlattenValue(bounds[1])))
	}
	return fmt.Sprintf("%s %s %s", attribute(c.Name()), comparisons[c.Operator],
		params.Add(c.Name(), domain.FlattenValue(c.Value())))
}

// group parenthesizes expr unless c already renders as a group.
func group(c domain.Condition, expr string) string {
	if c.Operator == domain.OpAnd || c.Operator == domain.OpOr {
		return expr
	}
	return "(" + expr + ")"
}

func forFilter(condition *domain.Condition, params *bind.Params) (string, error) {
	aql := "FOR c IN @" + CollectionParam
	if condition == nil {
		return aql, nil
	}
	f, err := Filter(*condition, params)
	if err != nil {
		return "", err
	}
	return aql + " FILTER " + f, nil
}

func vars(name string, params *bind.Params) map[string]any {
	m := params.Map()
	m[CollectionParam] = name
	return m
}

// SelectStatement builds the AQL of a select. Projections always keep _key.
func SelectStatement(query domain.SelectQuery) (Statement, error) {
	params := bind.New(bind.At)
	aql, err := forFilter(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	var b strings.Builder
	b.WriteString(aql)
	if len(query.Sorts) > 0 {
		sorts := make([]string, len(query.Sorts))
		for n, s := range query.Sorts {
			sorts[n] = attribute(s.Name) + " " + s.Order.String()
		}
		b.WriteString(" SORT " + strings.Join(sorts, ", "))
	}
	if query.Skip > 0 || query.Limit > 0 {
		limit := query.Limit
		if limit == 0 {
			limit = noLimit
		}
		fmt.Fprintf(&b, " LIMIT %d, %d", query.Skip, limit)
	}
	if len(query.Fields) > 0 {
		keep := append([]string{IDElement}, query.Fields...)
		b.WriteString(" RETURN KEEP(c, " + params.Add("keep", keep) + ")")
	} else {
		b.WriteString(" RETURN c")
	}
	return Statement{AQL: b.String(), BindVars: vars(query.Name, params)}, nil
}

// DeleteStatement builds the AQL of a delete. Named fields are set to null
// and dropped instead of removing the documents.
func DeleteStatement(query domain.DeleteQuery) (Statement, error) {
	params := bind.New(bind.At)
	aql, err := forFilter(query.Condition, params)
	if err != nil {
		return Statement{}, err
	}
	if len(query.Fields) == 0 {
		aql += " REMOVE c IN @" + CollectionParam
		return Statement{AQL: aql, BindVars: vars(query.Name, params)}, nil
	}
	unset := make(map[string]any, len(query.Fields))
	for _, f := range query.Fields {
		if f != IDElement {
			unset[f] = nil
		}
	}
	aql += " UPDATE c WITH " + params.Add("unset", unset) + " IN @" + CollectionParam +
		" OPTIONS { keepNull: false }"
	return Statement{AQL: aql, BindVars: vars(query.Name, params)}, nil
}
