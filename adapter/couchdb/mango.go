package couchdb

import (
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/likepattern"
)

// M is a JSON object of a Mango query.
type M = map[string]any

// defaultLimit replaces the server default of 25 results when a select has
// no limit.
const defaultLimit = 1<<31 - 1

var operators = map[domain.Operator]string{
	domain.OpEquals:            "$eq",
	domain.OpGreaterThan:       "$gt",
	domain.OpGreaterEqualsThan: "$gte",
	domain.OpLesserThan:        "$lt",
	domain.OpLesserEqualsThan:  "$lte",
	domain.OpAnd:               "$and",
	domain.OpOr:                "$or",
}

// Selector returns the Mango selector of entities named name matching c.
// The entity discriminator is always the first clause.
func Selector(name string, c *domain.Condition) (M, error) {
	clauses := []any{M{EntityElement: M{"$eq": name}}}
	if c != nil {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		clauses = append(clauses, selector(*c))
	}
	return M{"$and": clauses}, nil
}

func selector(c domain.Condition) M {
	switch c.Operator {
	case domain.OpAnd, domain.OpOr:
		children := make([]any, len(c.Conditions))
		for n, sub := range c.Conditions {
			children[n] = selector(sub)
		}
		return M{operators[c.Operator]: children}
	case domain.OpNot:
		return M{"$not": selector(c.Conditions[0])}
	case domain.OpLike:
		return M{c.Name(): M{"$regex": likepattern.Regex(c.Value().(string))}}
	case domain.OpIn:
		return M{c.Name(): M{"$in": domain.FlattenValue(c.Values())}}
	case domain.OpBetween:
		bounds := c.Values()
		return M{c.Name(): M{
			"$gte": domain.FlattenValue(bounds[0]),
			"$lte": domain.FlattenValue(bounds[1]),
		}}
	}
	return M{c.Name(): M{operators[c.Operator]: domain.FlattenValue(c.Value())}}
}

// FindQuery builds the body of a _find request for query.
func FindQuery(query domain.SelectQuery) (M, error) {
	sel, err := Selector(query.Name, query.Condition)
	if err != nil {
		return nil, err
	}
	body := M{"selector": sel}
	if len(query.Fields) > 0 {
		body["fields"] = append([]string{IDElement, RevElement}, query.Fields...)
	}
	if len(query.Sorts) > 0 {
		sorts := make([]any, len(query.Sorts))
		for n, s := range query.Sorts {
			order := "asc"
			if s.Order == domain.Desc {
				order = "desc"
			}
			sorts[n] = M{s.Name: order}
		}
		body["sort"] = sorts
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	body["limit"] = limit
	if query.Skip > 0 {
		body["skip"] = query.Skip
	}
	return body, nil
}
