package elasticsearch

import (
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/likepattern"
)

// M is a JSON object of the query DSL.
type M = map[string]any

var ranges = map[domain.Operator]string{
	domain.OpGreaterThan:       "gt",
	domain.OpGreaterEqualsThan: "gte",
	domain.OpLesserThan:        "lt",
	domain.OpLesserEqualsThan:  "lte",
}

// Query lowers a condition tree into a query DSL object. The root is always a
// bool query, and a nil condition matches every document.
func Query(c *domain.Condition) (M, error) {
	if c == nil {
		return M{"match_all": M{}}, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Operator.Logical() {
		return query(*c), nil
	}
	return M{"bool": M{"must": []any{query(*c)}}}, nil
}

func query(c domain.Condition) M {
	switch c.Operator {
	case domain.OpAnd:
		return M{"bool": M{"must": children(c.Conditions)}}
	case domain.OpOr:
		return M{"bool": M{"should": children(c.Conditions), "minimum_should_match": 1}}
	case domain.OpNot:
		return M{"bool": M{"must_not": children(c.Conditions)}}
	case domain.OpLike:
		pattern := likepattern.Wildcard(c.Value().(string))
		return M{"wildcard": M{c.Name(): M{"value": pattern}}}
	case domain.OpIn:
		return M{"terms": M{c.Name(): domain.FlattenValue(c.Values())}}
	case domain.OpBetween:
		bounds := c.Values()
		return M{"range": M{c.Name(): M{
			"gte": domain.FlattenValue(bounds[0]),
			"lte": domain.FlattenValue(bounds[1]),
		}}}
	case domain.OpEquals:
		if c.Value() == nil {
			return M{"bool": M{"must_not": []any{M{"exists": M{"field": c.Name()}}}}}
		}
		return M{"term": M{c.Name(): domain.FlattenValue(c.Value())}}
	}
	return M{"range": M{c.Name(): M{ranges[c.Operator]: domain.FlattenValue(c.Value())}}}
}

func children(conditions []domain.Condition) []any {
	l := make([]any, len(conditions))
	for n, sub := range conditions {
		l[n] = query(sub)
	}
	return l
}

// SearchBody builds the body of a search request for query. size is used
// when the query has no limit.
func SearchBody(query domain.SelectQuery, size int64) (M, error) {
	q, err := Query(query.Condition)
	if err != nil {
		return nil, err
	}
	body := M{"query": q}
	if len(query.Sorts) > 0 {
		sorts := make([]any, len(query.Sorts))
		for n, s := range query.Sorts {
			order := "asc"
			if s.Order == domain.Desc {
				order = "desc"
			}
			sorts[n] = M{s.Name: M{"order": order}}
		}
		body["sort"] = sorts
	}
	if len(query.Fields) > 0 {
		body["_source"] = query.Fields
	}
	if query.Skip > 0 {
		body["from"] = query.Skip
	}
	if query.Limit > 0 {
		size = query.Limit
	}
	body["size"] = size
	return body, nil
}
