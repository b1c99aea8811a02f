package mongodb

import (
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/likepattern"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var comparisons = map[domain.Operator]string{
	domain.OpEquals:            "$eq",
	domain.OpGreaterThan:       "$gt",
	domain.OpGreaterEqualsThan: "$gte",
	domain.OpLesserThan:        "$lt",
	domain.OpLesserEqualsThan:  "$lte",
}

var logicals = map[domain.Operator]string{
	domain.OpAnd: "$and",
	domain.OpOr:  "$or",
	domain.OpNot: "$nor",
}

// Filter lowers a condition tree into a MongoDB filter document. A nil
// condition returns an empty filter, which matches every document.
func Filter(c *domain.Condition) (bson.D, error) {
	if c == nil {
		return bson.D{}, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return filter(*c), nil
}

func filter(c domain.Condition) bson.D {
	if op, ok := logicals[c.Operator]; ok {
		children := make(bson.A, len(c.Conditions))
		for n, sub := range c.Conditions {
			children[n] = filter(sub)
		}
		return bson.D{{Key: op, Value: children}}
	}

	var expr bson.D
	switch c.Operator {
	case domain.OpLike:
		pattern := likepattern.Regex(c.Value().(string))
		expr = bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: pattern}}}
	case domain.OpIn:
		expr = bson.D{{Key: "$in", Value: toBSON(c.Values())}}
	case domain.OpBetween:
		bounds := c.Values()
		expr = bson.D{
			{Key: "$gte", Value: toBSON(bounds[0])},
			{Key: "$lte", Value: toBSON(bounds[1])},
		}
	default:
		expr = bson.D{{Key: comparisons[c.Operator], Value: toBSON(c.Value())}}
	}
	return bson.D{{Key: c.Name(), Value: expr}}
}

// SortDocument converts sorts into a MongoDB sort document.
func SortDocument(sorts []domain.Sort) bson.D {
	if len(sorts) == 0 {
		return nil
	}
	doc := make(bson.D, len(sorts))
	for n, s := range sorts {
		dir := 1
		if s.Order == domain.Desc {
			dir = -1
		}
		doc[n] = bson.E{Key: s.Name, Value: dir}
	}
	return doc
}

// Projection converts a field list into a MongoDB projection. The _id field
// is always returned.
func Projection(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	doc := make(bson.D, 0, len(fields))
	for _, f := range fields {
		doc = append(doc, bson.E{Key: f, Value: 1})
	}
	return doc
}
