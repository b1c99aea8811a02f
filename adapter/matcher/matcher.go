// Package matcher contains the default implementation of [domain.Matcher],
// evaluating condition trees against entities held in memory.
package matcher

import (
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/gnosql/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/likepattern"
)

// Matcher implements [domain.Matcher].
//
// When a field holds a list, a comparison matches if the whole list or any of
// its items satisfies it. Range comparisons only hold between values that
// [domain.Comparer.Comparable] accepts, so 1 is never greater than "0".
type Matcher struct {
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...Option) domain.Matcher {
	m := &Matcher{
		comparer:       comparer.NewComparer(),
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Match implements [domain.Matcher].
func (m *Matcher) Match(entity *domain.Entity, condition domain.Condition) (bool, error) {
	if err := condition.Validate(); err != nil {
		return false, err
	}
	return m.match(entity, condition)
}

func (m *Matcher) match(entity *domain.Entity, c domain.Condition) (bool, error) {
	switch c.Operator {
	case domain.OpAnd:
		for _, sub := range c.Conditions {
			ok, err := m.match(entity, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case domain.OpOr:
		for _, sub := range c.Conditions {
			ok, err := m.match(entity, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case domain.OpNot:
		ok, err := m.match(entity, c.Conditions[0])
		if err != nil {
			return false, err
		}
		return !ok, nil
	}

	values, found := m.fieldNavigator.GetField(entity, c.Name())
	if !found {
		// a missing field only equals nil
		return c.Operator == domain.OpEquals && c.Value() == nil, nil
	}

	switch c.Operator {
	case domain.OpEquals:
		return m.anyValue(values, func(v any) (bool, error) {
			return m.equals(v, c.Value())
		})
	case domain.OpGreaterThan:
		return m.anyValue(values, m.ordered(c.Value(), func(r int) bool { return r > 0 }))
	case domain.OpGreaterEqualsThan:
		return m.anyValue(values, m.ordered(c.Value(), func(r int) bool { return r >= 0 }))
	case domain.OpLesserThan:
		return m.anyValue(values, m.ordered(c.Value(), func(r int) bool { return r < 0 }))
	case domain.OpLesserEqualsThan:
		return m.anyValue(values, m.ordered(c.Value(), func(r int) bool { return r <= 0 }))
	case domain.OpLike:
		re, err := likepattern.Compile(c.Value().(string))
		if err != nil {
			return false, err
		}
		return m.anyValue(values, func(v any) (bool, error) {
			s, ok := v.(string)
			return ok && re.MatchString(s), nil
		})
	case domain.OpIn:
		operands := c.Values()
		return m.anyValue(values, func(v any) (bool, error) {
			for _, operand := range operands {
				ok, err := m.equals(v, operand)
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		})
	case domain.OpBetween:
		bounds := c.Values()
		from := m.ordered(bounds[0], func(r int) bool { return r >= 0 })
		to := m.ordered(bounds[1], func(r int) bool { return r <= 0 })
		return m.anyValue(values, func(v any) (bool, error) {
			ok, err := from(v)
			if err != nil || !ok {
				return false, err
			}
			return to(v)
		})
	}
	return false, domain.ErrInvalidCondition{Operator: c.Operator, Reason: "unknown operator"}
}

// anyValue reports whether fn holds for any value, descending one level into
// list values.
func (m *Matcher) anyValue(values []any, fn func(any) (bool, error)) (bool, error) {
	for _, v := range values {
		ok, err := fn(v)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !isArray(v) {
			continue
		}
		for _, item := range domain.AsList(v) {
			ok, err := fn(item)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *Matcher) equals(a, b any) (bool, error) {
	comp, err := m.comparer.Compare(a, b)
	if err != nil {
		return false, err
	}
	return comp == 0, nil
}

func (m *Matcher) ordered(operand any, pred func(int) bool) func(any) (bool, error) {
	return func(v any) (bool, error) {
		if !m.comparer.Comparable(v, operand) {
			return false, nil
		}
		comp, err := m.comparer.Compare(v, operand)
		if err != nil {
			return false, err
		}
		return pred(comp), nil
	}
}

// isArray reports whether v is a list of values. Sub-documents are slices of
// elements but are not lists.
func isArray(v any) bool {
	if _, ok := v.([]domain.Element); ok {
		return false
	}
	return domain.IsList(v)
}
