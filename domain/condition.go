package domain

import (
	"fmt"
	"reflect"
)

// Operator identifies the kind of a [Condition] node.
type Operator uint8

// Supported condition operators.
const (
	OpEquals Operator = iota
	OpGreaterThan
	OpGreaterEqualsThan
	OpLesserThan
	OpLesserEqualsThan
	OpLike
	OpIn
	OpBetween
	OpAnd
	OpOr
	OpNot
)

var operatorNames = [...]string{
	OpEquals:            "EQUALS",
	OpGreaterThan:       "GREATER_THAN",
	OpGreaterEqualsThan: "GREATER_EQUALS_THAN",
	OpLesserThan:        "LESSER_THAN",
	OpLesserEqualsThan:  "LESSER_EQUALS_THAN",
	OpLike:              "LIKE",
	OpIn:                "IN",
	OpBetween:           "BETWEEN",
	OpAnd:               "AND",
	OpOr:                "OR",
	OpNot:               "NOT",
}

// String implements [fmt.Stringer].
func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", o)
}

// Logical reports whether the operator combines child conditions.
func (o Operator) Logical() bool {
	return o == OpAnd || o == OpOr || o == OpNot
}

// Condition is a node of a boolean filter tree. Comparison nodes carry the
// field name and operand in Element; And and Or nodes carry one or more
// children and Not carries exactly one.
type Condition struct {
	Operator   Operator
	Element    Element
	Conditions []Condition
}

// Eq matches entities whose field equals value.
func Eq(name string, value any) Condition {
	return Condition{Operator: OpEquals, Element: NewElement(name, value)}
}

// Gt matches entities whose field is greater than value.
func Gt(name string, value any) Condition {
	return Condition{Operator: OpGreaterThan, Element: NewElement(name, value)}
}

// Gte matches entities whose field is greater than or equal to value.
func Gte(name string, value any) Condition {
	return Condition{Operator: OpGreaterEqualsThan, Element: NewElement(name, value)}
}

// Lt matches entities whose field is lesser than value.
func Lt(name string, value any) Condition {
	return Condition{Operator: OpLesserThan, Element: NewElement(name, value)}
}

// Lte matches entities whose field is lesser than or equal to value.
func Lte(name string, value any) Condition {
	return Condition{Operator: OpLesserEqualsThan, Element: NewElement(name, value)}
}

// Like matches string fields against a SQL LIKE pattern, where % matches any
// run of characters and _ matches a single character.
func Like(name string, pattern string) Condition {
	return Condition{Operator: OpLike, Element: NewElement(name, pattern)}
}

// In matches entities whose field equals any of values. A single list argument
// is expanded.
func In(name string, values ...any) Condition {
	if len(values) == 1 && IsList(values[0]) {
		values = AsList(values[0])
	}
	return Condition{Operator: OpIn, Element: NewElement(name, values)}
}

// Between matches entities whose field lies in the closed range [from, to].
func Between(name string, from, to any) Condition {
	return Condition{Operator: OpBetween, Element: NewElement(name, []any{from, to})}
}

// And combines conditions with a logical AND.
func And(conditions ...Condition) Condition {
	return Condition{Operator: OpAnd, Conditions: conditions}
}

// Or combines conditions with a logical OR.
func Or(conditions ...Condition) Condition {
	return Condition{Operator: OpOr, Conditions: conditions}
}

// Not negates a condition.
func Not(condition Condition) Condition {
	return Condition{Operator: OpNot, Conditions: []Condition{condition}}
}

// And returns c AND others. If c is already an AND node the others are
// appended to it instead of nesting a new node.
func (c Condition) And(others ...Condition) Condition {
	return c.combine(OpAnd, others)
}

// Or returns c OR others, flattening like [Condition.And].
func (c Condition) Or(others ...Condition) Condition {
	return c.combine(OpOr, others)
}

func (c Condition) combine(op Operator, others []Condition) Condition {
	var children []Condition
	if c.Operator == op {
		children = append(children, c.Conditions...)
	} else {
		children = append(children, c)
	}
	for _, o := range others {
		if o.Operator == op {
			children = append(children, o.Conditions...)
			continue
		}
		children = append(children, o)
	}
	return Condition{Operator: op, Conditions: children}
}

// Negate returns the negation of c. Negating a NOT node returns its child.
func (c Condition) Negate() Condition {
	if c.Operator == OpNot && len(c.Conditions) == 1 {
		return c.Conditions[0]
	}
	return Not(c)
}

// Name returns the field name of a comparison node.
func (c Condition) Name() string { return c.Element.Name }

// Value returns the operand of a comparison node.
func (c Condition) Value() any { return c.Element.Value }

// Values returns the operand as a list. Used by OpIn and OpBetween.
func (c Condition) Values() []any {
	return AsList(c.Element.Value)
}

// Validate checks operand shapes and arity of the whole tree.
func (c Condition) Validate() error {
	switch c.Operator {
	case OpAnd, OpOr:
		if len(c.Conditions) == 0 {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "no child conditions"}
		}
		for _, sub := range c.Conditions {
			if err := sub.Validate(); err != nil {
				return err
			}
		}
	case OpNot:
		if len(c.Conditions) != 1 {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "requires exactly one child"}
		}
		return c.Conditions[0].Validate()
	case OpEquals, OpGreaterThan, OpGreaterEqualsThan, OpLesserThan, OpLesserEqualsThan:
		if c.Element.Name == "" {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "missing field name"}
		}
	case OpLike:
		if c.Element.Name == "" {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "missing field name"}
		}
		if _, ok := c.Element.Value.(string); !ok {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "pattern must be a string"}
		}
	case OpIn:
		if c.Element.Name == "" {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "missing field name"}
		}
		if !IsList(c.Element.Value) {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "operand must be a list"}
		}
	case OpBetween:
		if c.Element.Name == "" {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "missing field name"}
		}
		if !IsList(c.Element.Value) || len(c.Values()) != 2 {
			return ErrInvalidCondition{Operator: c.Operator, Reason: "operand must be a list of two values"}
		}
	default:
		return ErrInvalidCondition{Operator: c.Operator, Reason: "unknown operator"}
	}
	return nil
}

// IsList reports whether v is a slice or array, excluding byte slices.
func IsList(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// AsList converts v into []any. Non-list values become a single item list.
func AsList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	}
	if !IsList(v) {
		return []any{v}
	}
	r := reflect.ValueOf(v)
	l := make([]any, r.Len())
	for n := range l {
		l[n] = r.Index(n).Interface()
	}
	return l
}
