package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type DomainTestSuite struct {
	suite.Suite
}

func (s *DomainTestSuite) TestOptions() {
	c := domain.Eq("a", 1)
	q := domain.NewSelectQuery("person",
		domain.WithFields("a", "b"),
		domain.WithCondition(c),
		domain.WithSort(domain.SortAsc("a"), domain.SortDesc("b")),
		domain.WithSkip(2),
		domain.WithLimit(3),
	)
	s.Equal(domain.SelectQuery{
		Name:      "person",
		Fields:    []string{"a", "b"},
		Condition: &c,
		Sorts: []domain.Sort{
			{Name: "a", Order: domain.Asc},
			{Name: "b", Order: domain.Desc},
		},
		Skip:  2,
		Limit: 3,
	}, q)

	d := domain.NewDeleteQuery("person",
		domain.WithDeleteFields("x"),
		domain.WithDeleteCondition(c),
	)
	s.Equal(domain.DeleteQuery{Name: "person", Fields: []string{"x"}, Condition: &c}, d)
	s.Equal(domain.SelectQuery{Name: "person", Condition: &c}, d.AsSelect())

	s.Equal(domain.InsertOptions{TTL: time.Second}, domain.NewInsertOptions(domain.WithTTL(time.Second)))
	s.Equal(domain.PutOptions{TTL: time.Minute}, domain.NewPutOptions(domain.WithPutTTL(time.Minute)))
	s.Equal(domain.PutOptions{}, domain.NewPutOptions())
}

func (s *DomainTestSuite) TestEntity() {
	e := domain.NewEntity("person",
		domain.NewElement("name", "Ada"),
		domain.NewElement("age", 36),
		domain.NewElement("name", "Grace"),
	)
	s.Equal("person", e.Name())
	s.Equal(2, e.Len())
	s.Equal([]string{"name", "age"}, e.Names())
	s.Equal("Grace", e.Value("name"))

	e.Add("city", "London")
	el, ok := e.Find("city")
	s.True(ok)
	s.Equal(domain.NewElement("city", "London"), el)

	_, ok = e.Find("missing")
	s.False(ok)
	s.Nil(e.Value("missing"))

	s.True(e.Remove("age"))
	s.False(e.Remove("age"))
	s.Equal([]string{"name", "city"}, e.Names())

	c := e.Clone()
	c.Add("name", "Other")
	s.Equal("Grace", e.Value("name"))

	els := e.Elements()
	els[0].Value = "changed"
	s.Equal("Grace", e.Value("name"))

	e.SetName("people")
	s.Equal("people", e.Name())
}

func (s *DomainTestSuite) TestCloneIsDeep() {
	e := domain.NewEntity("person",
		domain.NewElement("address", []domain.Element{domain.NewElement("city", "Rome")}),
		domain.NewElement("home", domain.NewUDT("address", domain.NewElement("street", "Main"))),
		domain.NewElement("extra", map[string]any{"k": []any{1}}),
	)
	c := e.Clone()
	c.Value("address").([]domain.Element)[0].Value = "Paris"
	c.Value("home").(domain.UDT).Elements[0].Value = "Side"
	c.Value("extra").(map[string]any)["k"].([]any)[0] = 2

	s.Equal([]domain.Element{domain.NewElement("city", "Rome")}, e.Value("address"))
	s.Equal(domain.NewUDT("address", domain.NewElement("street", "Main")), e.Value("home"))
	s.Equal(map[string]any{"k": []any{1}}, e.Value("extra"))
	s.Nil(domain.CloneElements(nil))
}

func (s *DomainTestSuite) TestEntityMap() {
	e := domain.NewEntity("person",
		domain.NewElement("name", "Ada"),
		domain.NewElement("address", []domain.Element{
			domain.NewElement("city", "London"),
			domain.NewElement("zip", domain.NewElement("code", "N1")),
		}),
		domain.NewElement("phones", [][]domain.Element{
			{domain.NewElement("type", "home")},
			{domain.NewElement("type", "work")},
		}),
		domain.NewElement("tags", []any{"a", []domain.Element{domain.NewElement("b", 1)}}),
		domain.NewElement("home", domain.NewUDT("address", domain.NewElement("street", "Main"))),
		domain.NewElement("homes", []domain.UDT{domain.NewUDT("address", domain.NewElement("street", "Side"))}),
	)
	s.Equal(map[string]any{
		"name": "Ada",
		"address": map[string]any{
			"city": "London",
			"zip":  map[string]any{"code": "N1"},
		},
		"phones": []any{
			map[string]any{"type": "home"},
			map[string]any{"type": "work"},
		},
		"tags":  []any{"a", map[string]any{"b": 1}},
		"home":  map[string]any{"street": "Main"},
		"homes": []any{map[string]any{"street": "Side"}},
	}, e.Map())
}

func (s *DomainTestSuite) TestValue() {
	v, err := domain.EncodeValue("raw")
	s.NoError(err)
	s.Equal("raw", v.String())

	var str string
	s.NoError(v.Decode(&str))
	s.Equal("raw", str)

	v, err = domain.EncodeValue(map[string]any{"a": 1})
	s.NoError(err)
	var m map[string]int
	s.NoError(v.Decode(&m))
	s.Equal(map[string]int{"a": 1}, m)

	v, err = domain.EncodeValue(domain.NewEntity("x", domain.NewElement("b", true)))
	s.NoError(err)
	s.JSONEq(`{"b":true}`, v.String())

	var b []byte
	s.NoError(domain.Value("bytes").Decode(&b))
	s.Equal([]byte("bytes"), b)

	s.ErrorIs(v.Decode(nil), domain.ErrTargetNil)

	var n int
	err = domain.Value("nope").Decode(&n)
	s.ErrorAs(err, &domain.ErrDecode{})
}

func (s *DomainTestSuite) TestConditionBuilders() {
	s.Equal(domain.OpEquals, domain.Eq("a", 1).Operator)
	s.Equal(domain.OpGreaterThan, domain.Gt("a", 1).Operator)
	s.Equal(domain.OpGreaterEqualsThan, domain.Gte("a", 1).Operator)
	s.Equal(domain.OpLesserThan, domain.Lt("a", 1).Operator)
	s.Equal(domain.OpLesserEqualsThan, domain.Lte("a", 1).Operator)
	s.Equal(domain.OpLike, domain.Like("a", "x%").Operator)

	in := domain.In("a", []int{1, 2, 3})
	s.Equal([]any{1, 2, 3}, in.Values())
	in = domain.In("a", 1, 2)
	s.Equal([]any{1, 2}, in.Values())

	bt := domain.Between("a", 1, 5)
	s.Equal([]any{1, 5}, bt.Values())
	s.Equal("a", bt.Name())

	s.Equal("GREATER_EQUALS_THAN", domain.OpGreaterEqualsThan.String())
	s.Equal("Operator(99)", domain.Operator(99).String())
	s.True(domain.OpNot.Logical())
	s.False(domain.OpIn.Logical())
}

func (s *DomainTestSuite) TestConditionCombine() {
	a, b, c := domain.Eq("a", 1), domain.Eq("b", 2), domain.Eq("c", 3)

	and := a.And(b).And(c)
	s.Equal(domain.OpAnd, and.Operator)
	s.Equal([]domain.Condition{a, b, c}, and.Conditions)

	or := a.Or(domain.Or(b, c))
	s.Equal([]domain.Condition{a, b, c}, or.Conditions)

	mixed := and.Or(c)
	s.Equal(domain.OpOr, mixed.Operator)
	s.Equal([]domain.Condition{and, c}, mixed.Conditions)

	s.Equal(domain.Not(a), a.Negate())
	s.Equal(a, a.Negate().Negate())
}

func (s *DomainTestSuite) TestConditionValidate() {
	valid := []domain.Condition{
		domain.Eq("a", nil),
		domain.Like("a", "%x"),
		domain.In("a"),
		domain.Between("a", 1, 2),
		domain.And(domain.Eq("a", 1), domain.Not(domain.Gt("b", 2))),
	}
	for _, c := range valid {
		s.NoError(c.Validate(), c.Operator.String())
	}

	invalid := []domain.Condition{
		{Operator: domain.OpEquals},
		{Operator: domain.OpLike, Element: domain.NewElement("a", 1)},
		{Operator: domain.OpIn, Element: domain.NewElement("a", 1)},
		{Operator: domain.OpBetween, Element: domain.NewElement("a", []any{1})},
		{Operator: domain.OpAnd},
		{Operator: domain.OpNot, Conditions: []domain.Condition{domain.Eq("a", 1), domain.Eq("b", 1)}},
		domain.Or(domain.Eq("a", 1), domain.Condition{Operator: domain.OpLesserThan}),
		{Operator: domain.Operator(40)},
	}
	for _, c := range invalid {
		var target domain.ErrInvalidCondition
		s.ErrorAs(c.Validate(), &target, c.Operator.String())
	}
}

func (s *DomainTestSuite) TestQueryValidate() {
	s.ErrorIs(domain.NewSelectQuery("").Validate(), domain.ErrNoEntityName)
	s.ErrorIs(domain.NewSelectQuery("a", domain.WithSkip(-1)).Validate(), domain.ErrNegativePagination)
	s.NoError(domain.NewSelectQuery("a", domain.WithCondition(domain.Eq("b", 1))).Validate())
	s.Error(domain.NewSelectQuery("a", domain.WithCondition(domain.And())).Validate())

	s.ErrorIs(domain.NewDeleteQuery("").Validate(), domain.ErrNoEntityName)
	s.NoError(domain.NewDeleteQuery("a").Validate())
	s.Error(domain.NewDeleteQuery("a", domain.WithDeleteCondition(domain.Not(domain.And()))).Validate())

	s.Equal("ASC", domain.Asc.String())
	s.Equal("DESC", domain.Desc.String())
}

func (s *DomainTestSuite) TestErrors() {
	vendor := errors.New("connection refused")
	err := domain.WrapDriver("mongodb", "insert", vendor)
	s.ErrorIs(err, vendor)
	s.EqualError(err, "mongodb: insert: connection refused")

	s.Same(err, domain.WrapDriver("other", "op", err))
	s.Equal(domain.ErrNotFound, domain.WrapDriver("x", "y", domain.ErrNotFound))
	s.NoError(domain.WrapDriver("x", "y", nil))

	uc := domain.ErrUnsupportedCondition{Driver: "cassandra", Operator: domain.OpOr}
	s.Equal(uc, domain.WrapDriver("cassandra", "select", uc))
	s.EqualError(uc, "cassandra does not support OR conditions")

	ic := domain.ErrInvalidCondition{Operator: domain.OpNot, Reason: "r"}
	s.EqualError(ic, "invalid NOT condition: r")
}

func (s *DomainTestSuite) TestValidateEntity() {
	s.ErrorIs(domain.ValidateEntity(nil), domain.ErrNilEntity)
	s.ErrorIs(domain.ValidateEntity(domain.NewEntity("", domain.NewElement("a", 1))), domain.ErrNoEntityName)
	s.ErrorIs(domain.ValidateEntity(domain.NewEntity("a")), domain.ErrEmptyEntity)
	s.NoError(domain.ValidateEntity(domain.NewEntity("a", domain.NewElement("a", 1))))
}

func (s *DomainTestSuite) TestPaginate() {
	items := []int{1, 2, 3, 4, 5}
	s.Equal([]int{1, 2, 3, 4, 5}, domain.Paginate(items, 0, 0))
	s.Equal([]int{3, 4, 5}, domain.Paginate(items, 2, 0))
	s.Equal([]int{2, 3}, domain.Paginate(items, 1, 2))
	s.Equal([]int{5}, domain.Paginate(items, 4, 10))
	s.Empty(domain.Paginate(items, 5, 1))
	s.Empty(domain.Paginate(items, 9, 0))
}

func TestDomainTestSuite(t *testing.T) {
	suite.Run(t, new(DomainTestSuite))
}
