package arangodb

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

type AQLTestSuite struct {
	suite.Suite
}

func (s *AQLTestSuite) TestSelect() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person",
		domain.WithCondition(domain.Gt("age", 10)),
		domain.WithSort(domain.SortAsc("name")),
		domain.WithLimit(10),
	))
	s.NoError(err)
	s.Equal("FOR c IN @@collection FILTER c.`age` > @age SORT c.`name` ASC LIMIT 0, 10 RETURN c", stmt.AQL)
	s.Equal(map[string]any{"@collection": "person", "age": 10}, stmt.BindVars)
}

func (s *AQLTestSuite) TestSelectAll() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person", domain.WithSkip(3)))
	s.NoError(err)
	s.Equal("FOR c IN @@collection LIMIT 3, 9007199254740991 RETURN c", stmt.AQL)
	s.Equal(map[string]any{"@collection": "person"}, stmt.BindVars)
}

func (s *AQLTestSuite) TestSelectFields() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person", domain.WithFields("name")))
	s.NoError(err)
	s.Equal("FOR c IN @@collection RETURN KEEP(c, @keep)", stmt.AQL)
	s.Equal([]string{"_key", "name"}, stmt.BindVars["keep"])
}

func (s *AQLTestSuite) TestFilter() {
	params := bind.New(bind.At)
	f, err := Filter(domain.Or(
		domain.And(domain.Like("name", "A%"), domain.In("age", 1, 2)),
		domain.Not(domain.Between("age", 5, 9)),
		domain.Eq("address.city", "Rome"),
	), params)
	s.NoError(err)
	s.Equal("((LIKE(c.`name`, @name, false) AND c.`age` IN @age) OR "+
		"NOT (c.`age` >= @age_1 AND c.`age` <= @age_2) OR c.`address`.`city` == @address_city)", f)
	s.Equal(map[string]any{
		"name":         "A%",
		"age":          []any{1, 2},
		"age_1":        5,
		"age_2":        9,
		"address_city": "Rome",
	}, params.Map())

	_, err = Filter(domain.Condition{Operator: domain.OpNot}, params)
	s.ErrorAs(err, &domain.ErrInvalidCondition{})
}

func (s *AQLTestSuite) TestDelete() {
	stmt, err := DeleteStatement(domain.NewDeleteQuery("person",
		domain.WithDeleteCondition(domain.Eq("_key", "1"))))
	s.NoError(err)
	s.Equal("FOR c IN @@collection FILTER c.`_key` == @_key REMOVE c IN @@collection", stmt.AQL)
	s.Equal(map[string]any{"@collection": "person", "_key": "1"}, stmt.BindVars)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person", domain.WithDeleteFields("a", "_key")))
	s.NoError(err)
	s.Equal("FOR c IN @@collection UPDATE c WITH @unset IN @@collection OPTIONS { keepNull: false }", stmt.AQL)
	s.Equal(map[string]any{"a": nil}, stmt.BindVars["unset"])
}

func (s *AQLTestSuite) TestDocument() {
	e := domain.NewEntity("person", domain.NewElement("_key", "1"), domain.NewElement("a", 1))
	s.Equal(map[string]any{"a": 1}, document(e))
}

func TestAQLTestSuite(t *testing.T) {
	suite.Run(t, new(AQLTestSuite))
}
