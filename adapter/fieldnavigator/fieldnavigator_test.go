package fieldnavigator

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type M = map[string]any

type FieldNavigatorTestSuite struct {
	suite.Suite
	fn *FieldNavigator
}

func (s *FieldNavigatorTestSuite) SetupTest() {
	s.fn = NewFieldNavigator().(*FieldNavigator)
}

func (s *FieldNavigatorTestSuite) TestFirstLevel() {
	e := domain.NewEntity("planet",
		domain.NewElement("hello", "world"),
		domain.NewElement("type", []domain.Element{
			domain.NewElement("planet", true),
			domain.NewElement("blue", true),
		}),
	)

	values, ok := s.fn.GetField(e, "hello")
	s.True(ok)
	s.Equal([]any{"world"}, values)

	values, ok = s.fn.GetField(e, "type.planet")
	s.True(ok)
	s.Equal([]any{true}, values)
}

func (s *FieldNavigatorTestSuite) TestNotOk() {
	e := domain.NewEntity("planet",
		domain.NewElement("hello", "world"),
		domain.NewElement("type", []domain.Element{domain.NewElement("blue", true)}),
	)

	_, ok := s.fn.GetField(e, "helloo")
	s.False(ok)

	_, ok = s.fn.GetField(e, "type.plane")
	s.False(ok)

	_, ok = s.fn.GetField(e, "hello.world")
	s.False(ok)

	_, ok = s.fn.GetField(e, "")
	s.False(ok)

	var nilEntity *domain.Entity
	_, ok = s.fn.GetField(nilEntity, "a")
	s.False(ok)
}

func (s *FieldNavigatorTestSuite) TestSubDocumentList() {
	e := domain.NewEntity("system",
		domain.NewElement("planets", [][]domain.Element{
			{domain.NewElement("name", "Earth"), domain.NewElement("number", 3)},
			{domain.NewElement("name", "Mars"), domain.NewElement("number", 4)},
			{domain.NewElement("number", 9)},
		}),
	)

	values, ok := s.fn.GetField(e, "planets.name")
	s.True(ok)
	s.Equal([]any{"Earth", "Mars"}, values)

	values, ok = s.fn.GetField(e, "planets.1.name")
	s.True(ok)
	s.Equal([]any{"Mars"}, values)

	_, ok = s.fn.GetField(e, "planets.5.name")
	s.False(ok)

	_, ok = s.fn.GetField(e, "planets.moon")
	s.False(ok)
}

func (s *FieldNavigatorTestSuite) TestPlainValues() {
	doc := M{
		"tags":  []string{"a", "b"},
		"inner": M{"list": []any{M{"x": 1}, M{"x": 2}, "loose"}},
		"udt":   domain.NewUDT("address", domain.NewElement("city", "Lisbon")),
		"udts":  []domain.UDT{domain.NewUDT("address", domain.NewElement("city", "Porto"))},
		"one":   domain.NewElement("k", "v"),
	}

	values, ok := s.fn.GetField(doc, "tags")
	s.True(ok)
	s.Equal([]any{[]string{"a", "b"}}, values)

	values, ok = s.fn.GetField(doc, "tags.1")
	s.True(ok)
	s.Equal([]any{"b"}, values)

	values, ok = s.fn.GetField(doc, "inner.list.x")
	s.True(ok)
	s.Equal([]any{1, 2}, values)

	values, ok = s.fn.GetField(doc, "udt.city")
	s.True(ok)
	s.Equal([]any{"Lisbon"}, values)

	values, ok = s.fn.GetField(doc, "udts.city")
	s.True(ok)
	s.Equal([]any{"Porto"}, values)

	values, ok = s.fn.GetField(doc, "one.k")
	s.True(ok)
	s.Equal([]any{"v"}, values)
}

func TestFieldNavigatorTestSuite(t *testing.T) {
	suite.Run(t, new(FieldNavigatorTestSuite))
}
