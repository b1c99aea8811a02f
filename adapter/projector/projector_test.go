package projector

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type ProjectorTestSuite struct {
	suite.Suite
	p      *Projector
	person *domain.Entity
}

func el(name string, value any) domain.Element {
	return domain.NewElement(name, value)
}

func (s *ProjectorTestSuite) SetupTest() {
	s.p = NewProjector(WithKeep("_id")).(*Projector)
	s.person = domain.NewEntity("person",
		el("_id", "1"),
		el("name", "Ada"),
		el("age", 36),
		el("address", []domain.Element{el("city", "London"), el("zip", "W1")}),
		el("home", domain.NewUDT("address", el("street", "Main"), el("number", 1))),
		el("children", [][]domain.Element{
			{el("name", "Byron"), el("age", 10)},
			{el("age", 8)},
		}),
	)
}

func (s *ProjectorTestSuite) TestNoFields() {
	s.Same(s.person, s.p.Project(s.person, nil))
	s.Nil(s.p.Project(nil, []string{"a"}))
}

func (s *ProjectorTestSuite) TestTopLevel() {
	res := s.p.Project(s.person, []string{"age", "name", "missing"})
	s.Equal("person", res.Name())
	s.Equal([]domain.Element{el("_id", "1"), el("name", "Ada"), el("age", 36)}, res.Elements())
}

func (s *ProjectorTestSuite) TestNested() {
	res := s.p.Project(s.person, []string{"address.city", "home.street", "children.name"})
	s.Equal([]domain.Element{
		el("_id", "1"),
		el("address", []domain.Element{el("city", "London")}),
		el("home", domain.NewUDT("address", el("street", "Main"))),
		el("children", [][]domain.Element{{el("name", "Byron")}}),
	}, res.Elements())

	res = s.p.Project(s.person, []string{"address", "address.city"})
	s.Equal([]domain.Element{
		el("_id", "1"),
		el("address", []domain.Element{el("city", "London"), el("zip", "W1")}),
	}, res.Elements())

	res = s.p.Project(s.person, []string{"name.first", "address.street"})
	s.Equal([]domain.Element{el("_id", "1")}, res.Elements())
}

func (s *ProjectorTestSuite) TestWithoutKeep() {
	s.p = NewProjector().(*Projector)
	res := s.p.Project(s.person, []string{"name"})
	s.Equal([]domain.Element{el("name", "Ada")}, res.Elements())
}

func TestProjectorTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectorTestSuite))
}
