package matcher

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type A = []any

type comparerMock struct{ mock.Mock }

// Comparable implements [domain.Comparer].
func (c *comparerMock) Comparable(a any, b any) bool {
	return c.Called(a, b).Bool(0)
}

// Compare implements [domain.Comparer].
func (c *comparerMock) Compare(a any, b any) (int, error) {
	call := c.Called(a, b)
	return call.Int(0), call.Error(1)
}

type fieldNavigatorMock struct{ mock.Mock }

// GetField implements [domain.FieldNavigator].
func (f *fieldNavigatorMock) GetField(obj any, path string) ([]any, bool) {
	call := f.Called(obj, path)
	return call.Get(0).([]any), call.Bool(1)
}

type MatcherTestSuite struct {
	suite.Suite
	mtchr  *Matcher
	person *domain.Entity
}

func (s *MatcherTestSuite) SetupTest() {
	s.mtchr = NewMatcher().(*Matcher)
	s.person = domain.NewEntity("person",
		domain.NewElement("name", "Ada Lovelace"),
		domain.NewElement("age", 36),
		domain.NewElement("born", time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)),
		domain.NewElement("tags", A{"math", "poetry"}),
		domain.NewElement("scores", []int{3, 9}),
		domain.NewElement("nothing", nil),
		domain.NewElement("address", []domain.Element{
			domain.NewElement("city", "London"),
			domain.NewElement("zip", "W1"),
		}),
		domain.NewElement("children", [][]domain.Element{
			{domain.NewElement("name", "Byron"), domain.NewElement("age", 10)},
			{domain.NewElement("name", "Anne"), domain.NewElement("age", 8)},
		}),
	)
}

func (s *MatcherTestSuite) Matches(ok bool, err error) {
	s.T().Helper()
	s.NoError(err)
	s.True(ok)
}

func (s *MatcherTestSuite) NotMatches(ok bool, err error) {
	s.T().Helper()
	s.NoError(err)
	s.False(ok)
}

func (s *MatcherTestSuite) TestEquality() {
	s.Matches(s.mtchr.Match(s.person, domain.Eq("name", "Ada Lovelace")))
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("name", "Ada")))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("age", 36.0)))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("address.city", "London")))
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("address.city", "Paris")))
}

func (s *MatcherTestSuite) TestNil() {
	s.Matches(s.mtchr.Match(s.person, domain.Eq("nothing", nil)))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("missing", nil)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("name", nil)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Gt("missing", 1)))
}

func (s *MatcherTestSuite) TestArrays() {
	s.Matches(s.mtchr.Match(s.person, domain.Eq("tags", "poetry")))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("tags", A{"math", "poetry"})))
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("tags", "music")))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("tags.0", "math")))
	s.Matches(s.mtchr.Match(s.person, domain.Gt("scores", 5)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Gt("scores", 9)))
	s.Matches(s.mtchr.Match(s.person, domain.Eq("children.name", "Anne")))
	s.Matches(s.mtchr.Match(s.person, domain.Lt("children.age", 9)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Lt("children.age", 8)))
}

func (s *MatcherTestSuite) TestRanges() {
	s.Matches(s.mtchr.Match(s.person, domain.Gt("age", 30)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Gt("age", 36)))
	s.Matches(s.mtchr.Match(s.person, domain.Gte("age", 36)))
	s.Matches(s.mtchr.Match(s.person, domain.Lt("age", 40)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Lt("age", 36)))
	s.Matches(s.mtchr.Match(s.person, domain.Lte("age", uint8(36))))
	s.Matches(s.mtchr.Match(s.person, domain.Lt("born", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))))
	s.Matches(s.mtchr.Match(s.person, domain.Gt("name", "A")))

	// values of different kinds are not ordered
	s.NotMatches(s.mtchr.Match(s.person, domain.Gt("age", "1")))
	s.NotMatches(s.mtchr.Match(s.person, domain.Lt("name", 1)))
}

func (s *MatcherTestSuite) TestBetween() {
	s.Matches(s.mtchr.Match(s.person, domain.Between("age", 30, 40)))
	s.Matches(s.mtchr.Match(s.person, domain.Between("age", 36, 36)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Between("age", 37, 40)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Between("age", "a", "z")))
}

func (s *MatcherTestSuite) TestLike() {
	s.Matches(s.mtchr.Match(s.person, domain.Like("name", "Ada%")))
	s.Matches(s.mtchr.Match(s.person, domain.Like("name", "%Love%")))
	s.Matches(s.mtchr.Match(s.person, domain.Like("name", "A_a%")))
	s.NotMatches(s.mtchr.Match(s.person, domain.Like("name", "Love%")))
	s.NotMatches(s.mtchr.Match(s.person, domain.Like("age", "3%")))
	s.Matches(s.mtchr.Match(s.person, domain.Like("tags", "po%")))
}

func (s *MatcherTestSuite) TestIn() {
	s.Matches(s.mtchr.Match(s.person, domain.In("age", 1, 36)))
	s.NotMatches(s.mtchr.Match(s.person, domain.In("age", 1, 2)))
	s.Matches(s.mtchr.Match(s.person, domain.In("tags", []string{"x", "math"})))
	s.NotMatches(s.mtchr.Match(s.person, domain.In("age")))
}

func (s *MatcherTestSuite) TestLogical() {
	s.Matches(s.mtchr.Match(s.person, domain.And(
		domain.Eq("name", "Ada Lovelace"),
		domain.Gt("age", 18),
	)))
	s.NotMatches(s.mtchr.Match(s.person, domain.And(
		domain.Eq("name", "Ada Lovelace"),
		domain.Gt("age", 40),
	)))
	s.Matches(s.mtchr.Match(s.person, domain.Or(
		domain.Eq("name", "Grace"),
		domain.Gt("age", 18),
	)))
	s.NotMatches(s.mtchr.Match(s.person, domain.Or(
		domain.Eq("name", "Grace"),
		domain.Gt("age", 40),
	)))
	s.Matches(s.mtchr.Match(s.person, domain.Not(domain.Eq("name", "Grace"))))
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("name", "Grace").Negate().Negate()))
}

func (s *MatcherTestSuite) TestInvalidCondition() {
	ok, err := s.mtchr.Match(s.person, domain.And())
	s.ErrorAs(err, &domain.ErrInvalidCondition{})
	s.False(ok)
}

func (s *MatcherTestSuite) TestCompareError() {
	c := new(comparerMock)
	s.mtchr = NewMatcher(WithComparer(c)).(*Matcher)
	errCompare := errors.New("compare error")

	c.On("Compare", "Ada Lovelace", "x").Return(0, errCompare).Once()
	ok, err := s.mtchr.Match(s.person, domain.Not(domain.Eq("name", "x")))
	s.ErrorIs(err, errCompare)
	s.False(ok)

	c.On("Comparable", 36, 1).Return(true).Once()
	c.On("Compare", 36, 1).Return(0, errCompare).Once()
	ok, err = s.mtchr.Match(s.person, domain.Or(domain.Gt("age", 1)))
	s.ErrorIs(err, errCompare)
	s.False(ok)

	c.AssertExpectations(s.T())
}

func (s *MatcherTestSuite) TestFieldNavigator() {
	fn := new(fieldNavigatorMock)
	s.mtchr = NewMatcher(WithFieldNavigator(fn)).(*Matcher)

	fn.On("GetField", s.person, "virtual").Return(A{"v"}, true).Once()
	s.Matches(s.mtchr.Match(s.person, domain.Eq("virtual", "v")))

	fn.On("GetField", s.person, "none").Return(A(nil), false).Once()
	s.NotMatches(s.mtchr.Match(s.person, domain.Eq("none", "v")))

	fn.AssertExpectations(s.T())
}

func TestMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(MatcherTestSuite))
}
