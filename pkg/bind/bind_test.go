package bind

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BindTestSuite struct {
	suite.Suite
}

func (s *BindTestSuite) TestNamed() {
	p := New(At)
	s.Equal("@age", p.Add("age", 10))
	s.Equal("@age_1", p.Add("age", 20))
	s.Equal("@address_city", p.Add("address.city", "x"))
	s.Equal(3, p.Len())
	s.Equal([]string{"age", "age_1", "address_city"}, p.Names())
	s.Equal([]any{10, 20, "x"}, p.Values())
	s.Equal(map[string]any{"age": 10, "age_1": 20, "address_city": "x"}, p.Map())
}

func (s *BindTestSuite) TestCollision() {
	p := New(Dollar)
	s.Equal("$a_1", p.Add("a_1", 1))
	s.Equal("$a", p.Add("a", 2))
	s.Equal("$a_1_", p.Add("a", 3))
	s.Len(p.Map(), 3)
}

func (s *BindTestSuite) TestPositional() {
	p := New(Numbered)
	s.Equal("$1", p.Add("a", 1))
	s.Equal("$2", p.Add("b", 2))

	q := New(Question)
	s.Equal("?", q.Add("a", 1))
	s.Equal([]any{1}, q.Values())

	c := New(Colon)
	s.Equal(":name", c.Add("name", "x"))
}

func (s *BindTestSuite) TestSanitize() {
	s.Equal("p", Sanitize(""))
	s.Equal("p1a", Sanitize("1a"))
	s.Equal("a_b_c", Sanitize("a.b-c"))
	s.Equal("_key", Sanitize("_key"))
	s.Equal("_rid", Sanitize("@rid"))
}

func TestBindTestSuite(t *testing.T) {
	suite.Run(t, new(BindTestSuite))
}
