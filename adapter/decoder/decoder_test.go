package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
)

type phone struct {
	Type string `gnosql:"type"`
}

type person struct {
	Name    string    `gnosql:"name"`
	Age     int       `gnosql:"age"`
	Born    time.Time `gnosql:"born"`
	Address struct {
		City string `gnosql:"city"`
	} `gnosql:"address"`
	Phones []phone  `gnosql:"phones"`
	Tags   []string `gnosql:"tags"`
}

type DecoderTestSuite struct {
	suite.Suite
	d *Decoder
}

func (s *DecoderTestSuite) SetupTest() {
	s.d = NewDecoder().(*Decoder)
}

func (s *DecoderTestSuite) TestEntity() {
	e := domain.NewEntity("person",
		domain.NewElement("name", "Ada"),
		domain.NewElement("age", int64(36)),
		domain.NewElement("born", "1815-12-10T00:00:00Z"),
		domain.NewElement("address", []domain.Element{domain.NewElement("city", "London")}),
		domain.NewElement("phones", [][]domain.Element{{domain.NewElement("type", "home")}}),
		domain.NewElement("tags", []any{"a", "b"}),
	)

	var p person
	s.NoError(s.d.Decode(e, &p))
	s.Equal("Ada", p.Name)
	s.Equal(36, p.Age)
	s.True(p.Born.Equal(time.Date(1815, 12, 10, 0, 0, 0, 0, time.UTC)))
	s.Equal("London", p.Address.City)
	s.Equal([]phone{{Type: "home"}}, p.Phones)
	s.Equal([]string{"a", "b"}, p.Tags)
}

func (s *DecoderTestSuite) TestMap() {
	var m map[string]any
	e := domain.NewEntity("x", domain.NewElement("a", domain.NewUDT("t", domain.NewElement("b", 1))))
	s.NoError(s.d.Decode(e, &m))
	s.Equal(map[string]any{"a": map[string]any{"b": 1}}, m)
}

func (s *DecoderTestSuite) TestInvalidTarget() {
	s.ErrorIs(s.d.Decode(1, nil), domain.ErrTargetNil)

	var p person
	s.ErrorIs(s.d.Decode(1, p), domain.ErrNonPointer)

	err := s.d.Decode(map[string]any{"age": []int{1}}, &p)
	s.ErrorAs(err, &domain.ErrDecode{})
}

func TestDecoderTestSuite(t *testing.T) {
	suite.Run(t, new(DecoderTestSuite))
}
