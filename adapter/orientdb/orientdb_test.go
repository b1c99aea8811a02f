package orientdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/gnosql/domain"
	"github.com/vinicius-lino-figueiredo/gnosql/pkg/bind"
)

type OSQLTestSuite struct {
	suite.Suite
}

func (s *OSQLTestSuite) TestSelect() {
	stmt, err := SelectStatement(domain.NewSelectQuery("person",
		domain.WithCondition(domain.Gt("age", 10)),
		domain.WithSort(domain.SortAsc("name")),
		domain.WithSkip(5),
		domain.WithLimit(10),
	))
	s.NoError(err)
	s.Equal("SELECT FROM `person` WHERE `age` > :age ORDER BY `name` ASC SKIP 5 LIMIT 10", stmt.Command)
	s.Equal(map[string]any{"age": 10}, stmt.Parameters)

	stmt, err = SelectStatement(domain.NewSelectQuery("person", domain.WithFields("name", "address.city")))
	s.NoError(err)
	s.Equal("SELECT @rid, `name`, `address`.`city` FROM `person`", stmt.Command)
}

func (s *OSQLTestSuite) TestWhere() {
	params := bind.New(bind.Colon)
	w, err := Where(domain.And(
		domain.Like("name", "A%"),
		domain.Not(domain.In("age", 1, 2)),
		domain.Or(domain.Between("age", 3, 4), domain.Eq("@rid", "#1:1")),
	), params)
	s.NoError(err)
	s.Equal("(`name` LIKE :name AND NOT (`age` IN :age) AND "+
		"(`age` BETWEEN :age_1 AND :age_2 OR @rid = :_rid))", w)
	s.Equal(map[string]any{
		"name":  "A%",
		"age":   []any{1, 2},
		"age_1": 3,
		"age_2": 4,
		"_rid":  "#1:1",
	}, params.Map())
}

func (s *OSQLTestSuite) TestDelete() {
	stmt, err := DeleteStatement(domain.NewDeleteQuery("person", domain.WithDeleteCondition(domain.Eq("a", 1))))
	s.NoError(err)
	s.Equal("DELETE FROM `person` WHERE `a` = :a", stmt.Command)

	stmt, err = DeleteStatement(domain.NewDeleteQuery("person", domain.WithDeleteFields("a", "@rid", "b")))
	s.NoError(err)
	s.Equal("UPDATE `person` REMOVE `a`, `b`", stmt.Command)
}

func (s *OSQLTestSuite) TestStatements() {
	s.Equal("INSERT INTO `person` CONTENT {\"a\":1}", InsertStatement("person", []byte(`{"a":1}`)).Command)
	u := UpdateStatement("person", "#1:2", []byte(`{}`))
	s.Equal("UPDATE `person` CONTENT {} WHERE @rid = :rid", u.Command)
	s.Equal(map[string]any{"rid": "#1:2"}, u.Parameters)
	s.Equal("SELECT count(*) AS count FROM `person`", CountStatement("person").Command)
}

func (s *OSQLTestSuite) TestValidRID() {
	s.True(ValidRID("#12:3"))
	s.True(ValidRID("#-1:-1"))
	s.False(ValidRID("12:3"))
	s.False(ValidRID("#1:1; DELETE FROM x"))
}

func TestOSQLTestSuite(t *testing.T) {
	suite.Run(t, new(OSQLTestSuite))
}

type command struct {
	Path       string
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters"`
	User       string
}

type ManagerTestSuite struct {
	suite.Suite
	ctx      context.Context
	srv      *httptest.Server
	m        *Manager
	commands []command
	status   int
	response string
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.commands = nil
	s.status = http.StatusOK
	s.response = `{"result":[]}`
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c command
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &c)
		c.Path = r.URL.Path
		c.User, _, _ = r.BasicAuth()
		s.commands = append(s.commands, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.status)
		_, _ = io.WriteString(w, s.response)
	}))
	logger, _ := test.NewNullLogger()
	m, err := New(s.ctx, Config{URL: s.srv.URL, Database: "demo", Username: "root", Password: "pw"}, WithLogger(logger))
	s.Require().NoError(err)
	s.m = m
}

func (s *ManagerTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ManagerTestSuite) last() command {
	s.Require().NotEmpty(s.commands)
	return s.commands[len(s.commands)-1]
}

func (s *ManagerTestSuite) TestInsert() {
	s.response = `{"result":[{"@type":"d","@rid":"#12:0","@version":1,"@class":"person","name":"Ada"}]}`
	e, err := s.m.Insert(s.ctx, domain.NewEntity("person", domain.NewElement("name", "Ada")))
	s.NoError(err)
	s.Equal(domain.NewEntity("person", domain.NewElement("name", "Ada"), domain.NewElement("@rid", "#12:0")), e)

	c := s.last()
	s.Equal("/command/demo/sql", c.Path)
	s.Equal("root", c.User)
	s.Equal("INSERT INTO `person` CONTENT {\"name\":\"Ada\"}", c.Command)
}

func (s *ManagerTestSuite) TestSelect() {
	s.response = `{"result":[{"@type":"d","@rid":"#12:0","@version":1,"@class":"person","name":"Ada","tags":["a"]}]}`
	res, err := s.m.Select(s.ctx, domain.NewSelectQuery("person", domain.WithCondition(domain.Eq("name", "Ada"))))
	s.NoError(err)
	s.Equal([]*domain.Entity{domain.NewEntity("person",
		domain.NewElement("@rid", "#12:0"),
		domain.NewElement("name", "Ada"),
		domain.NewElement("tags", []any{"a"}),
	)}, res)
	s.Equal(map[string]any{"name": "Ada"}, s.last().Parameters)
}

func (s *ManagerTestSuite) TestUpdate() {
	s.response = `{"result":[{"count":0}]}`
	_, err := s.m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("@rid", "#12:0"), domain.NewElement("a", 1)))
	s.ErrorIs(err, domain.ErrNotFound)

	s.response = `{"result":[{"count":1}]}`
	_, err = s.m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("@rid", "#12:0"), domain.NewElement("a", 1)))
	s.NoError(err)
	s.Equal(map[string]any{"rid": "#12:0"}, s.last().Parameters)

	_, err = s.m.Update(s.ctx, domain.NewEntity("person", domain.NewElement("@rid", "bad"), domain.NewElement("a", 1)))
	s.ErrorIs(err, domain.ErrMissingID)
}

func (s *ManagerTestSuite) TestCount() {
	s.response = `{"result":[{"count":7}]}`
	count, err := s.m.Count(s.ctx, "person")
	s.NoError(err)
	s.Equal(int64(7), count)
}

func (s *ManagerTestSuite) TestError() {
	s.status = http.StatusInternalServerError
	s.response = `{"errors":[{"content":"boom"}]}`
	_, err := s.m.Count(s.ctx, "person")
	var de *domain.ErrDriver
	s.Require().ErrorAs(err, &de)
	s.Equal(ErrResponse{Status: http.StatusInternalServerError, Body: s.response}, de.Err)
}

func (s *ManagerTestSuite) TestDeleteOnlyRID() {
	s.NoError(s.m.Delete(s.ctx, domain.NewDeleteQuery("person", domain.WithDeleteFields("@rid"))))
	s.Empty(s.commands)
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}
